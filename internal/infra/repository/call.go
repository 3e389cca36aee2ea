package repository

import (
	"context"
	"time"

	"opshub/internal/domain/call"
	"opshub/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CallRepository struct {
	db DBTX
}

func NewCallRepository(db DBTX) *CallRepository {
	return &CallRepository{db: db}
}

const callColumns = `id, organization_id, from_number, to_number, status, connected_at, text_back_sent_at, created_at, updated_at`

const upsertCallSQL = `
INSERT INTO calls (id, organization_id, from_number, to_number, status, connected_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    connected_at = COALESCE(calls.connected_at, EXCLUDED.connected_at),
    updated_at = EXCLUDED.updated_at
`

// Upsert applies the carrier's latest view of the call. connected_at is
// sticky: once set it is never cleared by a later status notification.
func (r *CallRepository) Upsert(ctx context.Context, c *call.Call) error {
	_, err := r.db.Exec(ctx, upsertCallSQL,
		c.ID, c.OrganizationID, c.FromNumber, c.ToNumber, c.Status, c.ConnectedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert call", err)
	}
	return nil
}

func (r *CallRepository) FindByID(ctx context.Context, id uuid.UUID) (*call.Call, error) {
	row := r.db.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	c, err := scanCall(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find call", err)
	}
	return c, nil
}

// MarkTextBackSent is conditional on the marker still being null, so two
// racing send paths cannot both claim the send.
const markTextBackSentSQL = `
UPDATE calls SET text_back_sent_at = $2, updated_at = $2
WHERE id = $1 AND text_back_sent_at IS NULL
`

func (r *CallRepository) MarkTextBackSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, markTextBackSentSQL, id, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark text-back sent", err)
	}
	return tag.RowsAffected() == 1, nil
}

const markConnectedSQL = `
UPDATE calls SET status = 'connected', connected_at = COALESCE(connected_at, $2), updated_at = $2
WHERE id = $1
`

func (r *CallRepository) MarkConnected(ctx context.Context, id uuid.UUID, now time.Time) error {
	if _, err := r.db.Exec(ctx, markConnectedSQL, id, now); err != nil {
		return infra.WrapRepoErr("failed to mark call connected", err)
	}
	return nil
}

func scanCall(row pgx.Row) (*call.Call, error) {
	var c call.Call
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.FromNumber, &c.ToNumber, &c.Status,
		&c.ConnectedAt, &c.TextBackSentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
