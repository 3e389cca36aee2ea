package repository

import (
	"context"
	"time"

	"opshub/internal/domain/token"
	"opshub/internal/infra"

	"github.com/jackc/pgx/v5"
)

type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, token, kind, organization_id, resource_type, resource_id, expires_at, used_at, view_count, max_views, created_at`

const insertTokenSQL = `
INSERT INTO access_tokens (id, token, kind, organization_id, resource_type, resource_id, expires_at, used_at, view_count, max_views, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (r *TokenRepository) Insert(ctx context.Context, t *token.AccessToken) error {
	_, err := r.db.Exec(ctx, insertTokenSQL,
		t.ID, t.Token, t.Kind, t.OrganizationID, t.ResourceType, t.ResourceID,
		t.ExpiresAt, t.UsedAt, t.ViewCount, t.MaxViews, t.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert access token", err)
	}
	return nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, opaque string) (*token.AccessToken, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE token = $1`, opaque)
	t, err := scanToken(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find access token", err)
	}
	return t, nil
}

// Consume marks the token used. The validity check lives in the WHERE clause,
// not in a prior read: of N concurrent redeemers exactly one affects a row.
// Callers seeing zero rows re-fetch to report consumed vs expired vs missing.
const consumeTokenSQL = `
UPDATE access_tokens SET used_at = $2
WHERE token = $1 AND used_at IS NULL AND expires_at > $2
`

func (r *TokenRepository) Consume(ctx context.Context, opaque string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, consumeTokenSQL, opaque, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to consume access token", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseUse is the compensating action when downstream work fails after a
// successful Consume. Token state and business effect are not covered by one
// cross-store transaction, so the caller reverts explicitly.
const releaseTokenSQL = `
UPDATE access_tokens SET used_at = NULL
WHERE token = $1 AND used_at IS NOT NULL
`

func (r *TokenRepository) ReleaseUse(ctx context.Context, opaque string) error {
	if _, err := r.db.Exec(ctx, releaseTokenSQL, opaque); err != nil {
		return infra.WrapRepoErr("failed to release access token", err)
	}
	return nil
}

// IncrementView is the bounded-use variant of Consume: the counter guard is
// evaluated by the store, never read-then-written.
const incrementViewSQL = `
UPDATE access_tokens SET view_count = view_count + 1
WHERE token = $1 AND view_count < max_views AND expires_at > $2
`

func (r *TokenRepository) IncrementView(ctx context.Context, opaque string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, incrementViewSQL, opaque, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to increment token views", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM access_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired tokens", err)
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*token.AccessToken, error) {
	var t token.AccessToken
	err := row.Scan(
		&t.ID, &t.Token, &t.Kind, &t.OrganizationID, &t.ResourceType, &t.ResourceID,
		&t.ExpiresAt, &t.UsedAt, &t.ViewCount, &t.MaxViews, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
