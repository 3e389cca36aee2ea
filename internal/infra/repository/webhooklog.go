package repository

import (
	"context"
	"time"

	"opshub/internal/domain/webhook"
	"opshub/internal/infra"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WebhookLogRepository struct {
	db DBTX
}

func NewWebhookLogRepository(db DBTX) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

const webhookLogColumns = `id, provider, event_type, external_id, payload, headers, status, resource_id, occurred_at, error, created_at, processed_at`

// InsertIfAbsent writes the log entry ahead of any side effect. The unique
// (provider, external_id) pair makes redelivery visible as a zero-row insert;
// the caller then short-circuits without reprocessing.
const insertWebhookLogSQL = `
INSERT INTO webhook_log (id, provider, event_type, external_id, payload, headers, status, resource_id, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 'received', $7, $8, $9)
ON CONFLICT (provider, external_id) DO NOTHING
`

func (r *WebhookLogRepository) InsertIfAbsent(ctx context.Context, entry *webhook.LogEntry) (inserted bool, err error) {
	tag, err := r.db.Exec(ctx, insertWebhookLogSQL,
		entry.ID, entry.Provider, entry.EventType, entry.ExternalID,
		entry.Payload, entry.Headers, entry.ResourceID, entry.OccurredAt, entry.CreatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert webhook log entry", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WebhookLogRepository) FindByProviderExternalID(ctx context.Context, provider, externalID string) (*webhook.LogEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+webhookLogColumns+` FROM webhook_log WHERE provider = $1 AND external_id = $2`,
		provider, externalID,
	)
	entry, err := scanWebhookLogEntry(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find webhook log entry", err)
	}
	return entry, nil
}

func (r *WebhookLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*webhook.LogEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+webhookLogColumns+` FROM webhook_log WHERE id = $1`, id)
	entry, err := scanWebhookLogEntry(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find webhook log entry", err)
	}
	return entry, nil
}

const finalizeWebhookLogSQL = `
UPDATE webhook_log SET status = $2, error = $3, processed_at = $4
WHERE id = $1 AND status = 'received'
`

// finalize moves a received entry to its terminal status exactly once.
func (r *WebhookLogRepository) finalize(ctx context.Context, id uuid.UUID, status webhook.Status, errMsg *string, now time.Time) error {
	tag, err := r.db.Exec(ctx, finalizeWebhookLogSQL, id, status, errMsg, now)
	if err != nil {
		return infra.WrapRepoErr("failed to finalize webhook log entry", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "webhook log entry already finalized", nil)
	}
	return nil
}

func (r *WebhookLogRepository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.finalize(ctx, id, webhook.StatusProcessed, nil, now)
}

func (r *WebhookLogRepository) MarkIgnored(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.finalize(ctx, id, webhook.StatusIgnored, nil, now)
}

func (r *WebhookLogRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error {
	return r.finalize(ctx, id, webhook.StatusFailed, &errMsg, now)
}

const reopenWebhookLogSQL = `
UPDATE webhook_log SET status = 'received', error = NULL, processed_at = NULL
WHERE id = $1 AND status = 'failed'
`

// Reopen re-arms a failed entry so a provider redelivery can reprocess it.
// Only failed entries qualify; processed and ignored stay terminal.
func (r *WebhookLogRepository) Reopen(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, reopenWebhookLogSQL, id)
	if err != nil {
		return infra.WrapRepoErr("failed to reopen webhook log entry", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "webhook log entry is not failed", nil)
	}
	return nil
}

// LatestProcessedOccurredAt backs the ordering guard: the newest
// provider-assigned timestamp already applied for a mutable resource.
const latestProcessedSQL = `
SELECT max(occurred_at) FROM webhook_log
WHERE provider = $1 AND resource_id = $2 AND status = 'processed'
`

func (r *WebhookLogRepository) LatestProcessedOccurredAt(ctx context.Context, provider, resourceID string) (*time.Time, error) {
	var latest *time.Time
	if err := r.db.QueryRow(ctx, latestProcessedSQL, provider, resourceID).Scan(&latest); err != nil {
		return nil, infra.WrapRepoErr("failed to read latest processed notification", err)
	}
	return latest, nil
}

// ListStuck returns entries still in received older than the cutoff, for the
// reconciliation pass after a crash mid-processing.
func (r *WebhookLogRepository) ListStuck(ctx context.Context, cutoff time.Time, limit uint64) ([]*webhook.LogEntry, error) {
	query, args, err := psql.
		Select("id", "provider", "event_type", "external_id", "payload", "headers",
			"status", "resource_id", "occurred_at", "error", "created_at", "processed_at").
		From("webhook_log").
		Where(sq.Eq{"status": webhook.StatusReceived}).
		Where(sq.Lt{"created_at": cutoff}).
		OrderBy("created_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build webhook log query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list stuck webhook log entries", err)
	}
	defer rows.Close()

	var entries []*webhook.LogEntry
	for rows.Next() {
		entry, err := scanWebhookLogEntry(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan webhook log entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read webhook log entries", err)
	}
	return entries, nil
}

func scanWebhookLogEntry(row pgx.Row) (*webhook.LogEntry, error) {
	var entry webhook.LogEntry
	err := row.Scan(
		&entry.ID, &entry.Provider, &entry.EventType, &entry.ExternalID,
		&entry.Payload, &entry.Headers, &entry.Status, &entry.ResourceID,
		&entry.OccurredAt, &entry.Error, &entry.CreatedAt, &entry.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
