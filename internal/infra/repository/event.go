package repository

import (
	"context"

	"opshub/internal/domain/event"
	"opshub/internal/infra"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

const insertEventSQL = `
INSERT INTO domain_events (id, type, organization_id, aggregate_type, aggregate_id, data, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *EventRepository) Insert(ctx context.Context, ev event.Event) error {
	_, err := r.db.Exec(ctx, insertEventSQL,
		ev.ID, ev.Type, ev.OrganizationID, ev.AggregateType, ev.AggregateID, ev.Data, ev.OccurredAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert domain event", err)
	}
	return nil
}

// ListByAggregate returns the audit trail for one entity, oldest first.
func (r *EventRepository) ListByAggregate(ctx context.Context, orgID uuid.UUID, aggregateType string, aggregateID uuid.UUID, limit uint64) ([]event.Event, error) {
	query, args, err := psql.
		Select("id", "type", "organization_id", "aggregate_type", "aggregate_id", "data", "occurred_at").
		From("domain_events").
		Where(sq.Eq{"organization_id": orgID, "aggregate_type": aggregateType, "aggregate_id": aggregateID}).
		OrderBy("occurred_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build event query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list domain events", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.OrganizationID, &ev.AggregateType, &ev.AggregateID, &ev.Data, &ev.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan domain event", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read domain events", err)
	}
	return events, nil
}
