package repository

import (
	"context"
	"errors"
	"time"

	"opshub/internal/domain/conversation"
	"opshub/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `id, organization_id, subject_id, channel, status, last_inbound_at, last_human_reply_at, created_at, updated_at`

// FindOpen returns the single open conversation for the tuple, or nil.
const findOpenConversationSQL = `
SELECT ` + conversationColumns + ` FROM conversations
WHERE organization_id = $1 AND subject_id = $2 AND channel = $3 AND status = 'open'
`

func (r *ConversationRepository) FindOpen(ctx context.Context, orgID, subjectID uuid.UUID, channel conversation.Channel) (*conversation.Conversation, error) {
	row := r.db.QueryRow(ctx, findOpenConversationSQL, orgID, subjectID, channel)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to find open conversation", err)
	}
	return c, nil
}

// InsertIfAbsent relies on the partial unique index over
// (organization_id, subject_id, channel) WHERE status = 'open' as the
// authoritative guard against concurrent creators. A conflicting insert
// affects zero rows and the caller re-selects the winner.
const insertConversationSQL = `
INSERT INTO conversations (id, organization_id, subject_id, channel, status, last_inbound_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'open', $5, $6, $6)
ON CONFLICT (organization_id, subject_id, channel) WHERE status = 'open' DO NOTHING
`

func (r *ConversationRepository) InsertIfAbsent(ctx context.Context, c *conversation.Conversation) (inserted bool, err error) {
	tag, err := r.db.Exec(ctx, insertConversationSQL,
		c.ID, c.OrganizationID, c.SubjectID, c.Channel, c.LastInboundAt, c.CreatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert conversation", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find conversation", err)
	}
	return c, nil
}

const recordInboundSQL = `
UPDATE conversations SET last_inbound_at = $2, updated_at = $2
WHERE id = $1 AND (last_inbound_at IS NULL OR last_inbound_at < $2)
`

// RecordInbound advances last_inbound_at monotonically; a late-arriving older
// message never rewinds it.
func (r *ConversationRepository) RecordInbound(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, recordInboundSQL, id, at); err != nil {
		return infra.WrapRepoErr("failed to record inbound message", err)
	}
	return nil
}

const recordHumanReplySQL = `
UPDATE conversations SET last_human_reply_at = $2, updated_at = $2
WHERE id = $1 AND (last_human_reply_at IS NULL OR last_human_reply_at < $2)
`

func (r *ConversationRepository) RecordHumanReply(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, recordHumanReplySQL, id, at); err != nil {
		return infra.WrapRepoErr("failed to record human reply", err)
	}
	return nil
}

const closeConversationSQL = `
UPDATE conversations SET status = 'closed', updated_at = $2
WHERE id = $1 AND status = 'open'
`

func (r *ConversationRepository) Close(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx, closeConversationSQL, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to close conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "conversation is not open", nil)
	}
	return nil
}

func scanConversation(row pgx.Row) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.SubjectID, &c.Channel, &c.Status,
		&c.LastInboundAt, &c.LastHumanReplyAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
