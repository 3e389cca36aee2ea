package commands

import (
	"context"
	"time"

	"opshub/internal/domain/conversation"
	"opshub/internal/infra"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

type ConversationCommands interface {
	// FindOrCreate returns the single open conversation for the triple,
	// creating it when absent. The second return reports whether this call
	// created the row.
	FindOrCreate(ctx context.Context, orgID, subjectID uuid.UUID, channel conversation.Channel, inboundAt time.Time) (*conversation.Conversation, bool, error)
	RecordHumanReply(ctx context.Context, id uuid.UUID, at time.Time) error
	Close(ctx context.Context, id uuid.UUID) error
}

type conversationUseCaseImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewConversationUseCase(uow shared.UnitOfWork, clk clock.Clock) ConversationCommands {
	return &conversationUseCaseImpl{uow: uow, clock: clk}
}

// FindOrCreate must never yield two open conversations for the same
// (organization, subject, channel) even when two inbound messages race. The
// partial unique index on open rows is the authoritative guard; the insert
// here is ON CONFLICT DO NOTHING, and the loser of a race re-reads the
// winner's row.
func (u *conversationUseCaseImpl) FindOrCreate(ctx context.Context, orgID, subjectID uuid.UUID, channel conversation.Channel, inboundAt time.Time) (*conversation.Conversation, bool, error) {
	var (
		result  *conversation.Conversation
		created bool
	)

	err := u.uow.WithinSerializable(ctx, func(ctx context.Context, tx shared.Tx) error {
		existing, err := tx.Conversations().FindOpen(ctx, orgID, subjectID, channel)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.Conversations().RecordInbound(ctx, existing.ID, inboundAt); err != nil {
				return err
			}
			result, created = existing, false
			return nil
		}

		now := u.clock.Now()
		candidate := &conversation.Conversation{
			ID:             uuid.New(),
			OrganizationID: orgID,
			SubjectID:      subjectID,
			Channel:        channel,
			Status:         conversation.StatusOpen,
			LastInboundAt:  &inboundAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		inserted, err := tx.Conversations().InsertIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if inserted {
			result, created = candidate, true
			return nil
		}

		// Lost the race: the open row now exists, adopt it.
		winner, err := tx.Conversations().FindOpen(ctx, orgID, subjectID, channel)
		if err != nil {
			return err
		}
		if winner == nil {
			return errs.New("open conversation vanished after insert conflict")
		}
		if err := tx.Conversations().RecordInbound(ctx, winner.ID, inboundAt); err != nil {
			return err
		}
		result, created = winner, false
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (u *conversationUseCaseImpl) RecordHumanReply(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := u.uow.Repos().Conversations().RecordHumanReply(ctx, id, at)
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrConversationNotFound)
	}
	return err
}

func (u *conversationUseCaseImpl) Close(ctx context.Context, id uuid.UUID) error {
	err := u.uow.Repos().Conversations().Close(ctx, id, u.clock.Now())
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrConversationNotFound)
	}
	return err
}
