package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"opshub/internal/domain/conversation"
	"opshub/internal/domain/event"
	"opshub/internal/domain/job"
	"opshub/internal/events"
	"opshub/internal/jobs"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	aiGateSubscriber      = "ai_reply_gate"
	aiGateHumanSubscriber = "ai_reply_gate_human"
)

type aiReplyPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ReceivedAt     time.Time `json:"receivedAt"`
}

// AIGateWorkflow drafts an automated reply when nobody on the team answers an
// inbound message within the debounce window. Each new inbound message resets
// the window by cancelling the pending job and enqueueing a fresh one.
type AIGateWorkflow struct {
	queue    *jobs.Queue
	uow      shared.UnitOfWork
	composer ReplyComposer
	sender   MessageSender
	bus      *events.Bus
	clock    clock.Clock
	cfg      config.AIReplyConfig
	logger   *slog.Logger
}

func NewAIGateWorkflow(
	queue *jobs.Queue,
	uow shared.UnitOfWork,
	composer ReplyComposer,
	sender MessageSender,
	bus *events.Bus,
	clk clock.Clock,
	cfg config.AIReplyConfig,
	logger *slog.Logger,
) *AIGateWorkflow {
	return &AIGateWorkflow{
		queue:    queue,
		uow:      uow,
		composer: composer,
		sender:   sender,
		bus:      bus,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

func (w *AIGateWorkflow) Register(bus *events.Bus, registry *jobs.Registry) error {
	if err := registry.Register(job.TypeAIReply, w.HandleJob); err != nil {
		return err
	}
	bus.Subscribe(event.TypeConversationMessageReceived, aiGateSubscriber, w.onMessageReceived)
	bus.Subscribe(event.TypeMessageSent, aiGateHumanSubscriber, w.onMessageSent)
	return nil
}

func (w *AIGateWorkflow) onMessageReceived(ctx context.Context, ev event.Event) error {
	if !w.cfg.Enabled {
		return nil
	}

	var data struct {
		ConversationID uuid.UUID `json:"conversationId"`
		ReceivedAt     time.Time `json:"receivedAt"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return errs.Wrap(err, "malformed message_received event data")
	}

	// Debounce: only the job for the newest message should fire.
	if _, err := w.queue.CancelPending(ctx, job.TypeAIReply, data.ConversationID); err != nil {
		return err
	}

	payload, err := json.Marshal(aiReplyPayload{
		ConversationID: data.ConversationID,
		OrganizationID: ev.OrganizationID,
		ReceivedAt:     data.ReceivedAt,
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode ai reply payload")
	}

	conversationID := data.ConversationID
	_, err = w.queue.Enqueue(ctx, job.NewJob{
		Type:           job.TypeAIReply,
		OrganizationID: ev.OrganizationID,
		AggregateID:    &conversationID,
		Payload:        payload,
		Delay:          w.cfg.Debounce,
	})
	return err
}

// onMessageSent withdraws the pending draft when a human (or another
// workflow) answers inside the window.
func (w *AIGateWorkflow) onMessageSent(ctx context.Context, ev event.Event) error {
	if ev.AggregateType != event.AggregateConversation {
		return nil
	}
	_, err := w.queue.CancelPending(ctx, job.TypeAIReply, ev.AggregateID)
	return err
}

func (w *AIGateWorkflow) HandleJob(ctx context.Context, j *job.Job) error {
	var p aiReplyPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return errs.Wrap(err, "malformed ai reply payload")
	}

	conv, err := w.uow.Repos().Conversations().FindByID(ctx, p.ConversationID)
	if err != nil {
		return err
	}

	if conv.Status == conversation.StatusClosed {
		w.logger.Info("skipping ai reply, conversation closed", "conversation_id", conv.ID)
		return nil
	}
	// A human answered after the message this job was armed for.
	if conv.LastHumanReplyAt != nil && conv.LastHumanReplyAt.After(p.ReceivedAt) {
		w.logger.Info("skipping ai reply, human already replied", "conversation_id", conv.ID)
		return nil
	}
	// A newer inbound message re-armed the debounce; its job owns the reply.
	if conv.LastInboundAt != nil && conv.LastInboundAt.After(p.ReceivedAt) {
		w.logger.Info("skipping ai reply, newer message pending", "conversation_id", conv.ID)
		return nil
	}

	body, err := w.composer.Compose(ctx, conv)
	if err != nil {
		return errs.Wrap(err, "failed to compose ai reply")
	}
	if err := w.sender.ReplyInConversation(ctx, p.OrganizationID, conv.ID, body); err != nil {
		return errs.Wrap(err, "failed to send ai reply")
	}

	data, _ := json.Marshal(map[string]any{
		"conversationId": conv.ID,
		"purpose":        "ai_reply",
	})
	_, err = w.bus.Publish(ctx, event.New(event.TypeMessageSent, p.OrganizationID, event.AggregateConversation, conv.ID, data, w.clock.Now()))
	return err
}
