// Package sender holds outbound delivery adapters. The carrier integration is
// environment-specific; this stub logs instead of sending so every workflow
// runs end to end in development and tests.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"opshub/internal/domain/conversation"

	"github.com/google/uuid"
)

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendSMS(ctx context.Context, orgID uuid.UUID, to, body string) error {
	s.logger.Info("outbound sms",
		"organization_id", orgID,
		"to", to,
		"body", body)
	return nil
}

func (s *LogSender) ReplyInConversation(ctx context.Context, orgID, conversationID uuid.UUID, body string) error {
	s.logger.Info("outbound conversation reply",
		"organization_id", orgID,
		"conversation_id", conversationID,
		"body", body)
	return nil
}

// TemplateComposer drafts replies from a fixed template. It stands in for the
// model-backed composer until that integration lands.
type TemplateComposer struct{}

func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

func (c *TemplateComposer) Compose(ctx context.Context, conv *conversation.Conversation) (string, error) {
	return fmt.Sprintf(
		"Thanks for reaching out! Our team is away from the desk right now, but we've seen your message and will reply shortly. (ref %s)",
		conv.ID,
	), nil
}
