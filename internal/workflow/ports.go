package workflow

import (
	"context"

	"opshub/internal/domain/conversation"

	"github.com/google/uuid"
)

// MessageSender delivers outbound messages through the carrier. Send failures
// are returned to the job dispatcher, which owns the retry.
type MessageSender interface {
	SendSMS(ctx context.Context, orgID uuid.UUID, to, body string) error
	ReplyInConversation(ctx context.Context, orgID, conversationID uuid.UUID, body string) error
}

// ReplyComposer drafts the automated reply for a conversation nobody on the
// team has answered.
type ReplyComposer interface {
	Compose(ctx context.Context, conv *conversation.Conversation) (string, error)
}
