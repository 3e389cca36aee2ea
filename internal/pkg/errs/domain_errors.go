package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Token errors
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenConsumed  = errors.New("token already consumed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenExhausted = errors.New("token view limit reached")

	// Webhook ingestion errors
	ErrDuplicateDelivery = errors.New("duplicate webhook delivery")
	ErrStaleNotification = errors.New("stale webhook notification")
	ErrBadSignature      = errors.New("webhook signature verification failed")
	ErrUnknownProvider   = errors.New("unknown webhook provider")
	ErrMalformedPayload  = errors.New("webhook payload could not be translated")

	// Scheduling errors
	ErrAssignmentConflict = errors.New("assignment overlaps an existing interval")
	ErrInvalidInterval    = errors.New("invalid time interval")

	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")

	// Job queue errors
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotPending     = errors.New("job is not pending")
	ErrHandlerRegistered = errors.New("job handler already registered")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
