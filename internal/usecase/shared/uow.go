package shared

import (
	"context"
	"time"

	"opshub/internal/domain/call"
	"opshub/internal/domain/conversation"
	"opshub/internal/domain/event"
	"opshub/internal/domain/job"
	"opshub/internal/domain/schedule"
	"opshub/internal/domain/token"
	"opshub/internal/domain/webhook"
	"opshub/internal/infra/repository"

	"github.com/google/uuid"
)

// UnitOfWork runs repository operations inside store transactions. All
// cross-worker coordination goes through conditional updates in these
// repositories; there are no in-process locks shared between the HTTP
// process and queue workers.
type UnitOfWork interface {
	// Within: read-committed transaction with retry on serialization failure
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinSerializable: for find-or-create flows where two transactions must
	// not both observe "none found" and both insert
	WithinSerializable(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Repos: non-transactional access for single conditional statements
	Repos() Tx
}

type Tx interface {
	Events() EventRepository
	Jobs() JobRepository
	WebhookLog() WebhookLogRepository
	Tokens() TokenRepository
	Conversations() ConversationRepository
	Assignments() AssignmentRepository
	Calls() CallRepository
	Appointments() AppointmentRepository
}

type EventRepository interface {
	Insert(ctx context.Context, ev event.Event) error
	ListByAggregate(ctx context.Context, orgID uuid.UUID, aggregateType string, aggregateID uuid.UUID, limit uint64) ([]event.Event, error)
}

type JobRepository interface {
	Insert(ctx context.Context, j *job.Job) error
	LeaseNext(ctx context.Context, now time.Time) (*job.Job, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailedRetryable(ctx context.Context, id uuid.UUID, errMsg string, availableAt, now time.Time) error
	MarkFailedTerminal(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error
	CancelPending(ctx context.Context, jobType string, aggregateID uuid.UUID, now time.Time) (int64, error)
	RetryTerminal(ctx context.Context, id uuid.UUID, now time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error)
	List(ctx context.Context, filter repository.JobFilter) ([]*job.Job, error)
}

type WebhookLogRepository interface {
	InsertIfAbsent(ctx context.Context, entry *webhook.LogEntry) (bool, error)
	FindByProviderExternalID(ctx context.Context, provider, externalID string) (*webhook.LogEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*webhook.LogEntry, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkIgnored(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error
	Reopen(ctx context.Context, id uuid.UUID) error
	LatestProcessedOccurredAt(ctx context.Context, provider, resourceID string) (*time.Time, error)
	ListStuck(ctx context.Context, cutoff time.Time, limit uint64) ([]*webhook.LogEntry, error)
}

type TokenRepository interface {
	Insert(ctx context.Context, t *token.AccessToken) error
	FindByToken(ctx context.Context, opaque string) (*token.AccessToken, error)
	Consume(ctx context.Context, opaque string, now time.Time) (bool, error)
	ReleaseUse(ctx context.Context, opaque string) error
	IncrementView(ctx context.Context, opaque string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ConversationRepository interface {
	FindOpen(ctx context.Context, orgID, subjectID uuid.UUID, channel conversation.Channel) (*conversation.Conversation, error)
	InsertIfAbsent(ctx context.Context, c *conversation.Conversation) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)
	RecordInbound(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordHumanReply(ctx context.Context, id uuid.UUID, at time.Time) error
	Close(ctx context.Context, id uuid.UUID, now time.Time) error
}

type AssignmentRepository interface {
	Insert(ctx context.Context, a *schedule.Assignment) error
	HasOverlap(ctx context.Context, technicianID uuid.UUID, startAt, endAt time.Time) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*schedule.Assignment, error)
}

type CallRepository interface {
	Upsert(ctx context.Context, c *call.Call) error
	FindByID(ctx context.Context, id uuid.UUID) (*call.Call, error)
	MarkTextBackSent(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkConnected(ctx context.Context, id uuid.UUID, now time.Time) error
}

type AppointmentRepository interface {
	ReviewState(ctx context.Context, appointmentID uuid.UUID) (*repository.ReviewState, error)
	MarkReviewRequestSent(ctx context.Context, appointmentID uuid.UUID, now time.Time) (bool, error)
	MarkReviewed(ctx context.Context, appointmentID uuid.UUID, now time.Time) error
}
