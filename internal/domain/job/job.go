package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusRunning         Status = "running"
	StatusSucceeded       Status = "succeeded"
	StatusFailedRetryable Status = "failed_retryable"
	StatusFailedTerminal  Status = "failed_terminal"
	StatusCancelled       Status = "cancelled"
)

// Job is a unit of deferred, durable work. The payload carries identifiers,
// not decisions: handlers re-fetch current state at execution time.
type Job struct {
	ID             uuid.UUID
	Type           string
	OrganizationID uuid.UUID
	AggregateID    *uuid.UUID
	Payload        json.RawMessage
	Status         Status
	Attempts       int32
	MaxAttempts    int32
	AvailableAt    time.Time
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewJob is the enqueue request. Delay is the minimum wait before the job
// becomes eligible; the dispatch poll interval adds bounded extra latency.
type NewJob struct {
	Type           string
	OrganizationID uuid.UUID
	AggregateID    *uuid.UUID
	Payload        json.RawMessage
	Delay          time.Duration
}

func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailedTerminal || s == StatusCancelled
}
