package response

import (
	"encoding/json"
	"time"

	"opshub/internal/domain/job"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	AggregateID    *uuid.UUID      `json:"aggregateId,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	Status         string          `json:"status"`
	Attempts       int32           `json:"attempts"`
	MaxAttempts    int32           `json:"maxAttempts"`
	AvailableAt    time.Time       `json:"availableAt"`
	LastError      *string         `json:"lastError,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func FromJob(j *job.Job) *JobResponse {
	return &JobResponse{
		ID:             j.ID,
		Type:           j.Type,
		OrganizationID: j.OrganizationID,
		AggregateID:    j.AggregateID,
		Payload:        j.Payload,
		Status:         string(j.Status),
		Attempts:       j.Attempts,
		MaxAttempts:    j.MaxAttempts,
		AvailableAt:    j.AvailableAt,
		LastError:      j.LastError,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func FromJobs(jobs []*job.Job) []*JobResponse {
	out := make([]*JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = FromJob(j)
	}
	return out
}
