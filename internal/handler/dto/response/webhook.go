package response

import (
	"time"

	"opshub/internal/domain/schedule"
	"opshub/internal/usecase/commands"

	"github.com/google/uuid"
)

type WebhookIngestResponse struct {
	LogID   uuid.UUID `json:"logId"`
	Outcome string    `json:"outcome"`
}

func FromIngestResult(r *commands.IngestResult) *WebhookIngestResponse {
	return &WebhookIngestResponse{
		LogID:   r.LogID,
		Outcome: string(r.Outcome),
	}
}

type AssignmentResponse struct {
	ID            uuid.UUID `json:"id"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	Status        string    `json:"status"`
}

func FromAssignment(a *schedule.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:            a.ID,
		TechnicianID:  a.TechnicianID,
		AppointmentID: a.AppointmentID,
		StartAt:       a.StartAt,
		EndAt:         a.EndAt,
		Status:        string(a.Status),
	}
}
