package request

import (
	"time"

	"github.com/google/uuid"
)

type IssueTokenRequest struct {
	Kind           string    `json:"kind" binding:"required,oneof=reschedule share"`
	OrganizationID uuid.UUID `json:"organizationId" binding:"required"`
	ResourceType   string    `json:"resourceType" binding:"required"`
	ResourceID     uuid.UUID `json:"resourceId" binding:"required"`
}

type AssignTechnicianRequest struct {
	OrganizationID uuid.UUID `json:"organizationId" binding:"required"`
	TechnicianID   uuid.UUID `json:"technicianId" binding:"required"`
	AppointmentID  uuid.UUID `json:"appointmentId" binding:"required"`
	StartAt        time.Time `json:"startAt" binding:"required"`
	EndAt          time.Time `json:"endAt" binding:"required"`
}

type PublishEventRequest struct {
	Type           string         `json:"type" binding:"required"`
	OrganizationID uuid.UUID      `json:"organizationId" binding:"required"`
	AggregateType  string         `json:"aggregateType" binding:"required"`
	AggregateID    uuid.UUID      `json:"aggregateId" binding:"required"`
	Data           map[string]any `json:"data"`
}
