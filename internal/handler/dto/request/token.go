package request

import (
	"time"

	"github.com/google/uuid"
)

// RedeemRescheduleRequest is the action body for redeeming a reschedule
// token. The appointment is identified by the token, never by the body.
type RedeemRescheduleRequest struct {
	TechnicianID uuid.UUID `json:"technicianId" binding:"required"`
	StartAt      time.Time `json:"startAt" binding:"required"`
	EndAt        time.Time `json:"endAt" binding:"required"`
}
