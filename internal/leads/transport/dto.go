// Package transport defines the leads module request/response DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest is the intake payload, from a landing page form or a
// manual dashboard entry.
type CreateLeadRequest struct {
	TenantID string `json:"tenantId" validate:"required,uuid4"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address" validate:"omitempty,max=500"`
	Source   string `json:"source" validate:"omitempty,max=50"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenantId"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email,omitempty"`
	Address         string     `json:"address,omitempty"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	ClaimExpiresAt  *time.Time `json:"claimExpiresAt,omitempty"`
	ClaimedBy       string     `json:"claimedBy,omitempty"`
	ClaimedAt       *time.Time `json:"claimedAt,omitempty"`
	CallOutcome     string     `json:"callOutcome,omitempty"`
	CallDuration    int        `json:"callDurationSeconds,omitempty"`
	AppointmentTime *time.Time `json:"appointmentTime,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
