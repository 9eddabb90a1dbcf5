// Package transport defines the tenants module request/response DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// UpdateSettingsRequest updates a tenant's escalation configuration.
type UpdateSettingsRequest struct {
	Name                string   `json:"name" validate:"required,min=1,max=200"`
	OwnerEmail          string   `json:"ownerEmail" validate:"omitempty,email"`
	PrimaryPhone        string   `json:"primaryPhone" validate:"required,min=7,max=20"`
	SMSFromNumber       string   `json:"smsFromNumber" validate:"omitempty,min=7,max=20"`
	ClaimTimeoutSeconds int      `json:"claimTimeoutSeconds" validate:"required,min=30,max=300"`
	AIGreeting          string   `json:"aiGreeting" validate:"omitempty,max=1000"`
	AITone              string   `json:"aiTone" validate:"omitempty,max=50"`
	Services            []string `json:"services" validate:"max=50,dive,max=100"`
	CalendarLink        string   `json:"calendarLink" validate:"omitempty,url"`
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	OwnerEmail          string    `json:"ownerEmail,omitempty"`
	PrimaryPhone        string    `json:"primaryPhone"`
	SMSFromNumber       string    `json:"smsFromNumber,omitempty"`
	ClaimTimeoutSeconds int       `json:"claimTimeoutSeconds"`
	AIGreeting          string    `json:"aiGreeting,omitempty"`
	AITone              string    `json:"aiTone,omitempty"`
	Services            []string  `json:"services"`
	CalendarLink        string    `json:"calendarLink,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// MemberRequest creates or updates a team member.
type MemberRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
	NotifyOnLead bool   `json:"notifyOnLead"`
}

// MemberResponse is the API representation of a team member.
type MemberResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	NotifyOnLead bool      `json:"notifyOnLead"`
	CreatedAt    time.Time `json:"createdAt"`
}
