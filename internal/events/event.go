// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created via intake.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Source   string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// =============================================================================
// Escalation Domain Events
// =============================================================================

// EscalationStarted is published when the claim window for a lead opens.
type EscalationStarted struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Recipients int       `json:"recipients"`
}

func (e EscalationStarted) EventName() string { return "escalation.started" }

// LeadClaimed is published when a human claims a lead before the window lapses.
type LeadClaimed struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e LeadClaimed) EventName() string { return "escalation.lead.claimed" }

// ClaimTimedOut is published when a claim window lapses and the lead is handed
// to the AI caller.
type ClaimTimedOut struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e ClaimTimedOut) EventName() string { return "escalation.claim.timed_out" }

// AICallFailed is published when the outbound voice-call initiator returns an
// error. The lead stays in AI_CALLING; subscribers alert the tenant.
type AICallFailed struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Reason   string    `json:"reason"`
}

func (e AICallFailed) EventName() string { return "escalation.ai_call.failed" }

// AICallCompleted is published when a voice-call completion webhook has been
// reconciled into lead state.
type AICallCompleted struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	CallID   string    `json:"callId"`
	Outcome  string    `json:"outcome"`
}

func (e AICallCompleted) EventName() string { return "escalation.ai_call.completed" }
