package notification

import (
	"context"
	"fmt"

	"leadline_backend/internal/events"
	tenantrepo "leadline_backend/internal/tenants/repository"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantReader loads tenant configuration for alert routing.
type TenantReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (tenantrepo.Tenant, error)
}

// AlertEmailSender delivers an operational alert email. Implemented by the
// email sender; nil when SMTP is not configured.
type AlertEmailSender interface {
	SendAlert(ctx context.Context, to, subject, body string) error
}

// Alerts subscribes to escalation events that warrant a heads-up to the
// tenant owner, currently just failed AI call placement.
type Alerts struct {
	tenants TenantReader
	email   AlertEmailSender
	log     *logger.Logger
}

// NewAlerts creates the alert subscriber.
func NewAlerts(tenants TenantReader, email AlertEmailSender, log *logger.Logger) *Alerts {
	return &Alerts{tenants: tenants, email: email, log: log}
}

// RegisterHandlers subscribes the alert handlers on the event bus.
func (a *Alerts) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AICallFailed{}.EventName(), events.HandlerFunc(a.handleAICallFailed))
}

func (a *Alerts) handleAICallFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AICallFailed)
	if !ok {
		return nil
	}

	if a.email == nil {
		return nil
	}

	tenant, err := a.tenants.GetByID(ctx, e.TenantID)
	if err != nil {
		return err
	}
	if tenant.OwnerEmail == "" {
		return nil
	}

	subject := "Lead follow-up needs attention"
	body := fmt.Sprintf(
		"The automated follow-up call for lead %s could not be placed (%s). "+
			"Nobody claimed this lead in time, so please reach out to them directly.",
		e.LeadID, e.Reason,
	)

	if err := a.email.SendAlert(ctx, tenant.OwnerEmail, subject, body); err != nil {
		a.log.CollaboratorError("email", "send ai-call-failed alert", err)
	}
	return nil
}
