// Package escalation owns the claim-or-call lifecycle of a lead: opening the
// claim window, resolving claim links, and handing timed-out leads to the
// outbound AI caller.
package escalation

import (
	"context"
	"errors"
	"time"

	"leadline_backend/internal/escalation/cache"
	"leadline_backend/internal/escalation/token"
	"leadline_backend/internal/events"
	leadrepo "leadline_backend/internal/leads/repository"
	"leadline_backend/internal/notification"
	tenantrepo "leadline_backend/internal/tenants/repository"
	"leadline_backend/platform/apperr"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	minClaimWindow = 30 * time.Second
	maxClaimWindow = 300 * time.Second
)

// LeadStore is the lead persistence the engine depends on.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	BeginClaimWindow(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) (bool, error)
	MarkClaimed(ctx context.Context, id uuid.UUID) (bool, error)
	MarkEscalated(ctx context.Context, id uuid.UUID) (bool, error)
	SetExternalCallID(ctx context.Context, id uuid.UUID, callID string) error
	AppendEvent(ctx context.Context, tenantID, leadID uuid.UUID, eventType string, payload map[string]any) error
}

// TenantStore is the tenant persistence the engine depends on.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (tenantrepo.Tenant, error)
	ListNotifiableMembers(ctx context.Context, tenantID uuid.UUID) ([]tenantrepo.TeamMember, error)
}

// Notifier broadcasts the claim SMS to team members.
type Notifier interface {
	Broadcast(ctx context.Context, recipients []string, from, body string) int
}

// CallContext carries everything the voice provider needs to run the call.
type CallContext struct {
	LeadName     string
	LeadPhone    string
	TenantName   string
	FromNumber   string
	Greeting     string
	Tone         string
	Services     []string
	CalendarLink string
}

// CallInitiator places the outbound AI call. Implementations return the
// provider's call id on success.
type CallInitiator interface {
	Initiate(ctx context.Context, callCtx CallContext) (string, error)
}

// Engine drives a lead through the claim window and, on timeout, into the
// AI call. All status transitions go through conditional updates in the
// lead store, so concurrent claims, sweeps and operator actions resolve to
// exactly one winner.
type Engine struct {
	leads          LeadStore
	tenants        TenantStore
	codec          *token.Codec
	cache          *cache.Cache
	notifier       Notifier
	voice          CallInitiator
	bus            events.Bus
	claimBaseURL   string
	defaultTimeout time.Duration
	log            *logger.Logger
}

// NewEngine wires the escalation engine.
func NewEngine(
	leads LeadStore,
	tenants TenantStore,
	codec *token.Codec,
	timeoutCache *cache.Cache,
	notifier Notifier,
	voice CallInitiator,
	bus events.Bus,
	claimBaseURL string,
	defaultTimeout time.Duration,
	log *logger.Logger,
) *Engine {
	return &Engine{
		leads:          leads,
		tenants:        tenants,
		codec:          codec,
		cache:          timeoutCache,
		notifier:       notifier,
		voice:          voice,
		bus:            bus,
		claimBaseURL:   claimBaseURL,
		defaultTimeout: defaultTimeout,
		log:            log,
	}
}

// claimWindow resolves the tenant's configured window, clamped to sane bounds.
func (e *Engine) claimWindow(tenant tenantrepo.Tenant) time.Duration {
	window := time.Duration(tenant.ClaimTimeoutSeconds) * time.Second
	if window <= 0 {
		window = e.defaultTimeout
	}
	if window < minClaimWindow {
		window = minClaimWindow
	}
	if window > maxClaimWindow {
		window = maxClaimWindow
	}
	return window
}

// Start opens the claim window for a freshly created lead: it issues a signed
// claim token, flips the lead to SMS_SENT and broadcasts the claim link to
// every notifiable team member. Safe to call more than once; only the first
// call per lead does anything.
func (e *Engine) Start(ctx context.Context, leadID uuid.UUID) error {
	lead, err := e.leads.GetByID(ctx, leadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load lead for escalation", err)
	}

	tenant, err := e.tenants.GetByID(ctx, lead.TenantID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load tenant for escalation", err)
	}

	window := e.claimWindow(tenant)
	expiresAt := time.Now().Add(window)

	claimToken, err := e.codec.Issue(lead.ID, lead.TenantID, window)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "issue claim token", err)
	}

	ok, err := e.leads.BeginClaimWindow(ctx, lead.ID, claimToken, expiresAt)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "begin claim window", err)
	}
	if !ok {
		// Lead already moved past NEW, nothing to start.
		e.log.EscalationEvent("start_skipped", lead.ID.String())
		return nil
	}

	e.cache.Set(ctx, lead.ID, claimToken, window)

	recipients := e.collectRecipients(ctx, tenant)
	body := notification.BuildClaimMessage(notification.ClaimMessageParams{
		TenantName:  tenant.Name,
		LeadName:    lead.Name,
		LeadPhone:   lead.Phone,
		ClaimURL:    e.claimBaseURL + "/" + claimToken,
		ClaimWindow: window,
	})
	delivered := e.notifier.Broadcast(ctx, recipients, tenant.SMSFromNumber, body)

	if err := e.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "escalation_started", map[string]any{
		"claim_window_seconds": int(window.Seconds()),
		"recipients":           len(recipients),
		"delivered":            delivered,
	}); err != nil {
		e.log.DatabaseError("append escalation_started event", err)
	}

	e.bus.Publish(ctx, events.EscalationStarted{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		TenantID:   lead.TenantID,
		Recipients: len(recipients),
	})

	e.log.EscalationEvent("claim_window_opened", lead.ID.String(),
		"window", window.String(), "recipients", len(recipients), "delivered", delivered)
	return nil
}

// collectRecipients returns the phone numbers to notify, falling back to
// the tenant's primary phone when no team member opted in.
func (e *Engine) collectRecipients(ctx context.Context, tenant tenantrepo.Tenant) []string {
	members, err := e.tenants.ListNotifiableMembers(ctx, tenant.ID)
	if err != nil {
		e.log.DatabaseError("list notifiable members", err)
	}
	recipients := make([]string, 0, len(members)+1)
	for _, m := range members {
		recipients = append(recipients, m.Phone)
	}
	if len(recipients) == 0 && tenant.PrimaryPhone != "" {
		recipients = append(recipients, tenant.PrimaryPhone)
	}
	return recipients
}

// Claim resolves a claim link. The token is verified before any lookup; an
// expired link maps to Gone and any other token defect to Unauthorized, so
// callers cannot distinguish a forged token from a nonexistent one.
func (e *Engine) Claim(ctx context.Context, rawToken string) (leadrepo.Lead, error) {
	claim, err := e.codec.Verify(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return leadrepo.Lead{}, apperr.Gone("claim link expired")
		}
		return leadrepo.Lead{}, apperr.Unauthorized("invalid claim link")
	}

	lead, err := e.leads.GetByID(ctx, claim.LeadID)
	if err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			return leadrepo.Lead{}, apperr.Unauthorized("invalid claim link")
		}
		return leadrepo.Lead{}, apperr.Wrap(apperr.KindInternal, "load lead for claim", err)
	}
	if lead.TenantID != claim.TenantID {
		return leadrepo.Lead{}, apperr.Unauthorized("invalid claim link")
	}

	ok, err := e.leads.MarkClaimed(ctx, lead.ID)
	if err != nil {
		return leadrepo.Lead{}, apperr.Wrap(apperr.KindInternal, "mark lead claimed", err)
	}
	if !ok {
		return leadrepo.Lead{}, apperr.Conflict("lead already claimed or escalated")
	}

	e.cache.Delete(ctx, lead.ID)

	if err := e.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "lead_claimed", map[string]any{
		"claimed_by": "human",
	}); err != nil {
		e.log.DatabaseError("append lead_claimed event", err)
	}

	e.bus.Publish(ctx, events.LeadClaimed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
	})

	e.log.EscalationEvent("lead_claimed", lead.ID.String())

	lead, err = e.leads.GetByID(ctx, lead.ID)
	if err != nil {
		return leadrepo.Lead{}, apperr.Wrap(apperr.KindInternal, "reload claimed lead", err)
	}
	return lead, nil
}

// HandleTimeout moves a lead whose claim window lapsed into AI_CALLING and
// places the outbound call. Returns true when this invocation performed the
// transition; false means someone else already resolved the lead. A failed
// call placement is recorded and alerted but never returned as an error,
// the lead stays in AI_CALLING for operator follow-up.
func (e *Engine) HandleTimeout(ctx context.Context, leadID uuid.UUID) (bool, error) {
	ok, err := e.leads.MarkEscalated(ctx, leadID)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "mark lead escalated", err)
	}
	if !ok {
		return false, nil
	}

	e.cache.Delete(ctx, leadID)

	lead, err := e.leads.GetByID(ctx, leadID)
	if err != nil {
		return true, apperr.Wrap(apperr.KindInternal, "load escalated lead", err)
	}

	if err := e.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "claim_timeout", nil); err != nil {
		e.log.DatabaseError("append claim_timeout event", err)
	}
	e.bus.Publish(ctx, events.ClaimTimedOut{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
	})
	e.log.EscalationEvent("claim_timed_out", lead.ID.String())

	tenant, err := e.tenants.GetByID(ctx, lead.TenantID)
	if err != nil {
		e.recordCallFailure(ctx, lead, "tenant lookup failed: "+err.Error())
		return true, nil
	}

	callID, err := e.voice.Initiate(ctx, CallContext{
		LeadName:     lead.Name,
		LeadPhone:    lead.Phone,
		TenantName:   tenant.Name,
		FromNumber:   tenant.SMSFromNumber,
		Greeting:     tenant.AIGreeting,
		Tone:         tenant.AITone,
		Services:     tenant.Services,
		CalendarLink: tenant.CalendarLink,
	})
	if err != nil {
		e.recordCallFailure(ctx, lead, err.Error())
		return true, nil
	}

	if err := e.leads.SetExternalCallID(ctx, lead.ID, callID); err != nil {
		e.log.DatabaseError("store external call id", err)
	}
	if err := e.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "ai_call_placed", map[string]any{
		"call_id": callID,
	}); err != nil {
		e.log.DatabaseError("append ai_call_placed event", err)
	}
	e.log.EscalationEvent("ai_call_placed", lead.ID.String(), "call_id", callID)
	return true, nil
}

func (e *Engine) recordCallFailure(ctx context.Context, lead leadrepo.Lead, reason string) {
	if err := e.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "ai_call_failed", map[string]any{
		"reason": reason,
	}); err != nil {
		e.log.DatabaseError("append ai_call_failed event", err)
	}
	e.bus.Publish(ctx, events.AICallFailed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
		Reason:    reason,
	})
	e.log.EscalationEvent("ai_call_failed", lead.ID.String(), "reason", reason)
}
