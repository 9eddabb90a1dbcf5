package service

import (
	"context"
	"errors"
	"time"

	"leadline_backend/internal/events"
	"leadline_backend/internal/leads/domain"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/internal/leads/transport"
	"leadline_backend/platform/apperr"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"

	"github.com/google/uuid"
)

const defaultSource = "landing_page"

// escalationStartTimeout bounds the detached escalation kickoff so a hung
// collaborator cannot pin a goroutine forever.
const escalationStartTimeout = 30 * time.Second

// Escalator opens the claim window for a freshly created lead. Implemented by
// the escalation engine; injected as an interface to avoid a module cycle.
type Escalator interface {
	Start(ctx context.Context, leadID uuid.UUID) error
}

type Service struct {
	repo      *repository.Repository
	bus       events.Bus
	escalator Escalator
	log       *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetEscalator wires the escalation engine (set by the composition root).
func (s *Service) SetEscalator(escalator Escalator) {
	s.escalator = escalator
}

// Create persists the lead and acknowledges immediately. The escalation
// kickoff runs detached: the intake response never waits on token issuance,
// notification fan-out, or any other collaborator.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return transport.LeadResponse{}, apperr.Validation("invalid tenant id")
	}

	source := req.Source
	if source == "" {
		source = defaultSource
	}

	params := repository.CreateLeadParams{
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    phone.NormalizeE164(req.Phone),
		Source:   source,
	}
	if req.Email != "" {
		params.Email = &req.Email
	}
	if req.Address != "" {
		params.Address = &req.Address
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if err := s.repo.AppendEvent(ctx, lead.TenantID, lead.ID, "lead_created", map[string]any{
		"source": lead.Source,
		"phone":  lead.Phone,
	}); err != nil {
		s.log.DatabaseError("append lead_created event", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Source:    lead.Source,
	})

	s.startEscalationDetached(lead.ID)

	return toLeadResponse(lead), nil
}

// startEscalationDetached runs the escalation kickoff on its own goroutine
// with its own error boundary. Failures are logged, never surfaced to the
// intake caller.
func (s *Service) startEscalationDetached(leadID uuid.UUID) {
	if s.escalator == nil {
		s.log.Warn("escalator not configured; lead stays in NEW", "lead_id", leadID)
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("escalation kickoff panicked", "lead_id", leadID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), escalationStartTimeout)
		defer cancel()

		if err := s.escalator.Start(ctx, leadID); err != nil {
			s.log.Error("escalation kickoff failed", "lead_id", leadID, "error", err)
		}
	}()
}

func (s *Service) Get(ctx context.Context, leadID, tenantID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByIDForTenant(ctx, leadID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, statusFilter string, limit, offset int) ([]transport.LeadResponse, error) {
	var status *domain.LeadStatus
	if statusFilter != "" {
		candidate := domain.LeadStatus(statusFilter)
		if !candidate.IsValid() {
			return nil, apperr.Validation("unknown status filter")
		}
		status = &candidate
	}

	leads, err := s.repo.List(ctx, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toLeadResponse(lead))
	}
	return responses, nil
}

// MarkDead terminates a lead by operator action.
func (s *Service) MarkDead(ctx context.Context, leadID, tenantID uuid.UUID) error {
	ok, err := s.repo.MarkDead(ctx, leadID, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("lead cannot be marked dead in its current status")
	}

	if err := s.repo.AppendEvent(ctx, tenantID, leadID, "lead_marked_dead", nil); err != nil {
		s.log.DatabaseError("append lead_marked_dead event", err)
	}
	return nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:             lead.ID,
		TenantID:       lead.TenantID,
		Name:           lead.Name,
		Phone:          lead.Phone,
		Source:         lead.Source,
		Status:         string(lead.Status),
		ClaimExpiresAt: lead.ClaimExpiresAt,
		ClaimedAt:      lead.ClaimedAt,
		CreatedAt:      lead.CreatedAt,
	}
	if lead.Email != nil {
		resp.Email = *lead.Email
	}
	if lead.Address != nil {
		resp.Address = *lead.Address
	}
	if lead.ClaimedBy != nil {
		resp.ClaimedBy = string(*lead.ClaimedBy)
	}
	if lead.CallOutcome != nil {
		resp.CallOutcome = *lead.CallOutcome
	}
	if lead.CallDurationSeconds != nil {
		resp.CallDuration = *lead.CallDurationSeconds
	}
	resp.AppointmentTime = lead.AppointmentTime
	return resp
}
