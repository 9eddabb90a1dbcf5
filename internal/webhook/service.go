// Package webhook reconciles asynchronous provider callbacks into lead
// state: voice-call completions and SMS delivery statuses.
package webhook

import (
	"context"
	"errors"
	"time"

	"leadline_backend/internal/events"
	leadrepo "leadline_backend/internal/leads/repository"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the lead persistence the webhook service depends on.
type LeadStore interface {
	GetByExternalCallID(ctx context.Context, callID string) (leadrepo.Lead, error)
	FindNewestByPhone(ctx context.Context, phone string) (leadrepo.Lead, error)
	RecordCallOutcome(ctx context.Context, params leadrepo.RecordCallOutcomeParams) error
	SetTranscriptObjectKey(ctx context.Context, id uuid.UUID, key string) error
	AppendEvent(ctx context.Context, tenantID, leadID uuid.UUID, eventType string, payload map[string]any) error
}

// TranscriptArchiver stores call transcripts in object storage. Nil-safe.
type TranscriptArchiver interface {
	StoreTranscript(ctx context.Context, tenantID, leadID uuid.UUID, callID, transcript string) (string, error)
}

type Service struct {
	leads   LeadStore
	archive TranscriptArchiver
	bus     events.Bus
	log     *logger.Logger
}

func NewService(leads LeadStore, archive TranscriptArchiver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{leads: leads, archive: archive, bus: bus, log: log}
}

// VoiceCallEvent is the normalized voice-completion payload.
type VoiceCallEvent struct {
	CallID          string
	CallStatus      string
	DurationSeconds int
	Transcript      string
	Outcome         string
	EndedAt         time.Time
	AppointmentTime *time.Time
	BookingID       *string
}

// completedStatuses are the provider statuses that carry a final result.
var completedStatuses = map[string]bool{
	"ended":     true,
	"completed": true,
}

// HandleVoiceCall records a call result onto the matching lead. Statuses
// other than ended/completed are ignored, as are unknown call ids; both are
// acked upstream so the provider stops retrying. Replayed events rewrite the
// same values.
func (s *Service) HandleVoiceCall(ctx context.Context, event VoiceCallEvent) error {
	if !completedStatuses[event.CallStatus] {
		s.log.Info("voice event ignored", "call_id", event.CallID, "call_status", event.CallStatus)
		return nil
	}

	lead, err := s.leads.GetByExternalCallID(ctx, event.CallID)
	if err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			s.log.Warn("voice event for unknown call", "call_id", event.CallID)
			return nil
		}
		return err
	}

	endedAt := event.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}

	status := MapOutcome(event.Outcome)
	if err := s.leads.RecordCallOutcome(ctx, leadrepo.RecordCallOutcomeParams{
		LeadID:          lead.ID,
		Status:          status,
		EndedAt:         endedAt,
		DurationSeconds: event.DurationSeconds,
		Transcript:      event.Transcript,
		Outcome:         event.Outcome,
		AppointmentTime: event.AppointmentTime,
		BookingID:       event.BookingID,
	}); err != nil {
		return err
	}

	if event.Transcript != "" && s.archive != nil {
		key, err := s.archive.StoreTranscript(ctx, lead.TenantID, lead.ID, event.CallID, event.Transcript)
		if err != nil {
			s.log.CollaboratorError("archive", "store transcript", err)
		} else if key != "" {
			if err := s.leads.SetTranscriptObjectKey(ctx, lead.ID, key); err != nil {
				s.log.DatabaseError("store transcript key", err)
			}
		}
	}

	if err := s.leads.AppendEvent(ctx, lead.TenantID, lead.ID, "ai_call_completed", map[string]any{
		"call_id":          event.CallID,
		"outcome":          event.Outcome,
		"status":           string(status),
		"duration_seconds": event.DurationSeconds,
	}); err != nil {
		s.log.DatabaseError("append ai_call_completed event", err)
	}

	s.bus.Publish(ctx, events.AICallCompleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
		CallID:    event.CallID,
		Outcome:   event.Outcome,
	})

	s.log.EscalationEvent("ai_call_completed", lead.ID.String(),
		"call_id", event.CallID, "status", string(status))
	return nil
}

// HandleSMSStatus appends a delivery audit event on the newest lead matching
// the destination phone. Nothing fails upstream; errors are logged only.
func (s *Service) HandleSMSStatus(ctx context.Context, messageID, status, toPhone string) {
	lead, err := s.leads.FindNewestByPhone(ctx, toPhone)
	if err != nil {
		if !errors.Is(err, leadrepo.ErrNotFound) {
			s.log.DatabaseError("sms status lead lookup", err)
		}
		return
	}

	eventType := "sms_delivered"
	switch status {
	case "failed", "undelivered":
		eventType = "sms_failed"
	}

	if err := s.leads.AppendEvent(ctx, lead.TenantID, lead.ID, eventType, map[string]any{
		"message_id": messageID,
		"status":     status,
	}); err != nil {
		s.log.DatabaseError("append sms status event", err)
	}
}
