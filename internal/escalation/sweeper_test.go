package escalation

import (
	"context"
	"errors"
	"testing"

	"leadline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type staticCandidates struct {
	ids []uuid.UUID
	err error
}

func (s *staticCandidates) ExpiredClaimCandidates(_ context.Context, _ int) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func newTestSweeper(env *testEnv, ids []uuid.UUID) *Sweeper {
	return NewSweeper(&staticCandidates{ids: ids}, env.engine, env.engine.log)
}

func TestSweepEscalatesExpiredLeads(t *testing.T) {
	env := newTestEnv(t)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		lead := env.addLead(domain.StatusSMSSent)
		expireLead(env, lead.ID)
		ids = append(ids, lead.ID)
	}

	result, err := newTestSweeper(env, ids).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want := SweepResult{Scanned: 3, Escalated: 3, Skipped: 0, Failed: 0}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}
	for _, id := range ids {
		if got := env.leads.status(id); got != domain.StatusAICalling {
			t.Errorf("lead %s status = %s, want AI_CALLING", id, got)
		}
	}
}

func TestSweepSkipsAlreadyResolvedLeads(t *testing.T) {
	env := newTestEnv(t)

	expired := env.addLead(domain.StatusSMSSent)
	expireLead(env, expired.ID)
	claimed := env.addLead(domain.StatusClaimed)

	result, err := newTestSweeper(env, []uuid.UUID{expired.ID, claimed.ID}).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want := SweepResult{Scanned: 2, Escalated: 1, Skipped: 1, Failed: 0}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}
	if got := env.leads.status(claimed.ID); got != domain.StatusClaimed {
		t.Errorf("claimed lead mutated to %s", got)
	}
}

func TestSweepIsolatesPerLeadFailures(t *testing.T) {
	env := newTestEnv(t)

	broken := env.addLead(domain.StatusSMSSent)
	expireLead(env, broken.ID)
	env.leads.failMarkEscalated[broken.ID] = errors.New("connection reset")

	healthy := env.addLead(domain.StatusSMSSent)
	expireLead(env, healthy.ID)

	result, err := newTestSweeper(env, []uuid.UUID{broken.ID, healthy.ID}).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want := SweepResult{Scanned: 2, Escalated: 1, Skipped: 0, Failed: 1}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}
	if got := env.leads.status(healthy.ID); got != domain.StatusAICalling {
		t.Errorf("healthy lead status = %s, want AI_CALLING", got)
	}
}

func TestSweepRerunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	lead := env.addLead(domain.StatusSMSSent)
	expireLead(env, lead.ID)
	sweeper := newTestSweeper(env, []uuid.UUID{lead.ID})

	if _, err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}

	want := SweepResult{Scanned: 1, Escalated: 0, Skipped: 1, Failed: 0}
	if result != want {
		t.Fatalf("second run result = %+v, want %+v", result, want)
	}
	if env.voice.calls != 1 {
		t.Fatalf("voice calls = %d, want 1", env.voice.calls)
	}
}

func TestSweepPropagatesCandidateQueryError(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewSweeper(&staticCandidates{err: errors.New("db down")}, env.engine, env.engine.log)

	if _, err := sweeper.Sweep(context.Background()); err == nil {
		t.Fatal("expected candidate query error")
	}
}
