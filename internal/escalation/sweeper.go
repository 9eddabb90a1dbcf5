package escalation

import (
	"context"
	"sync/atomic"

	"leadline_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	sweepBatchSize   = 200
	sweepConcurrency = 8
)

// CandidateSource lists leads whose claim window appears to have lapsed.
// The listing is advisory only; the engine's conditional update decides.
type CandidateSource interface {
	ExpiredClaimCandidates(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Escalated int `json:"escalated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Sweeper is the safety net behind the per-lead timers: it periodically
// scans for lapsed claim windows and pushes each one through the engine.
type Sweeper struct {
	candidates CandidateSource
	engine     *Engine
	log        *logger.Logger
}

// NewSweeper creates a sweeper over the given candidate source and engine.
func NewSweeper(candidates CandidateSource, engine *Engine, log *logger.Logger) *Sweeper {
	return &Sweeper{candidates: candidates, engine: engine, log: log}
}

// Sweep runs one pass. Each candidate is handled independently; one lead's
// failure never blocks the rest, and re-running a sweep over the same
// candidates is harmless because timed-out leads no longer match the
// conditional update.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := s.candidates.ExpiredClaimCandidates(ctx, sweepBatchSize)
	if err != nil {
		return SweepResult{}, err
	}

	var escalated, skipped, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			ok, err := s.engine.HandleTimeout(ctx, id)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.EscalationEvent("sweep_lead_failed", id.String(), "error", err.Error())
			case ok:
				escalated.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := SweepResult{
		Scanned:   len(ids),
		Escalated: int(escalated.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	s.log.Info("claim_sweep_completed",
		"scanned", result.Scanned,
		"escalated", result.Escalated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
