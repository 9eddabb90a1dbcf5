// Package scheduler runs the periodic claim sweep on an asynq queue.
package scheduler

import (
	"github.com/hibiken/asynq"
)

const TaskSweepClaims = "escalation.sweep_claims"

// NewSweepClaimsTask builds the sweep task. It carries no payload; the sweep
// always scans the full candidate set.
func NewSweepClaimsTask() *asynq.Task {
	return asynq.NewTask(TaskSweepClaims, nil)
}
