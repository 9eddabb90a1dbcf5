// Package notification fans claim alerts out to team members and subscribes
// to escalation events that warrant a tenant alert.
package notification

import (
	"context"
	"sync/atomic"

	"leadline_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// fanOutLimit bounds concurrent SMS sends per broadcast.
const fanOutLimit = 8

// SMSSender sends a single SMS. Implemented by the sms client.
type SMSSender interface {
	Send(ctx context.Context, to, from, body string) (messageID string, err error)
}

// Dispatcher delivers a message to many recipients with isolated attempts:
// one recipient's failure never blocks the others.
type Dispatcher struct {
	sender SMSSender
	log    *logger.Logger
}

// NewDispatcher creates a dispatcher over the given SMS sender.
func NewDispatcher(sender SMSSender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Broadcast sends body to every recipient and returns the delivered count.
// Every send runs in its own goroutine and swallows its own error; the group
// always settles all attempts.
func (d *Dispatcher) Broadcast(ctx context.Context, recipients []string, from, body string) int {
	if d.sender == nil || len(recipients) == 0 {
		return 0
	}

	var delivered atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fanOutLimit)

	for _, recipient := range recipients {
		group.Go(func() error {
			if _, err := d.sender.Send(groupCtx, recipient, from, body); err != nil {
				d.log.CollaboratorError("sms", "send claim notification", err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}

	_ = group.Wait()
	return int(delivered.Load())
}
