package scan

import (
	"context"
	"sync"

	"claimscan/internal/events"
)

// Waiter is the piece of a worker lifecycle the stop orchestrator needs:
// block until the worker has fully exited.
type Waiter interface {
	Wait()
}

// Stopper coordinates session shutdown: it disables operator input,
// raises the shared cancellation signal, waits for every registered
// worker to exit, then re-enables input. Input is never re-enabled while
// any worker is still running, so "stopped" is only observable when the
// whole session is down. Stop is idempotent.
type Stopper struct {
	cancel   context.CancelFunc
	notifier *events.Notifier

	mu      sync.Mutex
	workers []Waiter
	once    sync.Once
}

func NewStopper(cancel context.CancelFunc, notifier *events.Notifier) *Stopper {
	return &Stopper{cancel: cancel, notifier: notifier}
}

// Register adds a worker the orchestrator must wait for. Workers are
// registered as they start, before Stop can be called.
func (s *Stopper) Register(workers ...Waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, workers...)
}

// Stop runs the shutdown sequence and blocks until every worker is done.
func (s *Stopper) Stop() {
	s.once.Do(func() {
		s.notifier.EmitInputEnabled(false)
		s.cancel()

		s.mu.Lock()
		workers := append([]Waiter(nil), s.workers...)
		s.mu.Unlock()

		for _, w := range workers {
			if w != nil {
				w.Wait()
			}
		}
		s.notifier.EmitInputEnabled(true)
	})
}
