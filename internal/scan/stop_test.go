package scan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"claimscan/internal/events"
)

// slowWorker exits some time after cancellation, like a worker finishing
// its current record.
type slowWorker struct {
	delay  time.Duration
	exited atomic.Bool
	done   chan struct{}
}

func newSlowWorker(ctx context.Context, delay time.Duration) *slowWorker {
	w := &slowWorker{delay: delay, done: make(chan struct{})}
	go func() {
		<-ctx.Done()
		time.Sleep(w.delay)
		w.exited.Store(true)
		close(w.done)
	}()
	return w
}

func (w *slowWorker) Wait() { <-w.done }

func TestStopWaitsForAllWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := events.NewNotifier()

	var inputs []bool
	n.OnInputEnabled(func(enabled bool) { inputs = append(inputs, enabled) })

	w1 := newSlowWorker(ctx, 10*time.Millisecond)
	w2 := newSlowWorker(ctx, 50*time.Millisecond)

	s := NewStopper(cancel, n)
	s.Register(w1, w2)
	s.Stop()

	if !w1.exited.Load() || !w2.exited.Load() {
		t.Fatalf("Stop returned before all workers exited")
	}
	if len(inputs) != 2 || inputs[0] != false || inputs[1] != true {
		t.Fatalf("input events = %v, want disable then enable", inputs)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := events.NewNotifier()

	var count atomic.Int32
	n.OnInputEnabled(func(bool) { count.Add(1) })

	s := NewStopper(cancel, n)
	s.Register(newSlowWorker(ctx, time.Millisecond))
	s.Stop()
	s.Stop()

	if count.Load() != 2 {
		t.Fatalf("expected one disable/enable pair, got %d events", count.Load())
	}
}

func TestStopWithRealWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := events.NewNotifier()

	eval := &stubEval{}
	w, _, _, _ := newTestWorker(t, eval, false)
	w.Start(ctx)

	s := NewStopper(cancel, n)
	s.Register(w)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not complete")
	}
}
