package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	testhelpers "github.com/polkiloo/dispatchboard/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewReconcilerDefaults(t *testing.T) {
	r := NewReconciler(&testhelpers.ReconcilerFacadeStub{}, 0, 0, nil)
	if r.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", r.workers)
	}
	if r.interval != time.Second {
		t.Fatalf("expected interval default to 1s, got %v", r.interval)
	}
	if r.logger == nil {
		t.Fatalf("expected default logger")
	}
}

func TestReconcilerReconcilesDirtyOrders(t *testing.T) {
	source := &testhelpers.ReconcilerFacadeStub{Dirty: [][]string{{"a", "b"}, {"c"}}}
	r := NewReconciler(source, 5*time.Millisecond, 2, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	if !source.WaitReconciled(3, time.Second) {
		t.Fatalf("timeout waiting for reconciliation, got %v", source.Reconciled())
	}
	r.Stop()

	seen := map[string]bool{}
	for _, id := range source.Reconciled() {
		seen[id] = true
	}
	for _, id := range []string{"a", "b", "c"} {
		if !seen[id] {
			t.Fatalf("expected %s to be reconciled, got %v", id, source.Reconciled())
		}
	}
}

func TestReconcilerKeepsRunningAfterFailure(t *testing.T) {
	var calls int32
	source := &testhelpers.ReconcilerFacadeStub{
		Dirty: [][]string{{"a"}, {"a"}},
		ReconcileFn: func(context.Context, string) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				return errors.New("db down")
			}
			return nil
		},
	}
	r := NewReconciler(source, 5*time.Millisecond, 1, discardLogger())
	r.Start(context.Background())
	defer r.Stop()

	if !source.WaitReconciled(2, time.Second) {
		t.Fatalf("expected a second attempt after failure, got %v", source.Reconciled())
	}
}

func TestReconcilerSkipsOrdersInFlight(t *testing.T) {
	release := make(chan struct{})
	var concurrent, maxConcurrent int32
	source := &testhelpers.ReconcilerFacadeStub{
		Dirty: [][]string{{"a"}, {"a"}, {"a"}},
		ReconcileFn: func(ctx context.Context, _ string) error {
			n := atomic.AddInt32(&concurrent, 1)
			if n > atomic.LoadInt32(&maxConcurrent) {
				atomic.StoreInt32(&maxConcurrent, n)
			}
			defer atomic.AddInt32(&concurrent, -1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}
	r := NewReconciler(source, 2*time.Millisecond, 3, discardLogger())
	r.Start(context.Background())

	if !source.WaitReconciled(1, time.Second) {
		t.Fatal("timeout waiting for first reconciliation")
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	r.Stop()

	if got := atomic.LoadInt32(&maxConcurrent); got != 1 {
		t.Fatalf("expected one reconciliation of the same order at a time, got %d", got)
	}
}

func TestReconcilerStopIsIdempotent(t *testing.T) {
	r := NewReconciler(&testhelpers.ReconcilerFacadeStub{}, time.Millisecond, 1, discardLogger())
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
