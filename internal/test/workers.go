package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ReconcilerFacadeStub mimics the order use case as seen by the reconciliation worker.
type ReconcilerFacadeStub struct {
	Dirty       [][]string
	ReconcileFn func(context.Context, string) error

	mu         sync.Mutex
	reconciled []string
	dirtyCalls int32
}

// DirtyOrders returns batches from the configured queue, then nothing.
func (s *ReconcilerFacadeStub) DirtyOrders() []string {
	call := atomic.AddInt32(&s.dirtyCalls, 1)
	if int(call) <= len(s.Dirty) {
		return s.Dirty[call-1]
	}
	return nil
}

// Reconcile records the order id.
func (s *ReconcilerFacadeStub) Reconcile(ctx context.Context, orderID string) error {
	s.mu.Lock()
	s.reconciled = append(s.reconciled, orderID)
	s.mu.Unlock()
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, orderID)
	}
	return nil
}

// Reconciled returns the ids passed to Reconcile so far.
func (s *ReconcilerFacadeStub) Reconciled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reconciled...)
}

// WaitReconciled polls until n orders were reconciled or the timeout passes.
func (s *ReconcilerFacadeStub) WaitReconciled(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(s.Reconciled()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
