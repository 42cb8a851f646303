package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OrderSource exposes the subset of the order use case the reconciler needs.
type OrderSource interface {
	DirtyOrders() []string
	Reconcile(ctx context.Context, orderID string) error
}

// Reconciler periodically re-fetches orders whose cached copy could not be
// rolled back after a failed write.
type Reconciler struct {
	source   OrderSource
	interval time.Duration
	workers  int
	logger   *slog.Logger

	jobs     chan string
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewReconciler constructs the reconciliation worker pool.
func NewReconciler(source OrderSource, interval time.Duration, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:   source,
		interval: interval,
		workers:  workers,
		logger:   logger,
		jobs:     make(chan string, workers),
		inflight: make(map[string]struct{}),
	}
}

// Start launches background reconciliation.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop cancels the pool and waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.enqueueDirty(ctx)
		}
	}
}

// enqueueDirty hands every dirty order to the pool once; an order still
// being reconciled is skipped until the next tick.
func (r *Reconciler) enqueueDirty(ctx context.Context) {
	for _, id := range r.source.DirtyOrders() {
		if !r.claim(id) {
			continue
		}
		select {
		case <-ctx.Done():
			r.release(id)
			return
		case r.jobs <- id:
		}
	}
}

func (r *Reconciler) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[id]; busy {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Reconciler) release(id string) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-r.jobs:
			if !ok {
				return
			}
			r.reconcile(ctx, id)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context, id string) {
	defer r.release(id)
	if err := r.source.Reconcile(ctx, id); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("reconcile order failed", slog.String("order_id", id), slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("order reconciled", slog.String("order_id", id))
}
