package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/cache"
	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/repository"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	"github.com/polkiloo/dispatchboard/internal/metrics"
	"github.com/polkiloo/dispatchboard/internal/notify"
)

const (
	actionCreate    = "create"
	actionReconcile = "reconcile"
)

// OrderDeps groups the collaborators of OrderUseCase.
type OrderDeps struct {
	Store     *cache.Store
	Orders    repository.OrderRepository
	Drivers   repository.DriverRepository
	Timeline  repository.TimelineRepository
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Sync      SyncOptions
	Retention time.Duration
	Now       func() time.Time
}

// OrderUseCase applies order actions to the cache first and writes them to
// the repository in the background, one order at a time.
type OrderUseCase struct {
	store     *cache.Store
	orders    repository.OrderRepository
	drivers   repository.DriverRepository
	timeline  repository.TimelineRepository
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	sync      SyncOptions
	retention time.Duration
	now       func() time.Time
	seq       *sequencer
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(d OrderDeps) *OrderUseCase {
	u := &OrderUseCase{
		store:     d.Store,
		orders:    d.Orders,
		drivers:   d.Drivers,
		timeline:  d.Timeline,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		logger:    d.Logger,
		sync:      d.Sync.normalized(),
		retention: d.Retention,
		now:       d.Now,
		seq:       newSequencer(),
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	if u.notifier == nil {
		u.notifier = notify.NewLogNotifier(u.logger)
	}
	if u.now == nil {
		u.now = time.Now
	}
	return u
}

// Result is the settled outcome of an order action.
type Result struct {
	// Order is the cached record after the action settled.
	Order model.Order
	// Local is set when no remote write was needed.
	Local bool
	// Missing is set when no cached order matched; nothing happened.
	Missing bool
	// Err is a *PersistenceError when the remote write failed.
	Err error
}

// Pending tracks an action whose remote write may still be running.
type Pending struct {
	// Optimistic is the record as it was right after the local mutation.
	Optimistic model.Order

	done   chan struct{}
	result Result
}

func newPending(optimistic model.Order) *Pending {
	return &Pending{Optimistic: optimistic, done: make(chan struct{})}
}

// Settled wraps a result that needs no remote write.
func Settled(r Result) *Pending {
	p := newPending(r.Order)
	p.settle(r)
	return p
}

func (p *Pending) settle(r Result) {
	p.result = r
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the action settles or ctx ends. The write keeps running
// when ctx ends first.
func (p *Pending) Wait(ctx context.Context) Result {
	select {
	case <-p.done:
		return p.result
	case <-ctx.Done():
		return Result{Order: p.Optimistic, Err: ctx.Err()}
	}
}

// Submit applies cmd to the cached order and schedules the remote write.
// Illegal transitions are rejected before anything changes.
func (u *OrderUseCase) Submit(ctx context.Context, orderID string, cmd transition.Command) (*Pending, error) {
	applied, ok, err := u.store.ApplyLocal(orderID, cmd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Settled(Result{Missing: true}), nil
	}
	action := cmd.Name()

	if assign, isAssign := cmd.(transition.AssignDriver); isAssign && assign.Driver.IsLocalOnly() {
		u.store.ConfirmLocal(applied, cmd.Fields())
		u.metrics.IncSkipped(action)
		u.notify(ctx, notify.Notification{
			Kind: notify.KindSuccess, Action: action, OrderID: orderID, DriverID: assign.Driver.ID(), Local: true,
		})
		return Settled(Result{Order: applied.After, Local: true}), nil
	}

	fields := model.ChangedFields(applied.Before, applied.After, cmd.Fields()...)
	if len(fields) == 0 {
		return Settled(Result{Order: applied.After, Local: true}), nil
	}

	user, _ := CurrentUser(ctx)
	detached := context.WithoutCancel(ctx)
	p := newPending(applied.After)
	u.seq.Go(orderID, func() {
		p.settle(u.update(detached, applied, fields, action, user))
	})
	return p, nil
}

func (u *OrderUseCase) update(ctx context.Context, applied cache.Applied, fields []model.Field, action, user string) Result {
	id := applied.After.ID
	patch := model.PatchOf(applied.After, fields...)

	started := time.Now()
	canonical, err := retry(ctx, u.sync, func(ctx context.Context, _ int) (*model.Order, error) {
		return u.orders.Update(ctx, id, patch)
	})
	u.metrics.ObserveWrite(action, time.Since(started), err)
	if err != nil {
		return u.rollback(ctx, applied, fields, action, err)
	}

	if slices.Contains(fields, model.FieldAssignedDriverID) {
		u.store.ForgetOverlay(id)
	}
	u.store.Confirm(*canonical, applied.Version)
	if applied.Before.Stage != canonical.Stage {
		u.appendTimeline(ctx, id, applied.Before.Stage, canonical.Stage, user, action)
	}
	if announcesSuccess(action) {
		u.notify(ctx, notify.Notification{
			Kind: notify.KindSuccess, Action: action, OrderID: id, DriverID: canonical.AssignedDriverID,
		})
	}
	return Result{Order: u.current(*canonical)}
}

// rollback restores the touched fields when nothing newer happened to the
// order locally; otherwise the order is left for the reconciler.
func (u *OrderUseCase) rollback(ctx context.Context, applied cache.Applied, fields []model.Field, action string, cause error) Result {
	id := applied.After.ID
	perr := &domainErrors.PersistenceError{Action: action, OrderID: id, Err: cause}

	switch {
	case u.store.Revert(id, fields, applied.Version):
		u.metrics.IncRevert(action)
	case u.store.IsDirty(id):
		u.metrics.IncDirty(action)
	}

	u.logger.WarnContext(ctx, "order write failed",
		slog.String("order_id", id),
		slog.String("action", action),
		slog.Bool("dirty", u.store.IsDirty(id)),
		slog.Any("error", cause),
	)
	u.notify(ctx, notify.Notification{Kind: notify.KindFailure, Action: action, OrderID: id, Error: cause.Error()})
	return Result{Order: u.current(applied.Before), Err: perr}
}

// SubmitCreate builds a new order, shows it immediately and persists it in
// the background. A failed create removes the order again. driverID may be
// empty.
func (u *OrderUseCase) SubmitCreate(ctx context.Context, p transition.CreatePayload, driverID string) (*Pending, error) {
	if driverID != "" {
		ref, err := u.store.AssignableDriver(driverID)
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.NewValidation("driverId", "is unknown")
		}
		if err != nil {
			return nil, err
		}
		p.Driver = ref
	}
	if user, ok := CurrentUser(ctx); ok {
		p.CreatedBy = user
	}

	now := u.now()
	id := uuid.NewString()
	number := transition.OrderNumber(now)
	local, err := transition.Create(p, id, number, now)
	if err != nil {
		return nil, err
	}
	remote := local
	if p.Driver.IsLocalOnly() {
		withoutDriver := p
		withoutDriver.Driver = model.DriverRef{}
		if remote, err = transition.Create(withoutDriver, id, number, now); err != nil {
			return nil, err
		}
	}

	version, err := u.store.InsertLocal(local)
	if err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	pending := newPending(local)
	u.seq.Go(id, func() {
		pending.settle(u.create(detached, local, remote, version, p.Driver))
	})
	return pending, nil
}

func (u *OrderUseCase) create(ctx context.Context, local, remote model.Order, version uint64, driver model.DriverRef) Result {
	started := time.Now()
	canonical, err := retry(ctx, u.sync, func(ctx context.Context, attempt int) (*model.Order, error) {
		created, err := u.orders.Create(ctx, remote)
		// An earlier attempt may have committed before timing out.
		if attempt > 0 && errors.Is(err, domainErrors.ErrAlreadyExists) {
			return u.orders.GetByID(ctx, remote.ID)
		}
		return created, err
	})
	u.metrics.ObserveWrite(actionCreate, time.Since(started), err)
	if err != nil {
		u.store.Remove(local.ID)
		u.logger.WarnContext(ctx, "order create failed", slog.String("order_id", local.ID), slog.Any("error", err))
		u.notify(ctx, notify.Notification{Kind: notify.KindFailure, Action: actionCreate, OrderID: local.ID, Error: err.Error()})
		return Result{Order: local, Err: &domainErrors.PersistenceError{Action: actionCreate, OrderID: local.ID, Err: err}}
	}

	if driver.IsLocalOnly() {
		u.store.ConfirmLocal(cache.Applied{Before: remote, After: local, Version: version}, transition.AssignDriver{}.Fields())
	}
	u.store.Confirm(*canonical, version)
	u.metrics.SetCachedOrders(len(u.store.Orders()))
	u.notify(ctx, notify.Notification{
		Kind: notify.KindSuccess, Action: actionCreate, OrderID: local.ID, DriverID: driver.ID(), Local: driver.IsLocalOnly(),
	})
	return Result{Order: u.current(*canonical)}
}

func (u *OrderUseCase) run(ctx context.Context, orderID string, cmd transition.Command) (Result, error) {
	p, err := u.Submit(ctx, orderID, cmd)
	if err != nil {
		return Result{}, err
	}
	r := p.Wait(ctx)
	return r, r.Err
}

// MoveToColumn files the order into a processing column and waits for the write.
func (u *OrderUseCase) MoveToColumn(ctx context.Context, orderID string, column model.PickingColumn) (Result, error) {
	return u.run(ctx, orderID, transition.MoveToColumn{Column: column})
}

func (u *OrderUseCase) MarkReady(ctx context.Context, orderID string) (Result, error) {
	return u.run(ctx, orderID, transition.MarkReady{})
}

func (u *OrderUseCase) Complete(ctx context.Context, orderID string) (Result, error) {
	return u.run(ctx, orderID, transition.Complete{})
}

func (u *OrderUseCase) Edit(ctx context.Context, orderID string, edit transition.EditFields) (Result, error) {
	return u.run(ctx, orderID, edit)
}

// AssignDriver assigns a cached driver. Local-only drivers are never written remotely.
func (u *OrderUseCase) AssignDriver(ctx context.Context, orderID, driverID string) (Result, error) {
	cmd, err := u.AssignCommand(driverID)
	if err != nil {
		return Result{}, err
	}
	return u.run(ctx, orderID, cmd)
}

// AssignCommand resolves driverID into an AssignDriver command.
func (u *OrderUseCase) AssignCommand(driverID string) (transition.Command, error) {
	if driverID == "" {
		return nil, domainErrors.NewValidation("driverId", "is required")
	}
	ref, err := u.store.AssignableDriver(driverID)
	if err != nil {
		return nil, err
	}
	return transition.AssignDriver{Driver: ref}, nil
}

// Create builds and persists a new order, waiting for the write.
func (u *OrderUseCase) Create(ctx context.Context, p transition.CreatePayload, driverID string) (Result, error) {
	pending, err := u.SubmitCreate(ctx, p, driverID)
	if err != nil {
		return Result{}, err
	}
	r := pending.Wait(ctx)
	return r, r.Err
}

// Load fetches every order and driver and replaces the cache contents.
func (u *OrderUseCase) Load(ctx context.Context) error {
	var (
		orders  []model.Order
		drivers []model.Driver
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if orders, err = u.orders.List(gctx); err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if drivers, err = u.drivers.List(gctx); err != nil {
			return fmt.Errorf("list drivers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	u.store.ReplaceAll(orders, drivers)
	u.metrics.SetCachedOrders(len(orders))
	u.logger.InfoContext(ctx, "board cache loaded", slog.Int("orders", len(orders)), slog.Int("drivers", len(drivers)))
	return nil
}

// Refresh reloads the cache from the repository.
func (u *OrderUseCase) Refresh(ctx context.Context) error {
	return u.Load(ctx)
}

// Reconcile replaces a cached order with its canonical record. It runs in
// line with pending writes of the same order.
func (u *OrderUseCase) Reconcile(ctx context.Context, orderID string) error {
	var err error
	done := u.seq.Go(orderID, func() {
		err = u.reconcile(ctx, orderID)
	})
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *OrderUseCase) reconcile(ctx context.Context, orderID string) error {
	version, ok := u.store.Version(orderID)
	if !ok {
		return nil
	}
	canonical, err := retry(ctx, u.sync, func(ctx context.Context, _ int) (*model.Order, error) {
		return u.orders.GetByID(ctx, orderID)
	})
	if errors.Is(err, domainErrors.ErrNotFound) {
		u.store.Remove(orderID)
		u.metrics.ObserveReconcile(nil)
		return nil
	}
	u.metrics.ObserveReconcile(err)
	if err != nil {
		return &domainErrors.PersistenceError{Action: actionReconcile, OrderID: orderID, Err: err}
	}
	u.store.Confirm(*canonical, version)
	return nil
}

// DirtyOrders lists orders awaiting reconciliation.
func (u *OrderUseCase) DirtyOrders() []string {
	return u.store.Dirty()
}

// Drain waits for scheduled writes to finish.
func (u *OrderUseCase) Drain(ctx context.Context) error {
	return u.seq.Drain(ctx)
}

// Order returns the cached order.
func (u *OrderUseCase) Order(orderID string) (model.Order, error) {
	o, ok := u.store.Order(orderID)
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", orderID, domainErrors.ErrNotFound)
	}
	return o, nil
}

// Orders returns cached orders matching query, newest first.
func (u *OrderUseCase) Orders(query string) []model.Order {
	return board.Search(u.store.Orders(), query)
}

// Board projects the cache into one of the boards.
func (u *OrderUseCase) Board(kind board.Kind, driverID string) (board.View, error) {
	return board.Project(kind, u.store.Orders(), board.Params{
		DriverID:  driverID,
		Now:       u.now(),
		Retention: u.retention,
	})
}

// Timeline returns the stage history of an order.
func (u *OrderUseCase) Timeline(ctx context.Context, orderID string) ([]model.TimelineEntry, error) {
	return u.timeline.ListByOrder(ctx, orderID)
}

func (u *OrderUseCase) appendTimeline(ctx context.Context, orderID string, from, to model.Stage, user, action string) {
	previous := from
	entry := model.TimelineEntry{
		OrderID:       orderID,
		PreviousStage: &previous,
		Stage:         to,
		ChangedBy:     user,
		ChangedAt:     u.now(),
		Notes:         action,
	}
	if err := u.timeline.Append(ctx, entry); err != nil {
		u.logger.ErrorContext(ctx, "append order timeline", slog.String("order_id", orderID), slog.Any("error", err))
	}
}

func (u *OrderUseCase) current(fallback model.Order) model.Order {
	if o, ok := u.store.Order(fallback.ID); ok {
		return o
	}
	return fallback
}

func (u *OrderUseCase) notify(ctx context.Context, n notify.Notification) {
	n.At = u.now()
	u.notifier.Notify(ctx, n)
}

func announcesSuccess(action string) bool {
	switch action {
	case transition.AssignDriver{}.Name(), transition.Complete{}.Name(), actionCreate:
		return true
	}
	return false
}
