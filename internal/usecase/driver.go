package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polkiloo/dispatchboard/internal/cache"
	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/repository"
	"github.com/polkiloo/dispatchboard/internal/metrics"
	"github.com/polkiloo/dispatchboard/internal/notify"
	"github.com/polkiloo/dispatchboard/internal/pkg/validation"
)

const (
	actionCreateDriver = "create_driver"
	actionUpdateDriver = "update_driver"
)

// DriverDeps groups the collaborators of DriverUseCase.
type DriverDeps struct {
	Store    *cache.Store
	Drivers  repository.DriverRepository
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Sync     SyncOptions
}

// DriverUseCase manages the driver roster. Local-only drivers are edited in
// the cache alone.
type DriverUseCase struct {
	store    *cache.Store
	drivers  repository.DriverRepository
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	sync     SyncOptions
	seq      *sequencer
}

// NewDriverUseCase constructs DriverUseCase.
func NewDriverUseCase(d DriverDeps) *DriverUseCase {
	u := &DriverUseCase{
		store:    d.Store,
		drivers:  d.Drivers,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		logger:   d.Logger,
		sync:     d.Sync.normalized(),
		seq:      newSequencer(),
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	if u.notifier == nil {
		u.notifier = notify.NewLogNotifier(u.logger)
	}
	return u
}

// Create persists a new driver and adds it to the cache.
func (u *DriverUseCase) Create(ctx context.Context, d model.Driver) (model.Driver, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.VehicleType == "" {
		d.VehicleType = model.VehicleTruck
	}
	if err := validation.Struct(d); err != nil {
		return model.Driver{}, err
	}
	if d.ID != "" {
		if _, exists := u.store.Driver(d.ID); exists {
			return model.Driver{}, fmt.Errorf("driver %s: %w", d.ID, domainErrors.ErrAlreadyExists)
		}
	}
	d.LocalOnly = false
	if user, ok := CurrentUser(ctx); ok {
		d.CreatedBy = user
	}

	started := time.Now()
	created, err := retry(ctx, u.sync, func(ctx context.Context, _ int) (*model.Driver, error) {
		return u.drivers.Create(ctx, d)
	})
	u.metrics.ObserveWrite(actionCreateDriver, time.Since(started), err)
	if err != nil {
		u.notifier.Notify(ctx, notify.Notification{
			Kind: notify.KindFailure, Action: actionCreateDriver, DriverID: d.ID, Error: err.Error(), At: time.Now(),
		})
		return model.Driver{}, &domainErrors.PersistenceError{Action: actionCreateDriver, DriverID: d.ID, Err: err}
	}
	u.store.UpsertDriver(*created)
	return *created, nil
}

// Update patches a driver in the cache and writes the patch remotely unless
// the driver is local-only. A failed write restores the previous values.
func (u *DriverUseCase) Update(ctx context.Context, id string, patch model.DriverPatch) (model.Driver, error) {
	if err := validateDriverPatch(patch); err != nil {
		return model.Driver{}, err
	}
	before, after, ok := u.store.PatchDriver(id, patch)
	if !ok {
		return model.Driver{}, fmt.Errorf("driver %s: %w", id, domainErrors.ErrNotFound)
	}
	if before.LocalOnly {
		u.metrics.IncSkipped(actionUpdateDriver)
		return after, nil
	}

	var (
		result model.Driver
		err    error
	)
	detached := context.WithoutCancel(ctx)
	done := u.seq.Go("driver:"+id, func() {
		result, err = u.update(detached, before, after, patch)
	})
	select {
	case <-done:
		return result, err
	case <-ctx.Done():
		return after, ctx.Err()
	}
}

func (u *DriverUseCase) update(ctx context.Context, before, after model.Driver, patch model.DriverPatch) (model.Driver, error) {
	started := time.Now()
	canonical, err := retry(ctx, u.sync, func(ctx context.Context, _ int) (*model.Driver, error) {
		return u.drivers.Update(ctx, before.ID, patch)
	})
	u.metrics.ObserveWrite(actionUpdateDriver, time.Since(started), err)
	if err != nil {
		u.store.PatchDriver(before.ID, patch.PatchFrom(before))
		u.logger.WarnContext(ctx, "driver write failed", slog.String("driver_id", before.ID), slog.Any("error", err))
		u.notifier.Notify(ctx, notify.Notification{
			Kind: notify.KindFailure, Action: actionUpdateDriver, DriverID: before.ID, Error: err.Error(), At: time.Now(),
		})
		return before, &domainErrors.PersistenceError{Action: actionUpdateDriver, DriverID: before.ID, Err: err}
	}
	u.store.UpsertDriver(*canonical)
	if d, ok := u.store.Driver(before.ID); ok {
		return d, nil
	}
	return after, nil
}

func validateDriverPatch(p model.DriverPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domainErrors.NewValidation("name", "is required")
	}
	if p.VehicleType != nil && !p.VehicleType.Valid() {
		return domainErrors.NewValidation("vehicleType", "is invalid")
	}
	return nil
}

// List returns cached drivers, optionally only the active ones.
func (u *DriverUseCase) List(activeOnly bool) []model.Driver {
	if activeOnly {
		return u.store.ActiveDrivers()
	}
	return u.store.Drivers()
}

func (u *DriverUseCase) Driver(id string) (model.Driver, error) {
	d, ok := u.store.Driver(id)
	if !ok {
		return model.Driver{}, fmt.Errorf("driver %s: %w", id, domainErrors.ErrNotFound)
	}
	return d, nil
}
