package usecase

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/cache"
	"github.com/polkiloo/dispatchboard/internal/config"
	"github.com/polkiloo/dispatchboard/internal/domain/repository"
	"github.com/polkiloo/dispatchboard/internal/metrics"
	"github.com/polkiloo/dispatchboard/internal/notify"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewCustomerUseCase,
		NewReportUseCase,
		newOrderUseCase,
		newDriverUseCase,
	),
)

type syncParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Store     *cache.Store
	Orders    repository.OrderRepository
	Drivers   repository.DriverRepository
	Timeline  repository.TimelineRepository
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics `optional:"true"`
	Logger    *slog.Logger
}

func newOrderUseCase(p syncParams) *OrderUseCase {
	u := NewOrderUseCase(OrderDeps{
		Store:     p.Store,
		Orders:    p.Orders,
		Drivers:   p.Drivers,
		Timeline:  p.Timeline,
		Notifier:  p.Notifier,
		Metrics:   p.Metrics,
		Logger:    p.Logger,
		Sync:      SyncOptionsFromConfig(p.Config),
		Retention: p.Config.CompletedRetention,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return u.Drain(ctx)
		},
	})
	return u
}

func newDriverUseCase(p syncParams) *DriverUseCase {
	return NewDriverUseCase(DriverDeps{
		Store:    p.Store,
		Drivers:  p.Drivers,
		Notifier: p.Notifier,
		Metrics:  p.Metrics,
		Logger:   p.Logger,
		Sync:     SyncOptionsFromConfig(p.Config),
	})
}
