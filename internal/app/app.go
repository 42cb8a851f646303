package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/config"
	"github.com/polkiloo/dispatchboard/internal/server/http/handlers"
	"github.com/polkiloo/dispatchboard/internal/storage/postgres"
	"github.com/polkiloo/dispatchboard/internal/usecase"
	"github.com/polkiloo/dispatchboard/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		func(s *postgres.Storage) HealthChecker { return s },
		newFacade,
		func(f *DispatchFacade) handlers.DispatchFacade { return f },
		newHTTPServer,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Auth      *usecase.AuthUseCase
	Orders    *usecase.OrderUseCase
	Drivers   *usecase.DriverUseCase
	Customers *usecase.CustomerUseCase
	Reports   *usecase.ReportUseCase
	Health    HealthChecker
}

func newFacade(p facadeParams) *DispatchFacade {
	return newDispatchFacade(facadeDeps{
		Auth:      p.Auth,
		Orders:    p.Orders,
		Drivers:   p.Drivers,
		Customers: p.Customers,
		Reports:   p.Reports,
		Health:    p.Health,
	})
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Orders *usecase.OrderUseCase
	Config *config.Config
	Logger *slog.Logger
}

func newReconciler(p workerParams) *worker.Reconciler {
	return worker.NewReconciler(
		p.Orders,
		p.Config.ReconcileInterval,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.Reconciler
	Orders     *usecase.OrderUseCase
	Config     *config.Config
}

// registerLifecycle loads the board cache before the server accepts requests.
func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Orders.Load(ctx); err != nil {
				return fmt.Errorf("initial cache load: %w", err)
			}
			p.Logger.Info("starting dispatchboard", slog.String("addr", p.Server.Addr))
			// The start context ends with OnStart; the pool outlives it.
			p.Worker.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("dispatchboard stopped")
			return nil
		},
	})
}
