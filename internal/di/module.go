package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/app"
	"github.com/polkiloo/dispatchboard/internal/cache"
	"github.com/polkiloo/dispatchboard/internal/config"
	"github.com/polkiloo/dispatchboard/internal/logger"
	"github.com/polkiloo/dispatchboard/internal/metrics"
	"github.com/polkiloo/dispatchboard/internal/notify"
	"github.com/polkiloo/dispatchboard/internal/pkg/auth"
	"github.com/polkiloo/dispatchboard/internal/server/http/router"
	"github.com/polkiloo/dispatchboard/internal/storage/postgres"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

// Module composes the whole service graph. opts are appended last so tests
// can replace providers.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		cache.Module,
		metrics.Module,
		notify.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
