package logger

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/config"
)

// Module wires slog logger for dependency injection.
var Module = fx.Provide(newFromConfig)

func newFromConfig(cfg *config.Config) *slog.Logger {
	return New(cfg.LogLevel)
}
