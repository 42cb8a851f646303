package cache

import (
	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/config"
)

// Module provides the process-wide Store seeded with the configured
// local-only drivers.
var Module = fx.Provide(newFromConfig)

func newFromConfig(cfg *config.Config) *Store {
	return New(LocalDrivers(cfg.LocalDrivers))
}
