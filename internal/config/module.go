package config

import "go.uber.org/fx"

// Module provides the *Config read from flags and the environment.
var Module = fx.Provide(Load)
