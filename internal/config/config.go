package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	JWTSecret          string
	TokenTTL           time.Duration
	SyncTimeout        time.Duration
	SyncRetries        int
	ReconcileInterval  time.Duration
	WorkerPoolSize     int
	ShutdownTimeout    time.Duration
	CompletedRetention time.Duration
	LocalDrivers       []string
	NATSURL            string
	NATSSubjectPrefix  string
	LogLevel           string
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultSyncTimeout        = 5 * time.Second
	defaultSyncRetries        = 1
	defaultReconcileInterval  = 10 * time.Second
	defaultWorkerPoolSize     = 4
	defaultShutdownTimeout    = 10 * time.Second
	defaultCompletedRetention = 7 * 24 * time.Hour
	defaultLocalDrivers       = "driver-1,driver-2,driver-3,driver-4,driver-5,driver-6,driver-7,driver-8"
	defaultSubjectPrefix      = "dispatchboard"
	defaultLogLevel           = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		JWTSecret:          getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:           getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		SyncTimeout:        getDuration(lookup, "SYNC_TIMEOUT", defaultSyncTimeout),
		SyncRetries:        getInt(lookup, "SYNC_RETRIES", defaultSyncRetries),
		ReconcileInterval:  getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		CompletedRetention: getDuration(lookup, "COMPLETED_RETENTION", defaultCompletedRetention),
		NATSURL:            getString(lookup, "NATS_URL", ""),
		NATSSubjectPrefix:  getString(lookup, "NATS_SUBJECT_PREFIX", defaultSubjectPrefix),
		LogLevel:           getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("dispatchboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		tokenTTLStr        = cfg.TokenTTL.String()
		syncTimeoutStr     = cfg.SyncTimeout.String()
		reconcileStr       = cfg.ReconcileInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		retentionStr       = cfg.CompletedRetention.String()
		localDriversStr    = getString(lookup, "LOCAL_DRIVERS", defaultLocalDrivers)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of issued auth tokens")
	fs.StringVar(&syncTimeoutStr, "sync-timeout", syncTimeoutStr, "Timeout of a single remote write attempt")
	fs.IntVar(&cfg.SyncRetries, "sync-retries", cfg.SyncRetries, "Retries of a failed remote write")
	fs.StringVar(&reconcileStr, "reconcile-interval", reconcileStr, "Interval between reconciliation passes")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&retentionStr, "retention", retentionStr, "How long completed orders stay on the boards")
	fs.StringVar(&localDriversStr, "local-drivers", localDriversStr, "Comma separated ids of local-only drivers")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL for board events")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.SyncTimeout, err = time.ParseDuration(syncTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid sync timeout: %w", err)
	}

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.CompletedRetention, err = time.ParseDuration(retentionStr); err != nil {
		return nil, fmt.Errorf("invalid retention: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.LocalDrivers = splitList(localDriversStr)

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = defaultSyncTimeout
	}

	if cfg.SyncRetries < 0 {
		cfg.SyncRetries = defaultSyncRetries
	}

	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.CompletedRetention <= 0 {
		cfg.CompletedRetention = defaultCompletedRetention
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
