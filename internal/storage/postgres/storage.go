package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Drivers() repository.DriverRepository {
	return &driverRepository{storage: s}
}

func (s *Storage) Customers() repository.CustomerRepository {
	return &customerRepository{storage: s}
}

func (s *Storage) Timeline() repository.TimelineRepository {
	return &timelineRepository{storage: s}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        login TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS drivers (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        truck_number TEXT NOT NULL DEFAULT '',
        vehicle_type TEXT NOT NULL DEFAULT 'truck',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_by TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS customers (
        id TEXT PRIMARY KEY,
        code TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL,
        address TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        email TEXT NOT NULL DEFAULT '',
        lat DOUBLE PRECISION,
        lng DOUBLE PRECISION,
        created_by TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id TEXT PRIMARY KEY,
        order_number TEXT UNIQUE NOT NULL,
        stage TEXT NOT NULL,
        picking_column TEXT NOT NULL DEFAULT 'Unassigned',
        assigned_day TEXT,
        assigned_driver_id TEXT REFERENCES drivers(id),
        order_type TEXT NOT NULL,
        fulfillment_type TEXT NOT NULL,
        is_ready BOOLEAN DEFAULT TRUE,
        presell_number TEXT NOT NULL DEFAULT '',
        items JSONB NOT NULL DEFAULT '[]',
        comments TEXT NOT NULL DEFAULT '',
        order_document_url TEXT NOT NULL DEFAULT '',
        invoice_photo_url TEXT NOT NULL DEFAULT '',
        rsm TEXT NOT NULL DEFAULT '',
        scheduled_date TIMESTAMPTZ,
        customer_name TEXT NOT NULL,
        customer_external_id TEXT NOT NULL DEFAULT '',
        customer_address TEXT NOT NULL DEFAULT '',
        customer_phone TEXT NOT NULL DEFAULT '',
        customer_lat DOUBLE PRECISION,
        customer_lng DOUBLE PRECISION,
        created_by TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        completed_at TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS order_timeline (
        id TEXT PRIMARY KEY,
        order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
        previous_stage TEXT,
        stage TEXT NOT NULL,
        changed_by TEXT,
        changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        notes TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_timeline_order ON order_timeline(order_id, changed_at)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("storage is not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

// mapError translates driver errors into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domainErrors.ErrAlreadyExists
		case "23503":
			return fmt.Errorf("%w: %s", domainErrors.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// setClause accumulates "column=$n" assignments for dynamic updates.
type setClause struct {
	columns []string
	args    []any
}

func (c *setClause) add(column string, value any) {
	c.args = append(c.args, value)
	c.columns = append(c.columns, fmt.Sprintf("%s=$%d", column, len(c.args)))
}

func (c *setClause) empty() bool { return len(c.columns) == 0 }

// build renders "UPDATE table SET ... WHERE id=$n RETURNING returning".
func (c *setClause) build(table, id, returning string) (string, []any) {
	args := append(append([]any(nil), c.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id=$%d RETURNING %s",
		table, strings.Join(c.columns, ", "), len(args), returning)
	return query, args
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
