package repository

import (
	"context"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// DriverRepository describes persistence operations for drivers.
type DriverRepository interface {
	Create(ctx context.Context, driver model.Driver) (*model.Driver, error)
	Update(ctx context.Context, id string, patch model.DriverPatch) (*model.Driver, error)
	List(ctx context.Context) ([]model.Driver, error)
}

// CustomerRepository describes persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer model.Customer) (*model.Customer, error)
	Update(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
}
