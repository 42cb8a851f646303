package repository

import (
	"context"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (*model.Order, error)
	Update(ctx context.Context, id string, patch model.OrderPatch) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
}

// TimelineRepository stores the stage history of orders.
type TimelineRepository interface {
	Append(ctx context.Context, entry model.TimelineEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]model.TimelineEntry, error)
}
