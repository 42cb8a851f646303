package handlers

import (
	"context"
	"io"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	Identify(ctx context.Context, token string) (string, error)
}

// OrderFacade encapsulates order operations exposed via HTTP. Mutations
// return a pending write; the handler decides whether to wait for it.
type OrderFacade interface {
	Orders(query string) []model.Order
	Order(id string) (model.Order, error)
	SubmitOrder(ctx context.Context, id string, cmd transition.Command) (*usecase.Pending, error)
	SubmitCreate(ctx context.Context, p transition.CreatePayload, driverID string) (*usecase.Pending, error)
	AssignCommand(driverID string) (transition.Command, error)
	OrderTimeline(ctx context.Context, id string) ([]model.TimelineEntry, error)
	Refresh(ctx context.Context) error
}

// BoardFacade projects cached orders into boards.
type BoardFacade interface {
	Board(kind board.Kind, driverID string) (board.View, error)
}

// DriverFacade manages the driver roster.
type DriverFacade interface {
	Drivers(activeOnly bool) []model.Driver
	CreateDriver(ctx context.Context, d model.Driver) (model.Driver, error)
	UpdateDriver(ctx context.Context, id string, patch model.DriverPatch) (model.Driver, error)
}

// CustomerFacade manages the customer directory.
type CustomerFacade interface {
	Customers(ctx context.Context, query string) ([]model.Customer, error)
	CreateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error)
}

// ReportFacade exports cached orders.
type ReportFacade interface {
	WriteOrdersCSV(w io.Writer) error
	Summary() usecase.Summary
}

// DispatchFacade aggregates the full set of operations used across handlers.
type DispatchFacade interface {
	AuthFacade
	OrderFacade
	BoardFacade
	DriverFacade
	CustomerFacade
	ReportFacade
	Health(ctx context.Context) error
}
