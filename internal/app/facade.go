package app

import (
	"context"
	"io"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

// HealthChecker reports whether the remote store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DispatchFacade adapts the use cases to the HTTP handlers.
type DispatchFacade struct {
	auth      *usecase.AuthUseCase
	orders    *usecase.OrderUseCase
	drivers   *usecase.DriverUseCase
	customers *usecase.CustomerUseCase
	reports   *usecase.ReportUseCase
	health    HealthChecker
}

type facadeDeps struct {
	Auth      *usecase.AuthUseCase
	Orders    *usecase.OrderUseCase
	Drivers   *usecase.DriverUseCase
	Customers *usecase.CustomerUseCase
	Reports   *usecase.ReportUseCase
	Health    HealthChecker
}

func newDispatchFacade(d facadeDeps) *DispatchFacade {
	return &DispatchFacade{
		auth:      d.Auth,
		orders:    d.Orders,
		drivers:   d.Drivers,
		customers: d.Customers,
		reports:   d.Reports,
		health:    d.Health,
	}
}

func (f *DispatchFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *DispatchFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *DispatchFacade) Identify(ctx context.Context, token string) (string, error) {
	usr, err := f.auth.Identify(ctx, token)
	if err != nil {
		return "", err
	}
	return usr.ID, nil
}

func (f *DispatchFacade) Orders(query string) []model.Order {
	return f.orders.Orders(query)
}

func (f *DispatchFacade) Order(id string) (model.Order, error) {
	return f.orders.Order(id)
}

func (f *DispatchFacade) SubmitOrder(ctx context.Context, id string, cmd transition.Command) (*usecase.Pending, error) {
	return f.orders.Submit(ctx, id, cmd)
}

func (f *DispatchFacade) SubmitCreate(ctx context.Context, p transition.CreatePayload, driverID string) (*usecase.Pending, error) {
	return f.orders.SubmitCreate(ctx, p, driverID)
}

func (f *DispatchFacade) AssignCommand(driverID string) (transition.Command, error) {
	return f.orders.AssignCommand(driverID)
}

func (f *DispatchFacade) OrderTimeline(ctx context.Context, id string) ([]model.TimelineEntry, error) {
	if _, err := f.orders.Order(id); err != nil {
		return nil, err
	}
	return f.orders.Timeline(ctx, id)
}

func (f *DispatchFacade) Refresh(ctx context.Context) error {
	return f.orders.Refresh(ctx)
}

func (f *DispatchFacade) Board(kind board.Kind, driverID string) (board.View, error) {
	return f.orders.Board(kind, driverID)
}

func (f *DispatchFacade) Drivers(activeOnly bool) []model.Driver {
	return f.drivers.List(activeOnly)
}

func (f *DispatchFacade) CreateDriver(ctx context.Context, d model.Driver) (model.Driver, error) {
	return f.drivers.Create(ctx, d)
}

func (f *DispatchFacade) UpdateDriver(ctx context.Context, id string, patch model.DriverPatch) (model.Driver, error) {
	return f.drivers.Update(ctx, id, patch)
}

// Customers lists the directory, filtered when query is not empty.
func (f *DispatchFacade) Customers(ctx context.Context, query string) ([]model.Customer, error) {
	if query == "" {
		return f.customers.List(ctx)
	}
	return f.customers.Search(ctx, query)
}

func (f *DispatchFacade) CreateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error) {
	return f.customers.Create(ctx, c)
}

func (f *DispatchFacade) UpdateCustomer(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	return f.customers.Update(ctx, id, patch)
}

func (f *DispatchFacade) WriteOrdersCSV(w io.Writer) error {
	return f.reports.WriteOrdersCSV(w)
}

func (f *DispatchFacade) Summary() usecase.Summary {
	return f.reports.Summary()
}

func (f *DispatchFacade) Health(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
