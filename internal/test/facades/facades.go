// Package facades holds HTTP facade stubs. They live apart from package test
// because they depend on the usecase package.
package facades

import (
	"context"
	"io"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	testhelpers "github.com/polkiloo/dispatchboard/internal/test"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	OrdersFn   func(string) []model.Order
	OrderFn    func(string) (model.Order, error)
	SubmitFn   func(context.Context, string, transition.Command) (*usecase.Pending, error)
	CreateFn   func(context.Context, transition.CreatePayload, string) (*usecase.Pending, error)
	AssignFn   func(string) (transition.Command, error)
	TimelineFn func(context.Context, string) ([]model.TimelineEntry, error)
	RefreshFn  func(context.Context) error
}

// Orders returns predefined orders matching the query.
func (s OrderFacadeStub) Orders(query string) []model.Order {
	if s.OrdersFn != nil {
		return s.OrdersFn(query)
	}
	return []model.Order{{ID: "order-1", OrderNumber: "ORD-1", Stage: model.StagePicking}}
}

// Order returns a single order.
func (s OrderFacadeStub) Order(id string) (model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(id)
	}
	return model.Order{ID: id, Stage: model.StagePicking}, nil
}

// SubmitOrder settles the command immediately unless overridden.
func (s OrderFacadeStub) SubmitOrder(ctx context.Context, id string, cmd transition.Command) (*usecase.Pending, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, id, cmd)
	}
	return usecase.Settled(usecase.Result{Order: model.Order{ID: id, Stage: model.StagePicking}}), nil
}

// SubmitCreate settles a created order immediately unless overridden.
func (s OrderFacadeStub) SubmitCreate(ctx context.Context, p transition.CreatePayload, driverID string) (*usecase.Pending, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, p, driverID)
	}
	o := model.Order{ID: "order-new", OrderType: p.OrderType, Stage: model.StagePicking, AssignedDriverID: driverID}
	return usecase.Settled(usecase.Result{Order: o}), nil
}

// AssignCommand resolves any driver as persisted unless overridden.
func (s OrderFacadeStub) AssignCommand(driverID string) (transition.Command, error) {
	if s.AssignFn != nil {
		return s.AssignFn(driverID)
	}
	return transition.AssignDriver{Driver: model.PersistedDriver(driverID)}, nil
}

// OrderTimeline returns the stage history of an order.
func (s OrderFacadeStub) OrderTimeline(ctx context.Context, id string) ([]model.TimelineEntry, error) {
	if s.TimelineFn != nil {
		return s.TimelineFn(ctx, id)
	}
	return []model.TimelineEntry{{ID: "t-1", OrderID: id, Stage: model.StagePicking, Notes: "created"}}, nil
}

// Refresh reloads the cache.
func (s OrderFacadeStub) Refresh(ctx context.Context) error {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx)
	}
	return nil
}

// BoardFacadeStub projects boards.
type BoardFacadeStub struct {
	BoardFn func(board.Kind, string) (board.View, error)
}

// Board returns an empty view of the requested kind unless overridden.
func (s BoardFacadeStub) Board(kind board.Kind, driverID string) (board.View, error) {
	if s.BoardFn != nil {
		return s.BoardFn(kind, driverID)
	}
	return board.View{Kind: kind}, nil
}

// DriverFacadeStub manages the roster.
type DriverFacadeStub struct {
	DriversFn func(bool) []model.Driver
	CreateFn  func(context.Context, model.Driver) (model.Driver, error)
	UpdateFn  func(context.Context, string, model.DriverPatch) (model.Driver, error)
}

func (s DriverFacadeStub) Drivers(activeOnly bool) []model.Driver {
	if s.DriversFn != nil {
		return s.DriversFn(activeOnly)
	}
	return []model.Driver{{ID: "driver-1", Name: "Driver 1", IsActive: true, LocalOnly: true}}
}

func (s DriverFacadeStub) CreateDriver(ctx context.Context, d model.Driver) (model.Driver, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, d)
	}
	d.ID = "driver-new"
	return d, nil
}

func (s DriverFacadeStub) UpdateDriver(ctx context.Context, id string, patch model.DriverPatch) (model.Driver, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, patch)
	}
	return patch.ApplyTo(model.Driver{ID: id}), nil
}

// CustomerFacadeStub manages the customer directory.
type CustomerFacadeStub struct {
	CustomersFn func(context.Context, string) ([]model.Customer, error)
	CreateFn    func(context.Context, model.Customer) (*model.Customer, error)
	UpdateFn    func(context.Context, string, model.CustomerPatch) (*model.Customer, error)
}

func (s CustomerFacadeStub) Customers(ctx context.Context, query string) ([]model.Customer, error) {
	if s.CustomersFn != nil {
		return s.CustomersFn(ctx, query)
	}
	return []model.Customer{{ID: "customer-1", Code: "ACME-1234", Name: "Acme"}}, nil
}

func (s CustomerFacadeStub) CreateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, c)
	}
	c.ID = "customer-new"
	return &c, nil
}

func (s CustomerFacadeStub) UpdateCustomer(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, patch)
	}
	c := model.Customer{ID: id}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	return &c, nil
}

// ReportFacadeStub exports reports.
type ReportFacadeStub struct {
	CSVFn     func(io.Writer) error
	SummaryFn func() usecase.Summary
}

func (s ReportFacadeStub) WriteOrdersCSV(w io.Writer) error {
	if s.CSVFn != nil {
		return s.CSVFn(w)
	}
	_, err := io.WriteString(w, "Order ID,Customer,Type,Stage,Date\n")
	return err
}

func (s ReportFacadeStub) Summary() usecase.Summary {
	if s.SummaryFn != nil {
		return s.SummaryFn()
	}
	return usecase.Summary{Total: 1, ByType: []board.Count{{Key: "DELIVERY", Count: 1}}}
}

// DispatchFacadeStub aggregates facade dependencies for HTTP layer tests.
type DispatchFacadeStub struct {
	testhelpers.AuthFacadeStub
	OrderFacadeStub
	BoardFacadeStub
	DriverFacadeStub
	CustomerFacadeStub
	ReportFacadeStub
	HealthFn func(context.Context) error
}

func (s DispatchFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

