package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/cache"
	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	pkgAuth "github.com/polkiloo/dispatchboard/internal/pkg/auth"
	testhelpers "github.com/polkiloo/dispatchboard/internal/test"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

type facadeFixture struct {
	facade    *DispatchFacade
	store     *cache.Store
	users     *testhelpers.UserRepositoryStub
	orders    *testhelpers.OrderRepositoryStub
	customers *testhelpers.CustomerRepositoryStub
}

func newFacadeFixture(t *testing.T, seed ...model.Order) facadeFixture {
	t.Helper()
	store := cache.New(cache.LocalDrivers([]string{"driver-1"}))
	users := testhelpers.NewUserRepositoryStub()
	orders := testhelpers.NewOrderRepositoryStub(seed...)
	drivers := testhelpers.NewDriverRepositoryStub()
	customers := testhelpers.NewCustomerRepositoryStub(model.Customer{ID: "c-1", Code: "ACME-1000", Name: "Acme"})
	timeline := &testhelpers.TimelineRepositoryStub{}
	strategy := testhelpers.StrategyStub{ParseFn: func(token string) (string, error) {
		id, ok := strings.CutPrefix(token, "token:")
		if !ok {
			return "", pkgAuth.ErrInvalidToken
		}
		return id, nil
	}}

	orderUC := usecase.NewOrderUseCase(usecase.OrderDeps{
		Store: store, Orders: orders, Drivers: drivers, Timeline: timeline, Logger: discardLogger(),
	})
	if err := orderUC.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	f := newDispatchFacade(facadeDeps{
		Auth:      usecase.NewAuthUseCase(users, testhelpers.HasherStub{}, strategy),
		Orders:    orderUC,
		Drivers:   usecase.NewDriverUseCase(usecase.DriverDeps{Store: store, Drivers: drivers, Logger: discardLogger()}),
		Customers: usecase.NewCustomerUseCase(customers),
		Reports:   usecase.NewReportUseCase(store),
		Health:    healthStub{},
	})
	return facadeFixture{facade: f, store: store, users: users, orders: orders, customers: customers}
}

func pickingOrder(id string) model.Order {
	return model.Order{
		ID:              id,
		OrderNumber:     "ORD-" + id,
		Stage:           model.StagePicking,
		PickingColumn:   model.ColumnUnassigned,
		OrderType:       model.OrderTypeDODD,
		FulfillmentType: model.FulfillmentDelivery,
		IsReady:         true,
		Customer:        model.CustomerSnapshot{Name: "Acme"},
	}
}

func TestDispatchFacadeAuth(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	token, err := fx.facade.Register(ctx, "user", "pass")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if !strings.HasPrefix(token, "token:") {
		t.Fatalf("unexpected token %q", token)
	}
	if _, err := fx.users.GetByLogin(ctx, "user"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if _, err := fx.facade.Authenticate(ctx, "user", "wrong"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	id, err := fx.facade.Identify(ctx, token)
	if err != nil || id != "user-1" {
		t.Fatalf("unexpected identify result %q %v", id, err)
	}
	if _, err := fx.facade.Identify(ctx, "token:user-404"); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token for unknown user, got %v", err)
	}
}

func TestDispatchFacadeOrderFlow(t *testing.T) {
	fx := newFacadeFixture(t, pickingOrder("o-1"))
	ctx := usecase.WithUser(context.Background(), "user-1")

	pending, err := fx.facade.SubmitOrder(ctx, "o-1", transition.MoveToColumn{Column: model.ColumnPicked})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	r := pending.Wait(ctx)
	if r.Err != nil || r.Order.Stage != model.StageUnassignedDriver {
		t.Fatalf("unexpected move result %+v", r)
	}

	cmd, err := fx.facade.AssignCommand("driver-1")
	if err != nil {
		t.Fatalf("assign command: %v", err)
	}
	pending, err = fx.facade.SubmitOrder(ctx, "o-1", cmd)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if r := pending.Wait(ctx); !r.Local || r.Order.AssignedDriverID != "driver-1" {
		t.Fatalf("expected local-only assignment, got %+v", r)
	}

	view, err := fx.facade.Board(board.KindDriverPortal, "driver-1")
	if err != nil || len(view.Orders) != 1 {
		t.Fatalf("expected order on the driver portal, got %+v %v", view, err)
	}

	entries, err := fx.facade.OrderTimeline(ctx, "o-1")
	if err != nil || len(entries) != 1 || entries[0].Stage != model.StageUnassignedDriver {
		t.Fatalf("unexpected timeline %+v %v", entries, err)
	}
	if _, err := fx.facade.OrderTimeline(ctx, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found timeline, got %v", err)
	}

	if got := fx.facade.Orders("acme"); len(got) != 1 {
		t.Fatalf("expected search hit, got %d", len(got))
	}
}

func TestDispatchFacadeCreateAndReports(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := usecase.WithUser(context.Background(), "user-1")

	pending, err := fx.facade.SubmitCreate(ctx, transition.CreatePayload{
		OrderType:       model.OrderTypeHotshot,
		FulfillmentType: model.FulfillmentDelivery,
		Customer:        model.CustomerSnapshot{Name: "Bolt Co"},
	}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r := pending.Wait(ctx)
	if r.Err != nil {
		t.Fatalf("create write failed: %v", r.Err)
	}
	if _, ok := fx.orders.Stored(r.Order.ID); !ok {
		t.Fatal("expected created order to be persisted")
	}

	var buf bytes.Buffer
	if err := fx.facade.WriteOrdersCSV(&buf); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.Contains(buf.String(), "Bolt Co") {
		t.Fatalf("expected order row in csv, got %q", buf.String())
	}
	if s := fx.facade.Summary(); s.Total != 1 {
		t.Fatalf("expected one order in summary, got %+v", s)
	}
	if err := fx.facade.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := fx.facade.Order(r.Order.ID); err != nil {
		t.Fatalf("expected order after refresh: %v", err)
	}
}

func TestDispatchFacadeDriversAndCustomers(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := usecase.WithUser(context.Background(), "user-1")

	created, err := fx.facade.CreateDriver(ctx, model.Driver{Name: "Sam", IsActive: true})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	if len(fx.facade.Drivers(true)) != 2 {
		t.Fatalf("expected local and created drivers, got %+v", fx.facade.Drivers(true))
	}
	inactive := false
	if _, err := fx.facade.UpdateDriver(ctx, created.ID, model.DriverPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("update driver: %v", err)
	}
	if len(fx.facade.Drivers(true)) != 1 {
		t.Fatalf("expected deactivated driver to drop from active list")
	}

	all, err := fx.facade.Customers(ctx, "")
	if err != nil || len(all) != 1 {
		t.Fatalf("unexpected customers %+v %v", all, err)
	}
	hits, err := fx.facade.Customers(ctx, "zzz")
	if err != nil || len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v %v", hits, err)
	}
	c, err := fx.facade.CreateCustomer(ctx, model.Customer{Name: "Bolt Co"})
	if err != nil || !strings.HasPrefix(c.Code, "BOLT-") {
		t.Fatalf("unexpected customer %+v %v", c, err)
	}
	name := "Bolt Company"
	if updated, err := fx.facade.UpdateCustomer(ctx, c.ID, model.CustomerPatch{Name: &name}); err != nil || updated.Name != name {
		t.Fatalf("unexpected update %+v %v", updated, err)
	}
}

func TestDispatchFacadeHealth(t *testing.T) {
	f := newDispatchFacade(facadeDeps{Health: healthStub{err: errors.New("down")}})
	if err := f.Health(context.Background()); err == nil {
		t.Fatal("expected health error")
	}
}
