package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/cache"
	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
	"github.com/polkiloo/dispatchboard/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/dispatchboard/internal/test"
	"github.com/polkiloo/dispatchboard/internal/test/facades"
	"github.com/polkiloo/dispatchboard/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != "" {
		t.Fatalf("expected empty id when not set, got %q", got)
	}

	c.Set(middleware.UserIDContextKey, "user-42")
	if got := CurrentUserID(c); got != "user-42" {
		t.Fatalf("expected user-42, got %q", got)
	}
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "persistence", err: &domainErrors.PersistenceError{Action: "complete", OrderID: "o", Err: domainErrors.ErrNotFound}, status: http.StatusBadGateway},
		{name: "validation", err: domainErrors.NewValidation("driverId", "is required"), status: http.StatusUnprocessableEntity},
		{name: "invalid state", err: domainErrors.ErrInvalidState, status: http.StatusConflict},
		{name: "already exists", err: domainErrors.ErrAlreadyExists, status: http.StatusConflict},
		{name: "not found", err: domainErrors.ErrNotFound, status: http.StatusNotFound},
		{name: "unauthenticated", err: domainErrors.ErrUnauthenticated, status: http.StatusUnauthorized},
		{name: "credentials", err: domainErrors.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodGet, "/", "/", func(c *gin.Context) { writeError(c, tt.err) }, nil, nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}

	resp := performRequest(t, http.MethodGet, "/", "/", func(c *gin.Context) {
		writeError(c, domainErrors.NewValidation("driverId", "is required"))
	}, nil, nil, nil)
	body := decode[dto.ErrorResponse](t, resp)
	if body.Fields["driverId"] != "is required" {
		t.Fatalf("expected field errors in body, got %+v", body)
	}
}

func TestAuthHandlerRegister(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	resp := performRequest(t, http.MethodPost, "/register", "/register", NewAuthHandler(testhelpers.AuthFacadeStub{}).Register, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Header().Get("Authorization") == "" {
		t.Fatalf("expected auth header to be set")
	}
	if got := decode[dto.AuthResponse](t, resp); got.Token != "token" {
		t.Fatalf("expected token in body, got %+v", got)
	}
}

func TestAuthHandlerRegisterSetsCookie(t *testing.T) {
	login := testhelpers.RandomASCIIString(7, 14)
	password := testhelpers.RandomASCIIString(16, 32)
	body, _ := json.Marshal(dto.AuthRequest{Login: login, Password: password})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{RegisterFn: func(ctx context.Context, gotLogin, gotPassword string) (string, error) {
		if gotLogin != login || gotPassword != password {
			t.Fatalf("unexpected credentials passed to facade: %q %q", gotLogin, gotPassword)
		}
		return "session-token", nil
	}})
	resp := performRequest(t, http.MethodPost, "/register", "/register", handler.Register, nil, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("unexpected authorization header %q", got)
	}
	result := resp.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	found := false
	for _, cookie := range result.Cookies() {
		if cookie.Name == "dispatchboard_token" && cookie.Value == "session-token" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected auth cookie named dispatchboard_token")
	}
}

func TestAuthHandlerFailures(t *testing.T) {
	tests := []struct {
		name   string
		login  bool
		facade testhelpers.AuthFacadeStub
		body   []byte
		status int
	}{
		{name: "register bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "register empty credentials", body: []byte(`{"login":"","password":""}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrInvalidCredentials
		}}, status: http.StatusBadRequest},
		{name: "register taken", body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrAlreadyExists
		}}, status: http.StatusConflict},
		{name: "register internal", body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("boom")
		}}, status: http.StatusInternalServerError},
		{name: "login bad json", login: true, body: []byte("not json"), status: http.StatusBadRequest},
		{name: "login invalid", login: true, body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrInvalidCredentials
		}}, status: http.StatusUnauthorized},
		{name: "login internal", login: true, body: []byte(`{"login":"a","password":"b"}`), facade: testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("boom")
		}}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(tt.facade)
			handler := h.Register
			if tt.login {
				handler = h.Login
			}
			resp := performRequest(t, http.MethodPost, "/", "/", handler, nil, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerListPassesQuery(t *testing.T) {
	var gotQuery string
	h := NewOrderHandler(facades.OrderFacadeStub{OrdersFn: func(q string) []model.Order {
		gotQuery = q
		return []model.Order{{ID: "a"}, {ID: "b"}}
	}})
	resp := performRequest(t, http.MethodGet, "/orders", "/orders?q=acme", h.List, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotQuery != "acme" {
		t.Fatalf("expected query acme, got %q", gotQuery)
	}
	if got := decode[[]dto.OrderResponse](t, resp); len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
}

func TestOrderHandlerListEmptyIsArray(t *testing.T) {
	h := NewOrderHandler(facades.OrderFacadeStub{OrdersFn: func(string) []model.Order { return nil }})
	resp := performRequest(t, http.MethodGet, "/orders", "/orders", h.List, nil, nil, nil)
	if strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}
}

func TestOrderHandlerGet(t *testing.T) {
	day := model.Tue
	h := NewOrderHandler(facades.OrderFacadeStub{OrderFn: func(id string) (model.Order, error) {
		if id == "missing" {
			return model.Order{}, domainErrors.ErrNotFound
		}
		return model.Order{ID: id, Stage: model.StagePicking, PickingColumn: model.ColumnTue, AssignedDay: &day}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/o-1", h.Get, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	got := decode[dto.OrderResponse](t, resp)
	if got.ID != "o-1" || got.AssignedDay == nil || *got.AssignedDay != "Tue" || got.AssignedDriverID != nil {
		t.Fatalf("unexpected order body: %+v", got)
	}

	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/missing", h.Get, nil, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	var (
		gotPayload transition.CreatePayload
		gotDriver  string
	)
	h := NewOrderHandler(facades.OrderFacadeStub{CreateFn: func(_ context.Context, p transition.CreatePayload, driverID string) (*usecase.Pending, error) {
		gotPayload, gotDriver = p, driverID
		return usecase.Settled(usecase.Result{Order: model.Order{ID: "new", OrderType: p.OrderType}}), nil
	}})
	body := []byte(`{"orderType":"DODD","fulfillmentType":"Delivery","customer":{"name":"Acme","coordinates":{"lat":1.5,"lng":2.5}},"isReady":false,"items":[{"partNumber":"P-1","quantity":2}],"driverId":"driver-3"}`)

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", h.Create, nil, body, jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotPayload.OrderType != model.OrderTypeDODD || gotPayload.FulfillmentType != model.FulfillmentDelivery {
		t.Fatalf("unexpected payload enums: %+v", gotPayload)
	}
	if gotPayload.Customer.Name != "Acme" || gotPayload.Customer.Coordinates == nil || gotPayload.Customer.Coordinates.Lng != 2.5 {
		t.Fatalf("unexpected customer snapshot: %+v", gotPayload.Customer)
	}
	if gotPayload.IsReady == nil || *gotPayload.IsReady {
		t.Fatalf("expected isReady=false to be carried")
	}
	if len(gotPayload.Items) != 1 || gotPayload.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", gotPayload.Items)
	}
	if gotDriver != "driver-3" {
		t.Fatalf("expected driver-3, got %q", gotDriver)
	}
}

func TestOrderHandlerCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(context.Context, transition.CreatePayload, string) (*usecase.Pending, error)
		body   []byte
		status int
	}{
		{name: "bad json", body: []byte("{"), status: http.StatusBadRequest},
		{name: "validation", body: []byte(`{}`), fn: func(context.Context, transition.CreatePayload, string) (*usecase.Pending, error) {
			return nil, domainErrors.NewValidation("customer.name", "is required")
		}, status: http.StatusUnprocessableEntity},
		{name: "write failed", body: []byte(`{}`), fn: func(context.Context, transition.CreatePayload, string) (*usecase.Pending, error) {
			return usecase.Settled(usecase.Result{Err: &domainErrors.PersistenceError{Action: "create", OrderID: "x", Err: errors.New("down")}}), nil
		}, status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(facades.OrderFacadeStub{CreateFn: tt.fn})
			resp := performRequest(t, http.MethodPost, "/orders", "/orders", h.Create, nil, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerCommands(t *testing.T) {
	var got transition.Command
	stub := facades.OrderFacadeStub{SubmitFn: func(_ context.Context, id string, cmd transition.Command) (*usecase.Pending, error) {
		got = cmd
		return usecase.Settled(usecase.Result{Order: model.Order{ID: id}}), nil
	}}
	h := NewOrderHandler(stub)

	tests := []struct {
		name    string
		route   string
		handler gin.HandlerFunc
		body    []byte
		check   func(transition.Command) bool
	}{
		{name: "move", route: "/orders/:id/move", handler: h.Move, body: []byte(`{"column":"Wed"}`), check: func(c transition.Command) bool {
			m, ok := c.(transition.MoveToColumn)
			return ok && m.Column == model.ColumnWed
		}},
		{name: "ready", route: "/orders/:id/ready", handler: h.Ready, check: func(c transition.Command) bool {
			_, ok := c.(transition.MarkReady)
			return ok
		}},
		{name: "complete", route: "/orders/:id/complete", handler: h.Complete, check: func(c transition.Command) bool {
			_, ok := c.(transition.Complete)
			return ok
		}},
		{name: "assign", route: "/orders/:id/assign", handler: h.Assign, body: []byte(`{"driverId":"d-9"}`), check: func(c transition.Command) bool {
			a, ok := c.(transition.AssignDriver)
			return ok && a.Driver.ID() == "d-9"
		}},
		{name: "edit", route: "/orders/:id", handler: h.Edit, body: []byte(`{"comments":"rear door","orderType":"JOBBER"}`), check: func(c transition.Command) bool {
			e, ok := c.(transition.EditFields)
			return ok && e.Comments != nil && *e.Comments == "rear door" && e.OrderType != nil && *e.OrderType == model.OrderTypeJobber && e.Items == nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			target := strings.Replace(tt.route, ":id", "o-1", 1)
			resp := performRequest(t, http.MethodPost, tt.route, target, tt.handler, nil, tt.body, jsonHeaders)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
			}
			if got == nil || !tt.check(got) {
				t.Fatalf("unexpected command %#v", got)
			}
		})
	}
}

func TestOrderHandlerSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		result usecase.Result
		err    error
		status int
	}{
		{name: "missing", result: usecase.Result{Missing: true}, status: http.StatusNotFound},
		{name: "illegal", err: domainErrors.ErrInvalidState, status: http.StatusConflict},
		{name: "rolled back", result: usecase.Result{Err: &domainErrors.PersistenceError{Action: "complete", OrderID: "o-1", Err: errors.New("down")}}, status: http.StatusBadGateway},
		{name: "local only", result: usecase.Result{Order: model.Order{ID: "o-1"}, Local: true}, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(facades.OrderFacadeStub{SubmitFn: func(context.Context, string, transition.Command) (*usecase.Pending, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return usecase.Settled(tt.result), nil
			}})
			resp := performRequest(t, http.MethodPost, "/orders/:id/complete", "/orders/o-1/complete", h.Complete, nil, nil, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerAssignUnknownDriver(t *testing.T) {
	h := NewOrderHandler(facades.OrderFacadeStub{AssignFn: func(string) (transition.Command, error) {
		return nil, domainErrors.ErrNotFound
	}})
	resp := performRequest(t, http.MethodPost, "/orders/:id/assign", "/orders/o-1/assign", h.Assign, nil, []byte(`{"driverId":"ghost"}`), jsonHeaders)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestOrderHandlerAsyncReturnsOptimisticRecord(t *testing.T) {
	seed := model.Order{
		ID:              "o-1",
		Stage:           model.StagePicking,
		PickingColumn:   model.ColumnUnassigned,
		OrderType:       model.OrderTypeDODD,
		FulfillmentType: model.FulfillmentDelivery,
		IsReady:         true,
		Customer:        model.CustomerSnapshot{Name: "Acme"},
	}
	store := cache.New(nil)
	store.ReplaceAll([]model.Order{seed}, nil)

	release := make(chan struct{})
	repo := testhelpers.NewOrderRepositoryStub(seed)
	repo.UpdateFn = func(_ context.Context, id string, p model.OrderPatch) (*model.Order, error) {
		<-release
		o := p.ApplyTo(seed)
		return &o, nil
	}
	orders := usecase.NewOrderUseCase(usecase.OrderDeps{
		Store:    store,
		Orders:   repo,
		Timeline: &testhelpers.TimelineRepositoryStub{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h := NewOrderHandler(facades.OrderFacadeStub{SubmitFn: orders.Submit})

	resp := performRequest(t, http.MethodPost, "/orders/:id/move", "/orders/o-1/move?async=true", h.Move, nil, []byte(`{"column":"Picked"}`), jsonHeaders)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", resp.Code)
	}
	got := decode[dto.OrderResponse](t, resp)
	if !got.Pending || got.PickingColumn != "Picked" || got.Stage != string(model.StageUnassignedDriver) {
		t.Fatalf("expected optimistic picked order, got %+v", got)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := orders.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if stored, _ := store.Order("o-1"); stored.PickingColumn != model.ColumnPicked {
		t.Fatalf("expected confirmed picked order, got %s", stored.PickingColumn)
	}
}

func TestOrderHandlerTimelineAndRefresh(t *testing.T) {
	prev := model.StagePicking
	h := NewOrderHandler(facades.OrderFacadeStub{
		TimelineFn: func(_ context.Context, id string) ([]model.TimelineEntry, error) {
			return []model.TimelineEntry{{ID: "t", OrderID: id, PreviousStage: &prev, Stage: model.StageUnassignedDriver}}, nil
		},
		RefreshFn: func(context.Context) error { return errors.New("db down") },
	})

	resp := performRequest(t, http.MethodGet, "/orders/:id/timeline", "/orders/o-1/timeline", h.Timeline, nil, nil, nil)
	entries := decode[[]dto.TimelineEntryResponse](t, resp)
	if len(entries) != 1 || entries[0].PreviousStage == nil || *entries[0].PreviousStage != "picking" {
		t.Fatalf("unexpected timeline: %+v", entries)
	}

	resp = performRequest(t, http.MethodPost, "/refresh", "/refresh", h.Refresh, nil, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestBoardHandlerShow(t *testing.T) {
	var (
		gotKind   board.Kind
		gotDriver string
	)
	h := NewBoardHandler(facades.BoardFacadeStub{BoardFn: func(kind board.Kind, driverID string) (board.View, error) {
		gotKind, gotDriver = kind, driverID
		return board.View{
			Kind:   kind,
			Orders: []model.Order{{ID: "o-1", Stage: model.StageAssignedDriver, AssignedDriverID: driverID}},
		}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/boards/drivers/:id/portal", "/boards/drivers/d-1/portal", h.Show(board.KindDriverPortal), nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotKind != board.KindDriverPortal || gotDriver != "d-1" {
		t.Fatalf("unexpected board request %s %s", gotKind, gotDriver)
	}
	got := decode[dto.BoardResponse](t, resp)
	if len(got.Orders) != 1 || got.Orders[0].AssignedDriverID == nil || *got.Orders[0].AssignedDriverID != "d-1" {
		t.Fatalf("unexpected board body: %+v", got)
	}
}

func TestBoardHandlerDispatchSections(t *testing.T) {
	h := NewBoardHandler(facades.BoardFacadeStub{BoardFn: func(kind board.Kind, _ string) (board.View, error) {
		return board.View{Kind: kind, Unassigned: &board.Unassigned{
			Ready:   []board.Card{{Order: model.Order{ID: "r"}, Draggable: true}},
			Pending: []board.Card{{Order: model.Order{ID: "p"}}},
		}}, nil
	}})
	resp := performRequest(t, http.MethodGet, "/boards/dispatch", "/boards/dispatch", h.Show(board.KindDispatch), nil, nil, nil)
	got := decode[dto.BoardResponse](t, resp)
	if got.Unassigned == nil || len(got.Unassigned.Ready) != 1 || !got.Unassigned.Ready[0].Draggable || got.Unassigned.Pending[0].Draggable {
		t.Fatalf("unexpected dispatch body: %+v", got)
	}
}

func TestBoardHandlerMissingDriver(t *testing.T) {
	h := NewBoardHandler(facades.BoardFacadeStub{BoardFn: func(kind board.Kind, driverID string) (board.View, error) {
		return board.View{}, domainErrors.NewValidation("driverId", "is required")
	}})
	resp := performRequest(t, http.MethodGet, "/boards/x", "/boards/x", h.Show(board.KindDriverSchedule), nil, nil, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
}

func TestDriverHandler(t *testing.T) {
	var activeOnly bool
	var created model.Driver
	h := NewDriverHandler(facades.DriverFacadeStub{
		DriversFn: func(active bool) []model.Driver {
			activeOnly = active
			return []model.Driver{{ID: "driver-1", Name: "Driver 1", LocalOnly: true, IsActive: true}}
		},
		CreateFn: func(_ context.Context, d model.Driver) (model.Driver, error) {
			created = d
			d.ID = "new"
			return d, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/drivers", "/drivers?active=true", h.List, nil, nil, nil)
	drivers := decode[[]dto.DriverResponse](t, resp)
	if !activeOnly || len(drivers) != 1 || !drivers[0].LocalOnly {
		t.Fatalf("unexpected driver list: active=%v %+v", activeOnly, drivers)
	}

	resp = performRequest(t, http.MethodPost, "/drivers", "/drivers", h.Create, nil, []byte(`{"name":"Sam","vehicleType":"van"}`), jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	if created.Name != "Sam" || created.VehicleType != model.VehicleVan || !created.IsActive {
		t.Fatalf("unexpected driver passed to facade: %+v", created)
	}
}

func TestDriverHandlerUpdate(t *testing.T) {
	h := NewDriverHandler(facades.DriverFacadeStub{UpdateFn: func(_ context.Context, id string, p model.DriverPatch) (model.Driver, error) {
		if id == "gone" {
			return model.Driver{}, domainErrors.ErrNotFound
		}
		if p.IsActive == nil || *p.IsActive || p.Name != nil {
			t.Fatalf("unexpected patch %+v", p)
		}
		return model.Driver{ID: id}, nil
	}})

	resp := performRequest(t, http.MethodPatch, "/drivers/:id", "/drivers/d-1", h.Update, nil, []byte(`{"isActive":false}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPatch, "/drivers/:id", "/drivers/gone", h.Update, nil, []byte(`{"isActive":false}`), jsonHeaders)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestCustomerHandler(t *testing.T) {
	h := NewCustomerHandler(facades.CustomerFacadeStub{
		CreateFn: func(_ context.Context, c model.Customer) (*model.Customer, error) {
			if c.Name == "" {
				return nil, domainErrors.NewValidation("name", "is required")
			}
			c.ID, c.Code = "c-1", "ACME-1234"
			return &c, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/customers", "/customers?q=acme", h.List, nil, nil, nil)
	if got := decode[[]dto.CustomerResponse](t, resp); len(got) != 1 {
		t.Fatalf("expected one customer, got %+v", got)
	}

	resp = performRequest(t, http.MethodPost, "/customers", "/customers", h.Create, func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, "user-1")
	}, []byte(`{"name":"Acme"}`), jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	if got := decode[dto.CustomerResponse](t, resp); got.Code != "ACME-1234" {
		t.Fatalf("unexpected customer: %+v", got)
	}

	resp = performRequest(t, http.MethodPost, "/customers", "/customers", h.Create, nil, []byte(`{"name":""}`), jsonHeaders)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPatch, "/customers/:id", "/customers/c-1", h.Update, nil, []byte(`{"name":"Acme Two"}`), jsonHeaders)
	if got := decode[dto.CustomerResponse](t, resp); got.Name != "Acme Two" {
		t.Fatalf("unexpected update: %+v", got)
	}
}

func TestReportHandler(t *testing.T) {
	h := NewReportHandler(facades.ReportFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/reports/orders.csv", "/reports/orders.csv", h.OrdersCSV, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(resp.Body.String(), "Order ID,Customer,Type,Stage,Date") {
		t.Fatalf("unexpected csv: %q", resp.Body.String())
	}

	resp = performRequest(t, http.MethodGet, "/reports/summary", "/reports/summary", h.Summary, nil, nil, nil)
	got := decode[dto.SummaryResponse](t, resp)
	if got.Total != 1 || len(got.ByType) != 1 || got.ByStage == nil {
		t.Fatalf("unexpected summary: %+v", got)
	}

	failing := NewReportHandler(facades.ReportFacadeStub{CSVFn: func(io.Writer) error { return errors.New("boom") }})
	resp = performRequest(t, http.MethodGet, "/reports/orders.csv", "/reports/orders.csv", failing.OrdersCSV, nil, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestHealth(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", Health(facades.DispatchFacadeStub{}), nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	down := facades.DispatchFacadeStub{HealthFn: func(context.Context) error { return errors.New("down") }}
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", Health(down), nil, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}
