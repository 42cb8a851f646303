package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[string]*model.User
	Next  int
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[string]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[string]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: fmt.Sprintf("user-%d", s.Next), Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// OrderRepositoryStub keeps orders in memory. Fn overrides take precedence
// and every call is counted.
type OrderRepositoryStub struct {
	CreateFn  func(context.Context, model.Order) (*model.Order, error)
	UpdateFn  func(context.Context, string, model.OrderPatch) (*model.Order, error)
	GetByIDFn func(context.Context, string) (*model.Order, error)
	ListFn    func(context.Context) ([]model.Order, error)

	mu      sync.Mutex
	orders  map[string]model.Order
	ids     []string
	patches []model.OrderPatch
	calls   map[string]int
}

// NewOrderRepositoryStub seeds the stub with orders, newest first.
func NewOrderRepositoryStub(orders ...model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{orders: make(map[string]model.Order), calls: make(map[string]int)}
	for _, o := range orders {
		s.orders[o.ID] = o.Clone()
		s.ids = append(s.ids, o.ID)
	}
	return s
}

func (s *OrderRepositoryStub) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

// Calls returns how often the named method was invoked.
func (s *OrderRepositoryStub) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// Patches returns every patch passed to Update, in call order.
func (s *OrderRepositoryStub) Patches() []model.OrderPatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OrderPatch(nil), s.patches...)
}

// Stored returns the persisted copy of an order.
func (s *OrderRepositoryStub) Stored(id string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o.Clone(), ok
}

func (s *OrderRepositoryStub) Create(ctx context.Context, o model.Order) (*model.Order, error) {
	s.count("Create")
	if s.CreateFn != nil {
		return s.CreateFn(ctx, o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = make(map[string]model.Order)
	}
	if _, exists := s.orders[o.ID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	s.orders[o.ID] = o.Clone()
	s.ids = append([]string{o.ID}, s.ids...)
	created := o.Clone()
	return &created, nil
}

func (s *OrderRepositoryStub) Update(ctx context.Context, id string, p model.OrderPatch) (*model.Order, error) {
	s.count("Update")
	s.mu.Lock()
	s.patches = append(s.patches, p)
	s.mu.Unlock()
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	o = p.ApplyTo(o)
	s.orders[id] = o
	updated := o.Clone()
	return &updated, nil
}

func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	s.count("GetByID")
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	found := o.Clone()
	return &found, nil
}

func (s *OrderRepositoryStub) List(ctx context.Context) ([]model.Order, error) {
	s.count("List")
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}

// DriverRepositoryStub keeps drivers in memory.
type DriverRepositoryStub struct {
	CreateFn func(context.Context, model.Driver) (*model.Driver, error)
	UpdateFn func(context.Context, string, model.DriverPatch) (*model.Driver, error)
	ListFn   func(context.Context) ([]model.Driver, error)

	mu      sync.Mutex
	drivers []model.Driver
}

func NewDriverRepositoryStub(drivers ...model.Driver) *DriverRepositoryStub {
	return &DriverRepositoryStub{drivers: append([]model.Driver(nil), drivers...)}
}

func (s *DriverRepositoryStub) Create(ctx context.Context, d model.Driver) (*model.Driver, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.drivers = append(s.drivers, d)
	return &d, nil
}

func (s *DriverRepositoryStub) Update(ctx context.Context, id string, p model.DriverPatch) (*model.Driver, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.drivers {
		if d.ID == id {
			s.drivers[i] = p.ApplyTo(d)
			updated := s.drivers[i]
			return &updated, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *DriverRepositoryStub) List(ctx context.Context) ([]model.Driver, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Driver(nil), s.drivers...), nil
}

// CustomerRepositoryStub keeps customers in memory.
type CustomerRepositoryStub struct {
	CreateFn func(context.Context, model.Customer) (*model.Customer, error)
	UpdateFn func(context.Context, string, model.CustomerPatch) (*model.Customer, error)
	ListFn   func(context.Context) ([]model.Customer, error)

	mu        sync.Mutex
	customers []model.Customer
}

func NewCustomerRepositoryStub(customers ...model.Customer) *CustomerRepositoryStub {
	return &CustomerRepositoryStub{customers: append([]model.Customer(nil), customers...)}
}

func (s *CustomerRepositoryStub) Create(ctx context.Context, c model.Customer) (*model.Customer, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.customers = append(s.customers, c)
	return &c, nil
}

func (s *CustomerRepositoryStub) Update(ctx context.Context, id string, p model.CustomerPatch) (*model.Customer, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.customers {
		if c.ID != id {
			continue
		}
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Code != nil {
			c.Code = *p.Code
		}
		if p.Address != nil {
			c.Address = *p.Address
		}
		if p.Phone != nil {
			c.Phone = *p.Phone
		}
		if p.Email != nil {
			c.Email = *p.Email
		}
		if p.Coordinates != nil {
			coords := *p.Coordinates
			c.Coordinates = &coords
		}
		s.customers[i] = c
		return &c, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *CustomerRepositoryStub) List(ctx context.Context) ([]model.Customer, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Customer(nil), s.customers...), nil
}

// TimelineRepositoryStub records appended entries.
type TimelineRepositoryStub struct {
	AppendFn func(context.Context, model.TimelineEntry) error

	mu      sync.Mutex
	entries []model.TimelineEntry
}

func (s *TimelineRepositoryStub) Append(ctx context.Context, e model.TimelineEntry) error {
	if s.AppendFn != nil {
		return s.AppendFn(ctx, e)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *TimelineRepositoryStub) ListByOrder(ctx context.Context, orderID string) ([]model.TimelineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TimelineEntry
	for _, e := range s.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
