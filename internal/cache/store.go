// Package cache holds the in-memory mirror of orders and drivers that every
// board reads from. It is mutated optimistically before remote writes finish.
package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
)

// localAssignment is a local-only driver kept over the canonical record. The
// baseline is what the server held when the assignment was made; once the
// server reports a different driver the assignment is dropped.
type localAssignment struct {
	driverID     string
	baseDriverID string
	baseStage    model.Stage
}

type entry struct {
	order     model.Order
	confirmed *model.Order
	version   uint64
	dirty     bool
}

// synced reports whether the local record has no unconfirmed changes.
func (e *entry) synced() bool {
	return e.confirmed != nil && reflect.DeepEqual(e.order, *e.confirmed)
}

// Applied describes one optimistic mutation.
type Applied struct {
	Before  model.Order
	After   model.Order
	Version uint64
}

// Store is the process-local cache of orders and drivers.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	seq      uint64
	ids      []string
	entries  map[string]*entry
	drivers  map[string]model.Driver
	seeds    []model.Driver
	overlays map[string]localAssignment

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// Option customises Store construction.
type Option func(*Store)

// WithClock overrides the clock used for transitions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds an empty store seeded with the local-only drivers.
func New(localDrivers []model.Driver, opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		entries:   make(map[string]*entry),
		drivers:   make(map[string]model.Driver),
		overlays:  make(map[string]localAssignment),
		observers: make(map[int]Observer),
	}
	for _, d := range localDrivers {
		d.LocalOnly = true
		s.seeds = append(s.seeds, d)
		s.drivers[d.ID] = d
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocalDrivers builds the fixed set of local-only drivers from ids.
func LocalDrivers(ids []string) []model.Driver {
	drivers := make([]model.Driver, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		drivers = append(drivers, model.Driver{
			ID:          id,
			Name:        fmt.Sprintf("Driver %d", i+1),
			VehicleType: model.VehicleTruck,
			IsActive:    true,
			LocalOnly:   true,
		})
	}
	return drivers
}

// Subscribe registers an observer and returns a function removing it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) emit(changes ...Change) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()

	for _, c := range changes {
		for _, o := range observers {
			o.StoreChanged(c)
		}
	}
}

func (s *Store) bump() uint64 {
	s.seq++
	return s.seq
}

// ReplaceAll swaps the whole cache for freshly loaded records.
func (s *Store) ReplaceAll(orders []model.Order, drivers []model.Driver) {
	s.mu.Lock()
	s.drivers = make(map[string]model.Driver, len(drivers)+len(s.seeds))
	for _, d := range s.seeds {
		s.drivers[d.ID] = d
	}
	for _, d := range drivers {
		d.LocalOnly = false
		s.drivers[d.ID] = d
	}

	s.ids = make([]string, 0, len(orders))
	s.entries = make(map[string]*entry, len(orders))
	for _, o := range orders {
		if _, dup := s.entries[o.ID]; dup {
			continue
		}
		canonical := s.overlay(o.Clone())
		confirmed := canonical.Clone()
		s.ids = append(s.ids, o.ID)
		s.entries[o.ID] = &entry{order: canonical, confirmed: &confirmed, version: s.bump()}
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReplaced})
}

// overlay re-applies local-only driver assignments to a canonical record.
func (s *Store) overlay(o model.Order) model.Order {
	la, ok := s.overlays[o.ID]
	if !ok {
		return o
	}
	if o.AssignedDriverID != la.baseDriverID {
		delete(s.overlays, o.ID)
		return o
	}
	o.AssignedDriverID = la.driverID
	if o.Stage == la.baseStage && !o.IsCompleted() {
		o.Stage = model.StageAssignedDriver
	}
	return o
}

// ApplyLocal runs cmd against the cached order. A missing order is a no-op
// and reports ok=false. Engine errors leave the cache untouched.
func (s *Store) ApplyLocal(orderID string, cmd transition.Command) (Applied, bool, error) {
	s.mu.Lock()
	e, ok := s.entries[orderID]
	if !ok {
		s.mu.Unlock()
		return Applied{}, false, nil
	}
	next, err := transition.Apply(e.order, cmd, s.now())
	if err != nil {
		s.mu.Unlock()
		return Applied{}, true, err
	}
	applied := Applied{Before: e.order.Clone(), After: next.Clone()}
	e.order = next
	e.version = s.bump()
	applied.Version = e.version
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeUpdated, OrderID: orderID})
	return applied, true, nil
}

// AssignDriverLocal applies the AssignDriver transition for an assignable
// driver. A missing order is a no-op.
func (s *Store) AssignDriverLocal(orderID, driverID string) (Applied, bool, error) {
	ref, err := s.AssignableDriver(driverID)
	if err != nil {
		return Applied{}, false, err
	}
	return s.ApplyLocal(orderID, transition.AssignDriver{Driver: ref})
}

// InsertLocal adds a new, not yet confirmed order in front of the others.
func (s *Store) InsertLocal(o model.Order) (uint64, error) {
	if err := model.CheckInvariants(o); err != nil {
		return 0, err
	}
	s.mu.Lock()
	if _, exists := s.entries[o.ID]; exists {
		s.mu.Unlock()
		return 0, fmt.Errorf("order %s: %w", o.ID, domainErrors.ErrAlreadyExists)
	}
	e := &entry{order: o.Clone(), version: s.bump()}
	s.entries[o.ID] = e
	s.ids = append([]string{o.ID}, s.ids...)
	version := e.version
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeInserted, OrderID: o.ID})
	return version, nil
}

// Confirm records the canonical server copy of an order. The local record is
// replaced unless it carries newer unconfirmed mutations. It reports whether
// the local record was replaced.
func (s *Store) Confirm(canonical model.Order, version uint64) bool {
	s.mu.Lock()
	canonical = s.overlay(canonical.Clone())
	confirmed := canonical.Clone()
	e, ok := s.entries[canonical.ID]
	if !ok {
		e = &entry{order: canonical, confirmed: &confirmed, version: s.bump()}
		s.entries[canonical.ID] = e
		s.ids = append([]string{canonical.ID}, s.ids...)
		s.mu.Unlock()
		s.emit(Change{Kind: ChangeConfirmed, OrderID: canonical.ID})
		return true
	}
	replace := e.version == version || e.synced()
	e.confirmed = &confirmed
	if replace {
		e.order = canonical
		e.version = s.bump()
		e.dirty = false
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeConfirmed, OrderID: canonical.ID})
	return replace
}

// ConfirmLocal accepts the fields of a mutation that is never written
// remotely as confirmed. A local-only driver assignment is remembered so it
// survives reloads of the canonical record.
func (s *Store) ConfirmLocal(applied Applied, fields []model.Field) {
	orderID := applied.After.ID
	s.mu.Lock()
	e, ok := s.entries[orderID]
	if !ok {
		s.mu.Unlock()
		return
	}
	base := applied.Before
	if e.confirmed != nil {
		base = *e.confirmed
	}
	if d, isDriver := s.drivers[applied.After.AssignedDriverID]; isDriver && d.LocalOnly {
		la, exists := s.overlays[orderID]
		if !exists {
			la = localAssignment{baseDriverID: base.AssignedDriverID, baseStage: base.Stage}
		}
		la.driverID = d.ID
		s.overlays[orderID] = la
	}
	confirmed := model.PatchOf(applied.After, fields...).ApplyTo(base)
	e.confirmed = &confirmed
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeConfirmed, OrderID: orderID})
}

// ForgetOverlay drops a remembered local-only assignment.
func (s *Store) ForgetOverlay(orderID string) {
	s.mu.Lock()
	delete(s.overlays, orderID)
	s.mu.Unlock()
}

// Revert restores the given fields to their last confirmed values when no
// newer local mutation exists. Otherwise the order is marked dirty for
// reconciliation. It reports whether the record was reverted.
func (s *Store) Revert(orderID string, fields []model.Field, version uint64) bool {
	s.mu.Lock()
	e, ok := s.entries[orderID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if e.synced() {
		s.mu.Unlock()
		return false
	}
	if e.version != version || e.confirmed == nil {
		e.dirty = true
		s.mu.Unlock()
		s.emit(Change{Kind: ChangeDirty, OrderID: orderID})
		return false
	}

	reverted := model.PatchOf(*e.confirmed, fields...).ApplyTo(e.order)
	if e.dirty || model.CheckInvariants(reverted) != nil {
		reverted = e.confirmed.Clone()
	}
	e.order = reverted
	e.version = s.bump()
	e.dirty = false
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReverted, OrderID: orderID})
	return true
}

// Remove drops an order that never reached the server.
func (s *Store) Remove(orderID string) bool {
	s.mu.Lock()
	if _, ok := s.entries[orderID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.entries, orderID)
	delete(s.overlays, orderID)
	for i, id := range s.ids {
		if id == orderID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeRemoved, OrderID: orderID})
	return true
}

// MarkDirty flags an order for reconciliation.
func (s *Store) MarkDirty(orderID string) {
	s.mu.Lock()
	e, ok := s.entries[orderID]
	if ok {
		e.dirty = true
	}
	s.mu.Unlock()
	if ok {
		s.emit(Change{Kind: ChangeDirty, OrderID: orderID})
	}
}

// Dirty lists orders awaiting reconciliation.
func (s *Store) Dirty() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.ids {
		if s.entries[id].dirty {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsDirty reports whether the order awaits reconciliation.
func (s *Store) IsDirty(orderID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[orderID]
	return ok && e.dirty
}

// Version returns the mutation counter of an order.
func (s *Store) Version(orderID string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[orderID]
	if !ok {
		return 0, false
	}
	return e.version, true
}

// Order returns a copy of the cached order.
func (s *Store) Order(orderID string) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[orderID]
	if !ok {
		return model.Order{}, false
	}
	return e.order.Clone(), true
}

// Confirmed returns the last server-confirmed copy of an order.
func (s *Store) Confirmed(orderID string) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[orderID]
	if !ok || e.confirmed == nil {
		return model.Order{}, false
	}
	return e.confirmed.Clone(), true
}

// Orders returns a snapshot of all orders, newest first.
func (s *Store) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.entries[id].order.Clone())
	}
	return out
}

// Drivers returns all drivers sorted by name.
func (s *Store) Drivers() []model.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ActiveDrivers returns drivers available for assignment.
func (s *Store) ActiveDrivers() []model.Driver {
	all := s.Drivers()
	out := all[:0]
	for _, d := range all {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out
}

// Driver returns a cached driver.
func (s *Store) Driver(id string) (model.Driver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	return d, ok
}

// AssignableDriver resolves a driver that may take new orders. Unknown ids
// wrap ErrNotFound; deactivated drivers are a validation error.
func (s *Store) AssignableDriver(id string) (model.DriverRef, error) {
	d, ok := s.Driver(id)
	if !ok {
		return model.DriverRef{}, fmt.Errorf("driver %s: %w", id, domainErrors.ErrNotFound)
	}
	if !d.IsActive {
		return model.DriverRef{}, domainErrors.NewValidation("driverId", "is inactive")
	}
	return d.Ref(), nil
}

// UpsertDriver stores a driver record.
func (s *Store) UpsertDriver(d model.Driver) {
	s.mu.Lock()
	if existing, ok := s.drivers[d.ID]; ok && existing.LocalOnly {
		d.LocalOnly = true
	}
	s.drivers[d.ID] = d
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeDriver, DriverID: d.ID})
}

// PatchDriver merges patch into a cached driver and returns the previous and
// new values.
func (s *Store) PatchDriver(id string, patch model.DriverPatch) (before, after model.Driver, ok bool) {
	s.mu.Lock()
	before, ok = s.drivers[id]
	if !ok {
		s.mu.Unlock()
		return model.Driver{}, model.Driver{}, false
	}
	after = patch.ApplyTo(before)
	s.drivers[id] = after
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeDriver, DriverID: id})
	return before, after, true
}
