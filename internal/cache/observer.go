package cache

// ChangeKind describes what happened to the cached state.
type ChangeKind string

const (
	ChangeReplaced  ChangeKind = "replaced"
	ChangeInserted  ChangeKind = "inserted"
	ChangeUpdated   ChangeKind = "updated"
	ChangeConfirmed ChangeKind = "confirmed"
	ChangeReverted  ChangeKind = "reverted"
	ChangeRemoved   ChangeKind = "removed"
	ChangeDirty     ChangeKind = "dirty"
	ChangeDriver    ChangeKind = "driver"
)

// Change is delivered to observers after every store mutation.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	OrderID  string     `json:"orderId,omitempty"`
	DriverID string     `json:"driverId,omitempty"`
}

// Observer receives store changes. Calls happen outside the store lock,
// so observers may read from the store.
type Observer interface {
	StoreChanged(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) StoreChanged(c Change) { f(c) }
