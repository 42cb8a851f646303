package board

import (
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// Kind selects a board projection.
type Kind string

const (
	KindProcessing        Kind = "processing"
	KindDispatch          Kind = "dispatch"
	KindDispatchDriver    Kind = "dispatch_driver"
	KindDispatchCompleted Kind = "dispatch_completed"
	KindPickup            Kind = "pickup"
	KindDriverPortal      Kind = "driver_portal"
	KindDriverCompleted   Kind = "driver_completed"
	KindDriverSchedule    Kind = "driver_schedule"
)

// Params carries the inputs some projections need.
type Params struct {
	DriverID  string
	Now       time.Time
	Retention time.Duration
}

// View is the result of Project. Only the fields relevant to Kind are set.
type View struct {
	Kind       Kind
	Columns    []Column
	Unassigned *Unassigned
	Pickup     []PickupColumn
	Schedule   []DayColumn
	Orders     []model.Order
}

func (k Kind) needsDriver() bool {
	switch k {
	case KindDispatchDriver, KindDriverPortal, KindDriverCompleted, KindDriverSchedule:
		return true
	}
	return false
}

// Project computes the board of the given kind.
func Project(kind Kind, orders []model.Order, p Params) (View, error) {
	if kind.needsDriver() && p.DriverID == "" {
		return View{}, domainErrors.NewValidation("driverId", "is required")
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	v := View{Kind: kind}
	switch kind {
	case KindProcessing:
		v.Columns = ProcessingBoardColumns(orders)
	case KindDispatch:
		u := DispatchUnassigned(orders)
		v.Unassigned = &u
	case KindDispatchDriver:
		v.Orders = DispatchByDriver(orders, p.DriverID)
	case KindDispatchCompleted:
		v.Orders = DispatchCompleted(orders, p.Now, p.Retention)
	case KindPickup:
		v.Pickup = PickupBoardColumns(orders, p.Now)
	case KindDriverPortal:
		v.Orders = DriverPortalActive(orders, p.DriverID)
	case KindDriverCompleted:
		v.Orders = DriverPortalCompleted(orders, p.DriverID, p.Now, p.Retention)
	case KindDriverSchedule:
		v.Schedule = DriverSchedule(orders, p.DriverID)
	default:
		return View{}, domainErrors.NewValidation("board", "is unknown")
	}
	return v, nil
}
