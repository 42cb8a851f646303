// Package board derives the read-only views shown on each board from a
// snapshot of cached orders. Every function is total: no match yields an
// empty slice.
package board

import (
	"sort"
	"strings"
	"time"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// DefaultRetention is how long completed orders stay visible.
const DefaultRetention = 7 * 24 * time.Hour

// Column is one processing board column.
type Column struct {
	Key    model.PickingColumn
	Orders []model.Order
}

// Card wraps an order with its drag state on the dispatch board.
type Card struct {
	Order     model.Order
	Draggable bool
}

// Unassigned is the left-hand list of the dispatch board.
type Unassigned struct {
	Ready   []Card
	Pending []Card
}

// PickupBucket names a pickup board column.
type PickupBucket string

const (
	BucketToday       PickupBucket = "today"
	BucketNextDay     PickupBucket = "next-day"
	BucketNotPickedUp PickupBucket = "not-picked-up"
	BucketCompleted   PickupBucket = "completed"
)

// PickupBuckets lists pickup columns in display order.
var PickupBuckets = []PickupBucket{BucketToday, BucketNextDay, BucketNotPickedUp, BucketCompleted}

// PickupColumn is one pickup board column.
type PickupColumn struct {
	Bucket PickupBucket
	Orders []model.Order
}

// DayColumn holds a driver's orders for one weekday column.
type DayColumn struct {
	Column model.PickingColumn
	Orders []model.Order
}

func isPickup(o model.Order) bool { return o.OrderType == model.OrderTypePickup }

func filter(orders []model.Order, keep func(model.Order) bool) []model.Order {
	out := make([]model.Order, 0)
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func within(completedAt *time.Time, now time.Time, retention time.Duration) bool {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return completedAt == nil || now.Sub(*completedAt) < retention
}

// ProcessingBoardColumns groups orders still being processed by picking column.
func ProcessingBoardColumns(orders []model.Order) []Column {
	processing := []model.PickingColumn{
		model.ColumnUnassigned, model.ColumnMon, model.ColumnTue, model.ColumnWed, model.ColumnThu, model.ColumnFri,
	}
	columns := make([]Column, len(processing))
	index := make(map[model.PickingColumn]int, len(processing))
	for i, c := range processing {
		columns[i] = Column{Key: c, Orders: make([]model.Order, 0)}
		index[c] = i
	}
	for _, o := range orders {
		if isPickup(o) || o.PickingColumn == model.ColumnPicked {
			continue
		}
		inProcess := o.Stage == model.StagePicking ||
			(o.Stage == model.StageUnassignedDriver && o.PickingColumn == model.ColumnUnassigned) ||
			!o.IsReady
		if !inProcess {
			continue
		}
		if i, ok := index[o.PickingColumn]; ok {
			columns[i].Orders = append(columns[i].Orders, o)
		}
	}
	return columns
}

// DispatchUnassigned splits orders without a driver into those ready to be
// dragged onto a driver and those still on the processing board.
func DispatchUnassigned(orders []model.Order) Unassigned {
	u := Unassigned{Ready: make([]Card, 0), Pending: make([]Card, 0)}
	for _, o := range orders {
		if isPickup(o) || o.IsCompleted() {
			continue
		}
		switch {
		case !o.IsReady:
			u.Pending = append(u.Pending, Card{Order: o})
		case o.Stage == model.StageUnassignedDriver:
			u.Ready = append(u.Ready, Card{Order: o, Draggable: true})
		}
	}
	return u
}

// DispatchByDriver lists the open delivery orders of one driver.
func DispatchByDriver(orders []model.Order, driverID string) []model.Order {
	return filter(orders, func(o model.Order) bool {
		return driverID != "" && !isPickup(o) && o.AssignedDriverID == driverID && !o.IsCompleted()
	})
}

// DispatchCompleted lists recently completed delivery orders.
func DispatchCompleted(orders []model.Order, now time.Time, retention time.Duration) []model.Order {
	return filter(orders, func(o model.Order) bool {
		return !isPickup(o) && o.IsCompleted() && within(o.CompletedAt, now, retention)
	})
}

// PickupBucketOf places a pickup order by whole days since creation.
func PickupBucketOf(o model.Order, now time.Time) PickupBucket {
	if o.IsCompleted() {
		return BucketCompleted
	}
	days := int(now.Sub(o.CreatedAt) / (24 * time.Hour))
	switch {
	case days <= 0:
		return BucketToday
	case days == 1:
		return BucketNextDay
	default:
		return BucketNotPickedUp
	}
}

// PickupBoardColumns buckets PICKUP orders for the counter.
func PickupBoardColumns(orders []model.Order, now time.Time) []PickupColumn {
	columns := make([]PickupColumn, len(PickupBuckets))
	index := make(map[PickupBucket]int, len(PickupBuckets))
	for i, b := range PickupBuckets {
		columns[i] = PickupColumn{Bucket: b, Orders: make([]model.Order, 0)}
		index[b] = i
	}
	for _, o := range orders {
		if !isPickup(o) {
			continue
		}
		i := index[PickupBucketOf(o, now)]
		columns[i].Orders = append(columns[i].Orders, o)
	}
	return columns
}

// DriverPortalActive lists what a driver still has to deliver.
func DriverPortalActive(orders []model.Order, driverID string) []model.Order {
	return filter(orders, func(o model.Order) bool {
		return driverID != "" && o.AssignedDriverID == driverID && !o.IsCompleted() && o.IsReady
	})
}

// DriverPortalCompleted lists a driver's recent deliveries.
func DriverPortalCompleted(orders []model.Order, driverID string, now time.Time, retention time.Duration) []model.Order {
	return filter(orders, func(o model.Order) bool {
		return driverID != "" && o.AssignedDriverID == driverID && o.IsCompleted() && within(o.CompletedAt, now, retention)
	})
}

// DriverSchedule groups a driver's active orders by picking column.
// Columns without orders are omitted.
func DriverSchedule(orders []model.Order, driverID string) []DayColumn {
	active := DriverPortalActive(orders, driverID)
	out := make([]DayColumn, 0)
	for _, c := range model.PickingColumns {
		var col []model.Order
		for _, o := range active {
			if o.PickingColumn == c {
				col = append(col, o)
			}
		}
		if len(col) > 0 {
			out = append(out, DayColumn{Column: c, Orders: col})
		}
	}
	return out
}

// Search matches orders by id, number, customer name or customer external id.
// An empty query returns every order.
func Search(orders []model.Order, query string) []model.Order {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return filter(orders, func(model.Order) bool { return true })
	}
	return filter(orders, func(o model.Order) bool {
		for _, s := range []string{o.ID, o.OrderNumber, o.Customer.Name, o.Customer.ExternalID} {
			if strings.Contains(strings.ToLower(s), q) {
				return true
			}
		}
		return false
	})
}

// Count is one bucket of a summary report.
type Count struct {
	Key   string
	Count int
}

func count(orders []model.Order, key func(model.Order) string) []Count {
	totals := make(map[string]int)
	for _, o := range orders {
		totals[key(o)]++
	}
	out := make([]Count, 0, len(totals))
	for k, n := range totals {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CountByType totals orders per order type.
func CountByType(orders []model.Order) []Count {
	return count(orders, func(o model.Order) string { return string(o.OrderType) })
}

// CountByStage totals orders per stage.
func CountByStage(orders []model.Order) []Count {
	return count(orders, func(o model.Order) string { return string(o.Stage) })
}
