package model

import (
	"fmt"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
)

// Stage governs which high-level board an order belongs to.
type Stage string

const (
	StagePicking          Stage = "picking"
	StageUnassignedDriver Stage = "unassigned_driver"
	StageAssignedDriver   Stage = "assigned_driver"
	StagePickupStore      Stage = "pickup_store"
	StageCompleted        Stage = "completed"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StagePicking, StageUnassignedDriver, StageAssignedDriver, StagePickupStore, StageCompleted:
		return true
	}
	return false
}

// ParseStage converts raw value into Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown stage %q", domainErrors.ErrInvalidState, raw)
	}
	return s, nil
}

// PickingColumn is the placement of an order on the processing board.
type PickingColumn string

const (
	ColumnUnassigned PickingColumn = "Unassigned"
	ColumnMon        PickingColumn = "Mon"
	ColumnTue        PickingColumn = "Tue"
	ColumnWed        PickingColumn = "Wed"
	ColumnThu        PickingColumn = "Thu"
	ColumnFri        PickingColumn = "Fri"
	ColumnPicked     PickingColumn = "Picked"
)

// PickingColumns lists columns in board order.
var PickingColumns = []PickingColumn{
	ColumnUnassigned, ColumnMon, ColumnTue, ColumnWed, ColumnThu, ColumnFri, ColumnPicked,
}

// Valid reports whether c is a known column.
func (c PickingColumn) Valid() bool {
	switch c {
	case ColumnUnassigned, ColumnMon, ColumnTue, ColumnWed, ColumnThu, ColumnFri, ColumnPicked:
		return true
	}
	return false
}

// Day returns the weekday for day-named columns.
func (c PickingColumn) Day() (Weekday, bool) {
	d := Weekday(c)
	return d, d.Valid()
}

// ParsePickingColumn converts raw value into PickingColumn.
func ParsePickingColumn(raw string) (PickingColumn, error) {
	c := PickingColumn(raw)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown picking column %q", domainErrors.ErrInvalidState, raw)
	}
	return c, nil
}

// Weekday is a working day an order is scheduled for.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
)

// Valid reports whether d is a working day.
func (d Weekday) Valid() bool {
	switch d {
	case Mon, Tue, Wed, Thu, Fri:
		return true
	}
	return false
}

// OrderType classifies orders.
type OrderType string

const (
	OrderTypeDODD    OrderType = "DODD"
	OrderTypeJobber  OrderType = "JOBBER"
	OrderTypeHotshot OrderType = "HOTSHOT"
	OrderTypeRestock OrderType = "RESTOCK"
	OrderTypePickup  OrderType = "PICKUP"
)

// OrderTypes lists order types in display order.
var OrderTypes = []OrderType{OrderTypeDODD, OrderTypeJobber, OrderTypeHotshot, OrderTypeRestock, OrderTypePickup}

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDODD, OrderTypeJobber, OrderTypeHotshot, OrderTypeRestock, OrderTypePickup:
		return true
	}
	return false
}

// ParseOrderType converts raw value into OrderType.
func ParseOrderType(raw string) (OrderType, error) {
	t := OrderType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown order type %q", domainErrors.ErrInvalidState, raw)
	}
	return t, nil
}

// FulfillmentType is chosen at creation and decides the initial stage.
type FulfillmentType string

const (
	FulfillmentPickup    FulfillmentType = "Pickup"
	FulfillmentDelivery  FulfillmentType = "Delivery"
	FulfillmentBackOrder FulfillmentType = "Back Order"
)

// Valid reports whether f is a known fulfillment type.
func (f FulfillmentType) Valid() bool {
	switch f {
	case FulfillmentPickup, FulfillmentDelivery, FulfillmentBackOrder:
		return true
	}
	return false
}

// VehicleType describes a driver's vehicle.
type VehicleType string

const (
	VehicleTruck   VehicleType = "truck"
	VehicleVan     VehicleType = "van"
	VehicleHotshot VehicleType = "hotshot"
)

// Valid reports whether v is a known vehicle type.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleTruck, VehicleVan, VehicleHotshot:
		return true
	}
	return false
}
