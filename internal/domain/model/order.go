package model

import (
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
)

// Coordinates is a geographic position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// CustomerSnapshot is the customer data captured when the order was created.
type CustomerSnapshot struct {
	Name        string `validate:"required"`
	ExternalID  string
	Address     string
	Phone       string
	Coordinates *Coordinates
}

// LineItem is a single part line on an order.
type LineItem struct {
	PartNumber string `json:"partNumber"`
	Quantity   int    `json:"quantity" validate:"min=1"`
	PONumber   string `json:"poNumber,omitempty"`
}

// Order is the central dispatch entity.
type Order struct {
	ID               string
	OrderNumber      string
	Stage            Stage
	PickingColumn    PickingColumn
	AssignedDay      *Weekday
	AssignedDriverID string
	OrderType        OrderType
	FulfillmentType  FulfillmentType
	IsReady          bool
	PresellNumber    string
	Items            []LineItem
	Comments         string
	OrderDocumentURL string
	InvoicePhotoURL  string
	RSM              string
	ScheduledDate    *time.Time
	Customer         CustomerSnapshot
	CreatedBy        string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// HasDriver reports whether a driver is assigned.
func (o Order) HasDriver() bool {
	return o.AssignedDriverID != ""
}

// IsCompleted reports whether the order reached the final stage.
func (o Order) IsCompleted() bool {
	return o.Stage == StageCompleted
}

// Clone returns a deep copy so cached records never share mutable state.
func (o Order) Clone() Order {
	c := o
	if o.AssignedDay != nil {
		d := *o.AssignedDay
		c.AssignedDay = &d
	}
	if o.ScheduledDate != nil {
		t := *o.ScheduledDate
		c.ScheduledDate = &t
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	if o.Customer.Coordinates != nil {
		p := *o.Customer.Coordinates
		c.Customer.Coordinates = &p
	}
	if o.Items != nil {
		c.Items = append([]LineItem(nil), o.Items...)
	}
	return c
}

// CheckEnums rejects orders carrying values outside the known sets.
func CheckEnums(o Order) error {
	if !o.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", domainErrors.ErrInvalidState, o.Stage)
	}
	if !o.PickingColumn.Valid() {
		return fmt.Errorf("%w: unknown picking column %q", domainErrors.ErrInvalidState, o.PickingColumn)
	}
	if !o.OrderType.Valid() {
		return fmt.Errorf("%w: unknown order type %q", domainErrors.ErrInvalidState, o.OrderType)
	}
	if o.AssignedDay != nil && !o.AssignedDay.Valid() {
		return fmt.Errorf("%w: unknown assigned day %q", domainErrors.ErrInvalidState, *o.AssignedDay)
	}
	return nil
}

// CheckInvariants verifies the structural rules every order must satisfy.
func CheckInvariants(o Order) error {
	if err := CheckEnums(o); err != nil {
		return err
	}
	if o.PickingColumn == ColumnPicked && o.Stage == StagePicking {
		return fmt.Errorf("%w: picked order %s still in picking stage", domainErrors.ErrInvalidState, o.ID)
	}
	if day, ok := o.PickingColumn.Day(); ok {
		if o.AssignedDay == nil || *o.AssignedDay != day {
			return fmt.Errorf("%w: order %s in column %s has assigned day %v", domainErrors.ErrInvalidState, o.ID, o.PickingColumn, o.AssignedDay)
		}
	} else if o.AssignedDay != nil {
		return fmt.Errorf("%w: order %s in column %s must not have an assigned day", domainErrors.ErrInvalidState, o.ID, o.PickingColumn)
	}
	if o.Stage == StageCompleted && o.CompletedAt == nil {
		return fmt.Errorf("%w: completed order %s has no completion time", domainErrors.ErrInvalidState, o.ID)
	}
	return nil
}
