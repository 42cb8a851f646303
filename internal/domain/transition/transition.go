// Package transition computes the next state of an order for every user
// action. Functions here never perform I/O; the clock is passed in.
package transition

import (
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

// Command is one permitted action on an existing order. The set of commands
// is closed: each variant carries only the fields it may change.
type Command interface {
	// Name identifies the action in logs, metrics and notifications.
	Name() string
	// Fields lists the persisted fields the command may change.
	Fields() []model.Field
	apply(o model.Order, now time.Time) (model.Order, error)
}

// Apply runs cmd against o and returns the new order. The input is never
// modified. The result always satisfies model.CheckInvariants.
func Apply(o model.Order, cmd Command, now time.Time) (model.Order, error) {
	if cmd == nil {
		return o, fmt.Errorf("%w: nil command", domainErrors.ErrInvalidState)
	}
	if err := model.CheckEnums(o); err != nil {
		return o, err
	}
	next, err := cmd.apply(o.Clone(), now)
	if err != nil {
		return o, err
	}
	if err := model.CheckInvariants(next); err != nil {
		return o, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return next, nil
}

// MoveToColumn files an order into a processing board column.
type MoveToColumn struct {
	Column model.PickingColumn
}

func (MoveToColumn) Name() string { return "move_to_column" }

func (MoveToColumn) Fields() []model.Field {
	return []model.Field{model.FieldPickingColumn, model.FieldAssignedDay, model.FieldStage}
}

func (c MoveToColumn) apply(o model.Order, _ time.Time) (model.Order, error) {
	if !c.Column.Valid() {
		return o, fmt.Errorf("%w: unknown picking column %q", domainErrors.ErrInvalidState, c.Column)
	}
	o.PickingColumn = c.Column
	o.AssignedDay = nil
	if d, ok := c.Column.Day(); ok {
		o.AssignedDay = &d
	}
	// A completed order keeps its stage and completion time.
	if c.Column == model.ColumnPicked && !o.IsCompleted() {
		o.Stage = model.StageUnassignedDriver
	}
	return o, nil
}

// MarkReady releases a parked order to the downstream boards.
type MarkReady struct{}

func (MarkReady) Name() string { return "mark_ready" }

func (MarkReady) Fields() []model.Field { return []model.Field{model.FieldIsReady} }

func (MarkReady) apply(o model.Order, _ time.Time) (model.Order, error) {
	o.IsReady = true
	return o, nil
}

// AssignDriver hands the order to a driver.
type AssignDriver struct {
	Driver model.DriverRef
}

func (AssignDriver) Name() string { return "assign_driver" }

func (AssignDriver) Fields() []model.Field {
	return []model.Field{model.FieldAssignedDriverID, model.FieldStage}
}

func (c AssignDriver) apply(o model.Order, _ time.Time) (model.Order, error) {
	if c.Driver.IsZero() {
		return o, domainErrors.NewValidation("driverId", "is required")
	}
	if o.IsCompleted() {
		return o, fmt.Errorf("%w: cannot assign driver to completed order %s", domainErrors.ErrInvalidState, o.ID)
	}
	o.AssignedDriverID = c.Driver.ID()
	o.Stage = model.StageAssignedDriver
	return o, nil
}

// Complete marks the order delivered or picked up.
type Complete struct{}

func (Complete) Name() string { return "complete" }

func (Complete) Fields() []model.Field {
	return []model.Field{model.FieldStage, model.FieldCompletedAt}
}

func (Complete) apply(o model.Order, now time.Time) (model.Order, error) {
	if o.IsCompleted() {
		if o.CompletedAt == nil {
			t := now
			o.CompletedAt = &t
		}
		return o, nil
	}
	t := now
	o.Stage = model.StageCompleted
	o.CompletedAt = &t
	return o, nil
}
