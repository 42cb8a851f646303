package model

import "time"

// Customer is a lookup entity used to prefill new orders.
type Customer struct {
	ID          string
	Code        string
	Name        string `validate:"required"`
	Address     string
	Phone       string
	Email       string `validate:"omitempty,email"`
	Coordinates *Coordinates
	CreatedBy   string
	CreatedAt   time.Time
}

// Snapshot captures the customer data embedded into a new order.
func (c Customer) Snapshot() CustomerSnapshot {
	s := CustomerSnapshot{
		Name:       c.Name,
		ExternalID: c.Code,
		Address:    c.Address,
		Phone:      c.Phone,
	}
	if c.Coordinates != nil {
		p := *c.Coordinates
		s.Coordinates = &p
	}
	return s
}

// CustomerPatch holds optional customer field updates.
type CustomerPatch struct {
	Name        *string
	Code        *string
	Address     *string
	Phone       *string
	Email       *string `validate:"omitempty,email"`
	Coordinates *Coordinates
}
