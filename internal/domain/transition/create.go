package transition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/pkg/validation"
)

// CreatePayload is the data collected by the order entry form.
type CreatePayload struct {
	OrderType        model.OrderType        `json:"orderType" validate:"required"`
	FulfillmentType  model.FulfillmentType  `json:"fulfillmentType" validate:"required"`
	Customer         model.CustomerSnapshot `json:"customer"`
	IsReady          *bool                  `json:"isReady"`
	PresellNumber    string                 `json:"presellNumber"`
	Items            []model.LineItem       `json:"items"`
	Comments         string                 `json:"comments"`
	RSM              string                 `json:"rsm"`
	ScheduledDate    *time.Time             `json:"scheduledDate"`
	OrderDocumentURL string                 `json:"orderDocumentUrl"`
	InvoicePhotoURL  string                 `json:"invoicePhotoUrl"`
	Driver           model.DriverRef        `json:"-"`
	CreatedBy        string                 `json:"-"`
}

// Create builds a brand-new order from the payload.
func Create(p CreatePayload, id, number string, now time.Time) (model.Order, error) {
	p.Customer.Name = strings.TrimSpace(p.Customer.Name)
	if err := validation.Struct(p); err != nil {
		return model.Order{}, err
	}
	if !p.OrderType.Valid() {
		return model.Order{}, fmt.Errorf("%w: unknown order type %q", domainErrors.ErrInvalidState, p.OrderType)
	}
	if !p.FulfillmentType.Valid() {
		return model.Order{}, domainErrors.NewValidation("fulfillmentType", "is invalid")
	}
	if id == "" {
		return model.Order{}, domainErrors.NewValidation("id", "is required")
	}
	items, err := cleanItems(p.Items)
	if err != nil {
		return model.Order{}, err
	}

	ready := p.IsReady == nil || *p.IsReady

	o := model.Order{
		ID:               id,
		OrderNumber:      number,
		PickingColumn:    model.ColumnUnassigned,
		OrderType:        p.OrderType,
		FulfillmentType:  p.FulfillmentType,
		IsReady:          ready,
		Items:            items,
		Comments:         p.Comments,
		RSM:              p.RSM,
		OrderDocumentURL: p.OrderDocumentURL,
		InvoicePhotoURL:  p.InvoicePhotoURL,
		Customer:         p.Customer,
		CreatedBy:        p.CreatedBy,
		CreatedAt:        now,
	}
	if p.ScheduledDate != nil {
		t := *p.ScheduledDate
		o.ScheduledDate = &t
	}
	if p.OrderType == model.OrderTypeJobber {
		o.PresellNumber = strings.TrimSpace(p.PresellNumber)
	}

	switch {
	case !ready:
		o.Stage = model.StageUnassignedDriver
	case p.FulfillmentType == model.FulfillmentPickup:
		o.Stage = model.StagePickupStore
	default:
		o.Stage = model.StageUnassignedDriver
	}
	if !p.Driver.IsZero() {
		o.AssignedDriverID = p.Driver.ID()
		o.Stage = model.StageAssignedDriver
	}

	if err := model.CheckInvariants(o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// OrderNumber formats the human readable number for an order created at t.
func OrderNumber(t time.Time) string {
	return "ORD-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
