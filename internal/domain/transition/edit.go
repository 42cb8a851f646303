package transition

import (
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/pkg/validation"
)

// EditFields merges editable attributes. Nil pointers are left untouched.
type EditFields struct {
	CustomerAddress  *string
	CustomerPhone    *string
	Comments         *string
	Items            *[]model.LineItem
	OrderType        *model.OrderType
	PresellNumber    *string
	RSM              *string
	ScheduledDate    *time.Time
	OrderDocumentURL *string
	InvoicePhotoURL  *string
}

func (EditFields) Name() string { return "edit_fields" }

func (e EditFields) Fields() []model.Field {
	var fields []model.Field
	add := func(ok bool, f model.Field) {
		if ok {
			fields = append(fields, f)
		}
	}
	add(e.CustomerAddress != nil, model.FieldCustomerAddress)
	add(e.CustomerPhone != nil, model.FieldCustomerPhone)
	add(e.Comments != nil, model.FieldComments)
	add(e.Items != nil, model.FieldItems)
	add(e.OrderType != nil, model.FieldOrderType)
	// Changing the type may clear the presell number.
	add(e.PresellNumber != nil || e.OrderType != nil, model.FieldPresellNumber)
	add(e.RSM != nil, model.FieldRSM)
	add(e.ScheduledDate != nil, model.FieldScheduledDate)
	add(e.OrderDocumentURL != nil, model.FieldDocumentURL)
	add(e.InvoicePhotoURL != nil, model.FieldInvoicePhotoURL)
	return fields
}

// Empty reports whether the edit changes nothing.
func (e EditFields) Empty() bool { return len(e.Fields()) == 0 }

func (e EditFields) apply(o model.Order, _ time.Time) (model.Order, error) {
	if e.OrderType != nil {
		if !e.OrderType.Valid() {
			return o, fmt.Errorf("%w: unknown order type %q", domainErrors.ErrInvalidState, *e.OrderType)
		}
		o.OrderType = *e.OrderType
	}
	if e.Items != nil {
		items, err := cleanItems(*e.Items)
		if err != nil {
			return o, err
		}
		o.Items = items
	}
	if e.CustomerAddress != nil {
		o.Customer.Address = *e.CustomerAddress
	}
	if e.CustomerPhone != nil {
		o.Customer.Phone = *e.CustomerPhone
	}
	if e.Comments != nil {
		o.Comments = *e.Comments
	}
	if e.PresellNumber != nil {
		o.PresellNumber = strings.TrimSpace(*e.PresellNumber)
	}
	if e.RSM != nil {
		o.RSM = *e.RSM
	}
	if e.ScheduledDate != nil {
		t := *e.ScheduledDate
		o.ScheduledDate = &t
	}
	if e.OrderDocumentURL != nil {
		o.OrderDocumentURL = *e.OrderDocumentURL
	}
	if e.InvoicePhotoURL != nil {
		o.InvoicePhotoURL = *e.InvoicePhotoURL
	}
	if o.OrderType != model.OrderTypeJobber {
		o.PresellNumber = ""
	}
	return o, nil
}

type itemList struct {
	Items []model.LineItem `json:"items" validate:"dive"`
}

// cleanItems drops lines without a part number and validates the rest.
func cleanItems(items []model.LineItem) ([]model.LineItem, error) {
	out := make([]model.LineItem, 0, len(items))
	for _, it := range items {
		it.PartNumber = strings.TrimSpace(it.PartNumber)
		if it.PartNumber == "" {
			continue
		}
		out = append(out, it)
	}
	if err := validation.Struct(itemList{Items: out}); err != nil {
		return nil, err
	}
	return out, nil
}
