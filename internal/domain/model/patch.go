package model

import (
	"reflect"
	"time"
)

// Field names a persisted order attribute that transitions may change.
type Field string

const (
	FieldStage            Field = "stage"
	FieldPickingColumn    Field = "picking_column"
	FieldAssignedDay      Field = "assigned_day"
	FieldAssignedDriverID Field = "assigned_driver_id"
	FieldOrderType        Field = "order_type"
	FieldIsReady          Field = "is_ready"
	FieldPresellNumber    Field = "presell_number"
	FieldItems            Field = "items"
	FieldComments         Field = "comments"
	FieldDocumentURL      Field = "order_document_url"
	FieldInvoicePhotoURL  Field = "invoice_photo_url"
	FieldRSM              Field = "rsm"
	FieldScheduledDate    Field = "scheduled_date"
	FieldCustomerAddress  Field = "customer_address"
	FieldCustomerPhone    Field = "customer_phone"
	FieldCompletedAt      Field = "completed_at"
)

// OrderPatch carries the subset of order fields touched by one transition.
// A nil pointer means the field is not part of the patch; for nullable
// columns the Set flags distinguish "set to none" from "untouched".
type OrderPatch struct {
	Stage            *Stage
	PickingColumn    *PickingColumn
	AssignedDay      *Weekday
	AssignedDaySet   bool
	AssignedDriverID *string
	OrderType        *OrderType
	IsReady          *bool
	PresellNumber    *string
	Items            *[]LineItem
	Comments         *string
	OrderDocumentURL *string
	InvoicePhotoURL  *string
	RSM              *string
	ScheduledDate    *time.Time
	ScheduledDateSet bool
	CustomerAddress  *string
	CustomerPhone    *string
	CompletedAt      *time.Time
	CompletedAtSet   bool
}

// PatchOf copies the listed fields of o into a patch.
func PatchOf(o Order, fields ...Field) OrderPatch {
	o = o.Clone()
	var p OrderPatch
	for _, f := range fields {
		switch f {
		case FieldStage:
			p.Stage = &o.Stage
		case FieldPickingColumn:
			p.PickingColumn = &o.PickingColumn
		case FieldAssignedDay:
			p.AssignedDay, p.AssignedDaySet = o.AssignedDay, true
		case FieldAssignedDriverID:
			p.AssignedDriverID = &o.AssignedDriverID
		case FieldOrderType:
			p.OrderType = &o.OrderType
		case FieldIsReady:
			p.IsReady = &o.IsReady
		case FieldPresellNumber:
			p.PresellNumber = &o.PresellNumber
		case FieldItems:
			p.Items = &o.Items
		case FieldComments:
			p.Comments = &o.Comments
		case FieldDocumentURL:
			p.OrderDocumentURL = &o.OrderDocumentURL
		case FieldInvoicePhotoURL:
			p.InvoicePhotoURL = &o.InvoicePhotoURL
		case FieldRSM:
			p.RSM = &o.RSM
		case FieldScheduledDate:
			p.ScheduledDate, p.ScheduledDateSet = o.ScheduledDate, true
		case FieldCustomerAddress:
			p.CustomerAddress = &o.Customer.Address
		case FieldCustomerPhone:
			p.CustomerPhone = &o.Customer.Phone
		case FieldCompletedAt:
			p.CompletedAt, p.CompletedAtSet = o.CompletedAt, true
		}
	}
	return p
}

// ChangedFields returns the subset of fields whose values differ between from and to.
func ChangedFields(from, to Order, fields ...Field) []Field {
	var changed []Field
	for _, f := range fields {
		if !reflect.DeepEqual(PatchOf(from, f), PatchOf(to, f)) {
			changed = append(changed, f)
		}
	}
	return changed
}

// Fields lists the fields present in the patch.
func (p OrderPatch) Fields() []Field {
	var fields []Field
	add := func(ok bool, f Field) {
		if ok {
			fields = append(fields, f)
		}
	}
	add(p.Stage != nil, FieldStage)
	add(p.PickingColumn != nil, FieldPickingColumn)
	add(p.AssignedDaySet, FieldAssignedDay)
	add(p.AssignedDriverID != nil, FieldAssignedDriverID)
	add(p.OrderType != nil, FieldOrderType)
	add(p.IsReady != nil, FieldIsReady)
	add(p.PresellNumber != nil, FieldPresellNumber)
	add(p.Items != nil, FieldItems)
	add(p.Comments != nil, FieldComments)
	add(p.OrderDocumentURL != nil, FieldDocumentURL)
	add(p.InvoicePhotoURL != nil, FieldInvoicePhotoURL)
	add(p.RSM != nil, FieldRSM)
	add(p.ScheduledDateSet, FieldScheduledDate)
	add(p.CustomerAddress != nil, FieldCustomerAddress)
	add(p.CustomerPhone != nil, FieldCustomerPhone)
	add(p.CompletedAtSet, FieldCompletedAt)
	return fields
}

// Empty reports whether the patch touches nothing.
func (p OrderPatch) Empty() bool {
	return len(p.Fields()) == 0
}

// Without returns a copy of the patch with the given field dropped.
func (p OrderPatch) Without(f Field) OrderPatch {
	switch f {
	case FieldAssignedDriverID:
		p.AssignedDriverID = nil
	case FieldStage:
		p.Stage = nil
	}
	return p
}

// ApplyTo merges the patch into o and returns the result.
func (p OrderPatch) ApplyTo(o Order) Order {
	o = o.Clone()
	if p.Stage != nil {
		o.Stage = *p.Stage
	}
	if p.PickingColumn != nil {
		o.PickingColumn = *p.PickingColumn
	}
	if p.AssignedDaySet {
		o.AssignedDay = copyPtr(p.AssignedDay)
	}
	if p.AssignedDriverID != nil {
		o.AssignedDriverID = *p.AssignedDriverID
	}
	if p.OrderType != nil {
		o.OrderType = *p.OrderType
	}
	if p.IsReady != nil {
		o.IsReady = *p.IsReady
	}
	if p.PresellNumber != nil {
		o.PresellNumber = *p.PresellNumber
	}
	if p.Items != nil {
		o.Items = append([]LineItem(nil), (*p.Items)...)
	}
	if p.Comments != nil {
		o.Comments = *p.Comments
	}
	if p.OrderDocumentURL != nil {
		o.OrderDocumentURL = *p.OrderDocumentURL
	}
	if p.InvoicePhotoURL != nil {
		o.InvoicePhotoURL = *p.InvoicePhotoURL
	}
	if p.RSM != nil {
		o.RSM = *p.RSM
	}
	if p.ScheduledDateSet {
		o.ScheduledDate = copyPtr(p.ScheduledDate)
	}
	if p.CustomerAddress != nil {
		o.Customer.Address = *p.CustomerAddress
	}
	if p.CustomerPhone != nil {
		o.Customer.Phone = *p.CustomerPhone
	}
	if p.CompletedAtSet {
		o.CompletedAt = copyPtr(p.CompletedAt)
	}
	return o
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
