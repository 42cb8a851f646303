package dto

import (
	"time"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Customer is the customer snapshot embedded in an order.
type Customer struct {
	Name        string       `json:"name"`
	ExternalID  string       `json:"externalId,omitempty"`
	Address     string       `json:"address,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// OrderResponse is the JSON shape of an order.
type OrderResponse struct {
	ID               string           `json:"id"`
	OrderNumber      string           `json:"orderNumber"`
	Stage            string           `json:"stage"`
	PickingColumn    string           `json:"pickingColumn"`
	AssignedDay      *string          `json:"assignedDay"`
	AssignedDriverID *string          `json:"assignedDriverId"`
	OrderType        string           `json:"orderType"`
	FulfillmentType  string           `json:"fulfillmentType"`
	IsReady          bool             `json:"isReady"`
	PresellNumber    string           `json:"presellNumber,omitempty"`
	Items            []model.LineItem `json:"items"`
	Comments         string           `json:"comments,omitempty"`
	OrderDocumentURL string           `json:"orderDocumentUrl,omitempty"`
	InvoicePhotoURL  string           `json:"invoicePhotoUrl,omitempty"`
	RSM              string           `json:"rsm,omitempty"`
	ScheduledDate    *time.Time       `json:"scheduledDate,omitempty"`
	Customer         Customer         `json:"customer"`
	CreatedBy        string           `json:"createdBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	CompletedAt      *time.Time       `json:"completedAt"`
	Pending          bool             `json:"pending,omitempty"`
}

// ToOrderResponse converts a domain order.
func ToOrderResponse(o model.Order) OrderResponse {
	r := OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Stage:            string(o.Stage),
		PickingColumn:    string(o.PickingColumn),
		OrderType:        string(o.OrderType),
		FulfillmentType:  string(o.FulfillmentType),
		IsReady:          o.IsReady,
		PresellNumber:    o.PresellNumber,
		Items:            o.Items,
		Comments:         o.Comments,
		OrderDocumentURL: o.OrderDocumentURL,
		InvoicePhotoURL:  o.InvoicePhotoURL,
		RSM:              o.RSM,
		ScheduledDate:    o.ScheduledDate,
		Customer:         toCustomer(o.Customer),
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
	}
	if r.Items == nil {
		r.Items = []model.LineItem{}
	}
	if o.AssignedDay != nil {
		day := string(*o.AssignedDay)
		r.AssignedDay = &day
	}
	if o.AssignedDriverID != "" {
		driver := o.AssignedDriverID
		r.AssignedDriverID = &driver
	}
	return r
}

// ToOrderResponses converts a list, never returning nil.
func ToOrderResponses(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

func toCustomer(c model.CustomerSnapshot) Customer {
	out := Customer{Name: c.Name, ExternalID: c.ExternalID, Address: c.Address, Phone: c.Phone}
	if c.Coordinates != nil {
		out.Coordinates = &Coordinates{Lat: c.Coordinates.Lat, Lng: c.Coordinates.Lng}
	}
	return out
}

// CreateOrderRequest is the order entry form.
type CreateOrderRequest struct {
	OrderType        string           `json:"orderType"`
	FulfillmentType  string           `json:"fulfillmentType"`
	Customer         Customer         `json:"customer"`
	IsReady          *bool            `json:"isReady"`
	PresellNumber    string           `json:"presellNumber"`
	Items            []model.LineItem `json:"items"`
	Comments         string           `json:"comments"`
	RSM              string           `json:"rsm"`
	ScheduledDate    *time.Time       `json:"scheduledDate"`
	OrderDocumentURL string           `json:"orderDocumentUrl"`
	InvoicePhotoURL  string           `json:"invoicePhotoUrl"`
	DriverID         string           `json:"driverId"`
}

// ToPayload converts the request into a creation payload.
func (r CreateOrderRequest) ToPayload() transition.CreatePayload {
	p := transition.CreatePayload{
		OrderType:       model.OrderType(r.OrderType),
		FulfillmentType: model.FulfillmentType(r.FulfillmentType),
		Customer: model.CustomerSnapshot{
			Name:       r.Customer.Name,
			ExternalID: r.Customer.ExternalID,
			Address:    r.Customer.Address,
			Phone:      r.Customer.Phone,
		},
		IsReady:          r.IsReady,
		PresellNumber:    r.PresellNumber,
		Items:            r.Items,
		Comments:         r.Comments,
		RSM:              r.RSM,
		ScheduledDate:    r.ScheduledDate,
		OrderDocumentURL: r.OrderDocumentURL,
		InvoicePhotoURL:  r.InvoicePhotoURL,
	}
	if c := r.Customer.Coordinates; c != nil {
		p.Customer.Coordinates = &model.Coordinates{Lat: c.Lat, Lng: c.Lng}
	}
	return p
}

// EditOrderRequest carries optional field edits.
type EditOrderRequest struct {
	CustomerAddress  *string           `json:"customerAddress"`
	CustomerPhone    *string           `json:"customerPhone"`
	Comments         *string           `json:"comments"`
	Items            *[]model.LineItem `json:"items"`
	OrderType        *string           `json:"orderType"`
	PresellNumber    *string           `json:"presellNumber"`
	RSM              *string           `json:"rsm"`
	ScheduledDate    *time.Time        `json:"scheduledDate"`
	OrderDocumentURL *string           `json:"orderDocumentUrl"`
	InvoicePhotoURL  *string           `json:"invoicePhotoUrl"`
}

func (r EditOrderRequest) ToEdit() transition.EditFields {
	e := transition.EditFields{
		CustomerAddress:  r.CustomerAddress,
		CustomerPhone:    r.CustomerPhone,
		Comments:         r.Comments,
		Items:            r.Items,
		PresellNumber:    r.PresellNumber,
		RSM:              r.RSM,
		ScheduledDate:    r.ScheduledDate,
		OrderDocumentURL: r.OrderDocumentURL,
		InvoicePhotoURL:  r.InvoicePhotoURL,
	}
	if r.OrderType != nil {
		t := model.OrderType(*r.OrderType)
		e.OrderType = &t
	}
	return e
}

// MoveRequest files an order into a processing column.
type MoveRequest struct {
	Column string `json:"column"`
}

// AssignRequest assigns a driver to an order.
type AssignRequest struct {
	DriverID string `json:"driverId"`
}

// TimelineEntryResponse is one stage change of an order.
type TimelineEntryResponse struct {
	ID            string    `json:"id"`
	PreviousStage *string   `json:"previousStage"`
	Stage         string    `json:"stage"`
	ChangedBy     string    `json:"changedBy,omitempty"`
	ChangedAt     time.Time `json:"changedAt"`
	Notes         string    `json:"notes,omitempty"`
}

func ToTimeline(entries []model.TimelineEntry) []TimelineEntryResponse {
	out := make([]TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		r := TimelineEntryResponse{
			ID:        e.ID,
			Stage:     string(e.Stage),
			ChangedBy: e.ChangedBy,
			ChangedAt: e.ChangedAt,
			Notes:     e.Notes,
		}
		if e.PreviousStage != nil {
			prev := string(*e.PreviousStage)
			r.PreviousStage = &prev
		}
		out = append(out, r)
	}
	return out
}
