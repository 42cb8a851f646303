package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

const orderColumns = `id, order_number, stage, picking_column, assigned_day, assigned_driver_id, order_type, fulfillment_type, is_ready, presell_number, items, comments, order_document_url, invoice_photo_url, rsm, scheduled_date, customer_name, customer_external_id, customer_address, customer_phone, customer_lat, customer_lng, created_by, created_at, completed_at`

var orderPlaceholders = placeholders(strings.Count(orderColumns, ",") + 1)

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

type orderRepository struct {
	storage *Storage
}

// orderRow mirrors one orders table row.
type orderRow struct {
	ID              string
	Number          string
	Stage           string
	Column          string
	Day             *string
	DriverID        *string
	OrderType       string
	FulfillmentType string
	IsReady         *bool
	Presell         string
	Items           []byte
	Comments        string
	DocumentURL     string
	InvoiceURL      string
	RSM             string
	ScheduledDate   *time.Time
	CustomerName    string
	CustomerExtID   string
	CustomerAddress string
	CustomerPhone   string
	Lat             *float64
	Lng             *float64
	CreatedBy       *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (r *orderRow) dest() []any {
	return []any{
		&r.ID, &r.Number, &r.Stage, &r.Column, &r.Day, &r.DriverID, &r.OrderType, &r.FulfillmentType,
		&r.IsReady, &r.Presell, &r.Items, &r.Comments, &r.DocumentURL, &r.InvoiceURL, &r.RSM,
		&r.ScheduledDate, &r.CustomerName, &r.CustomerExtID, &r.CustomerAddress, &r.CustomerPhone,
		&r.Lat, &r.Lng, &r.CreatedBy, &r.CreatedAt, &r.CompletedAt,
	}
}

func (r *orderRow) toModel() (model.Order, error) {
	o := model.Order{
		ID:               r.ID,
		OrderNumber:      r.Number,
		Stage:            model.Stage(r.Stage),
		PickingColumn:    model.PickingColumn(r.Column),
		AssignedDriverID: derefString(r.DriverID),
		OrderType:        model.OrderType(r.OrderType),
		FulfillmentType:  model.FulfillmentType(r.FulfillmentType),
		// A NULL flag predates the readiness gate and means ready.
		IsReady:          r.IsReady == nil || *r.IsReady,
		PresellNumber:    r.Presell,
		Comments:         r.Comments,
		OrderDocumentURL: r.DocumentURL,
		InvoicePhotoURL:  r.InvoiceURL,
		RSM:              r.RSM,
		ScheduledDate:    r.ScheduledDate,
		Customer: model.CustomerSnapshot{
			Name:       r.CustomerName,
			ExternalID: r.CustomerExtID,
			Address:    r.CustomerAddress,
			Phone:      r.CustomerPhone,
		},
		CreatedBy:   derefString(r.CreatedBy),
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
	if r.Day != nil {
		d := model.Weekday(*r.Day)
		o.AssignedDay = &d
	}
	if r.Lat != nil && r.Lng != nil {
		o.Customer.Coordinates = &model.Coordinates{Lat: *r.Lat, Lng: *r.Lng}
	}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &o.Items); err != nil {
			return model.Order{}, fmt.Errorf("decode items of order %s: %w", r.ID, err)
		}
	}
	return o, nil
}

func encodeItems(items []model.LineItem) ([]byte, error) {
	if items == nil {
		items = []model.LineItem{}
	}
	return json.Marshal(items)
}

func dayValue(d *model.Weekday) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var r orderRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, mapError(err)
	}
	o, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order together with its first timeline entry.
func (r *orderRepository) Create(ctx context.Context, o model.Order) (*model.Order, error) {
	items, err := encodeItems(o.Items)
	if err != nil {
		return nil, err
	}
	var lat, lng *float64
	if c := o.Customer.Coordinates; c != nil {
		lat, lng = &c.Lat, &c.Lng
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO orders (` + orderColumns + `) VALUES (` + orderPlaceholders + `) RETURNING ` + orderColumns
	const timeline = `INSERT INTO order_timeline (id, order_id, previous_stage, stage, changed_by, changed_at, notes)
                      VALUES ($1, $2, NULL, $3, $4, $5, 'created')`

	var created *model.Order
	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query,
			o.ID, o.OrderNumber, string(o.Stage), string(o.PickingColumn), dayValue(o.AssignedDay),
			nullString(o.AssignedDriverID), string(o.OrderType), string(o.FulfillmentType), o.IsReady,
			o.PresellNumber, items, o.Comments, o.OrderDocumentURL, o.InvoicePhotoURL, o.RSM,
			o.ScheduledDate, o.Customer.Name, o.Customer.ExternalID, o.Customer.Address, o.Customer.Phone,
			lat, lng, nullString(o.CreatedBy), createdAt, o.CompletedAt,
		)
		var err error
		if created, err = scanOrder(row); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, timeline, uuid.NewString(), created.ID, string(created.Stage), nullString(created.CreatedBy), createdAt)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

func (r *orderRepository) Update(ctx context.Context, id string, p model.OrderPatch) (*model.Order, error) {
	var set setClause
	if p.Stage != nil {
		set.add("stage", string(*p.Stage))
	}
	if p.PickingColumn != nil {
		set.add("picking_column", string(*p.PickingColumn))
	}
	if p.AssignedDaySet {
		set.add("assigned_day", dayValue(p.AssignedDay))
	}
	if p.AssignedDriverID != nil {
		set.add("assigned_driver_id", nullString(*p.AssignedDriverID))
	}
	if p.OrderType != nil {
		set.add("order_type", string(*p.OrderType))
	}
	if p.IsReady != nil {
		set.add("is_ready", *p.IsReady)
	}
	if p.PresellNumber != nil {
		set.add("presell_number", *p.PresellNumber)
	}
	if p.Items != nil {
		items, err := encodeItems(*p.Items)
		if err != nil {
			return nil, err
		}
		set.add("items", items)
	}
	if p.Comments != nil {
		set.add("comments", *p.Comments)
	}
	if p.OrderDocumentURL != nil {
		set.add("order_document_url", *p.OrderDocumentURL)
	}
	if p.InvoicePhotoURL != nil {
		set.add("invoice_photo_url", *p.InvoicePhotoURL)
	}
	if p.RSM != nil {
		set.add("rsm", *p.RSM)
	}
	if p.ScheduledDateSet {
		set.add("scheduled_date", p.ScheduledDate)
	}
	if p.CustomerAddress != nil {
		set.add("customer_address", *p.CustomerAddress)
	}
	if p.CustomerPhone != nil {
		set.add("customer_phone", *p.CustomerPhone)
	}
	if p.CompletedAtSet {
		set.add("completed_at", p.CompletedAt)
	}

	if set.empty() {
		return r.GetByID(ctx, id)
	}
	query, args := set.build("orders", id, orderColumns)
	return scanOrder(r.storage.pool.QueryRow(ctx, query, args...))
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		o, err := row.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
