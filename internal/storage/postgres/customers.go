package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

const customerColumns = `id, code, name, address, phone, email, lat, lng, created_by, created_at`

type customerRepository struct {
	storage *Storage
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var (
		c         model.Customer
		lat, lng  *float64
		createdBy *string
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Address, &c.Phone, &c.Email, &lat, &lng, &createdBy, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	if lat != nil && lng != nil {
		c.Coordinates = &model.Coordinates{Lat: *lat, Lng: *lng}
	}
	c.CreatedBy = derefString(createdBy)
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, c model.Customer) (*model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	var lat, lng *float64
	if c.Coordinates != nil {
		lat, lng = &c.Coordinates.Lat, &c.Coordinates.Lng
	}
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING ` + customerColumns
	row := r.storage.pool.QueryRow(ctx, query,
		c.ID, c.Code, c.Name, c.Address, c.Phone, c.Email, lat, lng, nullString(c.CreatedBy), c.CreatedAt)
	return scanCustomer(row)
}

func (r *customerRepository) Update(ctx context.Context, id string, p model.CustomerPatch) (*model.Customer, error) {
	var set setClause
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.Code != nil {
		set.add("code", *p.Code)
	}
	if p.Address != nil {
		set.add("address", *p.Address)
	}
	if p.Phone != nil {
		set.add("phone", *p.Phone)
	}
	if p.Email != nil {
		set.add("email", *p.Email)
	}
	if p.Coordinates != nil {
		set.add("lat", p.Coordinates.Lat)
		set.add("lng", p.Coordinates.Lng)
	}
	if set.empty() {
		query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
		return scanCustomer(r.storage.pool.QueryRow(ctx, query, id))
	}
	query, args := set.build("customers", id, customerColumns)
	return scanCustomer(r.storage.pool.QueryRow(ctx, query, args...))
}

func (r *customerRepository) List(ctx context.Context) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
