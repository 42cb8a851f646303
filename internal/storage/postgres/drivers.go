package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

const driverColumns = `id, name, phone, truck_number, vehicle_type, is_active, created_by, created_at`

type driverRepository struct {
	storage *Storage
}

func scanDriver(row pgx.Row) (*model.Driver, error) {
	var (
		d         model.Driver
		vehicle   string
		createdBy *string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.TruckNumber, &vehicle, &d.IsActive, &createdBy, &d.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	d.VehicleType = model.VehicleType(vehicle)
	d.CreatedBy = derefString(createdBy)
	return &d, nil
}

func (r *driverRepository) Create(ctx context.Context, d model.Driver) (*model.Driver, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.VehicleType == "" {
		d.VehicleType = model.VehicleTruck
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	query := `INSERT INTO drivers (` + driverColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + driverColumns
	row := r.storage.pool.QueryRow(ctx, query,
		d.ID, d.Name, d.Phone, d.TruckNumber, string(d.VehicleType), d.IsActive, nullString(d.CreatedBy), d.CreatedAt)
	return scanDriver(row)
}

func (r *driverRepository) Update(ctx context.Context, id string, p model.DriverPatch) (*model.Driver, error) {
	var set setClause
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.Phone != nil {
		set.add("phone", *p.Phone)
	}
	if p.TruckNumber != nil {
		set.add("truck_number", *p.TruckNumber)
	}
	if p.VehicleType != nil {
		set.add("vehicle_type", string(*p.VehicleType))
	}
	if p.IsActive != nil {
		set.add("is_active", *p.IsActive)
	}
	if set.empty() {
		query := `SELECT ` + driverColumns + ` FROM drivers WHERE id=$1`
		return scanDriver(r.storage.pool.QueryRow(ctx, query, id))
	}
	query, args := set.build("drivers", id, driverColumns)
	return scanDriver(r.storage.pool.QueryRow(ctx, query, args...))
}

func (r *driverRepository) List(ctx context.Context) ([]model.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY name`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
