package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
)

type timelineRepository struct {
	storage *Storage
}

func (r *timelineRepository) Append(ctx context.Context, e model.TimelineEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var previous *string
	if e.PreviousStage != nil {
		s := string(*e.PreviousStage)
		previous = &s
	}
	const query = `INSERT INTO order_timeline (id, order_id, previous_stage, stage, changed_by, changed_at, notes)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.storage.pool.Exec(ctx, query,
		e.ID, e.OrderID, previous, string(e.Stage), nullString(e.ChangedBy), e.ChangedAt, e.Notes)
	return mapError(err)
}

func (r *timelineRepository) ListByOrder(ctx context.Context, orderID string) ([]model.TimelineEntry, error) {
	const query = `SELECT id, order_id, previous_stage, stage, changed_by, changed_at, notes
                   FROM order_timeline WHERE order_id=$1 ORDER BY changed_at`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TimelineEntry
	for rows.Next() {
		var (
			e         model.TimelineEntry
			previous  *string
			stage     string
			changedBy *string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &previous, &stage, &changedBy, &e.ChangedAt, &e.Notes); err != nil {
			return nil, err
		}
		if previous != nil {
			p := model.Stage(*previous)
			e.PreviousStage = &p
		}
		e.Stage = model.Stage(stage)
		e.ChangedBy = derefString(changedBy)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
