package usecase

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/cache"
)

var reportHeader = []string{"Order ID", "Customer", "Type", "Stage", "Date"}

// Summary aggregates the cached orders for the reports page.
type Summary struct {
	Total     int
	Completed int
	ByType    []board.Count
	ByStage   []board.Count
}

// ReportUseCase builds read-only exports of the cache.
type ReportUseCase struct {
	store *cache.Store
}

func NewReportUseCase(store *cache.Store) *ReportUseCase {
	return &ReportUseCase{store: store}
}

// WriteOrdersCSV writes one row per cached order, newest first.
func (u *ReportUseCase) WriteOrdersCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, o := range u.store.Orders() {
		number := o.OrderNumber
		if number == "" {
			number = o.ID
		}
		row := []string{number, o.Customer.Name, string(o.OrderType), string(o.Stage), o.CreatedAt.Format(time.DateOnly)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (u *ReportUseCase) Summary() Summary {
	orders := u.store.Orders()
	s := Summary{
		Total:   len(orders),
		ByType:  board.CountByType(orders),
		ByStage: board.CountByStage(orders),
	}
	for _, o := range orders {
		if o.IsCompleted() {
			s.Completed++
		}
	}
	return s
}
