package model

import "time"

// TimelineEntry records a confirmed stage change of an order.
type TimelineEntry struct {
	ID            string
	OrderID       string
	PreviousStage *Stage
	Stage         Stage
	ChangedBy     string
	ChangedAt     time.Time
	Notes         string
}
