// Package notify delivers user-visible outcomes of remote writes.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Kind tells whether a notification reports a success or a failure.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notification names the order or driver and the action it concerns.
type Notification struct {
	Kind     Kind      `json:"kind"`
	Action   string    `json:"action"`
	OrderID  string    `json:"orderId,omitempty"`
	DriverID string    `json:"driverId,omitempty"`
	Local    bool      `json:"local,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier receives notifications. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	attrs := []any{
		slog.String("action", n.Action),
		slog.String("order_id", n.OrderID),
		slog.String("driver_id", n.DriverID),
		slog.Bool("local", n.Local),
	}
	if n.Kind == KindFailure {
		l.logger.WarnContext(ctx, "remote write failed", append(attrs, slog.String("error", n.Error))...)
		return
	}
	l.logger.InfoContext(ctx, "remote write confirmed", attrs...)
}

// Fanout forwards every notification to each notifier in turn.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	ch chan Notification
}

// NewRecorder buffers up to size notifications; further ones are dropped.
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Notification, size)}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	select {
	case r.ch <- n:
	default:
	}
}

// C exposes recorded notifications in arrival order.
func (r *Recorder) C() <-chan Notification { return r.ch }
