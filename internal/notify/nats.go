package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/polkiloo/dispatchboard/internal/cache"
)

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Conn is a publisher that can be drained on shutdown.
type Conn interface {
	Publisher
	Drain() error
}

var connect = func(url string) (Conn, error) {
	return nats.Connect(url, nats.Name("dispatchboard"), nats.MaxReconnects(-1))
}

// NATSNotifier publishes notifications as JSON on <prefix>.notifications.<kind>.
type NATSNotifier struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewNATSNotifier(pub Publisher, prefix string, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{pub: pub, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

func (n *NATSNotifier) Notify(ctx context.Context, note Notification) {
	subject := n.prefix + ".notifications." + string(note.Kind)
	if err := publishJSON(n.pub, subject, note); err != nil {
		n.logger.ErrorContext(ctx, "publish notification", slog.String("subject", subject), slog.Any("error", err))
	}
}

// ChangePublisher mirrors cache changes onto <prefix>.changes.<kind> so other
// board instances know when to refresh.
type ChangePublisher struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewChangePublisher(pub Publisher, prefix string, logger *slog.Logger) *ChangePublisher {
	return &ChangePublisher{pub: pub, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

func (p *ChangePublisher) StoreChanged(c cache.Change) {
	subject := p.prefix + ".changes." + string(c.Kind)
	if err := publishJSON(p.pub, subject, c); err != nil {
		p.logger.Error("publish cache change", slog.String("subject", subject), slog.Any("error", err))
	}
}

func publishJSON(pub Publisher, subject string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return pub.Publish(subject, payload)
}
