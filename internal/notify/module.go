package notify

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/dispatchboard/internal/cache"
	"github.com/polkiloo/dispatchboard/internal/config"
)

// Module provides the notifier and, when NATS_URL is set, a NATS connection
// that also carries cache change events.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Provide(newNotifier),
	fx.Invoke(registerChangePublisher),
)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newPublisher(p publisherParams) (Publisher, error) {
	if p.Config.NATSURL == "" {
		return nil, nil
	}
	conn, err := connect(p.Config.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p.Logger.Info("connected to nats", slog.String("url", p.Config.NATSURL))
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Drain()
		},
	})
	return conn, nil
}

type notifierParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Publisher Publisher `optional:"true"`
}

func newNotifier(p notifierParams) Notifier {
	log := NewLogNotifier(p.Logger)
	if p.Publisher == nil {
		return log
	}
	return Fanout{log, NewNATSNotifier(p.Publisher, p.Config.NATSSubjectPrefix, p.Logger)}
}

type changeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
	Store     *cache.Store
	Publisher Publisher `optional:"true"`
}

func registerChangePublisher(p changeParams) {
	if p.Publisher == nil {
		return
	}
	unsubscribe := p.Store.Subscribe(NewChangePublisher(p.Publisher, p.Config.NATSSubjectPrefix, p.Logger))
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			unsubscribe()
			return nil
		},
	})
}
