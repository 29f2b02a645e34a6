package app

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/internal/bus"
)

// WorkerModule registers the background subscribers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Fanout *bus.NATS `optional:"true"`
}

// RegisterWorkers starts the relay fan-out subscriber when NATS is enabled.
// Without it every event is delivered in-process by bus.Local.
func RegisterWorkers(p WorkerParams) {
	if p.Fanout == nil {
		slog.Info("relay_fanout: disabled, delivering locally")
		return
	}
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Fanout.Start()
		},
		// the connection itself is drained by ProvideNatsClient
		OnStop: func(ctx context.Context) error {
			return p.Fanout.Stop()
		},
	})
}
