package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/router"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/pkg/database"
	"github.com/Alijeyrad/internhub_backend/pkg/email"
	"github.com/Alijeyrad/internhub_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/internhub_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/internhub_backend/pkg/s3"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRepoClient),
	fx.Provide(ProvideGateway),
	fx.Provide(ProvidePinger),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideNatsClient),
)

func ProvideRepoClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, err := database.NewRepoClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			slog.Info("applying database schema")
			return database.Migrate(ctx, client)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideGateway(c *repo.Client) repo.Gateway { return c }

func ProvidePinger(c *repo.Client) router.Pinger { return c }

// ProvideRedis returns nil when no address is configured; the rate limiter
// is then skipped.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if errors.Is(err, redispkg.ErrNotConfigured) {
		slog.Warn("redis not configured, rate limiting disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

// ProvideS3Client returns nil when no bucket is configured; uploads then
// fail as unavailable.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if cfg.S3.Bucket == "" {
		slog.Warn("s3 bucket not configured, attachment uploads disabled")
		return nil, nil
	}
	return s3pkg.New(cfg.S3)
}

// ProvideNatsClient returns nil when fan-out is disabled and the process is
// the only relay node.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if !cfg.Nats.Enabled {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name("internhub-relay"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
