package app

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/bus"
	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/internal/service/lifecycle"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
	"github.com/Alijeyrad/internhub_backend/internal/service/upload"
	"github.com/Alijeyrad/internhub_backend/pkg/email"
	s3pkg "github.com/Alijeyrad/internhub_backend/pkg/s3"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		presence.NewRegistry,
		ProvideFanout,
		ProvidePublisher,
		ProvideRelayService,
		ProvideLifecycleService,
		ProvideUploadService,
	),
)

// ProvideFanout returns nil when NATS is disabled.
func ProvideFanout(nc *nats.Conn, reg *presence.Registry, cfg *config.Config) *bus.NATS {
	if nc == nil {
		return nil
	}
	return bus.NewNATS(nc, reg, cfg.Nats.SubjectPrefix)
}

func ProvidePublisher(fanout *bus.NATS, reg *presence.Registry) relay.Publisher {
	if fanout == nil {
		return bus.NewLocal(reg)
	}
	return fanout
}

func ProvideRelayService(db repo.Gateway, pub relay.Publisher) relay.Service {
	return relay.New(db, pub)
}

func ProvideLifecycleService(db repo.Gateway, rel relay.Service, mail *email.Client, cfg *config.Config) lifecycle.Service {
	var mailer lifecycle.Mailer
	if mail != nil {
		mailer = mail
	}
	return lifecycle.New(db, rel, mailer, lifecycle.WithAppName(cfg.Email.AppName))
}

func ProvideUploadService(store *s3pkg.Client, cfg *config.Config) upload.Service {
	var storage upload.Storage
	if store != nil {
		storage = store
	}
	return upload.New(storage, int64(cfg.Upload.MaxSizeMB)<<20)
}
