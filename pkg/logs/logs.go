// Package logs builds the process-wide slog logger: stdout, a rotated file
// and Loki, each optional, all carrying the request and participant ids
// found in the context.
package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/pkg/constants"
)

func New(cfg *config.Config) *slog.Logger {
	dev := strings.EqualFold(cfg.Server.Environment, "development")
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logging.Level), AddSource: dev}

	var handlers []slog.Handler
	if w := localWriter(cfg.Logging.Output); w != nil {
		// text output is a development convenience only
		if dev && strings.EqualFold(cfg.Logging.Format, "text") {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		}
	}
	if cfg.Logging.Output.Loki.Enabled {
		handlers = append(handlers, newLokiHandler(cfg, opts.Level.Level()))
	}

	service := cfg.Observability.ServiceName
	if service == "" {
		service = constants.AppName
	}
	return slog.New(&contextHandler{next: fanOut(handlers)}).With(
		slog.String("service", service),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)
}

// localWriter combines stdout and the rotated file. Stdout is used when no
// output is configured at all so a bare config still logs somewhere.
func localWriter(out config.OutputConfig) io.Writer {
	var writers []io.Writer
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}
	if out.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		})
	}
	switch len(writers) {
	case 0:
		return nil
	case 1:
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

func fanOut(handlers []slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &multiHandler{handlers: handlers}
}

// Default is the logger used before configuration is read.
func Default() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(&contextHandler{next: h}).With(slog.String("service", constants.AppName))
}

// ParseLevel maps a config level name to slog; unknown names mean info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
