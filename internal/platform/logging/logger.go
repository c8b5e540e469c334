// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
	"github.com/rollbar/rollbar-go"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to stdout. When a Rollbar token is
// configured, error records are also reported to Rollbar. The returned
// func flushes pending reports and must be called before exit.
func New(cfg *config.Config) (*slog.Logger, func()) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, func()) {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})
	if cfg.RollbarToken == "" {
		return slog.New(handler), func() {}
	}

	environment := "development"
	if cfg.IsProduction {
		environment = "production"
	}
	rollbar.SetToken(cfg.RollbarToken)
	rollbar.SetEnvironment(environment)
	rollbar.SetCodeVersion(cfg.BuildVersion)

	handler = NewRollbarHandler(handler, func(msg string, fields map[string]any) {
		rollbar.Error(msg, fields)
	})
	return slog.New(handler), rollbar.Wait
}
