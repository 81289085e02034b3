package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"mosmix/internal/config"
)

// New builds the process logger. Development gets colored text, anything
// else JSON. Logs never go to stdout, which carries the forecast tables.
func New(cfg config.Config, w io.Writer, version string, appName string) *slog.Logger {
	if cfg.IsDev() {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.SlogLevel(),
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
