package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"mosmix/internal/config"
	"mosmix/internal/example"
	"mosmix/internal/logging"
	"mosmix/pkg/dwd"
	"mosmix/pkg/dwd/mosmix"
)

// Build metadata - injected at build time
var (
	BuildDate    = "unknown"
	BuildCommit  = "unknown"
	BuildVersion = "dev"
)

const appName = "mosmix-example"

// sourceFactory builds the forecast source from the loaded configuration
type sourceFactory func(cfg *config.Config, logger *slog.Logger) example.Source

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, newDWDSource)
	stop()
	os.Exit(code)
}

// run executes the example and returns the process exit code
func run(ctx context.Context, stdout, stderr io.Writer, newSource sourceFactory) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger := logging.New(*cfg, stderr, BuildVersion, appName).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	logger.Debug("starting", "build_version", BuildVersion, "build_commit", BuildCommit, "build_date", BuildDate)

	runner := example.NewRunner(newSource(cfg, logger), stdout, example.WithLogger(logger))
	if err := runner.Run(ctx); err != nil {
		logger.Error("forecast example failed", "error", err, "code", dwd.CodeOf(err))
		return 1
	}
	return 0
}

func newDWDSource(cfg *config.Config, logger *slog.Logger) example.Source {
	retry := dwd.DefaultRetryPolicy()
	retry.MaxRetries = cfg.DWD.MaxRetries

	client := dwd.NewClient(
		dwd.WithHTTPClient(&http.Client{Timeout: cfg.DWD.HTTPTimeout}),
		dwd.WithRetryPolicy(retry),
		dwd.WithUserAgent(cfg.DWD.UserAgent),
		dwd.WithLogger(logger),
	)

	return example.NewSource(mosmix.NewClient(client, mosmix.ClientConfig{
		BaseURL:           cfg.DWD.BaseURL,
		StationCatalogURL: cfg.DWD.StationCatalogURL,
		Logger:            logger,
	}))
}
