package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"assaylab/internal/app"
	"assaylab/internal/cli"
	"assaylab/internal/config"
	"assaylab/internal/logger"
	"assaylab/internal/metrics"
	"assaylab/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already carry the settings.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewWithWriter(cfg.Log, os.Stderr)

	open := func(ctx context.Context) (service.ReportService, func(), error) {
		reports, err := app.NewReports(ctx, cfg, log, metrics.Noop{})
		if err != nil {
			return nil, nil, err
		}
		return reports.Service, func() {
			if err := reports.Close(); err != nil {
				log.Warn().Err(err).Msg("closing database")
			}
		}, nil
	}

	ctx := log.WithContext(context.Background())
	mailer, err := app.Mailer(ctx, cfg, log)
	if err != nil {
		printError(log, err)
		os.Exit(1)
	}

	root := cli.NewRootCmd(open, mailer)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(log, err)
		os.Exit(1)
	}
}

func printError(log zerolog.Logger, err error) {
	log.Debug().Err(err).Msg("reportctl failed")
	fmt.Fprintln(os.Stderr, "error:", err)
}
