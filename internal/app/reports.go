// Package app wires the report dispatcher to its store, object storage and
// logo source for the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"assaylab/internal/config"
	"assaylab/internal/email/noop"
	"assaylab/internal/email/ses"
	"assaylab/internal/metrics"
	"assaylab/internal/port"
	"assaylab/internal/repository/postgres"
	"assaylab/internal/service"
	s3storage "assaylab/internal/storage/s3"
)

// Reports holds a ready report dispatcher and the resources behind it.
type Reports struct {
	DB      *sqlx.DB
	Service service.ReportService
}

// NewReports connects to the result store and builds the dispatcher. Object
// storage is only set up when archiving or an S3 logo is configured.
func NewReports(ctx context.Context, cfg *config.Config, logger zerolog.Logger, recorder metrics.Recorder) (*Reports, error) {
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var storage port.ObjectStorage
	if cfg.Report.Archive || cfg.Report.LogoKey != "" {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	svc := service.NewReportService(
		postgres.NewLabResultRepo(db),
		AssetLoader(cfg, storage),
		storage,
		recorder,
		cfg.Report,
		cfg.S3,
		service.WithLogger(logger),
	)
	return &Reports{DB: db, Service: svc}, nil
}

// AssetLoader picks the logo source: an S3 key wins over a local path. It
// returns nil when neither is set.
func AssetLoader(cfg *config.Config, storage port.ObjectStorage) service.AssetLoader {
	switch {
	case cfg.Report.LogoKey != "" && storage != nil:
		return service.NewS3AssetLoader(storage, cfg.S3.Bucket, cfg.Report.LogoKey)
	case cfg.Report.LogoPath != "":
		return service.NewFileAssetLoader(cfg.Report.LogoPath)
	default:
		return nil
	}
}

// Mailer builds the report mailer named by cfg.Email.Provider.
func Mailer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (port.ReportMailer, error) {
	if cfg.Email.Provider == "ses" {
		mailer, err := ses.NewSESSender(ctx, cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES mailer: %w", err)
		}
		return mailer, nil
	}
	return noop.NewNoopSender(logger), nil
}

// Close releases the database pool.
func (r *Reports) Close() error {
	return r.DB.Close()
}
