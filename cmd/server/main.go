package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assaylab/internal/app"
	"assaylab/internal/config"
	"assaylab/internal/handler"
	"assaylab/internal/logger"
	"assaylab/internal/metrics"
	"assaylab/internal/router"
	"assaylab/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Assay Lab Report API
// @version                     1.0
// @description                 Aggregated laboratory reports rendered as PDF, XLSX or CSV.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog := logger.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx := zlog.WithContext(context.Background())
	reports, err := app.NewReports(ctx, cfg, zlog, metrics.NewPrometheus(registry))
	if err != nil {
		return err
	}
	defer reports.Close()

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)

	// Initialize handlers
	reportH := handler.NewReportHandler(reports.Service)
	healthH := handler.NewHealthHandler(reports.DB)

	// Setup router
	r := router.Setup(cfg, zlog, authSvc, reportH, healthH,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info().Str("addr", server.Addr).Msg("server starting")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-shutdown:
		zlog.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("graceful shutdown failed")
			return server.Close()
		}
	}
	return nil
}
