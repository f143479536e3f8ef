package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "assaylab/docs"
	"assaylab/internal/config"
	"assaylab/internal/domain"
	"assaylab/internal/handler"
	"assaylab/internal/middleware"
	"assaylab/internal/service"
)

// Setup configures the Gin engine with all routes and middleware. metricsH may be
// nil, in which case no metrics endpoint is mounted.
func Setup(
	cfg *config.Config,
	logger zerolog.Logger,
	authSvc service.AuthService,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
	metricsH http.Handler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if metricsH != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metricsH))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(authSvc))
	v1.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleLab, domain.RoleProduction))

	reports := v1.Group("/reports")
	reports.GET("/kinds", reportH.Kinds)
	reports.GET("/elements", reportH.Elements)
	reports.GET("/plants", reportH.Plants)
	reports.GET("/job-numbers", reportH.JobNumbers)
	reports.POST("/:kind", reportH.Generate)

	return r
}
