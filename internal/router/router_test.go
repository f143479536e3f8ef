package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"assaylab/internal/config"
	"assaylab/internal/domain"
	"assaylab/internal/handler"
	"assaylab/internal/router"
	"assaylab/internal/service"
	"assaylab/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func setup(cfg *config.Config, withMetrics bool) (*gin.Engine, *mocks.MockAuthService, *mocks.MockReportService) {
	authSvc := new(mocks.MockAuthService)
	reportSvc := new(mocks.MockReportService)

	var metricsH http.Handler
	if withMetrics {
		metricsH = promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}

	r := router.Setup(
		cfg,
		zerolog.Nop(),
		authSvc,
		handler.NewReportHandler(reportSvc),
		handler.NewHealthHandler(nil),
		metricsH,
	)
	return r, authSvc, reportSvc
}

func TestRouter_Liveness(t *testing.T) {
	r, _, _ := setup(testConfig(), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ReportsRequireToken(t *testing.T) {
	r, _, reportSvc := setup(testConfig(), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/kinds", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	reportSvc.AssertNotCalled(t, "Kinds")
}

func TestRouter_ReportsRejectInvalidToken(t *testing.T) {
	r, authSvc, _ := setup(testConfig(), false)
	authSvc.On("ValidateToken", "bad").Return(nil, errors.New("invalid"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/kinds", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ReportsRejectUnknownRole(t *testing.T) {
	r, authSvc, _ := setup(testConfig(), false)
	claims := &service.Claims{Role: domain.UserRole("guest")}
	claims.Subject = "user-1"
	authSvc.On("ValidateToken", "tok").Return(claims, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/kinds", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ReportKinds(t *testing.T) {
	r, authSvc, reportSvc := setup(testConfig(), false)
	claims := &service.Claims{Role: domain.RoleLab}
	claims.Subject = "user-1"
	authSvc.On("ValidateToken", "tok").Return(claims, nil)
	reportSvc.On("Kinds").Return([]service.KindInfo{{Tag: "geology", Title: "Geology Report"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/kinds", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Geology Report")
	reportSvc.AssertExpectations(t)
}

func TestRouter_GenerateRoutesKind(t *testing.T) {
	r, authSvc, reportSvc := setup(testConfig(), false)
	claims := &service.Claims{Role: domain.RoleProduction}
	claims.Subject = "user-1"
	authSvc.On("ValidateToken", "tok").Return(claims, nil)
	reportSvc.On("Generate", mock.Anything, mock.MatchedBy(func(req domain.ReportRequest) bool {
		return req.Kind == "daily" && req.Format == "csv"
	})).Return(&domain.ReportFile{
		Filename:    "DailyReport-20240301103000.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("x"),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/daily?start_date=2024-03-01&format=csv", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="DailyReport-20240301103000.csv"`, w.Header().Get("Content-Disposition"))
	reportSvc.AssertExpectations(t)
}

func TestRouter_Metrics(t *testing.T) {
	r, _, _ := setup(testConfig(), true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	r, _, _ := setup(cfg, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SwaggerDoc(t *testing.T) {
	r, _, _ := setup(testConfig(), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/reports/{kind}")
	assert.Contains(t, w.Body.String(), "Assay Lab Report API")
}
