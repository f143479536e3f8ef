package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "GMC", cfg.Report.Organization)
	assert.Equal(t, "pdf", cfg.Report.DefaultFormat)
	assert.Equal(t, 30*time.Second, cfg.Report.QueryTimeout)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "noop", cfg.Email.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LABREPORT_REPORT_ORGANIZATION", "ACME")
	t.Setenv("LABREPORT_REPORT_ARCHIVE", "true")
	t.Setenv("LABREPORT_REPORT_QUERY_TIMEOUT", "5s")
	t.Setenv("LABREPORT_DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ACME", cfg.Report.Organization)
	assert.True(t, cfg.Report.Archive)
	assert.Equal(t, 5*time.Second, cfg.Report.QueryTimeout)
	assert.Equal(t, "db.internal", cfg.DB.Host)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_NegativeTimeoutRejected(t *testing.T) {
	t.Setenv("LABREPORT_REPORT_QUERY_TIMEOUT", "-1s")

	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	d := DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", d.DSN())
}

func TestLoad_EmailProvider(t *testing.T) {
	t.Setenv("LABREPORT_EMAIL_PROVIDER", "SES")
	t.Setenv("LABREPORT_EMAIL_FROM_ADDRESS", "lab@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, "lab@example.com", cfg.Email.FromAddress)
}

func TestLoad_UnknownEmailProviderRejected(t *testing.T) {
	t.Setenv("LABREPORT_EMAIL_PROVIDER", "smtp")

	_, err := Load()
	assert.Error(t, err)
}
