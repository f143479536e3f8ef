package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	S3      S3Config
	Log     LogConfig
	CORS    CORSConfig
	Report  ReportConfig
	Metrics MetricsConfig
	Email   EmailConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig holds report generation settings.
type ReportConfig struct {
	Organization  string        `mapstructure:"organization"`
	LogoPath      string        `mapstructure:"logo_path"`
	LogoKey       string        `mapstructure:"logo_key"`
	Archive       bool          `mapstructure:"archive"`
	ArchivePrefix string        `mapstructure:"archive_prefix"`
	DefaultFormat string        `mapstructure:"default_format"`
	QueryTimeout  time.Duration `mapstructure:"query_timeout"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EmailConfig holds report delivery settings. Provider is "ses" or "noop".
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the LABREPORT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LABREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "assaylab")
	v.SetDefault("db.password", "assaylab_secret")
	v.SetDefault("db.name", "assaylab_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "assaylab-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Report defaults
	v.SetDefault("report.organization", "GMC")
	v.SetDefault("report.logo_path", "")
	v.SetDefault("report.logo_key", "")
	v.SetDefault("report.archive", false)
	v.SetDefault("report.archive_prefix", "reports")
	v.SetDefault("report.default_format", "pdf")
	v.SetDefault("report.query_timeout", "30s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "reports@assaylab.local")
	v.SetDefault("email.from_name", "Assay Lab Reports")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":           "LABREPORT_SERVER_PORT",
		"server.read_timeout":   "LABREPORT_SERVER_READ_TIMEOUT",
		"server.write_timeout":  "LABREPORT_SERVER_WRITE_TIMEOUT",
		"server.environment":    "LABREPORT_SERVER_ENVIRONMENT",
		"db.host":               "LABREPORT_DB_HOST",
		"db.port":               "LABREPORT_DB_PORT",
		"db.user":               "LABREPORT_DB_USER",
		"db.password":           "LABREPORT_DB_PASSWORD",
		"db.name":               "LABREPORT_DB_NAME",
		"db.sslmode":            "LABREPORT_DB_SSLMODE",
		"db.max_open":           "LABREPORT_DB_MAX_OPEN",
		"db.max_idle":           "LABREPORT_DB_MAX_IDLE",
		"jwt.secret":            "LABREPORT_JWT_SECRET",
		"jwt.issuer":            "LABREPORT_JWT_ISSUER",
		"s3.region":             "LABREPORT_S3_REGION",
		"s3.bucket":             "LABREPORT_S3_BUCKET",
		"s3.endpoint":           "LABREPORT_S3_ENDPOINT",
		"s3.access_key":         "LABREPORT_S3_ACCESS_KEY",
		"s3.secret_key":         "LABREPORT_S3_SECRET_KEY",
		"s3.presign_expiry":     "LABREPORT_S3_PRESIGN_EXPIRY",
		"log.level":             "LABREPORT_LOG_LEVEL",
		"log.format":            "LABREPORT_LOG_FORMAT",
		"cors.allowed_origins":  "LABREPORT_CORS_ALLOWED_ORIGINS",
		"report.organization":   "LABREPORT_REPORT_ORGANIZATION",
		"report.logo_path":      "LABREPORT_REPORT_LOGO_PATH",
		"report.logo_key":       "LABREPORT_REPORT_LOGO_KEY",
		"report.archive":        "LABREPORT_REPORT_ARCHIVE",
		"report.archive_prefix": "LABREPORT_REPORT_ARCHIVE_PREFIX",
		"report.default_format": "LABREPORT_REPORT_DEFAULT_FORMAT",
		"report.query_timeout":  "LABREPORT_REPORT_QUERY_TIMEOUT",
		"metrics.enabled":       "LABREPORT_METRICS_ENABLED",
		"metrics.path":          "LABREPORT_METRICS_PATH",
		"email.provider":        "LABREPORT_EMAIL_PROVIDER",
		"email.region":          "LABREPORT_EMAIL_REGION",
		"email.from_address":    "LABREPORT_EMAIL_FROM_ADDRESS",
		"email.from_name":       "LABREPORT_EMAIL_FROM_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LABREPORT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LABREPORT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Report = ReportConfig{
		Organization:  v.GetString("report.organization"),
		LogoPath:      v.GetString("report.logo_path"),
		LogoKey:       v.GetString("report.logo_key"),
		Archive:       v.GetBool("report.archive"),
		ArchivePrefix: v.GetString("report.archive_prefix"),
		DefaultFormat: strings.ToLower(v.GetString("report.default_format")),
		QueryTimeout:  v.GetDuration("report.query_timeout"),
	}
	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("metrics.enabled"),
		Path:    v.GetString("metrics.path"),
	}

	cfg.Email = EmailConfig{
		Provider:    strings.ToLower(v.GetString("email.provider")),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	if cfg.Report.QueryTimeout < 0 {
		return nil, fmt.Errorf("report.query_timeout must not be negative, got %s", cfg.Report.QueryTimeout)
	}

	switch cfg.Email.Provider {
	case "ses", "noop":
	default:
		return nil, fmt.Errorf("email.provider must be ses or noop, got %q", cfg.Email.Provider)
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
