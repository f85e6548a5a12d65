package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"concord/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Engine EngineConfig
	Models ModelsConfig
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

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EngineConfig holds the consolidation engine's calibration thresholds.
type EngineConfig struct {
	// ConflictHighConfidenceThreshold marks sentiment disagreements as
	// high severity when either side reports at least this confidence.
	ConflictHighConfidenceThreshold float64 `mapstructure:"conflict_high_confidence_threshold"`
	// ConfidenceSpreadMedium is the confidence gap above which two models
	// disagreeing on the same claim is a medium severity conflict.
	ConfidenceSpreadMedium float64 `mapstructure:"confidence_spread_medium"`
}

// ModelsConfig holds the injected registry of supported analysis models.
type ModelsConfig struct {
	// Supported is a comma-separated list of "id:display name[:icon]"
	// descriptors. Empty disables registry enforcement.
	Supported string `mapstructure:"supported"`
}

// Descriptors parses the supported-models list into descriptors.
func (m *ModelsConfig) Descriptors() []domain.ModelDescriptor {
	var out []domain.ModelDescriptor
	for _, raw := range strings.Split(m.Supported, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		desc := domain.ModelDescriptor{ID: parts[0], DisplayName: parts[0]}
		if len(parts) > 1 && parts[1] != "" {
			desc.DisplayName = parts[1]
		}
		if len(parts) > 2 {
			desc.Icon = parts[2]
		}
		out = append(out, desc)
	}
	return out
}

// Load reads configuration from environment variables with the CONCORD_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "concord")
	v.SetDefault("db.password", "concord_secret")
	v.SetDefault("db.name", "concord_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Engine calibration defaults
	v.SetDefault("engine.conflict_high_confidence_threshold", 0.8)
	v.SetDefault("engine.confidence_spread_medium", 0.3)

	// Model registry defaults
	v.SetDefault("models.supported", "gpt4:GPT-4,claude:Claude,gemini:Gemini")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "CONCORD_SERVER_PORT",
		"server.read_timeout":  "CONCORD_SERVER_READ_TIMEOUT",
		"server.write_timeout": "CONCORD_SERVER_WRITE_TIMEOUT",
		"server.environment":   "CONCORD_SERVER_ENVIRONMENT",
		"db.host":              "CONCORD_DB_HOST",
		"db.port":              "CONCORD_DB_PORT",
		"db.user":              "CONCORD_DB_USER",
		"db.password":          "CONCORD_DB_PASSWORD",
		"db.name":              "CONCORD_DB_NAME",
		"db.sslmode":           "CONCORD_DB_SSLMODE",
		"db.max_open":          "CONCORD_DB_MAX_OPEN",
		"db.max_idle":          "CONCORD_DB_MAX_IDLE",
		"log.level":            "CONCORD_LOG_LEVEL",
		"log.format":           "CONCORD_LOG_FORMAT",
		"cors.allowed_origins": "CONCORD_CORS_ALLOWED_ORIGINS",
		"engine.conflict_high_confidence_threshold": "CONCORD_ENGINE_CONFLICT_HIGH_CONFIDENCE_THRESHOLD",
		"engine.confidence_spread_medium":           "CONCORD_ENGINE_CONFIDENCE_SPREAD_MEDIUM",
		"models.supported":                          "CONCORD_MODELS_SUPPORTED",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CONCORD_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CONCORD_SERVER_PORT") == "" {
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
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Engine = EngineConfig{
		ConflictHighConfidenceThreshold: v.GetFloat64("engine.conflict_high_confidence_threshold"),
		ConfidenceSpreadMedium:          v.GetFloat64("engine.confidence_spread_medium"),
	}
	cfg.Models = ModelsConfig{
		Supported: v.GetString("models.supported"),
	}

	return cfg, nil
}
