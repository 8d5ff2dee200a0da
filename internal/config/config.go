// Package config loads the service configuration and constraint profiles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
)

var validate = validator.New()

// Config is the application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Planner  PlannerConfig  `yaml:"planner"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig holds the process settings.
type AppConfig struct {
	Name      string `yaml:"name" validate:"required"`
	Version   string `yaml:"version"`
	Env       string `yaml:"env" validate:"oneof=development test production"`
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error fatal"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`
}

// DatabaseConfig holds the PostgreSQL settings. Plan runs are only
// persisted when Enabled is set.
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"gt=0"`
	RateLimit    int           `yaml:"rate_limit" validate:"gte=0"`

	// Keys is a comma separated list of name:key[:scope|scope]. Empty
	// disables authentication.
	Keys string `yaml:"keys"`
}

// PlannerConfig holds the allocation settings.
type PlannerConfig struct {
	ArtifactDir    string               `yaml:"artifact_dir" validate:"required"`
	ProfilesFile   string               `yaml:"profiles_file"`
	DefaultProfile string               `yaml:"default_profile" validate:"required"`
	ConstraintMode model.ConstraintMode `yaml:"constraint_mode" validate:"oneof=strict loose"`
	Timeout        time.Duration        `yaml:"timeout" validate:"gt=0"`
	Workers        int                  `yaml:"workers" validate:"gte=0"`
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads the configuration from the environment after loading the
// given .env files, or ".env" when none is given. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:      getEnv("APP_NAME", "shiftplan"),
			Version:   getEnv("APP_VERSION", "dev"),
			Env:       getEnv("APP_ENV", "development"),
			Port:      getEnvInt("APP_PORT", 7012),
			LogLevel:  getEnv("APP_LOG_LEVEL", "info"),
			LogFormat: getEnv("APP_LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "shiftplan"),
			User:            getEnv("DB_USER", "shiftplan"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			ReadTimeout:  getEnvDuration("API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("API_WRITE_TIMEOUT", 60*time.Second),
			MaxBodyBytes: int64(getEnvInt("API_MAX_BODY_BYTES", 16<<20)),
			RateLimit:    getEnvInt("API_RATE_LIMIT", 100),
			Keys:         getEnv("API_KEYS", ""),
		},
		Planner: PlannerConfig{
			ArtifactDir:    getEnv("PLANNER_ARTIFACT_DIR", "./artifacts"),
			ProfilesFile:   getEnv("PLANNER_PROFILES_FILE", "./config/constraint_profiles.yaml"),
			DefaultProfile: getEnv("PLANNER_DEFAULT_PROFILE", DefaultProfileName),
			ConstraintMode: model.ConstraintMode(getEnv("PLANNER_CONSTRAINT_MODE", string(model.ModeStrict))),
			Timeout:        getEnvDuration("PLANNER_TIMEOUT", 30*time.Second),
			Workers:        getEnvInt("PLANNER_WORKERS", 1),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.App.LogLevel
	cfg.Format = c.App.LogFormat
	return cfg
}

// IsDevelopment reports whether the service runs in development.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
