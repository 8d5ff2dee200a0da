// Package logger provides the shared zerolog-backed logger.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level is the log level.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

type ctxKey string

// RequestIDKey is the context key carrying the HTTP request id.
const RequestIDKey ctxKey = "request_id"

// Config configures the global logger.
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig returns the console logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global logger once.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			output = os.Stdout
			if cfg.FilePath != "" {
				if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
					output = f
				}
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, initializing it with defaults if needed.
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// WithContext returns a logger enriched with the request id found in ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}

func Debug() *zerolog.Event { return Get().Debug() }
func Info() *zerolog.Event  { return Get().Info() }
func Warn() *zerolog.Event  { return Get().Warn() }
func Error() *zerolog.Event { return Get().Error() }
func Fatal() *zerolog.Event { return Get().Fatal() }

// WithError starts an error event carrying err.
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// WithField returns a child logger with one extra field.
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// PlannerLogger is the component logger used by the allocation engine.
type PlannerLogger struct {
	base zerolog.Logger
}

// NewPlannerLogger creates a planner logger on top of the global logger.
func NewPlannerLogger() *PlannerLogger {
	return NewPlannerLoggerFrom(*Get())
}

// NewPlannerLoggerFrom creates a planner logger on top of base.
func NewPlannerLoggerFrom(base zerolog.Logger) *PlannerLogger {
	return &PlannerLogger{base: base.With().Str("component", "planner").Logger()}
}

// StartPlan logs the beginning of a plan run.
func (l *PlannerLogger) StartPlan(planID, mode string, employees, slots int) {
	l.base.Info().
		Str("plan_id", planID).
		Str("constraint_mode", mode).
		Int("employees", employees).
		Int("slots", slots).
		Msg("plan generation started")
}

// SlotUnassigned logs a slot left open.
func (l *PlannerLogger) SlotUnassigned(slotID, reason string) {
	l.base.Debug().
		Str("slot_id", slotID).
		Str("reason", reason).
		Msg("slot left unassigned")
}

// ProfileFallback logs that an unknown profile was replaced by another.
func (l *PlannerLogger) ProfileFallback(requested, used string) {
	l.base.Warn().
		Str("requested", requested).
		Str("used", used).
		Msg("unknown constraint profile, falling back")
}

// PlanComplete logs the end of a plan run.
func (l *PlannerLogger) PlanComplete(planID string, duration time.Duration, fillRate float64) {
	l.base.Info().
		Str("plan_id", planID).
		Dur("duration", duration).
		Float64("fill_rate", fillRate).
		Msg("plan generation complete")
}
