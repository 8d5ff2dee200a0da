// Package handler provides the HTTP handlers of the planning service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shiftplan/shiftplan/internal/config"
	"github.com/shiftplan/shiftplan/internal/metrics"
	"github.com/shiftplan/shiftplan/internal/repository"
	"github.com/shiftplan/shiftplan/internal/storage"
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

// PlanRecorder persists generated plans.
type PlanRecorder interface {
	Save(ctx context.Context, plan *model.Plan) (*repository.PlanRun, error)
}

// BuildInfo is reported by GET /version.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Handler serves the planning API.
type Handler struct {
	registry       *solver.Registry
	profiles       *config.ProfileStore
	store          *storage.ArtifactStore
	recorder       PlanRecorder
	metrics        *metrics.MetricsRegistry
	health         func(ctx context.Context) error
	defaultProfile string
	defaultMode    model.ConstraintMode
	timeout        time.Duration
	maxBodyBytes   int64
	metricsPath    string
	build          BuildInfo
}

// Option configures a Handler.
type Option func(*Handler)

// WithStore enables loading and saving artifacts by id.
func WithStore(s *storage.ArtifactStore) Option {
	return func(h *Handler) { h.store = s }
}

// WithRecorder persists every generated plan.
func WithRecorder(r PlanRecorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// WithMetrics sets the registry plan runs are recorded in.
func WithMetrics(m *metrics.MetricsRegistry) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithHealthCheck adds a dependency check to GET /health.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.health = check }
}

// WithDefaults sets the profile and constraint mode used when a request
// names none.
func WithDefaults(profile string, mode model.ConstraintMode) Option {
	return func(h *Handler) {
		h.defaultProfile = profile
		h.defaultMode = mode
	}
}

// WithTimeout bounds a single planning run.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithMetricsPath mounts the metrics endpoint at path; an empty path
// disables it.
func WithMetricsPath(path string) Option {
	return func(h *Handler) { h.metricsPath = path }
}

// WithBuildInfo sets the version reported by GET /version.
func WithBuildInfo(info BuildInfo) Option {
	return func(h *Handler) { h.build = info }
}

// New creates a handler running plans through registry.
func New(registry *solver.Registry, profiles *config.ProfileStore, opts ...Option) *Handler {
	h := &Handler{
		registry:       registry,
		profiles:       profiles,
		metrics:        metrics.GetRegistry(),
		defaultProfile: config.DefaultProfileName,
		defaultMode:    model.ModeStrict,
		timeout:        defaultTimeout,
		maxBodyBytes:   defaultMaxBodyBytes,
		metricsPath:    "/metrics",
		build:          BuildInfo{Version: "dev"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/version", h.Version)
	if h.metricsPath != "" {
		mux.Handle(h.metricsPath, h.metrics.Handler())
	}

	mux.HandleFunc("/api/v1/", h.Index)
	mux.HandleFunc("/api/v1/plans", h.ListPlans)
	mux.HandleFunc("/api/v1/plans/generate", h.Generate)
	mux.HandleFunc("/api/v1/plans/explain", h.Explain)
	mux.HandleFunc("/api/v1/plans/validate", h.Validate)
	mux.HandleFunc("/api/v1/plans/compare", h.Compare)
	mux.HandleFunc("/api/v1/profiles", h.Profiles)
	mux.HandleFunc("/api/v1/mechanisms", h.Mechanisms)
	mux.HandleFunc("/api/v1/constraints", h.Constraints)

	mux.HandleFunc("/api/v1/stats/fairness", h.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", h.Coverage)
	mux.HandleFunc("/api/v1/stats/workload", h.Workload)
	mux.HandleFunc("/api/v1/stats/evaluation", h.Evaluation)
}

// Routes returns a mux with all routes mounted.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		respondError(w, r, methodNotAllowed(http.MethodPost))
		return false
	}
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeInvalidInput, "failed to parse request body").WithDetails(err.Error()))
		return false
	}
	return true
}

// loadPlan returns inline, or the stored plan with id.
func (h *Handler) loadPlan(field string, inline *model.Plan, id string) (*model.Plan, error) {
	if inline != nil {
		return inline, nil
	}
	if id == "" {
		return nil, apperrors.InvalidInput(field, "plan or plan id is required")
	}
	if h.store == nil {
		return nil, apperrors.InvalidInput(field+"_id", "artifact store is not configured")
	}
	return h.store.LoadPlan(id)
}

// loadSnapshot returns inline, or the stored snapshot with id.
func (h *Handler) loadSnapshot(inline *model.Snapshot, id string) (*model.Snapshot, error) {
	if inline != nil {
		return inline, nil
	}
	if id == "" {
		return nil, apperrors.InvalidInput("snapshot", "snapshot or snapshot_id is required")
	}
	if h.store == nil {
		return nil, apperrors.InvalidInput("snapshot_id", "artifact store is not configured")
	}
	return h.store.LoadSnapshot(id)
}

func (h *Handler) resolveProfile(name string) (*config.Profile, error) {
	if name == "" {
		name = h.defaultProfile
	}
	return h.profiles.Resolve(name)
}

func methodNotAllowed(allowed string) *apperrors.AppError {
	err := apperrors.New(apperrors.CodeInvalidInput, "method not allowed, use "+allowed)
	err.HTTPStatus = http.StatusMethodNotAllowed
	return err
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "internal error")
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().
			Err(err).
			Str("code", string(appErr.Code)).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	respondJSON(w, appErr.HTTPStatus, map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}
