package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/internal/metrics"
	"github.com/shiftplan/shiftplan/internal/security"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(okHandler), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})
}

func TestLogging_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	h := Logging(reg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", nil))

	c := reg.GetCounter(metrics.HTTPRequestsTotal)
	require.NotNil(t, c)
	assert.Equal(t, 1.0, c.Value(http.MethodPost, "/api/v1/plans/generate", "418"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/plans/generate", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1)
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	h := RateLimit(rl)(http.HandlerFunc(okHandler))
	serve := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	assert.Equal(t, http.StatusTooManyRequests, serve())

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, serve())
}

func TestAPIKeyAuth(t *testing.T) {
	keys := security.NewAPIKeyManager()
	keys.Add("rw-key", "ops", []string{security.ScopeRead, security.ScopeWrite})
	keys.Add("ro-key", "viewer", []string{security.ScopeRead})

	h := APIKeyAuth(keys, []string{"/health"}, "/api/v1/plans/generate")(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{"public path", http.MethodGet, "/health", "", http.StatusOK},
		{"missing key", http.MethodGet, "/api/v1/plans", "", http.StatusUnauthorized},
		{"unknown key", http.MethodGet, "/api/v1/plans", "nope", http.StatusUnauthorized},
		{"read with read key", http.MethodGet, "/api/v1/plans", "ro-key", http.StatusOK},
		{"post read endpoint with read key", http.MethodPost, "/api/v1/plans/explain", "ro-key", http.StatusOK},
		{"generate with read key", http.MethodPost, "/api/v1/plans/generate", "ro-key", http.StatusForbidden},
		{"generate with write key", http.MethodPost, "/api/v1/plans/generate", "rw-key", http.StatusOK},
		{"preflight", http.MethodOptions, "/api/v1/plans/generate", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(security.APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("error body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
		assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
		assert.Contains(t, rec.Body.String(), "missing API key")
	})
}
