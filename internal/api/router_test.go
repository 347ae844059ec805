package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/store"
)

// panickingStore fails every read with a panic.
type panickingStore struct{}

func (panickingStore) Get() (*settings.Settings, time.Time, error) {
	panic("settings store corrupted")
}

func (panickingStore) Set(*settings.Settings) error {
	return nil
}

func newTestRouter(t *testing.T, st store.Store, opts ...RouterOption) http.Handler {
	t.Helper()

	handler := NewHandler(st)
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, opts...)
}

func loadedStore(t *testing.T) store.Store {
	t.Helper()

	st := store.NewMemoryStore()
	if err := st.Set(testSettings()); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return st
}

func TestAccessLogRecordsEmptyStoreStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := NewHandler(store.NewMemoryStore())
	router := NewRouter(handler, zap.New(core), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("X-Request-ID", "cfg-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before settings are loaded, got %d", rec.Code)
	}

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/config" {
		t.Fatalf("unexpected logged path %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusServiceUnavailable) {
		t.Fatalf("unexpected logged status %v", fields["status"])
	}
	if fields["request_id"] != "cfg-1" {
		t.Fatalf("unexpected logged request id %v", fields["request_id"])
	}
}

func TestAccessLogDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := NewRouter(NewHandler(loadedStore(t)), zap.New(core), WithLogging(false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data-cubes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no access log, got %d entries", logs.Len())
	}
}

func TestRecoveryWhenStorePanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := NewRouter(NewHandler(panickingStore{}), zap.New(core), WithLogging(false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatalf("expected the panic to be logged")
	}
}

func TestResponseRecorderWriteHeader(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: underlying}
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected status to be recorded")
	}
	if underlying.Code != http.StatusTeapot {
		t.Fatalf("expected status to propagate to ResponseWriter")
	}
}

func TestRateLimitAppliesToDataCubeRoutes(t *testing.T) {
	router := newTestRouter(t, loadedStore(t), WithLogging(false), WithRateLimit(1, 1))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/data-cubes/wiki", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/data-cubes/wiki", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After of 1s, got %q", got)
	}

	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected health to bypass the limiter, got %d", health.Code)
	}
}

func TestWithRateLimitZeroDisablesLimiting(t *testing.T) {
	router := newTestRouter(t, loadedStore(t),
		WithLogging(false),
		withLimiter(&staticLimiter{allow: false}),
		WithRateLimit(0, 0),
	)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected limiter to be disabled, got %d", i, rec.Code)
		}
	}
}

func TestDefaultRouterLimitsSettingsRoutes(t *testing.T) {
	router := newTestRouter(t, loadedStore(t), WithLogging(false))

	burst := defaultBurst(DefaultRateLimitRPS)
	limited := 0
	for i := 0; i < burst+20; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Fatalf("expected default limiter to reject requests beyond the burst of %d", burst)
	}
}
