package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/pivot/internal/api"
	"github.com/eugenenazirov/pivot/internal/loader"
	"github.com/eugenenazirov/pivot/internal/source"
	"github.com/eugenenazirov/pivot/internal/store"
)

func newRouter(t *testing.T, in source.Inputs) (http.Handler, *store.MemoryStore, *loader.Loader) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	ld := loader.New(loader.WithLogger(logger), loader.WithVersion("it"))

	s, err := ld.Load(context.Background(), in)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}

	st := store.NewMemoryStore()
	if err := st.Set(s); err != nil {
		t.Fatalf("store settings: %v", err)
	}

	handler := api.NewHandler(st, api.WithVersion("it"))
	return api.NewRouter(handler, logger), st, ld
}

func performRequest(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler, _, _ := newRouter(t, source.Inputs{Example: "wiki"})

	rec := performRequest(t, handler, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, "/api/data-cubes")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from data cubes, got %d", rec.Code)
	}
	var cubes struct {
		DataCubes []struct {
			Name string `json:"name"`
		} `json:"dataCubes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cubes); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(cubes.DataCubes) != 1 || cubes.DataCubes[0].Name != "wiki" {
		t.Fatalf("unexpected data cubes %+v", cubes.DataCubes)
	}

	rec = performRequest(t, handler, "/api/data-cubes/wiki")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from data cube, got %d", rec.Code)
	}

	rec = performRequest(t, handler, "/api/config?comments=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `defaultPinnedDimensions: ["channel","namespace","isRobot"]`) {
		t.Fatalf("unexpected config body:\n%s", rec.Body.String())
	}
}

func TestServedConfigReloadsToSameSettings(t *testing.T) {
	handler, st, ld := newRouter(t, source.Inputs{Example: "wiki"})

	rec := performRequest(t, handler, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}

	path := filepath.Join(t.TempDir(), "served.yaml")
	if err := os.WriteFile(path, rec.Body.Bytes(), 0o600); err != nil {
		t.Fatalf("write served config: %v", err)
	}

	reloaded, err := ld.Load(context.Background(), source.Inputs{ConfigPath: path})
	if err != nil {
		t.Fatalf("reload served config: %v", err)
	}

	current, _, err := st.Get()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if len(reloaded.DataCubes) != len(current.DataCubes) ||
		len(reloaded.DataCubes[0].Dimensions) != len(current.DataCubes[0].Dimensions) ||
		len(reloaded.DataCubes[0].Measures) != len(current.DataCubes[0].Measures) {
		t.Fatalf("served config did not reload to the same settings")
	}
}

func TestDatastoreSettingsHidePassword(t *testing.T) {
	handler, _, _ := newRouter(t, source.Inputs{
		Postgres: "pg.local",
		Database: "wiki",
		User:     "pivot",
		Password: "hunter2",
	})

	rec := performRequest(t, handler, "/api/settings")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from settings, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Fatalf("password leaked in settings response")
	}
	if !strings.Contains(rec.Body.String(), `"host":"pg.local:5432"`) {
		t.Fatalf("expected normalized postgres host, got %s", rec.Body.String())
	}
}

func TestDatastoreConfigHidesPassword(t *testing.T) {
	handler, _, _ := newRouter(t, source.Inputs{
		Postgres: "pg.local",
		Password: "hunter2",
	})

	rec := performRequest(t, handler, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "hunter2") || strings.Contains(body, "password:") {
		t.Fatalf("password leaked in served config: %s", body)
	}
	if !strings.Contains(body, "host: pg.local:5432") {
		t.Fatalf("expected normalized postgres host, got %s", body)
	}
}
