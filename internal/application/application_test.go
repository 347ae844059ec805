package application

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/pivot/internal/config"
	"github.com/eugenenazirov/pivot/internal/settings"
)

func testSettings(cube string) *settings.Settings {
	s := &settings.Settings{DataCubes: []settings.DataCube{{Name: cube, Source: cube}}}
	s.ApplyDefaults()
	return s
}

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger, testSettings("wiki"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	current, _, err := app.Store().Get()
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if current.DataCubes[0].Name != "wiki" {
		t.Fatalf("expected initial settings to be stored, got %+v", current.DataCubes)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForNilSettings(t *testing.T) {
	if _, err := New(baseTestConfig(":0"), zaptest.NewLogger(t), nil); err == nil {
		t.Fatalf("expected error for nil settings")
	}
}

func TestReloadReplacesSettings(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t), testSettings("wiki"),
		WithReloader(func(context.Context) (*settings.Settings, error) {
			return testSettings("edits"), nil
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}

	current, _, _ := app.Store().Get()
	if current.DataCubes[0].Name != "edits" {
		t.Fatalf("expected reloaded settings, got %s", current.DataCubes[0].Name)
	}
}

func TestReloadFailureKeepsPreviousSettings(t *testing.T) {
	boom := errors.New("boom")
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t), testSettings("wiki"),
		WithReloader(func(context.Context) (*settings.Settings, error) {
			return nil, boom
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := app.Reload(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected reload error, got %v", err)
	}

	current, _, _ := app.Store().Get()
	if current.DataCubes[0].Name != "wiki" {
		t.Fatalf("expected previous settings to be kept, got %s", current.DataCubes[0].Name)
	}
}

func TestReloadWithoutReloader(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t), testSettings("wiki"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := app.Reload(context.Background()); err == nil {
		t.Fatalf("expected error when no reloader is configured")
	}
}

func TestStartServesAPI(t *testing.T) {
	app, err := New(baseTestConfig("127.0.0.1:0"), zaptest.NewLogger(t), testSettings("wiki"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Server().Shutdown(ctx)
	})

	resp, err := http.Get("http://" + app.Addr() + "/api/data-cubes/wiki")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWatchTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := baseTestConfig(":0")
	cfg.WatchDebounce = 20 * time.Millisecond
	app, err := New(cfg, zaptest.NewLogger(t), testSettings("wiki"),
		WithReloader(func(context.Context) (*settings.Settings, error) {
			return testSettings("edits"), nil
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.Watch(ctx, path); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		current, _, _ := app.Store().Get()
		if current.DataCubes[0].Name == "edits" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected file change to trigger a reload")
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		WatchDebounce:        50 * time.Millisecond,
	}
}
