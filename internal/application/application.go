package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/pivot/internal/api"
	"github.com/eugenenazirov/pivot/internal/config"
	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/store"
	"github.com/eugenenazirov/pivot/internal/watch"
)

// ReloadFunc produces a fresh, fully validated Settings value.
type ReloadFunc func(ctx context.Context) (*settings.Settings, error)

// Option configures an App.
type Option func(*App)

// WithReloader sets how settings are reloaded on SIGHUP or file change.
func WithReloader(reload ReloadFunc) Option {
	return func(a *App) {
		a.reload = reload
	}
}

// WithVersion sets the version reported over HTTP.
func WithVersion(version string) Option {
	return func(a *App) {
		a.version = version
	}
}

// App encapsulates the settings store and the HTTP server that serves it.
type App struct {
	cfg     config.Config
	store   *store.MemoryStore
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
	reload  ReloadFunc
	version string

	// reloadMu serializes reloads so that an older load never overwrites
	// a newer one.
	reloadMu sync.Mutex

	mu       sync.Mutex
	listener net.Listener
}

// New wires the store, handlers and server around the initial settings.
func New(cfg config.Config, logger *zap.Logger, initial *settings.Settings, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.store.Set(initial); err != nil {
		return nil, fmt.Errorf("failed to apply initial settings: %w", err)
	}

	a.handler = api.NewHandler(a.store, api.WithVersion(a.version))
	a.router = api.NewRouter(a.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	a.server = NewServer(cfg, a.router)

	return a, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start binds the listen address and serves in a goroutine. Bind errors
// are returned to the caller.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	go func() {
		a.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Store returns the settings store served by the API.
func (a *App) Store() store.Store {
	return a.store
}

// Reload replaces the served settings with a fresh load. On failure the
// previous settings stay in place and the error is returned.
func (a *App) Reload(ctx context.Context) error {
	if a.reload == nil {
		return errors.New("reload is not configured")
	}

	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	next, err := a.reload(ctx)
	if err != nil {
		a.logger.Error("settings reload failed, keeping previous settings", zap.Error(err))
		return err
	}
	if err := a.store.Set(next); err != nil {
		return err
	}

	a.logger.Info("settings reloaded", zap.Int("dataCubes", len(next.DataCubes)))
	return nil
}

// Watch reloads whenever path changes until ctx is done.
func (a *App) Watch(ctx context.Context, path string) error {
	w, err := watch.New(path, func() {
		_ = a.Reload(ctx)
	},
		watch.WithDebounce(a.cfg.WatchDebounce),
		watch.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	go func() {
		_ = w.Run(ctx)
	}()
	a.logger.Info("watching settings file", zap.String("path", path))
	return nil
}
