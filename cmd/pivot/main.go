package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/pivot/internal/application"
	"github.com/eugenenazirov/pivot/internal/config"
	"github.com/eugenenazirov/pivot/internal/interpolate"
	"github.com/eugenenazirov/pivot/internal/loader"
	"github.com/eugenenazirov/pivot/internal/logging"
	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/source"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

var signalNotify = signal.Notify

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, interpolate.Env()))
}

type flags struct {
	inputs source.Inputs

	printConfig     bool
	withComments    bool
	fallbackExample string
	verbose         bool
	showVersion     bool

	port           string
	rateLimitRPS   float64
	rateLimitBurst int
	watch          bool
}

func newApp(stdout, stderr io.Writer, f *flags) *kingpin.Application {
	app := kingpin.New("pivot", "Pivot - resolves, validates and serves data cube settings")
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.HelpFlag.Short('h')

	app.Flag("config", "Path to a settings file").Short('c').StringVar(&f.inputs.ConfigPath)
	app.Flag("example", "Name of a bundled example (e.g. wiki)").StringVar(&f.inputs.Example)
	app.Flag("file", "Path to a flat data file (JSON or CSV) to serve as one data cube").StringVar(&f.inputs.FilePath)
	app.Flag("druid", "Druid broker host[:port] or URL").StringVar(&f.inputs.Druid)
	app.Flag("postgres", "Postgres host[:port], URL or keyword/value string").StringVar(&f.inputs.Postgres)
	app.Flag("mysql", "MySQL host[:port]").StringVar(&f.inputs.MySQL)
	app.Flag("database", "Database name for --postgres and --mysql").StringVar(&f.inputs.Database)
	app.Flag("user", "User name for --postgres and --mysql").StringVar(&f.inputs.User)
	app.Flag("password", "Password for --postgres and --mysql").StringVar(&f.inputs.Password)

	app.Flag("print-config", "Print the resolved settings as YAML and exit").BoolVar(&f.printConfig)
	app.Flag("with-comments", "Annotate printed settings with field comments").BoolVar(&f.withComments)
	app.Flag("fallback-example", "Example loaded when no source is given (empty to require one)").
		Default(loader.DefaultFallbackExample).StringVar(&f.fallbackExample)

	app.Flag("port", "HTTP port exposed by the settings server").StringVar(&f.port)
	app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64Var(&f.rateLimitRPS)
	app.Flag("rate-limit-burst", "Burst capacity for rate limiter (0 derives it from the rate)").Default("-1").IntVar(&f.rateLimitBurst)
	app.Flag("watch", "Reload when the settings file changes").BoolVar(&f.watch)

	app.Flag("verbose", "Log debug information to stderr").Short('v').BoolVar(&f.verbose)
	app.Flag("version", "Show the version and exit").BoolVar(&f.showVersion)

	return app
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, lookup interpolate.Lookup) int {
	var f flags
	app := newApp(stdout, stderr, &f)

	terminated, exitCode := false, 0
	app.Terminate(func(code int) {
		terminated, exitCode = true, code
	})

	if len(args) == 0 {
		app.Usage(nil)
		return 0
	}

	if _, err := app.Parse(args); err != nil {
		if terminated {
			return exitCode
		}
		fmt.Fprintf(stderr, "pivot: error: %v, try --help\n", err)
		return 1
	}
	if terminated {
		return exitCode
	}

	if f.showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	level := "warn"
	if f.verbose {
		level = "debug"
	}
	encoding := "json"
	if f.printConfig {
		encoding = "console"
	}
	logger, err := logging.New(logging.Options{Level: level, Encoding: encoding})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ld := loader.New(
		loader.WithLogger(logger),
		loader.WithLookup(lookup),
		loader.WithPolicy(source.Policy{FallbackExample: f.fallbackExample}),
		loader.WithVersion(version),
	)

	ctx := context.Background()

	if f.printConfig {
		out, err := ld.Print(ctx, f.inputs, f.withComments)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		_, _ = stdout.Write(out)
		return 0
	}

	if err := serve(ctx, ld, &f, logger); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// serve loads the settings, serves them over HTTP and blocks until a
// shutdown signal arrives.
func serve(ctx context.Context, ld *loader.Loader, f *flags, logger *zap.Logger) error {
	cfg, err := config.Load(cliOverrides(f))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	desc, err := ld.Select(f.inputs)
	if err != nil {
		return err
	}

	initial, err := ld.LoadDescriptor(ctx, desc)
	if err != nil {
		return err
	}

	app, err := application.New(cfg, logger, initial,
		application.WithVersion(version),
		application.WithReloader(func(ctx context.Context) (*settings.Settings, error) {
			return ld.LoadDescriptor(ctx, desc)
		}),
	)
	if err != nil {
		return err
	}

	if err := app.Start(); err != nil {
		return err
	}

	watchCtx, stopWatching := context.WithCancel(ctx)
	defer stopWatching()

	if cfg.Watch {
		if path := watchPath(desc); path != "" {
			if err := app.Watch(watchCtx, path); err != nil {
				logger.Warn("file watching disabled", zap.Error(err))
			}
		} else {
			logger.Warn("--watch only applies to --config and --file sources", zap.String("source", desc.Kind.String()))
		}
	}

	awaitShutdown(app.Server(), cfg.ShutdownGracePeriod, logger, func() {
		_ = app.Reload(ctx)
	})
	return nil
}

func cliOverrides(f *flags) *config.CLIOverrides {
	overrides := &config.CLIOverrides{Watch: &f.watch}

	if f.port != "" {
		overrides.Port = &f.port
	}

	if f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = &f.rateLimitRPS
	}

	if f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = &f.rateLimitBurst
	}

	return overrides
}

func watchPath(desc source.Descriptor) string {
	switch desc.Kind {
	case source.KindConfig:
		return desc.ConfigPath
	case source.KindFile:
		return desc.FilePath
	default:
		return ""
	}
}

// awaitShutdown reloads on SIGHUP and shuts the server down gracefully on
// SIGINT or SIGTERM.
func awaitShutdown(server *http.Server, timeout time.Duration, logger *zap.Logger, reload func()) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range quit {
		if sig == syscall.SIGHUP {
			logger.Info("reloading settings")
			if reload != nil {
				reload()
			}
			continue
		}
		break
	}
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
