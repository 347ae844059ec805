package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/pivot/internal/interpolate"
	"github.com/eugenenazirov/pivot/internal/serialize"
	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/source"
)

// DefaultFallbackExample is loaded when no source was given.
const DefaultFallbackExample = "wiki"

// Loader turns command line inputs into validated Settings.
type Loader struct {
	logger  *zap.Logger
	lookup  interpolate.Lookup
	policy  source.Policy
	version string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLookup overrides where ${NAME} placeholders are resolved. The process
// environment is used by default.
func WithLookup(lookup interpolate.Lookup) Option {
	return func(l *Loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// WithPolicy sets the behaviour when no source is given.
func WithPolicy(policy source.Policy) Option {
	return func(l *Loader) {
		l.policy = policy
	}
}

// WithVersion sets the version written into printed documents.
func WithVersion(version string) Option {
	return func(l *Loader) {
		l.version = version
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger: zap.NewNop(),
		lookup: interpolate.Env(),
		policy: source.Policy{FallbackExample: DefaultFallbackExample},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Select resolves the single source described by in.
func (l *Loader) Select(in source.Inputs) (source.Descriptor, error) {
	return source.Select(in, l.policy)
}

// Load runs select, acquire, interpolate, parse and validate. The first
// failing stage ends the run and its error is returned unchanged.
func (l *Loader) Load(ctx context.Context, in source.Inputs) (*settings.Settings, error) {
	desc, err := l.Select(in)
	if err != nil {
		return nil, err
	}
	return l.LoadDescriptor(ctx, desc)
}

// LoadDescriptor runs every stage after source selection.
func (l *Loader) LoadDescriptor(ctx context.Context, desc source.Descriptor) (*settings.Settings, error) {
	origin := desc.Origin()
	logger := l.logger.With(zap.String("source", desc.Kind.String()), zap.String("origin", origin))

	raw, err := acquire(ctx, desc)
	if err != nil {
		return nil, err
	}
	logger.Debug("settings document acquired", zap.Int("bytes", len(raw)))

	doc := raw
	if templated(desc) {
		doc, err = interpolate.Document(origin, raw, l.lookup)
		if err != nil {
			return nil, err
		}
	}

	s, err := settings.Decode(origin, doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("settings document parsed",
		zap.Int("clusters", len(s.Clusters)),
		zap.Int("dataCubes", len(s.DataCubes)),
	)

	if err := settings.Validate(s); err != nil {
		return nil, err
	}
	logger.Debug("settings validated")

	return s, nil
}

// templated reports whether the document was written by a user and may
// contain ${NAME} placeholders. Documents synthesized from flag values are
// taken literally.
func templated(desc source.Descriptor) bool {
	return desc.Kind == source.KindConfig || desc.Kind == source.KindExample
}

// Print loads the settings and renders them as a canonical document.
func (l *Loader) Print(ctx context.Context, in source.Inputs, withComments bool) ([]byte, error) {
	s, err := l.Load(ctx, in)
	if err != nil {
		return nil, err
	}

	out, err := serialize.Settings(s, serialize.Options{Version: l.version, WithComments: withComments})
	if err != nil {
		return nil, fmt.Errorf("print settings: %w", err)
	}
	return out, nil
}
