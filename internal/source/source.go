package source

import (
	"fmt"
	"strings"

	"github.com/eugenenazirov/pivot/internal/configerr"
)

// Kind identifies the populated variant of a Descriptor.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindExample
	KindFile
	KindDatastore
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindExample:
		return "example"
	case KindFile:
		return "file"
	case KindDatastore:
		return "datastore"
	default:
		return "unknown"
	}
}

// Engine is a supported datastore backend.
type Engine string

const (
	EngineDruid    Engine = "druid"
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
)

// Engines lists the supported datastore engines in flag order.
var Engines = []Engine{EngineDruid, EnginePostgres, EngineMySQL}

// exclusiveFlags is the fixed order used in conflict messages.
var exclusiveFlags = []string{"--config", "--examples", "--file", "--druid", "--postgres", "--mysql"}

// Connection carries datastore connection parameters.
type Connection struct {
	Engine   Engine
	Host     string
	Database string
	User     string
	Password string
}

// Descriptor is the one selected source. Only the field matching Kind is set.
type Descriptor struct {
	Kind       Kind
	ConfigPath string
	Example    string
	FilePath   string
	Connection Connection
}

// Origin names the descriptor in error messages.
func (d Descriptor) Origin() string {
	switch d.Kind {
	case KindConfig:
		return d.ConfigPath
	case KindExample:
		return "example:" + d.Example
	case KindFile:
		return d.FilePath
	case KindDatastore:
		return fmt.Sprintf("%s:%s", d.Connection.Engine, d.Connection.Host)
	default:
		return "unknown"
	}
}

// Inputs mirrors the command surface. Empty strings are unpopulated.
type Inputs struct {
	ConfigPath string
	Example    string
	FilePath   string
	Druid      string
	Postgres   string
	MySQL      string

	// Shared by the postgres and mysql connections.
	Database string
	User     string
	Password string
}

// Policy decides what happens when no source is populated.
type Policy struct {
	// FallbackExample is used when nothing was supplied. Empty makes that
	// case an error.
	FallbackExample string
}

// Select returns the single populated source described by in.
func Select(in Inputs, policy Policy) (Descriptor, error) {
	candidates := in.populated()

	switch len(candidates) {
	case 0:
		fallback := strings.TrimSpace(policy.FallbackExample)
		if fallback == "" {
			return Descriptor{}, configerr.ErrNoSource
		}
		return Descriptor{Kind: KindExample, Example: fallback}, nil
	case 1:
		return candidates[0].descriptor, nil
	}

	conflict := &configerr.TooManySourcesError{
		Flags: append([]string(nil), exclusiveFlags...),
		Given: make([]string, 0, len(candidates)),
	}
	for _, c := range candidates {
		conflict.Given = append(conflict.Given, c.flag)
		if c.descriptor.Kind == KindConfig {
			conflict.ExplicitConfig = true
		}
	}
	return Descriptor{}, conflict
}

type candidate struct {
	flag       string
	descriptor Descriptor
}

func (in Inputs) populated() []candidate {
	var out []candidate
	if v := strings.TrimSpace(in.ConfigPath); v != "" {
		out = append(out, candidate{"--config", Descriptor{Kind: KindConfig, ConfigPath: v}})
	}
	if v := strings.TrimSpace(in.Example); v != "" {
		out = append(out, candidate{"--examples", Descriptor{Kind: KindExample, Example: v}})
	}
	if v := strings.TrimSpace(in.FilePath); v != "" {
		out = append(out, candidate{"--file", Descriptor{Kind: KindFile, FilePath: v}})
	}
	hosts := map[Engine]string{
		EngineDruid:    in.Druid,
		EnginePostgres: in.Postgres,
		EngineMySQL:    in.MySQL,
	}
	for _, engine := range Engines {
		host := strings.TrimSpace(hosts[engine])
		if host == "" {
			continue
		}
		conn := Connection{Engine: engine, Host: host}
		if engine != EngineDruid {
			conn.Database = in.Database
			conn.User = in.User
			conn.Password = in.Password
		}
		out = append(out, candidate{"--" + string(engine), Descriptor{Kind: KindDatastore, Connection: conn}})
	}
	return out
}
