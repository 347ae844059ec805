package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/pivot/internal/configerr"
	"github.com/eugenenazirov/pivot/internal/examples"
	"github.com/eugenenazirov/pivot/internal/settings"
	"github.com/eugenenazirov/pivot/internal/source"
)

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// acquire produces the raw document for desc.
func acquire(ctx context.Context, desc source.Descriptor) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &configerr.SourceUnavailableError{Origin: desc.Origin(), Err: err}
	}

	var (
		doc []byte
		err error
	)
	switch desc.Kind {
	case source.KindConfig:
		doc, err = os.ReadFile(desc.ConfigPath)
	case source.KindExample:
		doc, err = examples.Lookup(desc.Example)
	case source.KindFile:
		doc, err = fileDocument(desc.FilePath)
	case source.KindDatastore:
		doc, err = datastoreDocument(desc.Connection)
	default:
		err = fmt.Errorf("unsupported source kind %q", desc.Kind)
	}
	if err != nil {
		return nil, &configerr.SourceUnavailableError{Origin: desc.Origin(), Err: unwrapPathError(err)}
	}
	return doc, nil
}

// fileDocument describes a flat data file as a single native data cube
// whose schema is introspected.
func fileDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file")
	}

	return marshalDocument(&settings.Settings{
		DataCubes: []settings.DataCube{{
			Name:          cubeName(path),
			ClusterName:   settings.NativeCluster,
			Source:        path,
			Introspection: "autofill-all",
		}},
	})
}

// cubeName derives a URL safe data cube name from a file path.
func cubeName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := strings.Trim(unsafeNameRe.ReplaceAllString(stem, "-"), "-")
	if name == "" {
		return "data"
	}
	return name
}

func datastoreDocument(conn source.Connection) ([]byte, error) {
	cluster, err := clusterFor(conn)
	if err != nil {
		return nil, err
	}
	return marshalDocument(&settings.Settings{Clusters: []settings.Cluster{cluster}})
}

// marshalDocument renders a synthesized document so that it passes through
// the same parse stage as a file.
func marshalDocument(s *settings.Settings) ([]byte, error) {
	doc, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("synthesize document: %w", err)
	}
	return doc, nil
}

// unwrapPathError drops the path prefix that os adds; the origin is already
// part of the message.
func unwrapPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
