package examples

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.yaml
var files embed.FS

const dir = "data"

// Names returns the bundled example names in sorted order.
func Names() []string {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Lookup returns the raw document of the named example.
func Lookup(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, unknown(name)
	}

	doc, err := files.ReadFile(path.Join(dir, name+".yaml"))
	if err != nil {
		return nil, unknown(name)
	}
	return doc, nil
}

func unknown(name string) error {
	return fmt.Errorf("unknown example '%s' (available: %s)", name, strings.Join(Names(), ", "))
}
