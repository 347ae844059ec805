package interpolate

import (
	"os"
	"regexp"

	"github.com/eugenenazirov/pivot/internal/configerr"
)

var placeholderRe = regexp.MustCompile(`\$\{(\w+)\}`)

// Lookup resolves a placeholder name.
type Lookup func(name string) (string, bool)

// Env resolves names against the process environment.
func Env() Lookup {
	return os.LookupEnv
}

// Map resolves names against a fixed set of values.
func Map(values map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// Result is the outcome of one scan. Document is only meaningful when
// Missing is empty.
type Result struct {
	Document []byte
	Missing  []string
}

// Interpolate replaces every ${NAME} in doc. Substituted values are inserted
// verbatim and never rescanned. Unresolved names are collected once each, in
// the order they first appear.
func Interpolate(doc []byte, lookup Lookup) Result {
	var missing []string
	seen := make(map[string]struct{})

	out := placeholderRe.ReplaceAllFunc(doc, func(match []byte) []byte {
		name := string(placeholderRe.FindSubmatch(match)[1])
		if value, ok := lookup(name); ok {
			return []byte(value)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			missing = append(missing, name)
		}
		return match
	})

	if len(missing) > 0 {
		return Result{Missing: missing}
	}
	return Result{Document: out}
}

// Document interpolates doc and turns unresolved names into a
// MissingVariableError naming origin.
func Document(origin string, doc []byte, lookup Lookup) ([]byte, error) {
	res := Interpolate(doc, lookup)
	if len(res.Missing) > 0 {
		return nil, &configerr.MissingVariableError{Origin: origin, Missing: res.Missing}
	}
	return res.Document, nil
}
