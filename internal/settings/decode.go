package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/pivot/internal/configerr"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// Decode parses an interpolated document into Settings and applies
// defaults. Unknown keys and additional YAML documents are rejected. An
// empty document yields empty Settings.
func Decode(origin string, doc []byte) (*Settings, error) {
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)

	var s Settings
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &Settings{}, nil
		}
		return nil, malformed(origin, err)
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case err == nil:
		line := extra.Line
		if len(extra.Content) > 0 {
			line = extra.Content[0].Line
		}
		return nil, &configerr.MalformedDocumentError{
			Origin: origin,
			Line:   line,
			Err:    fmt.Errorf("line %d: expected a single YAML document, found another", line),
		}
	case !errors.Is(err, io.EOF):
		return nil, malformed(origin, err)
	}

	s.ApplyDefaults()
	return &s, nil
}

func malformed(origin string, err error) error {
	cause := err
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		cause = errors.New(strings.Join(typeErr.Errors, "; "))
	}

	line := 0
	if m := yamlLineRe.FindStringSubmatch(cause.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
	}

	return &configerr.MalformedDocumentError{Origin: origin, Line: line, Err: cause}
}
