package configerr

import (
	"errors"
	"fmt"
	"strings"
)

// MigrationGuideURL is attached to too-many-sources failures that involve an
// explicit config file.
const MigrationGuideURL = "https://github.com/implydata/imply-pivot/blob/master/docs/pivot-0.9.x-migration.md"

// settingsPrefix starts every message produced by settings validation.
const settingsPrefix = "Could not read setting from config file: "

// ErrNoSource is returned when no source mode was supplied and no fallback
// example is configured.
var ErrNoSource = errors.New("no settings source given: use one of --config, --example, --file, --druid, --postgres, --mysql")

// TooManySourcesError reports that more than one source mode was populated.
type TooManySourcesError struct {
	// Flags lists every mutually exclusive flag in its fixed order.
	Flags []string
	// Given lists the populated flags, in the same order.
	Given []string
	// ExplicitConfig is true when --config was one of the populated flags.
	ExplicitConfig bool
}

func (e *TooManySourcesError) Error() string {
	msg := fmt.Sprintf("only one of %s can be given on the command line", strings.Join(e.Flags, ", "))
	if url := e.RemediationURL(); url != "" {
		msg += fmt.Sprintf(" (looks like an older style config was given, please see the migration guide: %s)", url)
	}
	return msg
}

// RemediationURL returns the migration guide only when an explicit config
// file took part in the conflict.
func (e *TooManySourcesError) RemediationURL() string {
	if e.ExplicitConfig {
		return MigrationGuideURL
	}
	return ""
}

// SourceUnavailableError reports that the selected source could not be read
// or synthesized.
type SourceUnavailableError struct {
	Origin string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("Could not load config from '%s': %v", e.Origin, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MissingVariableError lists every placeholder that had no value, in
// first-occurrence order. The message names only the first one.
type MissingVariableError struct {
	Origin  string
	Missing []string
}

func (e *MissingVariableError) Error() string {
	first := ""
	if len(e.Missing) > 0 {
		first = e.Missing[0]
	}
	return fmt.Sprintf("Could not load config from '%s': could not find variable '%s'", e.Origin, first)
}

// MalformedDocumentError wraps a YAML decoding failure.
type MalformedDocumentError struct {
	Origin string
	// Line is the 1-based line reported by the parser, or 0 when unknown.
	Line int
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("Could not parse config from '%s': %v", e.Origin, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// DuplicateNameError reports a name declared both as a dimension and as a
// measure of one data cube.
type DuplicateNameError struct {
	Name     string
	DataCube string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%sname '%s' found in both dimensions and measures in data cube: '%s'", settingsPrefix, e.Name, e.DataCube)
}

// InvalidSettingError is any other validation failure. Path is the YAML
// location of the offending field, e.g. "dataCubes[0].introspection".
type InvalidSettingError struct {
	Path   string
	Reason string
}

func (e *InvalidSettingError) Error() string {
	if e.Path == "" {
		return settingsPrefix + e.Reason
	}
	return fmt.Sprintf("%s'%s' %s", settingsPrefix, e.Path, e.Reason)
}

// RemediationURL returns the documentation link attached to err, if any.
func RemediationURL(err error) string {
	var withURL interface{ RemediationURL() string }
	if errors.As(err, &withURL) {
		return withURL.RemediationURL()
	}
	return ""
}
