package serialize

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/pivot/internal/settings"
)

// maxFlowWidth bounds the rendered width of an inline list line.
const maxFlowWidth = 100

// Options controls rendering.
type Options struct {
	// Version is written into the header line.
	Version string
	// WithComments precedes fields with a one-line explanation.
	WithComments bool
	// OmitSecrets leaves cluster passwords out of the document.
	OmitSecrets bool
}

// Settings renders s as a canonical YAML document. Fields are written in a
// fixed order and zero values are left out, so the output decodes back to
// an equal Settings.
func Settings(s *settings.Settings, opts Options) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("serialize: nil settings")
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	e := &emitter{withComments: opts.WithComments, omitSecrets: opts.OmitSecrets}
	e.line(0, "# generated by Pivot version "+version)
	if opts.WithComments {
		e.line(0, "# for more info see: "+docsURL)
	}

	if !isZeroCustomization(s.Customization) {
		e.blank()
		e.comment(0, topLevelComments["customization"])
		e.line(0, "customization:")
		e.customization(2, s.Customization)
	}

	if len(s.Clusters) > 0 {
		e.blank()
		e.comment(0, topLevelComments["clusters"])
		e.line(0, "clusters:")
		for _, c := range s.Clusters {
			e.cluster(2, c)
		}
	}

	if len(s.DataCubes) > 0 {
		e.blank()
		e.comment(0, topLevelComments["dataCubes"])
		e.line(0, "dataCubes:")
		for _, c := range s.DataCubes {
			e.dataCube(2, c)
		}
	}

	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// StripComments removes every full-line comment from doc.
func StripComments(doc []byte) []byte {
	var out bytes.Buffer
	for _, line := range strings.SplitAfter(string(doc), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out.WriteString(line)
	}
	return out.Bytes()
}

type emitter struct {
	buf          bytes.Buffer
	withComments bool
	omitSecrets  bool
	err          error

	// pendingItem holds the "- " prefix for the first key of a list item.
	pendingItem bool
}

// field is one key of a mapping, rendered in order.
type field struct {
	key     string
	comment string
	write   func(indent int, key string)
}

func (e *emitter) line(indent int, text string) {
	if e.pendingItem {
		e.buf.WriteString(strings.Repeat(" ", indent-2))
		e.buf.WriteString("- ")
		e.pendingItem = false
	} else {
		e.buf.WriteString(strings.Repeat(" ", indent))
	}
	e.buf.WriteString(text)
	e.buf.WriteByte('\n')
}

func (e *emitter) blank() {
	e.buf.WriteByte('\n')
}

func (e *emitter) comment(indent int, text string) {
	if !e.withComments || text == "" {
		return
	}
	pad := indent
	if e.pendingItem {
		pad = indent - 2
	}
	e.buf.WriteString(strings.Repeat(" ", pad))
	e.buf.WriteString("# ")
	e.buf.WriteString(text)
	e.buf.WriteByte('\n')
}

// mapping writes the non-zero fields at indent. When item is true the first
// field opens a list item.
func (e *emitter) mapping(indent int, item bool, fields []field) {
	e.pendingItem = item
	for _, f := range fields {
		if f.write == nil {
			continue
		}
		e.comment(indent, f.comment)
		f.write(indent, f.key)
	}
	e.pendingItem = false
}

func (e *emitter) str(v string) func(int, string) {
	if v == "" {
		return nil
	}
	return func(indent int, key string) {
		e.scalar(indent, key, v)
	}
}

func (e *emitter) integer(v int) func(int, string) {
	if v == 0 {
		return nil
	}
	return func(indent int, key string) {
		e.line(indent, key+": "+strconv.Itoa(v))
	}
}

func (e *emitter) boolean(v bool) func(int, string) {
	if !v {
		return nil
	}
	return func(indent int, key string) {
		e.line(indent, key+": true")
	}
}

func (e *emitter) stringList(v []string) func(int, string) {
	if len(v) == 0 {
		return nil
	}
	return func(indent int, key string) {
		e.list(indent, key, v)
	}
}

func (e *emitter) scalar(indent int, key, v string) {
	text, err := encodeScalar(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	e.line(indent, key+": "+text)
}

// list writes items inline when the whole line fits, in block form
// otherwise.
func (e *emitter) list(indent int, key string, items []string) {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		q, err := encodeQuoted(item)
		if err != nil {
			e.fail(key, err)
			return
		}
		quoted = append(quoted, q)
	}

	flow := key + ": [" + strings.Join(quoted, ",") + "]"
	if indent+len(flow) <= maxFlowWidth {
		e.line(indent, flow)
		return
	}

	e.line(indent, key+":")
	for _, q := range quoted {
		e.line(indent+2, "- "+q)
	}
}

func (e *emitter) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("serialize %s: %w", key, err)
	}
}

func (e *emitter) customization(indent int, c settings.Customization) {
	e.mapping(indent, false, []field{
		{"title", customizationComments["title"], e.str(c.Title)},
		{"headerBackground", customizationComments["headerBackground"], e.str(c.HeaderBackground)},
		{"customLogoSvg", customizationComments["customLogoSvg"], e.str(c.CustomLogoSVG)},
		{"timezones", customizationComments["timezones"], e.stringList(c.Timezones)},
	})
}

func (e *emitter) cluster(indent int, c settings.Cluster) {
	password := c.Password
	if e.omitSecrets {
		password = ""
	}
	e.mapping(indent+2, true, []field{
		{"name", clusterComments["name"], e.str(c.Name)},
		{"type", clusterComments["type"], e.str(c.Type)},
		{"host", clusterComments["host"], e.str(c.Host)},
		{"version", clusterComments["version"], e.str(c.Version)},
		{"database", clusterComments["database"], e.str(c.Database)},
		{"user", clusterComments["user"], e.str(c.User)},
		{"password", clusterComments["password"], e.str(password)},
		{"timeout", clusterComments["timeout"], e.integer(c.Timeout)},
		{"sourceListScan", clusterComments["sourceListScan"], e.str(c.SourceListScan)},
		{"sourceListRefreshOnLoad", clusterComments["sourceListRefreshOnLoad"], e.boolean(c.SourceListRefreshOnLoad)},
		{"sourceListRefreshInterval", clusterComments["sourceListRefreshInterval"], e.integer(c.SourceListRefreshInterval)},
		{"sourceReintrospectOnLoad", clusterComments["sourceReintrospectOnLoad"], e.boolean(c.SourceReintrospectOnLoad)},
		{"sourceReintrospectInterval", clusterComments["sourceReintrospectInterval"], e.integer(c.SourceReintrospectInterval)},
		{"introspectionStrategy", clusterComments["introspectionStrategy"], e.str(c.IntrospectionStrategy)},
	})
}

func (e *emitter) dataCube(indent int, c settings.DataCube) {
	var refreshRule func(int, string)
	if c.RefreshRule != (settings.RefreshRule{}) {
		refreshRule = func(indent int, key string) {
			e.line(indent, key+":")
			e.mapping(indent+2, false, []field{
				{"rule", "", e.str(c.RefreshRule.Rule)},
				{"time", "", e.str(c.RefreshRule.Time)},
			})
		}
	}

	var dimensions func(int, string)
	if len(c.Dimensions) > 0 {
		dimensions = func(indent int, key string) {
			e.line(indent, key+":")
			for _, d := range c.Dimensions {
				e.dimension(indent+2, d)
			}
		}
	}

	var measures func(int, string)
	if len(c.Measures) > 0 {
		measures = func(indent int, key string) {
			e.line(indent, key+":")
			for _, m := range c.Measures {
				e.measure(indent+2, m)
			}
		}
	}

	e.mapping(indent+2, true, []field{
		{"name", dataCubeComments["name"], e.str(c.Name)},
		{"title", dataCubeComments["title"], e.str(c.Title)},
		{"description", dataCubeComments["description"], e.str(c.Description)},
		{"clusterName", dataCubeComments["clusterName"], e.str(c.ClusterName)},
		{"source", dataCubeComments["source"], e.str(c.Source)},
		{"subsetFormula", dataCubeComments["subsetFormula"], e.str(c.SubsetFormula)},
		{"timeAttribute", dataCubeComments["timeAttribute"], e.str(c.TimeAttribute)},
		{"refreshRule", dataCubeComments["refreshRule"], refreshRule},
		{"defaultTimezone", dataCubeComments["defaultTimezone"], e.str(c.DefaultTimezone)},
		{"defaultDuration", dataCubeComments["defaultDuration"], e.str(c.DefaultDuration)},
		{"defaultSortMeasure", dataCubeComments["defaultSortMeasure"], e.str(c.DefaultSortMeasure)},
		{"defaultSelectedMeasures", dataCubeComments["defaultSelectedMeasures"], e.stringList(c.DefaultSelectedMeasures)},
		{"defaultPinnedDimensions", dataCubeComments["defaultPinnedDimensions"], e.stringList(c.DefaultPinnedDimensions)},
		{"introspection", dataCubeComments["introspection"], e.str(c.Introspection)},
		{"dimensions", dataCubeComments["dimensions"], dimensions},
		{"measures", dataCubeComments["measures"], measures},
	})
}

func (e *emitter) dimension(indent int, d settings.Dimension) {
	e.mapping(indent+2, true, []field{
		{"name", "", e.str(d.Name)},
		{"title", "", e.str(d.Title)},
		{"kind", "", e.str(d.Kind)},
		{"formula", "", e.str(d.Formula)},
		{"url", "", e.str(d.URL)},
		{"granularities", "", e.stringList(d.Granularities)},
	})
}

func (e *emitter) measure(indent int, m settings.Measure) {
	e.mapping(indent+2, true, []field{
		{"name", "", e.str(m.Name)},
		{"title", "", e.str(m.Title)},
		{"formula", "", e.str(m.Formula)},
		{"format", "", e.str(m.Format)},
	})
}

func isZeroCustomization(c settings.Customization) bool {
	return c.Title == "" && c.HeaderBackground == "" && c.CustomLogoSVG == "" && len(c.Timezones) == 0
}

// encodeScalar lets yaml.v3 pick the quoting for v. Multi-line values are
// forced into double quotes so that every value stays on its key's line.
func encodeScalar(v string) (string, error) {
	if strings.ContainsAny(v, "\r\n") {
		return encodeQuoted(v)
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func encodeQuoted(v string) (string, error) {
	out, err := yaml.Marshal(&yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: v,
		Style: yaml.DoubleQuotedStyle,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
