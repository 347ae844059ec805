package settings

import (
	"strings"
	"unicode"
)

const (
	defaultIntrospection  = "no-autofill"
	defaultTimezone       = "Etc/UTC"
	defaultDuration       = "P1D"
	defaultClusterTimeout = 40000
	defaultSourceListScan = "auto"
)

// ApplyDefaults fills unset fields. Applying it twice is the same as once.
func (s *Settings) ApplyDefaults() {
	for i := range s.Clusters {
		c := &s.Clusters[i]
		if c.Timeout == 0 {
			c.Timeout = defaultClusterTimeout
		}
		if c.SourceListScan == "" {
			c.SourceListScan = defaultSourceListScan
		}
	}

	for i := range s.DataCubes {
		s.DataCubes[i].applyDefaults()
	}
}

func (c *DataCube) applyDefaults() {
	if c.Title == "" {
		c.Title = MakeTitle(c.Name)
	}
	if c.ClusterName == "" {
		c.ClusterName = NativeCluster
	}
	if c.Introspection == "" {
		c.Introspection = defaultIntrospection
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = defaultTimezone
	}
	if c.DefaultDuration == "" {
		c.DefaultDuration = defaultDuration
	}

	for i := range c.Dimensions {
		d := &c.Dimensions[i]
		if d.Title == "" {
			d.Title = MakeTitle(d.Name)
		}
		if d.Formula == "" && d.Name != "" {
			d.Formula = "$" + d.Name
		}
		if d.Kind == "" {
			d.Kind = "string"
			if c.TimeAttribute != "" && d.Name == c.TimeAttribute {
				d.Kind = "time"
			}
		}
	}

	for i := range c.Measures {
		m := &c.Measures[i]
		if m.Title == "" {
			m.Title = MakeTitle(m.Name)
		}
		if m.Formula == "" && m.Name != "" {
			m.Formula = "$main.sum($" + m.Name + ")"
		}
	}
}

// MakeTitle derives a display title from an identifier:
// "isRobot" becomes "Is Robot" and "page_title" becomes "Page Title".
func MakeTitle(name string) string {
	var b strings.Builder
	startWord := true
	var prev rune
	for _, r := range name {
		if r == '_' || r == '-' {
			startWord = true
			prev = r
			continue
		}
		lowerOrDigit := unicode.IsLower(prev) || unicode.IsDigit(prev)
		if unicode.IsUpper(r) && lowerOrDigit {
			startWord = true
		}
		if startWord {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToUpper(r)
			startWord = false
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
