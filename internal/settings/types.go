package settings

// NativeCluster is the pseudo cluster of file-backed data cubes.
const NativeCluster = "native"

// Settings is the validated result of a load. Callers treat it as read-only.
type Settings struct {
	Customization Customization `yaml:"customization,omitempty" json:"customization"`
	Clusters      []Cluster     `yaml:"clusters,omitempty" json:"clusters" validate:"dive"`
	DataCubes     []DataCube    `yaml:"dataCubes,omitempty" json:"dataCubes" validate:"dive"`
}

// Customization holds UI-wide presentation settings.
type Customization struct {
	Title            string   `yaml:"title,omitempty" json:"title,omitempty"`
	HeaderBackground string   `yaml:"headerBackground,omitempty" json:"headerBackground,omitempty"`
	CustomLogoSVG    string   `yaml:"customLogoSvg,omitempty" json:"customLogoSvg,omitempty"`
	Timezones        []string `yaml:"timezones,omitempty" json:"timezones,omitempty" validate:"dive,timezone"`
}

// Cluster describes a datastore connection.
type Cluster struct {
	Name                       string `yaml:"name,omitempty" json:"name" validate:"required,urlsafe"`
	Type                       string `yaml:"type,omitempty" json:"type" validate:"required,oneof=druid postgres mysql"`
	Host                       string `yaml:"host,omitempty" json:"host" validate:"required"`
	Version                    string `yaml:"version,omitempty" json:"version,omitempty"`
	Database                   string `yaml:"database,omitempty" json:"database,omitempty"`
	User                       string `yaml:"user,omitempty" json:"user,omitempty"`
	Password                   string `yaml:"password,omitempty" json:"-"`
	Timeout                    int    `yaml:"timeout,omitempty" json:"timeout" validate:"gte=0"`
	SourceListScan             string `yaml:"sourceListScan,omitempty" json:"sourceListScan" validate:"omitempty,oneof=disable auto"`
	SourceListRefreshOnLoad    bool   `yaml:"sourceListRefreshOnLoad,omitempty" json:"sourceListRefreshOnLoad"`
	SourceListRefreshInterval  int    `yaml:"sourceListRefreshInterval,omitempty" json:"sourceListRefreshInterval,omitempty" validate:"gte=0"`
	SourceReintrospectOnLoad   bool   `yaml:"sourceReintrospectOnLoad,omitempty" json:"sourceReintrospectOnLoad"`
	SourceReintrospectInterval int    `yaml:"sourceReintrospectInterval,omitempty" json:"sourceReintrospectInterval,omitempty" validate:"gte=0"`
	IntrospectionStrategy      string `yaml:"introspectionStrategy,omitempty" json:"introspectionStrategy,omitempty"`
}

// DataCube is a named dataset with two sibling collections, dimensions and
// measures. A name may appear in only one of them.
type DataCube struct {
	Name                    string      `yaml:"name,omitempty" json:"name" validate:"required,urlsafe"`
	Title                   string      `yaml:"title,omitempty" json:"title"`
	Description             string      `yaml:"description,omitempty" json:"description,omitempty"`
	ClusterName             string      `yaml:"clusterName,omitempty" json:"clusterName" validate:"required"`
	Source                  string      `yaml:"source,omitempty" json:"source" validate:"required"`
	SubsetFormula           string      `yaml:"subsetFormula,omitempty" json:"subsetFormula,omitempty"`
	TimeAttribute           string      `yaml:"timeAttribute,omitempty" json:"timeAttribute,omitempty"`
	RefreshRule             RefreshRule `yaml:"refreshRule,omitempty" json:"refreshRule"`
	DefaultTimezone         string      `yaml:"defaultTimezone,omitempty" json:"defaultTimezone" validate:"omitempty,timezone"`
	DefaultDuration         string      `yaml:"defaultDuration,omitempty" json:"defaultDuration" validate:"omitempty,iso_duration"`
	DefaultSortMeasure      string      `yaml:"defaultSortMeasure,omitempty" json:"defaultSortMeasure,omitempty"`
	DefaultSelectedMeasures []string    `yaml:"defaultSelectedMeasures,omitempty" json:"defaultSelectedMeasures,omitempty"`
	DefaultPinnedDimensions []string    `yaml:"defaultPinnedDimensions,omitempty" json:"defaultPinnedDimensions,omitempty"`
	Introspection           string      `yaml:"introspection,omitempty" json:"introspection" validate:"omitempty,oneof=none no-autofill autofill-dimensions-only autofill-measures-only autofill-all"`
	Dimensions              []Dimension `yaml:"dimensions,omitempty" json:"dimensions" validate:"dive"`
	Measures                []Measure   `yaml:"measures,omitempty" json:"measures" validate:"dive"`
}

// RefreshRule controls how the cube's max time is determined.
type RefreshRule struct {
	Rule string `yaml:"rule,omitempty" json:"rule,omitempty" validate:"omitempty,oneof=fixed query realtime"`
	Time string `yaml:"time,omitempty" json:"time,omitempty"`
}

// Dimension is a splittable attribute of a data cube.
type Dimension struct {
	Name          string   `yaml:"name,omitempty" json:"name" validate:"required"`
	Title         string   `yaml:"title,omitempty" json:"title"`
	Kind          string   `yaml:"kind,omitempty" json:"kind" validate:"omitempty,oneof=string time boolean number"`
	Formula       string   `yaml:"formula,omitempty" json:"formula"`
	URL           string   `yaml:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`
	Granularities []string `yaml:"granularities,omitempty" json:"granularities,omitempty"`
}

// Measure is an aggregate expression of a data cube.
type Measure struct {
	Name    string `yaml:"name,omitempty" json:"name" validate:"required"`
	Title   string `yaml:"title,omitempty" json:"title"`
	Formula string `yaml:"formula,omitempty" json:"formula" validate:"required"`
	Format  string `yaml:"format,omitempty" json:"format,omitempty"`
}

// DataCube returns the data cube called name.
func (s *Settings) DataCube(name string) (*DataCube, bool) {
	for i := range s.DataCubes {
		if s.DataCubes[i].Name == name {
			return &s.DataCubes[i], true
		}
	}
	return nil, false
}

// Cluster returns the cluster called name.
func (s *Settings) Cluster(name string) (*Cluster, bool) {
	for i := range s.Clusters {
		if s.Clusters[i].Name == name {
			return &s.Clusters[i], true
		}
	}
	return nil, false
}

func (c *DataCube) autofillsDimensions() bool {
	return c.Introspection == "autofill-all" || c.Introspection == "autofill-dimensions-only"
}

func (c *DataCube) autofillsMeasures() bool {
	return c.Introspection == "autofill-all" || c.Introspection == "autofill-measures-only"
}
