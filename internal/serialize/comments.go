package serialize

// CommentTableVersion changes whenever the wording below changes so that
// golden documents can be regenerated deliberately.
const CommentTableVersion = 1

// docsURL is referenced from the header of commented documents.
const docsURL = "https://github.com/implydata/pivot/blob/master/docs/configuration.md"

var topLevelComments = map[string]string{
	"customization": "Settings that change the look of the UI",
	"clusters":      "The clusters that Pivot connects to",
	"dataCubes":     "The data cubes shown in the UI, in this order",
}

var customizationComments = map[string]string{
	"title":            "The title of the browser tab",
	"headerBackground": "The background color of the header bar, any valid CSS color",
	"customLogoSvg":    "An SVG logo to display in the header bar",
	"timezones":        "The timezones offered in the timezone picker",
}

var clusterComments = map[string]string{
	"name":                       "A unique name for the cluster, referenced by data cubes",
	"type":                       "The database type of the cluster",
	"host":                       "The host (hostname:port) of the cluster",
	"version":                    "The explicit version of the datastore, skips version detection",
	"database":                   "The database to connect to",
	"user":                       "The user to connect as",
	"password":                   "The password to connect with",
	"timeout":                    "The timeout to set on the queries in ms",
	"sourceListScan":             "Should the sources of this cluster be automatically scanned and new sources added as data cubes",
	"sourceListRefreshOnLoad":    "Should the list of sources be reloaded every time that Pivot is loaded",
	"sourceListRefreshInterval":  "How often should sources be reloaded in ms",
	"sourceReintrospectOnLoad":   "Should sources be scanned for additional dimensions every time that Pivot is loaded",
	"sourceReintrospectInterval": "How often should source schema be reloaded in ms",
	"introspectionStrategy":      "The introspection strategy for the datastore",
}

var dataCubeComments = map[string]string{
	"name":                    "A unique name for the data cube, used in the URL",
	"title":                   "The title that will be shown in the UI",
	"description":             "A description of the data cube shown on the home page",
	"clusterName":             "The cluster that the data cube belongs to",
	"source":                  "The name of the table or datasource backing this data cube",
	"subsetFormula":           "A filter formula restricting the rows visible in this data cube",
	"timeAttribute":           "The primary time attribute of the data",
	"refreshRule":             "How the max time of the data cube is determined",
	"defaultTimezone":         "The default timezone for this data cube",
	"defaultDuration":         "The default duration for the time filter",
	"defaultSortMeasure":      "The default sort measure name",
	"defaultSelectedMeasures": "The default selected measures",
	"defaultPinnedDimensions": "The default pinned dimensions",
	"introspection":           "How the dimensions and measures should be filled in from the schema",
	"dimensions":              "The list of dimensions defined in the UI. The order here will be reflected in the UI",
	"measures":                "The list of measures defined in the UI. The order here will be reflected in the UI",
}
