package types

// PageData represents data passed to templates
type PageData struct {
	Title    string
	Subtitle string
	Version  string // Application version (for footer display)

	// Status is the loader state: loading, ready or error.
	Status string
	Error  string

	Tags          []TagEntry
	SelectedCount int
	ResetURL      string

	// Chart is nil when nothing is selected.
	Chart *ChartData
}

// TagEntry is one row of the sensor selector.
type TagEntry struct {
	ID        string
	Label     string
	SiteName  string
	AssetName string
	Unit      string
	FullPath  string
	Selected  bool
	Color     string // line color when selected
	ToggleURL string
}

// ChartData feeds the chart panel.
type ChartData struct {
	PointCount int
	UnitLabel  string
	ImageURL   string
	Width      int
	Height     int
	// NoPoints is set when the selected tags have no readings at all.
	NoPoints bool

	Qualities []QualityToggle
	Legend    []LegendEntry
	Columns   []Column
	Rows      []TableRow

	ExportXLSX string
	ExportPDF  string
}

type QualityToggle struct {
	Quality string
	Label   string
	Active  bool
	Color   string
	URL     string
}

type LegendEntry struct {
	Name  string
	Color string
}

type Column struct {
	ID    string
	Label string
	Unit  string
	Color string
}

type TableRow struct {
	Timestamp string
	Cells     []Cell
}

// Cell is one tag's reading in a table row. Absent cells render empty.
type Cell struct {
	Present bool
	Text    string
	Tooltip string
	Quality string
	// ShowMarker mirrors the chart: false when the quality is filtered out.
	ShowMarker  bool
	MarkerColor string
}
