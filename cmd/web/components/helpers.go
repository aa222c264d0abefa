package components

import (
	"net/url"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rubiojr/signalscope/cmd/web/components/types"
	"github.com/rubiojr/signalscope/pkg/chart"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

// Paths the page links to. Every link carries the full selection in its
// query string, so each page load is self-contained.
const (
	HomePath   = "/"
	ChartPath  = "/chart.svg"
	ExportXLSX = "/api/export.xlsx"
	ExportPDF  = "/api/export.pdf"
)

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// TagEntries builds the selector list in flattened order. Selected tags get
// the color of their line.
func TagEntries(tags []sensor.FlattenedTag, st selection.State) []types.TagEntry {
	colorIndex := make(map[string]int, len(st.TagIDs))
	for i, tag := range st.Resolve(tags) {
		colorIndex[tag.ID] = i
	}

	entries := make([]types.TagEntry, 0, len(tags))
	for _, tag := range tags {
		entry := types.TagEntry{
			ID:        tag.ID,
			Label:     tag.Label,
			SiteName:  tag.SiteName,
			AssetName: tag.AssetName,
			Unit:      tag.Unit,
			FullPath:  tag.FullPath,
			ToggleURL: withQuery(HomePath, st.ToggleTag(tag.ID).Query()),
		}
		if i, ok := colorIndex[tag.ID]; ok {
			entry.Selected = true
			entry.Color = chart.ColorFor(i)
		}
		entries = append(entries, entry)
	}
	return entries
}

// ChartView prepares the chart panel for the selected tags. It returns nil
// for an empty selection, which renders the placeholder instead.
func ChartView(selected []sensor.FlattenedTag, rows []series.Row, st selection.State, width, height int) *types.ChartData {
	if len(selected) == 0 {
		return nil
	}

	query := st.Query()
	view := &types.ChartData{
		PointCount: len(rows),
		UnitLabel:  series.UnitLabel(selected),
		ImageURL:   withQuery(ChartPath, query),
		Width:      width,
		Height:     height,
		NoPoints:   len(rows) == 0,
		ExportXLSX: withQuery(ExportXLSX, query),
		ExportPDF:  withQuery(ExportPDF, query),
	}

	title := cases.Title(language.English)
	for _, q := range sensor.AllQualities {
		view.Qualities = append(view.Qualities, types.QualityToggle{
			Quality: string(q),
			Label:   title.String(string(q)),
			Active:  st.Quality.Has(q),
			Color:   chart.QualityColor(q),
			URL:     withQuery(HomePath, st.ToggleQuality(q).Query()),
		})
	}

	for i, tag := range selected {
		color := chart.ColorFor(i)
		view.Legend = append(view.Legend, types.LegendEntry{
			Name:  chart.LegendName(selected, tag.ID),
			Color: color,
		})
		view.Columns = append(view.Columns, types.Column{
			ID:    tag.ID,
			Label: tag.Label,
			Unit:  tag.Unit,
			Color: color,
		})
	}

	for _, row := range rows {
		tr := types.TableRow{Timestamp: row.Timestamp}
		for _, tag := range selected {
			p, ok := row.Lookup(tag.ID)
			if !ok {
				tr.Cells = append(tr.Cells, types.Cell{})
				continue
			}
			text, name := chart.Tooltip(selected, tag.ID, p.Value)
			tr.Cells = append(tr.Cells, types.Cell{
				Present:     true,
				Text:        chart.FormatValue(p.Value),
				Tooltip:     name + ": " + text,
				Quality:     string(p.Quality),
				ShowMarker:  st.Quality.Has(p.Quality),
				MarkerColor: chart.QualityColor(p.Quality),
			})
		}
		view.Rows = append(view.Rows, tr)
	}
	return view
}
