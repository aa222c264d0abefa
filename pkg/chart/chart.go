// Package chart draws aligned rows as a multi-series line chart.
//
// Rows are plotted against their index, so the X axis follows the same
// string ordering the aligner used and timestamps are never parsed. Every
// selected tag gets one line through the rows where it has a value; quality
// markers are separate dot-only series and are the only thing the quality
// filter touches.
package chart

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

// Palette assigns line colors by selection index.
var Palette = []string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6"}

var qualityColors = map[sensor.Quality]string{
	sensor.QualityGood:      "#10b981",
	sensor.QualityUncertain: "#f59e0b",
	sensor.QualityBad:       "#ef4444",
}

// ErrNoPoints is returned when none of the selected tags has a value to draw.
var ErrNoPoints = errors.New("no data points to plot")

const (
	maxXTicks   = 6
	lineWidth   = 2
	markerWidth = 4
)

// ColorFor returns the palette color for the i-th selected tag.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// QualityColor returns the marker color for q, or an empty string for an
// unknown level.
func QualityColor(q sensor.Quality) string {
	return qualityColors[q]
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

type Options struct {
	Width  int
	Height int
	Title  string
}

// Kind distinguishes line series from quality marker series.
type Kind int

const (
	KindLine Kind = iota
	KindMarker
)

// Series is one plotted series before it is handed to the renderer.
type Series struct {
	Kind    Kind
	TagID   string
	Name    string
	Quality sensor.Quality
	Color   string
	X       []float64
	Y       []float64
}

// Plot is the renderer-independent description of a chart.
type Plot struct {
	Options   Options
	UnitLabel string
	Labels    []string
	Series    []Series
}

// Lines returns the line series in selection order.
func (p Plot) Lines() []Series {
	return p.ofKind(KindLine)
}

// Markers returns the quality marker series.
func (p Plot) Markers() []Series {
	return p.ofKind(KindMarker)
}

func (p Plot) ofKind(k Kind) []Series {
	out := []Series{}
	for _, s := range p.Series {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// Build lays out tags over rows. Tags are expected in selection order; that
// order decides colors. Tags without any value in rows are not plotted.
func Build(tags []sensor.FlattenedTag, rows []series.Row, filter selection.QualitySet, opts Options) Plot {
	plot := Plot{
		Options:   opts,
		UnitLabel: series.UnitLabel(tags),
		Labels:    make([]string, len(rows)),
	}
	for i, row := range rows {
		plot.Labels[i] = row.Timestamp
	}

	for i, tag := range tags {
		line := Series{Kind: KindLine, TagID: tag.ID, Name: LegendName(tags, tag.ID), Color: ColorFor(i)}
		markers := map[sensor.Quality]*Series{}
		for x, row := range rows {
			p, ok := row.Lookup(tag.ID)
			if !ok {
				continue
			}
			line.X = append(line.X, float64(x))
			line.Y = append(line.Y, p.Value)

			if !filter.Has(p.Quality) {
				continue
			}
			m, ok := markers[p.Quality]
			if !ok {
				m = &Series{
					Kind:    KindMarker,
					TagID:   tag.ID,
					Name:    tag.ID + " " + string(p.Quality),
					Quality: p.Quality,
					Color:   QualityColor(p.Quality),
				}
				markers[p.Quality] = m
			}
			m.X = append(m.X, float64(x))
			m.Y = append(m.Y, p.Value)
		}
		if len(line.X) == 0 {
			continue
		}
		plot.Series = append(plot.Series, line)
		for _, q := range sensor.AllQualities {
			if m, ok := markers[q]; ok {
				plot.Series = append(plot.Series, *m)
			}
		}
	}
	return plot
}

// Chart converts the plot into a go-chart definition.
func (p Plot) Chart() (gochart.Chart, error) {
	if len(p.Series) == 0 {
		return gochart.Chart{}, ErrNoPoints
	}

	ch := gochart.Chart{
		Title:      p.Options.Title,
		Width:      p.Options.Width,
		Height:     p.Options.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}},
		XAxis:      p.xAxis(),
		YAxis:      gochart.YAxis{Name: p.UnitLabel, Range: p.yRange()},
	}

	for _, s := range p.Series {
		style := gochart.Style{
			StrokeColor: hexColor(s.Color),
			StrokeWidth: lineWidth,
		}
		if s.Kind == KindMarker {
			style = gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    markerWidth,
				DotColor:    hexColor(s.Color),
			}
		}
		ch.Series = append(ch.Series, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style:   style,
		})
	}
	return ch, nil
}

// xAxis places ticks on row indexes. go-chart derives the X range from
// explicit ticks, so the first and last rows always get one.
func (p Plot) xAxis() gochart.XAxis {
	last := len(p.Labels) - 1
	axis := gochart.XAxis{}
	if last < 0 {
		return axis
	}

	step := 1
	if len(p.Labels) > maxXTicks {
		step = int(math.Ceil(float64(len(p.Labels)) / maxXTicks))
	}
	for i := 0; i < last; i += step {
		axis.Ticks = append(axis.Ticks, gochart.Tick{Value: float64(i), Label: tickLabel(p.Labels[i])})
	}
	axis.Ticks = append(axis.Ticks, gochart.Tick{Value: float64(last), Label: tickLabel(p.Labels[last])})
	if last == 0 {
		// a single row still needs a non-zero range
		axis.Ticks = append(axis.Ticks, gochart.Tick{Value: 1})
	}
	axis.Range = &gochart.ContinuousRange{Min: 0, Max: math.Max(float64(last), 1)}
	return axis
}

func (p Plot) yRange() *gochart.ContinuousRange {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range p.Series {
		for _, v := range s.Y {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	pad := (maxY - minY) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(maxY)*0.05, 1)
	}
	return &gochart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
}

// tickLabel shortens RFC 3339 timestamps. Anything else is shown as is.
func tickLabel(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC().Format("01-02 15:04")
	}
	return ts
}

// RenderSVG draws the plot as SVG.
func RenderSVG(w io.Writer, p Plot) error {
	start := time.Now()
	ch, err := p.Chart()
	if err == nil {
		err = ch.Render(gochart.SVG, w)
	}
	metrics.ObserveChartRender(err, time.Since(start))
	return err
}

// FormatValue renders a reading the way it is shown in tooltips and tables.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Tooltip resolves a series key to the text and name shown when hovering a
// point: "<value> <unit>" and the tag label. Unknown keys fall back to the
// key itself with no unit.
func Tooltip(tags []sensor.FlattenedTag, key string, value float64) (text, name string) {
	tag, ok := sensor.FindTag(tags, key)
	if !ok {
		return FormatValue(value), key
	}
	return strings.TrimSpace(FormatValue(value) + " " + tag.Unit), tag.Label
}

// LegendName resolves a series key to the tag's full path.
func LegendName(tags []sensor.FlattenedTag, key string) string {
	if tag, ok := sensor.FindTag(tags, key); ok {
		return tag.FullPath
	}
	return key
}
