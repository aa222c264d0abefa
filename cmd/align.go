package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/signalscope/pkg/chart"
	"github.com/rubiojr/signalscope/pkg/export"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

// AlignCommand prints the aligned readings of the selected tags
func AlignCommand() *cli.Command {
	return &cli.Command{
		Name:      "align",
		Usage:     "Align the readings of one or more sensors on shared timestamps",
		ArgsUsage: "TAG_ID...",
		Flags: append(snapshotFlags(),
			&cli.StringSliceFlag{
				Name:  "quality",
				Usage: "Only mark readings of these quality levels (good, uncertain, bad)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table, csv, xlsx or pdf",
				Value: "table",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write xlsx or pdf output to this file",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("at least one tag id is required")
			}

			st := selection.New()
			for _, id := range c.Args().Slice() {
				if !st.IsSelected(id) {
					st = st.ToggleTag(id)
				}
			}
			if levels := c.StringSlice("quality"); len(levels) > 0 {
				set, err := parseQualities(levels)
				if err != nil {
					return err
				}
				st.Quality = set
			}

			srcCfg, err := sourceConfigFromFlags(c)
			if err != nil {
				return err
			}
			tags, err := loadTags(ctx, srcCfg)
			if err != nil {
				return err
			}

			selected := st.Resolve(tags)
			if len(selected) == 0 {
				return fmt.Errorf("none of %v matched a sensor in the snapshot", st.TagIDs)
			}
			rows := series.Align(selected)

			switch format := c.String("format"); format {
			case "table":
				fmt.Println(renderAligned(selected, rows, st.Quality))
				return nil
			case "csv":
				return writeAlignedCSV(selected, rows)
			case export.FormatXLSX, export.FormatPDF:
				return writeExport(format, c.String("output"), export.NewTable("Signal Scope - aligned readings", selected, rows))
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
}

func parseQualities(levels []string) (selection.QualitySet, error) {
	qs := make([]sensor.Quality, 0, len(levels))
	for _, l := range levels {
		q, err := sensor.ParseQuality(l)
		if err != nil {
			return 0, err
		}
		qs = append(qs, q)
	}
	return selection.QualitiesOf(qs...), nil
}

func renderAligned(selected []sensor.FlattenedTag, rows []series.Row, filter selection.QualitySet) string {
	headers := []string{"TIMESTAMP"}
	for _, tag := range selected {
		headers = append(headers, chart.LegendName(selected, tag.ID))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, row := range rows {
		cells := []string{row.Timestamp}
		for _, tag := range selected {
			p, ok := row.Lookup(tag.ID)
			if !ok {
				cells = append(cells, metaStyle.Render("-"))
				continue
			}
			text := chart.FormatValue(p.Value)
			if filter.Has(p.Quality) {
				text = lipgloss.NewStyle().Foreground(lipgloss.Color(chart.QualityColor(p.Quality))).Render(text + " ●")
			}
			cells = append(cells, text)
		}
		t.Row(cells...)
	}

	summary := fmt.Sprintf("%d data points", len(rows))
	if unit := series.UnitLabel(selected); unit != "" {
		summary += " · " + unit
	}
	return titleStyle.Render(summary) + "\n" + t.Render()
}

func writeAlignedCSV(selected []sensor.FlattenedTag, rows []series.Row) error {
	t := export.NewTable("", selected, rows)
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(t.Header()); err != nil {
		return err
	}
	for _, record := range t.Records() {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeExport(format, output string, t export.Table) error {
	if output == "" {
		return fmt.Errorf("--output is required for %s", format)
	}

	build := export.XLSX
	if format == export.FormatPDF {
		build = export.PDF
	}
	data, err := build(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Printf("Wrote %s\n", output)
	return nil
}
