package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/signalscope/pkg/sensor"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// TagsCommand lists every tag in the snapshot
func TagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List the sensors in the snapshot",
		Flags: append(snapshotFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of a table",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			srcCfg, err := sourceConfigFromFlags(c)
			if err != nil {
				return err
			}
			tags, err := loadTags(ctx, srcCfg)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printTagsJSON(tags)
			}
			fmt.Println(renderTags(tags))
			return nil
		},
	}
}

type tagJSON struct {
	ID       string `json:"id"`
	FullPath string `json:"full_path"`
	Unit     string `json:"unit"`
	Samples  int    `json:"samples"`
}

func printTagsJSON(tags []sensor.FlattenedTag) error {
	out := make([]tagJSON, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tagJSON{ID: tag.ID, FullPath: tag.FullPath, Unit: tag.Unit, Samples: len(tag.Samples)})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderTags(tags []sensor.FlattenedTag) string {
	if len(tags) == 0 {
		return metaStyle.Render("No sensors in snapshot")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "SENSOR", "UNIT", "SAMPLES").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, tag := range tags {
		t.Row(tag.ID, tag.FullPath, tag.Unit, strconv.Itoa(len(tag.Samples)))
	}

	return titleStyle.Render(fmt.Sprintf("%d sensors", len(tags))) + "\n" + t.Render()
}
