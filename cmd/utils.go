package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

// snapshotFlags let one-shot commands point at a snapshot without editing
// the configuration.
func snapshotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "Read the snapshot from this file instead of the configured source",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Give up loading after this long (0 waits indefinitely)",
		},
	}
}

// sourceConfigFromFlags resolves the source to load, applying --file.
func sourceConfigFromFlags(c *cli.Command) (config.SourceConfig, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return config.SourceConfig{}, fmt.Errorf("loading config: %w", err)
	}
	src := cfg.Source
	if path := c.String("file"); path != "" {
		src = config.SourceConfig{Type: "file", Path: path}
	}
	if timeout := c.Duration("timeout"); timeout > 0 {
		src.Timeout = config.Duration{Duration: timeout}
	}
	return src, nil
}

// loadTags fetches the snapshot once and flattens it.
func loadTags(ctx context.Context, srcCfg config.SourceConfig) ([]sensor.FlattenedTag, error) {
	src, err := core.GetGlobalRegistry().Create(srcCfg)
	if err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}
	defer src.Close()

	if srcCfg.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, srcCfg.Timeout.Duration)
		defer cancel()
	}

	start := time.Now()
	result := loader.Start(ctx, src)
	ds, err := result.Wait(ctx)
	if err != nil {
		return nil, err
	}
	log.ForService("cli").Debugf("loaded %s in %v", src.Location(), time.Since(start))
	return sensor.Flatten(ds), nil
}
