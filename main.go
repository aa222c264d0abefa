package main

import (
	"context"
	"os"

	"github.com/rubiojr/signalscope/cmd"
	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := log.ForService("main")

	app := &cli.Command{
		Name:  "signalscope",
		Usage: "Browse and compare industrial sensor readings",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(logger),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.WebCommand(),
			cmd.TagsCommand(),
			cmd.AlignCommand(),
			cmd.ImportCommand(),
			cmd.MigrateCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit(logger *log.Logger) string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Errorf("Failed to get default config path: %v", err)
		os.Exit(1)
	}
	return path
}
