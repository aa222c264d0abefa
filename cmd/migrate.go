package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/sources/file"
	"github.com/rubiojr/signalscope/pkg/sources/sqlsrc"
)

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Database type: sqlite or postgres (defaults to the configured source)",
		},
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "Database DSN (defaults to the configured source)",
		},
	}
}

// openDatabase resolves the snapshot database from flags, falling back to
// the configured source when it is a database.
func openDatabase(c *cli.Command) (*sqlsrc.Source, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	kind, dsn := c.String("driver"), c.String("dsn")
	if kind == "" {
		kind = cfg.Source.Type
		if kind != sqlsrc.TypeSQLite && kind != sqlsrc.TypePostgres {
			kind = sqlsrc.TypeSQLite
		}
	}
	if dsn == "" && kind == cfg.Source.Type {
		dsn = cfg.Source.DSN
	}
	return sqlsrc.Open(kind, dsn)
}

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the schema of a snapshot database",
		Flags: append(databaseFlags(),
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			src, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer src.Close()
			return runMigrations(ctx, src, c.Bool("status"))
		},
	}
}

func runMigrations(ctx context.Context, src *sqlsrc.Source, statusOnly bool) error {
	manager := src.MigrationManager()

	if !statusOnly {
		applied, err := manager.ApplyPendingMigrations(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d migrations to %s\n", applied, src.Location())
		return nil
	}

	status, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Applied migrations: %d\n", len(status.Applied))
	for _, migration := range status.Applied {
		appliedTime := "unknown"
		if migration.AppliedAt != nil {
			appliedTime = migration.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  ✓ %03d: %s (applied: %s)\n", migration.Version, migration.Name, appliedTime)
	}

	fmt.Printf("Pending migrations: %d\n", len(status.Pending))
	for _, migration := range status.Pending {
		fmt.Printf("  • %03d: %s\n", migration.Version, migration.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Println("  (none - database is up to date)")
	}
	return nil
}

// ImportCommand loads a snapshot document into a snapshot database
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Store a JSON or YAML snapshot in a SQLite or PostgreSQL database",
		ArgsUsage: "SNAPSHOT",
		Flags:     databaseFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one snapshot file")
			}

			in, err := file.New(c.Args().First())
			if err != nil {
				return err
			}
			defer in.Close()
			ds, err := in.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("reading %s: %w", in.Location(), err)
			}

			out, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer out.Close()

			if err := out.Import(ctx, ds); err != nil {
				return err
			}
			fmt.Printf("Imported %d sensors into %s\n", ds.TagCount(), out.Location())
			return nil
		},
	}
}
