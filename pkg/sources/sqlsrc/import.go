package sqlsrc

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rubiojr/signalscope/pkg/db"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

func (s *Source) dialect() db.Dialect {
	if s.kind == TypePostgres {
		return db.DialectPostgres
	}
	return db.DialectSQLite
}

// Migrate brings the database schema up to date.
func (s *Source) Migrate(ctx context.Context) error {
	return db.InitializeDatabase(ctx, s.db, s.dialect())
}

// MigrationManager exposes the schema versioning for status reports.
func (s *Source) MigrationManager() *db.MigrationManager {
	return db.NewMigrationManager(s.db, s.dialect())
}

// Import replaces the stored snapshot with ds in a single transaction.
// Positions are written from document order so Fetch returns the same
// hierarchy.
func (s *Source) Import(ctx context.Context, ds *sensor.Dataset) error {
	if ds == nil {
		return fmt.Errorf("nothing to import")
	}
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting import transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"samples", "tags", "assets", "sites"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	d := s.dialect()
	insert := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, d.Rebind(query), args...)
		return err
	}

	for si, site := range ds.Sites {
		if err := insert(`INSERT INTO sites (id, name, position) VALUES (?, ?, ?)`, site.ID, site.Name, si); err != nil {
			return fmt.Errorf("inserting site %s: %w", site.ID, err)
		}
		for ai, asset := range site.Assets {
			if err := insert(`INSERT INTO assets (id, site_id, name, type, position) VALUES (?, ?, ?, ?, ?)`,
				asset.ID, site.ID, asset.Name, asset.Type, ai); err != nil {
				return fmt.Errorf("inserting asset %s: %w", asset.ID, err)
			}
			for ti, tag := range asset.Tags {
				if err := insert(`INSERT INTO tags (id, asset_id, label, unit, position) VALUES (?, ?, ?, ?, ?)`,
					tag.ID, asset.ID, tag.Label, tag.Unit, ti); err != nil {
					return fmt.Errorf("inserting tag %s: %w", tag.ID, err)
				}
				if err := insertSamples(ctx, tx, d, tag); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, d db.Dialect, tag sensor.Tag) error {
	if len(tag.Samples) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, d.Rebind(`INSERT INTO samples (tag_id, ts, value, quality, position) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()

	for i, sample := range tag.Samples {
		if _, err := stmt.ExecContext(ctx, tag.ID, sample.Timestamp, sample.Value, string(sample.Quality), i); err != nil {
			return fmt.Errorf("inserting sample %d of %s: %w", i, tag.ID, err)
		}
	}
	return nil
}
