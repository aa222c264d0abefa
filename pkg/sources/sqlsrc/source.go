// Package sqlsrc loads dataset snapshots from a relational database. The
// same schema, versioned by package db, is read from SQLite files and from
// PostgreSQL. Position columns carry source order and the hierarchy is
// rebuilt in that order.
package sqlsrc

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

func init() {
	core.RegisterSourcePrototype(TypeSQLite, &Source{kind: TypeSQLite})
	core.RegisterSourcePrototype(TypePostgres, &Source{kind: TypePostgres})
}

var _ core.Source = (*Source)(nil)

type Source struct {
	kind string
	dsn  string
	db   *sql.DB
}

func driverFor(kind string) (string, error) {
	switch kind {
	case TypeSQLite:
		return "sqlite3", nil
	case TypePostgres:
		return "pgx", nil
	}
	return "", fmt.Errorf("unsupported database source %q", kind)
}

// Open connects to dsn using the driver for kind. The connection is lazy;
// nothing is queried until Fetch.
func Open(kind, dsn string) (*Source, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s source requires a dsn", kind)
	}
	driver, err := driverFor(kind)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", kind, err)
	}
	return &Source{kind: kind, dsn: dsn, db: db}, nil
}

func (s *Source) Type() string     { return s.kind }
func (s *Source) Location() string { return s.dsn }

func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Source) Factory(cfg config.SourceConfig) (core.Source, error) {
	return Open(s.kind, cfg.DSN)
}

// Fetch reads the whole hierarchy in one transaction so the snapshot is
// consistent.
func (s *Source) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("starting read transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ds, err := readDataset(ctx, tx)
	if err != nil {
		return nil, err
	}
	log.ForService("source:" + s.kind).Debugf("read %d sites, %d tags", len(ds.Sites), ds.TagCount())
	return ds, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readDataset(ctx context.Context, q queryer) (*sensor.Dataset, error) {
	ds := &sensor.Dataset{Sites: []sensor.Site{}}
	siteIdx := map[string]int{}
	// asset and tag locations as indexes into the hierarchy
	type assetLoc struct{ site, asset int }
	type tagLoc struct{ site, asset, tag int }
	assetIdx := map[string]assetLoc{}
	tagIdx := map[string]tagLoc{}

	rows, err := q.QueryContext(ctx, `SELECT id, name FROM sites ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying sites: %w", err)
	}
	err = scanAll(rows, func() error {
		var site sensor.Site
		if err := rows.Scan(&site.ID, &site.Name); err != nil {
			return err
		}
		site.Assets = []sensor.Asset{}
		siteIdx[site.ID] = len(ds.Sites)
		ds.Sites = append(ds.Sites, site)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading sites: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT id, site_id, name, type FROM assets ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	err = scanAll(rows, func() error {
		var asset sensor.Asset
		var siteID string
		if err := rows.Scan(&asset.ID, &siteID, &asset.Name, &asset.Type); err != nil {
			return err
		}
		si, ok := siteIdx[siteID]
		if !ok {
			return fmt.Errorf("asset %s references unknown site %s", asset.ID, siteID)
		}
		asset.Tags = []sensor.Tag{}
		assetIdx[asset.ID] = assetLoc{si, len(ds.Sites[si].Assets)}
		ds.Sites[si].Assets = append(ds.Sites[si].Assets, asset)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading assets: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT id, asset_id, label, unit FROM tags ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	err = scanAll(rows, func() error {
		var tag sensor.Tag
		var assetID string
		if err := rows.Scan(&tag.ID, &assetID, &tag.Label, &tag.Unit); err != nil {
			return err
		}
		loc, ok := assetIdx[assetID]
		if !ok {
			return fmt.Errorf("tag %s references unknown asset %s", tag.ID, assetID)
		}
		tag.Samples = []sensor.Sample{}
		asset := &ds.Sites[loc.site].Assets[loc.asset]
		tagIdx[tag.ID] = tagLoc{loc.site, loc.asset, len(asset.Tags)}
		asset.Tags = append(asset.Tags, tag)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT tag_id, ts, value, quality FROM samples ORDER BY tag_id, position, ts`)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	err = scanAll(rows, func() error {
		var sample sensor.Sample
		var tagID, quality string
		if err := rows.Scan(&tagID, &sample.Timestamp, &sample.Value, &quality); err != nil {
			return err
		}
		loc, ok := tagIdx[tagID]
		if !ok {
			return fmt.Errorf("sample references unknown tag %s", tagID)
		}
		sample.Quality = sensor.Quality(quality)
		tag := &ds.Sites[loc.site].Assets[loc.asset].Tags[loc.tag]
		tag.Samples = append(tag.Samples, sample)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	return ds, nil
}

func scanAll(rows *sql.Rows, scan func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := scan(); err != nil {
			return err
		}
	}
	return rows.Err()
}
