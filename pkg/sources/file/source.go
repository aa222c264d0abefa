// Package file reads dataset snapshots from the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

const sourceType = "file"

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{})
}

type Source struct {
	path string
}

func New(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("file source requires a path")
	}
	return &Source{path: path}, nil
}

func (s *Source) Type() string     { return sourceType }
func (s *Source) Location() string { return s.path }
func (s *Source) Close() error     { return nil }

// Path returns the snapshot path, for file watchers.
func (s *Source) Path() string { return s.path }

func (s *Source) Factory(cfg config.SourceConfig) (core.Source, error) {
	return New(cfg.Path)
}

func (s *Source) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	log.ForService("source:file").Debugf("reading %s", s.path)
	return core.DecodeNamed(f, s.path)
}
