package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

// Source is a place a dataset snapshot can be fetched from.
//
// Sources register a prototype from init() and are instantiated from the
// [source] section of the configuration:
//
//	func init() {
//		core.RegisterSourcePrototype("file", &Source{})
//	}
//
// Fetch is called exactly once per load. Implementations must not retry.
type Source interface {
	// Type returns the source type identifier used in configuration
	// (e.g. "file", "http").
	Type() string

	// Location describes where the snapshot comes from, for logs and
	// status output.
	Location() string

	// Fetch retrieves and decodes the snapshot.
	Fetch(ctx context.Context) (*sensor.Dataset, error)

	// Close releases connections or handles held by the source.
	Close() error

	// Factory creates a configured instance of this source type.
	Factory(cfg config.SourceConfig) (Source, error)
}

// Format is the encoding of a snapshot document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor guesses the document format from a file name or object key,
// ignoring a trailing .zst.
func FormatFor(name string) Format {
	name = strings.TrimSuffix(strings.ToLower(name), ".zst")
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DecodeNamed decodes a snapshot whose encoding is implied by name:
// .zst payloads are zstd-decompressed first and .yaml/.yml are read as YAML.
func DecodeNamed(r io.Reader, name string) (*sensor.Dataset, error) {
	if strings.HasSuffix(strings.ToLower(name), ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return Decode(r, FormatFor(name))
}

// Decode decodes r in the given format.
func Decode(r io.Reader, format Format) (*sensor.Dataset, error) {
	switch format {
	case FormatYAML:
		return sensor.DecodeYAML(r)
	case FormatJSON, "":
		return sensor.Decode(r)
	}
	return nil, fmt.Errorf("unsupported snapshot format %q", format)
}

// ErrLoadFailed is returned when a snapshot location answers but does not
// deliver a usable document (e.g. a non-success HTTP status). Its message is
// shown to users verbatim.
var ErrLoadFailed = errors.New("Failed to load data")
