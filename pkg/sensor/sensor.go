package sensor

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Quality is the data-quality annotation carried by every sample.
type Quality string

const (
	QualityGood      Quality = "good"
	QualityUncertain Quality = "uncertain"
	QualityBad       Quality = "bad"
)

// AllQualities lists the quality levels in display order.
var AllQualities = []Quality{QualityGood, QualityUncertain, QualityBad}

// Valid reports whether q is one of the known quality levels.
func (q Quality) Valid() bool {
	switch q {
	case QualityGood, QualityUncertain, QualityBad:
		return true
	}
	return false
}

// ParseQuality converts a string into a known quality level.
func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if !q.Valid() {
		return "", fmt.Errorf("unknown quality %q", s)
	}
	return q, nil
}

// Sample is a single time-stamped reading.
type Sample struct {
	Timestamp string  `json:"ts" yaml:"ts"`
	Value     float64 `json:"value" yaml:"value"`
	Quality   Quality `json:"q" yaml:"q"`
}

// Tag is a measurement stream. Samples are expected in ascending timestamp
// order but consumers must not rely on it.
type Tag struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Unit    string   `json:"unit" yaml:"unit"`
	Samples []Sample `json:"points" yaml:"points"`
}

// Asset groups the tags measured on one piece of equipment.
type Asset struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Tags []Tag  `json:"tags" yaml:"tags"`
}

// Site is the top level of the hierarchy.
type Site struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Assets []Asset `json:"assets" yaml:"assets"`
}

// Dataset is the root document. It is loaded once and never mutated.
type Dataset struct {
	Sites []Site `json:"sites" yaml:"sites"`
}

// Decode parses a JSON dataset document.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return &ds, nil
}

// DecodeYAML parses the YAML rendition of a dataset document.
func DecodeYAML(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := yaml.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding yaml dataset: %w", err)
	}
	return &ds, nil
}

// TagCount returns the number of tags across all sites and assets.
func (d *Dataset) TagCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, site := range d.Sites {
		for _, asset := range site.Assets {
			n += len(asset.Tags)
		}
	}
	return n
}
