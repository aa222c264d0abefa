package api

import (
	"time"

	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/series"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type StatusResponse struct {
	Status   loader.Status `json:"status"`
	Source   string        `json:"source"`
	Location string        `json:"location"`
	Error    string        `json:"error,omitempty"`
	TagCount int           `json:"tag_count"`
}

type TagResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Unit        string `json:"unit"`
	SiteName    string `json:"site_name"`
	AssetName   string `json:"asset_name"`
	FullPath    string `json:"full_path"`
	SampleCount int    `json:"sample_count"`
}

type ListTagsResponse struct {
	Tags  []TagResponse `json:"tags"`
	Count int           `json:"count"`
}

// SeriesInfo describes one selected tag as drawn on the chart.
type SeriesInfo struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Unit     string `json:"unit"`
	FullPath string `json:"full_path"`
	Color    string `json:"color"`
	Points   int    `json:"points"`
}

type SeriesResponse struct {
	TagIDs        []string             `json:"tag_ids"`
	Rows          []series.Row         `json:"rows"`
	UnitLabel     string               `json:"unit_label"`
	Series        []SeriesInfo         `json:"series"`
	QualityFilter selection.QualitySet `json:"quality_filter"`
}

// Session message types.
const (
	MessageInit   = "init"
	MessageUpdate = "update"
	MessageError  = "error"
)

// SessionMessage is sent from the server over the session WebSocket.
type SessionMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Seq       int             `json:"seq"`
	Reason    string          `json:"reason,omitempty"`
	Status    loader.Status   `json:"status"`
	State     selection.State `json:"state"`
	Series    *SeriesResponse `json:"series,omitempty"`
	Error     string          `json:"error,omitempty"`
}
