package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/realtime"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
)

type stubSource struct {
	release chan struct{}
	ds      *sensor.Dataset
	err     error
}

func (s *stubSource) Type() string     { return "stub" }
func (s *stubSource) Location() string { return "memory://west-weir" }
func (s *stubSource) Close() error     { return nil }
func (s *stubSource) Factory(config.SourceConfig) (core.Source, error) {
	return s, nil
}

func (s *stubSource) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	if s.release != nil {
		<-s.release
	}
	return s.ds, s.err
}

func westWeir() *sensor.Dataset {
	return &sensor.Dataset{Sites: []sensor.Site{{
		ID: "west", Name: "West Weir",
		Assets: []sensor.Asset{{
			ID: "pump-a", Name: "Pump A",
			Tags: []sensor.Tag{
				{ID: "flow", Label: "Flow", Unit: "L/s", Samples: []sensor.Sample{
					{Timestamp: "2024-01-01T00:00:00Z", Value: 12.5, Quality: sensor.QualityGood},
					{Timestamp: "2024-01-01T01:00:00Z", Value: 13, Quality: sensor.QualityBad},
				}},
				{ID: "pressure", Label: "Pressure", Unit: "kPa", Samples: []sensor.Sample{
					{Timestamp: "2024-01-01T00:00:00Z", Value: 101.3, Quality: sensor.QualityUncertain},
				}},
				{ID: "level", Label: "Level", Unit: "m", Samples: []sensor.Sample{}},
			},
		}},
	}}}
}

func newTestServer(t *testing.T, src *stubSource, hub *realtime.Hub) (*httptest.Server, *loader.Snapshot) {
	t.Helper()
	snap := loader.NewSnapshot(context.Background(), src)
	if src.release == nil {
		select {
		case <-snap.Current().Done():
		case <-time.After(2 * time.Second):
			t.Fatal("snapshot never settled")
		}
	}

	server := NewServer(snap, hub)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	server.RegisterSessionRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, snap
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: expected %d, got %d: %s", url, wantStatus, resp.StatusCode, body)
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s: %v", url, err)
	}
}

func TestStatusWhileLoading(t *testing.T) {
	src := &stubSource{release: make(chan struct{}), ds: westWeir()}
	defer close(src.release)
	ts, _ := newTestServer(t, src, nil)

	var status StatusResponse
	getJSON(t, ts.URL+"/api/status", http.StatusOK, &status)
	if status.Status != loader.StatusLoading {
		t.Fatalf("expected loading, got %s", status.Status)
	}
	if status.Source != "stub" || status.Location != "memory://west-weir" {
		t.Fatalf("unexpected source info %+v", status)
	}

	var errResp ErrorResponse
	getJSON(t, ts.URL+"/api/tags", http.StatusServiceUnavailable, &errResp)
	if errResp.Error != "loading" {
		t.Fatalf("expected loading error, got %+v", errResp)
	}
}

func TestLoadFailureIsReportedVerbatim(t *testing.T) {
	ts, _ := newTestServer(t, &stubSource{err: core.ErrLoadFailed}, nil)

	var status StatusResponse
	getJSON(t, ts.URL+"/api/status", http.StatusOK, &status)
	if status.Status != loader.StatusError || status.Error != "Failed to load data" {
		t.Fatalf("unexpected status %+v", status)
	}

	var errResp ErrorResponse
	getJSON(t, ts.URL+"/api/series?tag=flow", http.StatusBadGateway, &errResp)
	if errResp.Error != "load_failed" || errResp.Message != "Failed to load data" {
		t.Fatalf("unexpected error response %+v", errResp)
	}

	var health HealthResponse
	getJSON(t, ts.URL+"/health", http.StatusOK, &health)
	if health.Status != "degraded" {
		t.Fatalf("expected degraded health, got %s", health.Status)
	}
}

func TestListTags(t *testing.T) {
	ts, _ := newTestServer(t, &stubSource{ds: westWeir()}, nil)

	var tags ListTagsResponse
	getJSON(t, ts.URL+"/api/tags", http.StatusOK, &tags)
	if tags.Count != 3 || len(tags.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", tags.Count)
	}
	first := tags.Tags[0]
	if first.ID != "flow" || first.FullPath != "West Weir > Pump A > Flow" || first.SampleCount != 2 {
		t.Fatalf("unexpected first tag %+v", first)
	}
	if tags.Tags[2].SampleCount != 0 {
		t.Fatalf("expected level to have no samples, got %d", tags.Tags[2].SampleCount)
	}
}

func TestSeriesAlignsSelection(t *testing.T) {
	ts, _ := newTestServer(t, &stubSource{ds: westWeir()}, nil)

	var resp SeriesResponse
	getJSON(t, ts.URL+"/api/series?tag=pressure&tag=flow&tag=ghost", http.StatusOK, &resp)

	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}
	if resp.UnitLabel != series.MixedUnits {
		t.Fatalf("expected mixed units, got %q", resp.UnitLabel)
	}
	if len(resp.Series) != 2 || resp.Series[0].ID != "pressure" || resp.Series[1].ID != "flow" {
		t.Fatalf("expected selection order, got %+v", resp.Series)
	}
	if resp.Series[0].Color != "#3b82f6" || resp.Series[1].Color != "#ef4444" {
		t.Fatalf("unexpected colors %+v", resp.Series)
	}
	if resp.Series[0].Points != 1 || resp.Series[1].Points != 2 {
		t.Fatalf("unexpected point counts %+v", resp.Series)
	}
	if _, ok := resp.Rows[1].Values["pressure"]; ok {
		t.Fatal("pressure has no sample at the second timestamp")
	}
	if p := resp.Rows[1].Values["flow"]; p.Value != 13 || p.Quality != sensor.QualityBad {
		t.Fatalf("unexpected flow point %+v", p)
	}
}

func TestSeriesEmptySelection(t *testing.T) {
	ts, _ := newTestServer(t, &stubSource{ds: westWeir()}, nil)

	var resp SeriesResponse
	getJSON(t, ts.URL+"/api/series", http.StatusOK, &resp)
	if len(resp.Rows) != 0 || len(resp.Series) != 0 || resp.UnitLabel != "" {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestExports(t *testing.T) {
	ts, _ := newTestServer(t, &stubSource{ds: westWeir()}, nil)

	tests := []struct {
		path        string
		contentType string
		prefix      []byte
	}{
		{"/api/export.xlsx?tag=flow", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte("PK")},
		{"/api/export.pdf?tag=flow&tag=pressure", "application/pdf", []byte("%PDF-")},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Fatalf("unexpected content type %q", got)
			}
			if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
				t.Fatalf("expected attachment disposition, got %q", resp.Header.Get("Content-Disposition"))
			}
			body, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(body, tt.prefix) {
				t.Fatalf("unexpected body prefix %q", body[:min(len(body), 8)])
			}
		})
	}

	var errResp ErrorResponse
	getJSON(t, ts.URL+"/api/export.pdf", http.StatusBadRequest, &errResp)
	if errResp.Error != "empty_selection" {
		t.Fatalf("unexpected error %+v", errResp)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics.Init()
	ts, _ := newTestServer(t, &stubSource{ds: westWeir()}, nil)

	var health HealthResponse
	getJSON(t, ts.URL+"/health", http.StatusOK, &health)
	if health.Status != "ok" || health.Version == "" {
		t.Fatalf("unexpected health %+v", health)
	}

	getJSON(t, ts.URL+"/api/series?tag=flow", http.StatusOK, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "signalscope_align_total") {
		t.Fatal("expected alignment counter in metrics output")
	}
}

func TestCorsMiddleware(t *testing.T) {
	handler := CorsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/tags", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected preflight 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing allow-origin header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected wrapped handler to run, got %d", rec.Code)
	}
}
