package cmd

import (
	"compress/gzip"
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

type memorySource struct {
	release chan struct{}
	ds      *sensor.Dataset
	err     error
}

func (s *memorySource) Type() string     { return "memory" }
func (s *memorySource) Location() string { return "memory://test" }
func (s *memorySource) Close() error     { return nil }
func (s *memorySource) Factory(config.SourceConfig) (core.Source, error) {
	return s, nil
}

func (s *memorySource) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	if s.release != nil {
		<-s.release
	}
	return s.ds, s.err
}

func testDataset() *sensor.Dataset {
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
				{ID: "empty", Label: "Empty", Unit: "m", Samples: []sensor.Sample{}},
			},
		}},
	}}}
}

func setupTestWebServer(t *testing.T, src *memorySource) *httptest.Server {
	t.Helper()
	snap := loader.NewSnapshot(context.Background(), src)
	if src.release == nil {
		select {
		case <-snap.Current().Done():
		case <-time.After(2 * time.Second):
			t.Fatal("snapshot never settled")
		}
	}

	ws := NewWebServer(config.GetDefaultConfig(), snap, nil)
	ts := httptest.NewServer(ws.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return resp, string(body)
}

func TestHomeLoading(t *testing.T) {
	src := &memorySource{release: make(chan struct{}), ds: testDataset()}
	defer close(src.release)
	ts := setupTestWebServer(t, src)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Loading sensor data...") {
		t.Fatal("expected loading indicator")
	}
	if !strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatal("loading page should refresh itself")
	}
}

func TestHomeLoadError(t *testing.T) {
	ts := setupTestWebServer(t, &memorySource{err: core.ErrLoadFailed})

	_, body := get(t, ts.URL+"/")
	if !strings.Contains(body, "Error Loading Data") || !strings.Contains(body, "Failed to load data") {
		t.Fatal("expected the load error verbatim")
	}
	if strings.Contains(body, "Select Sensors") {
		t.Fatal("selector must not render after a failed load")
	}
}

func TestHomeSelection(t *testing.T) {
	ts := setupTestWebServer(t, &memorySource{ds: testDataset()})

	_, body := get(t, ts.URL+"/")
	if !strings.Contains(body, "Select sensors to view data") {
		t.Fatal("expected empty selection placeholder")
	}

	_, body = get(t, ts.URL+"/?tag=flow&tag=pressure")
	for _, want := range []string{"2 sensors selected", "Mixed Units", "/chart.svg?tag=flow&amp;tag=pressure", "2 data points"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	ts := setupTestWebServer(t, &memorySource{ds: testDataset()})
	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestChartSVG(t *testing.T) {
	ts := setupTestWebServer(t, &memorySource{ds: testDataset()})

	resp, body := get(t, ts.URL+"/chart.svg?tag=flow&tag=pressure")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "<svg") {
		t.Fatal("expected svg document")
	}

	resp, _ = get(t, ts.URL+"/chart.svg?tag=empty")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a selection without points, got %d", resp.StatusCode)
	}
}

func TestChartRenderFailureSendsNoSVG(t *testing.T) {
	ds := testDataset()
	ds.Sites[0].Assets[0].Tags[0].Samples[1].Value = math.Inf(1)
	ts := setupTestWebServer(t, &memorySource{ds: ds})

	resp, body := get(t, ts.URL+"/chart.svg?tag=flow")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "<svg") {
		t.Fatalf("error response carries a partial chart: %q", body)
	}
	if strings.TrimSpace(body) != "chart rendering failed" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestChartWhileLoading(t *testing.T) {
	src := &memorySource{release: make(chan struct{}), ds: testDataset()}
	defer close(src.release)
	ts := setupTestWebServer(t, src)

	resp, _ := get(t, ts.URL+"/chart.svg?tag=flow")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestStaticAndGzip(t *testing.T) {
	ts := setupTestWebServer(t, &memorySource{ds: testDataset()})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/static/style.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "text/css" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatal("expected gzip encoded response")
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if css, _ := io.ReadAll(zr); len(css) == 0 {
		t.Fatal("expected stylesheet content")
	}

	resp, _ = get(t, ts.URL+"/static/missing.js")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
