// Package remote fetches dataset snapshots over HTTP with a single GET.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

const sourceType = "http"

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{})
}

type Source struct {
	url    string
	client *http.Client
}

// New returns a source for rawURL. A zero timeout leaves the request
// unbounded.
func New(rawURL string, timeout time.Duration) (*Source, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("http source requires a url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return &Source{
		url:    rawURL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (s *Source) Type() string     { return sourceType }
func (s *Source) Location() string { return s.url }

func (s *Source) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Source) Factory(cfg config.SourceConfig) (core.Source, error) {
	return New(cfg.URL, cfg.Timeout.Duration)
}

func (s *Source) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.ForService("source:http").Debugf("GET %s: %s", s.url, resp.Status)
		return nil, core.ErrLoadFailed
	}

	format := core.FormatFor(req.URL.Path)
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = core.FormatYAML
	}
	return core.Decode(resp.Body, format)
}
