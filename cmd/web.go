package cmd

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/signalscope/cmd/web/components"
	"github.com/rubiojr/signalscope/cmd/web/components/types"
	"github.com/rubiojr/signalscope/pkg/api"
	"github.com/rubiojr/signalscope/pkg/chart"
	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/realtime"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/series"
	"github.com/rubiojr/signalscope/pkg/version"
)

//go:embed web/static/*
var staticFS embed.FS

const pageTitle = "Signal Scope"

// WebCommand creates the web command serving the dashboard and the API
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the dashboard web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload file snapshots when they change",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if host := c.String("host"); host != "" {
				cfg.Server.Host = host
			}
			if port := c.String("port"); port != "" {
				cfg.Server.Port = port
			}
			if c.Bool("watch") {
				cfg.Source.Watch = true
			}
			return startWebServer(ctx, cfg)
		},
	}
}

// WebServer holds the dashboard dependencies
type WebServer struct {
	config    *config.Config
	snapshot  *loader.Snapshot
	apiServer *api.Server
	logger    *log.Logger
}

// NewWebServer wires the dashboard around a snapshot. hub may be nil when
// sessions should not receive reload pushes.
func NewWebServer(cfg *config.Config, snapshot *loader.Snapshot, hub *realtime.Hub) *WebServer {
	return &WebServer{
		config:    cfg,
		snapshot:  snapshot,
		apiServer: api.NewServer(snapshot, hub),
		logger:    log.ForService("web"),
	}
}

// Handler returns the full route tree. Everything but the WebSocket session
// is gzip compressed.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.apiServer.RegisterRoutes(mux)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET "+components.ChartPath, s.handleChart)
	mux.HandleFunc("GET /static/", s.handleStatic)

	root := http.NewServeMux()
	s.apiServer.RegisterSessionRoutes(root)
	root.Handle("/", gzhttp.GzipHandler(mux))

	return api.CorsMiddleware(root)
}

func startWebServer(ctx context.Context, cfg *config.Config) error {
	logger := log.ForService("web")
	metrics.Init()

	src, err := core.GetGlobalRegistry().Create(cfg.Source)
	if err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warnf("closing source: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshot := loader.NewSnapshot(ctx, src)
	hub := realtime.NewHub(0)

	if cfg.Source.Watch {
		if cfg.Source.Type != "file" {
			logger.Warnf("watch is only supported for file sources, ignoring for %s", cfg.Source.Type)
		} else {
			go func() {
				if err := loader.Watch(ctx, cfg.Source.Path, snapshot); err != nil {
					logger.Errorf("watching %s: %v", cfg.Source.Path, err)
				}
			}()
		}
	}

	webServer := NewWebServer(cfg, snapshot, hub)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting web server on http://%s", cfg.Addr())
		logger.Infof("Loading snapshot from %s %s", src.Type(), src.Location())
		logger.Infof("Available endpoints:")
		logger.Infof("  GET / - Dashboard")
		logger.Infof("  GET /chart.svg - Rendered chart for the selection")
		logger.Infof("  GET /api/status - Load status")
		logger.Infof("  GET /api/tags - Flattened tags")
		logger.Infof("  GET /api/series - Aligned rows for the selection")
		logger.Infof("  GET /api/export.xlsx, /api/export.pdf - Exports")
		logger.Infof("  GET /api/session/ws - Interactive session")
		logger.Infof("  GET /health, /metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	logger.Infof("Shutting down web server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// handleHome renders the dashboard for the selection in the query string
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	st := selection.FromQuery(r.URL.Query())
	tags, result := s.snapshot.Tags()

	data := types.PageData{
		Title:   pageTitle,
		Version: version.APIVersion(),
		Status:  string(result.Status()),
	}

	switch result.Status() {
	case loader.StatusError:
		data.Error = result.Message()
	case loader.StatusReady:
		selected := st.Resolve(tags)
		rows := series.Align(selected)
		metrics.ObserveAlign("web", len(rows))

		data.Subtitle = fmt.Sprintf("%d sensors from %s", len(tags), s.snapshot.Source().Location())
		data.Tags = components.TagEntries(tags, st)
		data.SelectedCount = len(st.TagIDs)
		data.ResetURL = components.HomePath
		data.Chart = components.ChartView(selected, rows, st, s.config.Chart.Width, s.config.Chart.Height)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Index(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleChart renders the selection as SVG
func (s *WebServer) handleChart(w http.ResponseWriter, r *http.Request) {
	tags, result := s.snapshot.Tags()
	if result.Status() != loader.StatusReady {
		http.Error(w, "snapshot not ready", http.StatusServiceUnavailable)
		return
	}

	st := selection.FromQuery(r.URL.Query())
	selected := st.Resolve(tags)
	rows := series.Align(selected)
	metrics.ObserveAlign("chart", len(rows))

	plot := chart.Build(selected, rows, st.Quality, chart.Options{
		Width:  s.config.Chart.Width,
		Height: s.config.Chart.Height,
	})

	var buf bytes.Buffer
	if err := chart.RenderSVG(&buf, plot); err != nil {
		if errors.Is(err, chart.ErrNoPoints) {
			http.Error(w, "no points to draw", http.StatusNotFound)
			return
		}
		s.logger.Errorf("rendering chart: %v", err)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warnf("writing chart: %v", err)
	}
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".svg"):
		w.Header().Set("Content-Type", "image/svg+xml")
	case strings.HasSuffix(path, ".ico"):
		w.Header().Set("Content-Type", "image/x-icon")
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		s.logger.Warnf("writing static content: %v", err)
	}
}
