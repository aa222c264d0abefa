package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.HandleStatus)
	mux.HandleFunc("GET /api/tags", s.HandleTags)
	mux.HandleFunc("GET /api/series", s.HandleSeries)
	mux.HandleFunc("GET /api/export.xlsx", s.HandleExportXLSX)
	mux.HandleFunc("GET /api/export.pdf", s.HandleExportPDF)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// RegisterSessionRoutes mounts the WebSocket session. It is kept apart from
// RegisterRoutes so it can bypass response compression.
func (s *Server) RegisterSessionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session/ws", s.HandleSession)
}
