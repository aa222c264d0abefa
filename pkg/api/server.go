package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/realtime"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

type Server struct {
	snapshot *loader.Snapshot
	hub      *realtime.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer serves the dataset held by snapshot. hub may be nil, in which
// case sessions are not told about reloads.
func NewServer(snapshot *loader.Snapshot, hub *realtime.Hub) *Server {
	s := &Server{
		snapshot: snapshot,
		hub:      hub,
		logger:   log.ForService("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if hub != nil {
		snapshot.OnReload(func(r *loader.Result) {
			tags, _ := snapshot.Tags()
			hub.Broadcast(realtime.NewSnapshotEvent(string(r.Status()), len(tags), r.Err()))
		})
	}
	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// readyTags returns the flattened tags, or writes 503 while loading and 502
// with the load error's message after a failure.
func (s *Server) readyTags(w http.ResponseWriter) ([]sensor.FlattenedTag, bool) {
	tags, result := s.snapshot.Tags()
	switch result.Status() {
	case loader.StatusLoading:
		s.writeError(w, http.StatusServiceUnavailable, "loading", "sensor data is still loading")
		return nil, false
	case loader.StatusError:
		s.writeError(w, http.StatusBadGateway, "load_failed", result.Message())
		return nil, false
	}
	return tags, true
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
