package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/realtime"
	"github.com/rubiojr/signalscope/pkg/selection"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// HandleSession runs an interactive selection session. The initial state
// comes from the query string; every action the client sends is applied in
// order and answered with the recomputed series.
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}

	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		state:  selection.FromQuery(r.URL.Query()),
	}
	metrics.SessionOpened()
	defer metrics.SessionClosed()

	s.logger.Debugf("session %s opened from %s", sess.id, conn.RemoteAddr())
	sess.run()
	s.logger.Debugf("session %s closed", sess.id)
}

type inbound struct {
	action selection.Action
	err    error
}

type session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	state  selection.State
	seq    int
}

func (sess *session) run() {
	defer sess.conn.Close()

	done := make(chan struct{})
	defer close(done)
	messages := make(chan inbound)
	go sess.readPump(messages, done)

	var events <-chan realtime.Event
	if hub := sess.server.hub; hub != nil {
		id, ch := hub.Register()
		defer hub.Unregister(id)
		events = ch
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := sess.send(MessageInit, ""); err != nil {
		return
	}

	for {
		select {
		case in, ok := <-messages:
			if !ok {
				return
			}
			if in.err != nil {
				if err := sess.sendError(in.err); err != nil {
					return
				}
				continue
			}
			next, err := sess.state.Apply(in.action)
			metrics.ObserveAction(string(in.action.Kind), err)
			if err != nil {
				if err := sess.sendError(err); err != nil {
					return
				}
				continue
			}
			sess.state = next
			if err := sess.send(MessageUpdate, string(in.action.Kind)); err != nil {
				return
			}
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := sess.send(MessageUpdate, "reload"); err != nil {
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes client actions until the connection fails. Undecodable
// messages are reported to the session rather than ending it.
func (sess *session) readPump(out chan<- inbound, done <-chan struct{}) {
	defer close(out)

	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.server.logger.Warnf("session %s read: %v", sess.id, err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in.action); err != nil {
			in.err = fmt.Errorf("invalid action: %w", err)
		}
		select {
		case out <- in:
		case <-done:
			return
		}
	}
}

func (sess *session) message(kind, reason string) SessionMessage {
	tags, result := sess.server.snapshot.Tags()
	msg := SessionMessage{
		Type:      kind,
		SessionID: sess.id,
		Reason:    reason,
		Status:    result.Status(),
		State:     sess.state,
	}
	switch result.Status() {
	case loader.StatusReady:
		msg.Series = BuildSeries(tags, sess.state, "session")
	case loader.StatusError:
		msg.Error = result.Message()
	}
	return msg
}

func (sess *session) send(kind, reason string) error {
	return sess.write(sess.message(kind, reason))
}

func (sess *session) sendError(err error) error {
	msg := sess.message(MessageError, "")
	msg.Series = nil
	msg.Error = err.Error()
	return sess.write(msg)
}

func (sess *session) write(msg SessionMessage) error {
	sess.seq++
	msg.Seq = sess.seq
	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sess.conn.WriteJSON(msg)
}
