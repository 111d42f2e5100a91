package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event types of the progress stream.
const (
	EventStatus   = "status"
	EventProgress = "progress"
	EventDone     = "done"
)

// WSMessage is the envelope of every message on the progress stream.
type WSMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleExportEvents streams a job over a websocket: its current status,
// every progress event while it runs and its final status. The server
// closes the connection after the final message.
func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	events, unsubscribe, ok := s.jobs.Subscribe(id)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "job", id, "error", err)
		return
	}
	defer conn.Close()

	// reads only serve pongs and notice the client going away
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(typ string, data any) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		msg := WSMessage{Type: typ, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("websocket write failed", "job", id, "error", err)
			return false
		}
		return true
	}

	view, _ := s.jobs.Get(id)
	if !send(EventStatus, view) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case p, open := <-events:
			if !open {
				view, _ := s.jobs.Get(id)
				if send(EventDone, view) {
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}
			if !send(EventProgress, p) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
