package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// streamStatus pushes the status as JSON every StreamPeriod until the
// client goes away. Messages from the client are read and dropped.
func (s *Server) streamStatus(w http.ResponseWriter, r *http.Request) {
	log := logging.For("api")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	log.WithField("remote", r.RemoteAddr).Debug("Status stream opened")

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Debug("Status stream read failed")
				}
				return
			}
		}
	}()

	updates := time.NewTicker(s.StreamPeriod)
	defer updates.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	send := func() bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.status()); err != nil {
			log.WithError(err).Debug("Status stream write failed")
			return false
		}
		return true
	}
	if !send() {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-updates.C:
			if !send() {
				return
			}
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
