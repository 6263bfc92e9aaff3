package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/vytor/arenalobby/internal/lobby"
	"github.com/vytor/arenalobby/internal/logger"
)

const writeWait = 10 * time.Second

type snapshotFrame struct {
	Type    string         `json:"type"`
	Version uint64         `json:"version"`
	State   lobby.Snapshot `json:"state"`
}

// handleWebsocket pushes the session's snapshot after every applied reload
// until the client disconnects or the session ends.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFromContext(r.Context())
	log := logger.FromContext(r.Context()).WithField("client_id", ulid.Make().String())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := ctrl.Watch()
	defer cancel()

	pongWait := 2 * s.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Inbound frames are ignored; reading surfaces disconnects and pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("websocket read ended: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.PingInterval)
	defer ticker.Stop()

	log.Info("websocket connected")
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				deadline := time.Now().Add(writeWait)
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
				_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
				log.Info("websocket closed: session ended")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshotFrame{Type: "snapshot", Version: snap.Version, State: snap}); err != nil {
				log.Warn("websocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("websocket ping failed: %v", err)
				return
			}
		case <-closed:
			log.Info("websocket disconnected")
			return
		}
	}
}
