package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lifequest/lifequest-services/internal/session"
	sharederrors "github.com/lifequest/lifequest-services/shared-libs/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Callers authenticate with a bearer token, not cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamMessage is the envelope pushed to websocket clients.
type streamMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// streamCharacter upgrades to a websocket and pushes the character view after every
// transition, local or remote. The stream ends when the client disconnects or the session
// is closed; clients reconnect to get a fresh session.
func streamCharacter(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		s, err := sessions.Get(ctx, userID)
		cancel()
		if err != nil {
			respondServiceError(w, r, logger, "failed to load character", err, userID)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "userId", userID, "error", err)
			return
		}

		views, stop := s.Watch()
		defer stop()

		done := make(chan struct{})
		go readPump(conn, done)
		writePump(conn, views, done)
		logger.Debug("character stream closed", "userId", userID)
	}
}

// readPump drains client frames so control messages are processed, and closes done when
// the connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, views <-chan session.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case snap, ok := <-views:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				return
			}
			if err := conn.WriteJSON(streamMessage{Type: "character", Data: data}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
