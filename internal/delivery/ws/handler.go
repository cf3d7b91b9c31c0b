package ws

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
)

// Handler subscribes the connection to ?room=all|movie|book (default all).
// The feed is one-way; incoming frames are read only to notice the close.
func Handler(hub *Hub, log *logger.ZapLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = RoomAll
		}
		if roomID != RoomAll {
			if _, err := models.ParseMediaType(roomID); err != nil {
				http.Error(w, "unknown room", http.StatusBadRequest)
				return
			}
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "ws upgrade failed",
				Error:   err,
			})
			return
		}

		hub.Register(roomID, conn)
		defer hub.Unregister(roomID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
