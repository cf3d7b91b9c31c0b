package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/gorilla/websocket"
)

// RoomAll receives every event; the other rooms are named after media types.
const RoomAll = "all"

const writeWait = 5 * time.Second

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]bool
	log   *logger.ZapLogger
}

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *Hub) Register(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomID][conn] = true

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "ws register",
		Fields:  map[string]any{"room": roomID, "conns": len(h.rooms[roomID])},
	})
}

func (h *Hub) Unregister(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "ws unregister",
		Fields:  map[string]any{"room": roomID, "conns": len(conns)},
	})
}

// Conns reports how many connections a room holds.
func (h *Hub) Conns(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SendToRoom must not be called concurrently; the event fan-out is the only
// writer.
func (h *Hub) SendToRoom(roomID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.rooms[roomID] {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "ws send failed",
				Error:   err,
				Fields:  map[string]any{"room": roomID},
			})
		}
	}
}

// Publish sends the event to RoomAll and to the room of its media type.
func (h *Hub) Publish(_ context.Context, ev ports.MediaEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.SendToRoom(RoomAll, payload)
	h.SendToRoom(string(ev.Media.Type), payload)
	return nil
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
