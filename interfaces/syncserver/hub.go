package syncserver

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"listacompras/infrastructure/syncstore"
)

// Hub tracks the websocket subscribers of each list document and fans
// stored snapshots out to them. One list can have any number of
// subscribers; a subscriber follows exactly one list.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*websocket.Conn]bool // listID -> connections
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]map[*websocket.Conn]bool),
		logger: logger,
	}
}

// Add registers a connection as a subscriber of listID, first pushing the
// initial snapshot when one exists. The write happens under the hub lock so
// it cannot interleave with a broadcast on the same connection.
func (h *Hub) Add(listID string, conn *websocket.Conn, initial *syncstore.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if initial != nil {
		if err := conn.WriteJSON(*initial); err != nil {
			conn.Close()
			return err
		}
	}

	if h.conns[listID] == nil {
		h.conns[listID] = make(map[*websocket.Conn]bool)
	}
	h.conns[listID][conn] = true

	h.logger.Debug("Feed subscriber connected",
		zap.String("listID", listID),
		zap.Int("subscribers", len(h.conns[listID])),
	)
	return nil
}

// Remove drops a connection, closing it.
func (h *Hub) Remove(listID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.conns[listID]; ok {
		if clients[conn] {
			delete(clients, conn)
			conn.Close()
			if len(clients) == 0 {
				delete(h.conns, listID)
			}
		}
	}
}

// Broadcast pushes a snapshot to every subscriber of listID. Connections
// that fail to take the write are dropped; the remaining subscribers are
// unaffected.
func (h *Hub) Broadcast(listID string, snap syncstore.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to marshal snapshot for broadcast",
			zap.String("listID", listID),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var dead []*websocket.Conn
	for conn := range h.conns[listID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("Dropping dead feed subscriber",
				zap.String("listID", listID),
				zap.Error(err),
			)
			dead = append(dead, conn)
		}
	}

	for _, conn := range dead {
		delete(h.conns[listID], conn)
		conn.Close()
	}
	if len(h.conns[listID]) == 0 {
		delete(h.conns, listID)
	}
}

// CloseAll disconnects every subscriber, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for listID, clients := range h.conns {
		for conn := range clients {
			conn.Close()
		}
		delete(h.conns, listID)
	}
}
