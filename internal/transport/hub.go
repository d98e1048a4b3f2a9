package transport

import (
	"sync"

	"go.uber.org/zap"
)

// Hub maintains every live websocket connection, keyed by room and by
// session id, and fans broadcasts out to them. Grounded on the
// teacher's Hub (`sessions map[sessionId]map[playerId]*Client`),
// renamed for this domain's overloaded "session" term: a room here is
// the teacher's "session", and a session id here is a single
// connection, not a player account.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*Client // roomID -> sessionID -> client
	clients map[string]*Client            // sessionID -> client, for direct sends

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[string]*Client),
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// JoinRoom registers client under roomID. A client only ever belongs
// to one room at a time (the route is `/ws/rooms/{roomId}`); calling
// this again with a different roomID for the same client is not
// supported because a socket's room is fixed at upgrade time.
func (h *Hub) JoinRoom(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][c.sessionID] = c
	h.clients[c.sessionID] = c
}

// Remove unregisters client from both maps. Safe to call more than
// once for the same client.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.sessionID)
	if room, ok := h.rooms[c.roomID]; ok {
		delete(room, c.sessionID)
		if len(room) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

// BroadcastToRoom implements session.Broadcaster. Dead clients found
// mid-fan-out are dropped rather than allowed to block the sender.
func (h *Hub) BroadcastToRoom(roomID string, event string, payload any) {
	data, err := encodeOutbound(event, payload)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("broadcast_encode_failed", zap.String("room_id", roomID), zap.String("event", event), zap.Error(err))
		}
		return
	}

	h.mu.RLock()
	room := h.rooms[roomID]
	targets := make([]*Client, 0, len(room))
	for _, c := range room {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.deliver(data)
	}
}

// SendToSession implements session.Broadcaster: deliver to exactly
// one connection, used for move_error and other per-client replies.
func (h *Hub) SendToSession(sessionID string, event string, payload any) {
	data, err := encodeOutbound(event, payload)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("send_encode_failed", zap.String("session_id", sessionID), zap.String("event", event), zap.Error(err))
		}
		return
	}

	h.mu.RLock()
	c := h.clients[sessionID]
	h.mu.RUnlock()
	if c != nil {
		c.deliver(data)
	}
}
