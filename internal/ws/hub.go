// internal/ws/hub.go
//
// Connection hub: the gateway's shared state.
//
// Responsibilities:
//   - Track every live client by connection id.
//   - Maintain per-session broadcast groups (the "session group" a game's
//     events are addressed to).
//   - Implement the coordinator's Gateway contract: SendTo one connection,
//     Broadcast to a group, JoinGroup/DisbandGroup membership changes.
//
// Delivery is fire-and-forget: messages are queued on each client's buffered
// send channel and dropped (with a warning) if a client can't keep up. The
// hub lock is never held while touching a socket.

package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/letterdash/go-server/internal/coordinator"
)

// Hub owns the connection and group maps.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client // session id → conn id → client
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
	}
}

// Register adds a freshly upgraded client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	log.Debug().Str("conn", c.ID).Msg("client registered")
}

// Unregister removes a client and its group memberships.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	for sid, group := range h.groups {
		if _, ok := group[c.ID]; ok {
			delete(group, c.ID)
			if len(group) == 0 {
				delete(h.groups, sid)
			}
		}
	}
	h.mu.Unlock()
	log.Debug().Str("conn", c.ID).Msg("client unregistered")
}

// JoinGroup attaches a connection to a session's broadcast group.
func (h *Hub) JoinGroup(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[string]*Client)
		h.groups[sessionID] = group
	}
	group[connID] = c
}

// DisbandGroup drops a whole session group (game over / reaped).
func (h *Hub) DisbandGroup(sessionID string) {
	h.mu.Lock()
	delete(h.groups, sessionID)
	h.mu.Unlock()
}

// SendTo queues an event for one connection.
func (h *Hub) SendTo(connID string, evt coordinator.Event) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.enqueue(marshal(evt))
}

// Broadcast queues an event for every member of a session group.
func (h *Hub) Broadcast(sessionID string, evt coordinator.Event) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[sessionID]))
	for _, c := range h.groups[sessionID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	msg := marshal(evt)
	for _, c := range members {
		c.enqueue(msg)
	}
}

// GroupSize reports a session group's membership (used by tests).
func (h *Hub) GroupSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[sessionID])
}

func marshal(evt coordinator.Event) []byte {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("event", evt.Name).Msg("marshal event")
		return []byte(`{"event":"error","data":{"message":"internal error"}}`)
	}
	return b
}
