package server

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
)

type Scope string

const (
	ScopePlayer      Scope = "player"
	ScopeGame        Scope = "game"
	ScopeMatchmaking Scope = "matchmaking"
)

// socket is the slice of *websocket.Conn the hub uses, so tests can register
// fakes.
type socket interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Conn is one registered websocket within a scope. Key is the player ID for
// the player and matchmaking scopes and the game ID for the game scope.
type Conn struct {
	ID       string
	Scope    Scope
	Key      string
	PlayerID int
	sock     socket
}

type scopeKey struct {
	scope Scope
	key   string
}

// ConnectionHub indexes live websockets by scope. The mutex guards the maps
// only; all socket writes happen after it is released, so a slow client can
// never stall registration or other broadcasts.
type ConnectionHub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	scopes map[scopeKey]map[string]*Conn
}

func NewConnectionHub() *ConnectionHub {
	return &ConnectionHub{
		conns:  make(map[string]*Conn),
		scopes: make(map[scopeKey]map[string]*Conn),
	}
}

// Register adds a connection under its scope and key. Duplicate registration
// of a connection ID replaces the prior entry.
func (h *ConnectionHub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID] = c
	sk := scopeKey{c.Scope, c.Key}
	if h.scopes[sk] == nil {
		h.scopes[sk] = make(map[string]*Conn)
	}
	h.scopes[sk][c.ID] = c
}

// Unregister removes a connection. Safe to call for IDs that are already
// gone; disconnect paths and broadcast cleanup can race to it.
func (h *ConnectionHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *ConnectionHub) removeLocked(id string) {
	c, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	sk := scopeKey{c.Scope, c.Key}
	if peers := h.scopes[sk]; peers != nil {
		delete(peers, id)
		if len(peers) == 0 {
			delete(h.scopes, sk)
		}
	}
}

// Count reports how many connections are registered for a scope and key.
func (h *ConnectionHub) Count(scope Scope, key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scopeKey{scope, key}])
}

// Broadcast sends one envelope to every connection in the scope. The
// recipient set is snapshotted under the read lock and written to afterwards;
// connections whose writes fail are unregistered.
func (h *ConnectionHub) Broadcast(scope Scope, key, msgType string, data any) {
	payload, err := json.Marshal(NewServerMessage(msgType, data))
	if err != nil {
		log.Printf("Failed to marshal %s broadcast: %v", msgType, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.scopes[scopeKey{scope, key}]))
	for _, c := range h.scopes[scopeKey{scope, key}] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dead []string
	for _, c := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.sock.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			log.Printf("Dropping connection %s (%s/%s): %v", c.ID, c.Scope, c.Key, err)
			dead = append(dead, c.ID)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, id := range dead {
			h.removeLocked(id)
		}
		h.mu.Unlock()
	}
}

// SendToPlayer delivers to a player's personal sockets.
func (h *ConnectionHub) SendToPlayer(playerID int, msgType string, data any) {
	h.Broadcast(ScopePlayer, strconv.Itoa(playerID), msgType, data)
}

// HubStats summarizes live connections per scope, for the debug endpoint.
type HubStats struct {
	Total       int `json:"total"`
	Player      int `json:"player_sockets"`
	Game        int `json:"game_sockets"`
	Matchmaking int `json:"matchmaking_sockets"`
}

func (h *ConnectionHub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{Total: len(h.conns)}
	for _, c := range h.conns {
		switch c.Scope {
		case ScopePlayer:
			stats.Player++
		case ScopeGame:
			stats.Game++
		case ScopeMatchmaking:
			stats.Matchmaking++
		}
	}
	return stats
}

// Close unregisters one connection and closes its socket.
func (h *ConnectionHub) Close(id string, reason string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	if ok {
		h.removeLocked(id)
	}
	h.mu.Unlock()

	if ok {
		c.sock.Close(websocket.StatusNormalClosure, reason)
	}
}

// CloseAll shuts every socket down, for server shutdown.
func (h *ConnectionHub) CloseAll(reason string) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]*Conn)
	h.scopes = make(map[scopeKey]map[string]*Conn)
	h.mu.Unlock()

	for _, c := range conns {
		c.sock.Close(websocket.StatusGoingAway, reason)
	}
}
