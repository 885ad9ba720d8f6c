package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter applies per-connection sliding-window rate limiting.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	requests    map[string][]time.Time // connectionID -> timestamps of recent requests
	mu          sync.Mutex
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow records one request for the connection and reports whether it is
// within the window's budget.
func (r *RateLimiter) Allow(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	timestamps := r.requests[connectionID]
	validTimestamps := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= r.maxRequests {
		r.requests[connectionID] = validTimestamps
		return false
	}

	validTimestamps = append(validTimestamps, now)
	r.requests[connectionID] = validTimestamps
	return true
}

// Cleanup drops connections with no activity inside the window. Called
// periodically; disconnects also remove their own entries.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.window)
	for connID, timestamps := range r.requests {
		allOld := true
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				allOld = false
				break
			}
		}
		if allOld {
			delete(r.requests, connID)
		}
	}
}

// RemoveConnection clears rate limit state when a websocket disconnects.
func (r *RateLimiter) RemoveConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, connectionID)
}

// ConnectionHealth tracks the last inbound message per connection so the
// cleanup task can close sockets that went quiet without a close frame.
type ConnectionHealth struct {
	lastActivity map[string]time.Time
	mu           sync.RWMutex
}

func NewConnectionHealth() *ConnectionHealth {
	return &ConnectionHealth{
		lastActivity: make(map[string]time.Time),
	}
}

// UpdateActivity records an inbound message.
func (h *ConnectionHealth) UpdateActivity(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastActivity[connectionID] = time.Now()
}

// InactiveConnections returns connections quiet for longer than timeout.
func (h *ConnectionHealth) InactiveConnections(timeout time.Duration) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	inactive := make([]string, 0)
	now := time.Now()
	for connID, last := range h.lastActivity {
		if now.Sub(last) > timeout {
			inactive = append(inactive, connID)
		}
	}
	return inactive
}

// RemoveConnection clears tracking when a websocket disconnects.
func (h *ConnectionHealth) RemoveConnection(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lastActivity, connectionID)
}

// messageTypesByScope lists which client message types each socket scope
// accepts.
var messageTypesByScope = map[Scope]map[string]bool{
	ScopePlayer: {
		MsgPing:         true,
		MsgPlayerAction: true,
	},
	ScopeGame: {
		MsgPing:       true,
		MsgGetState:   true,
		MsgTurnAction: true,
		MsgAbandon:    true,
	},
	ScopeMatchmaking: {
		MsgPing:        true,
		MsgJoinQueue:   true,
		MsgLeaveQueue:  true,
		MsgQueueStatus: true,
	},
}

// ValidateMessageType rejects types a scope does not accept.
func ValidateMessageType(scope Scope, msgType string) error {
	if !messageTypesByScope[scope][msgType] {
		return fmt.Errorf("INVALID_MESSAGE_TYPE: Unknown message type '%s' for %s socket", msgType, scope)
	}
	return nil
}

// ValidatePlayerName checks display name requirements.
func ValidatePlayerName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("NAME_INVALID: Name cannot be empty")
	}
	if len(name) > 20 {
		return fmt.Errorf("NAME_INVALID: Name too long (max 20 characters)")
	}
	return nil
}
