package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
)

// fakeSocket records everything written to it so tests can assert on
// delivery without a network.
type fakeSocket struct {
	mu        sync.Mutex
	messages  [][]byte
	failWrite bool
	closed    bool
}

func (f *fakeSocket) Write(ctx context.Context, typ websocket.MessageType, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("write failed")
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	f.messages = append(f.messages, buf)
	return nil
}

func (f *fakeSocket) Close(code websocket.StatusCode, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) received(t *testing.T) []ServerMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]ServerMessage, 0, len(f.messages))
	for _, raw := range f.messages {
		var msg ServerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Received unparseable message %q: %v", raw, err)
		}
		out = append(out, msg)
	}
	return out
}

func registerFake(h *ConnectionHub, id string, scope Scope, key string, playerID int) *fakeSocket {
	sock := &fakeSocket{}
	h.Register(&Conn{ID: id, Scope: scope, Key: key, PlayerID: playerID, sock: sock})
	return sock
}

func TestBroadcastStaysInScope(t *testing.T) {
	hub := NewConnectionHub()

	gameA1 := registerFake(hub, "a1", ScopeGame, "game-a", 1)
	gameA2 := registerFake(hub, "a2", ScopeGame, "game-a", 2)
	gameB := registerFake(hub, "b1", ScopeGame, "game-b", 3)
	personal := registerFake(hub, "p1", ScopePlayer, "1", 1)

	hub.Broadcast(ScopeGame, "game-a", MsgGameStateUpdate, map[string]any{"game_id": "game-a"})

	assert.Len(t, gameA1.received(t), 1)
	assert.Len(t, gameA2.received(t), 1)
	assert.Empty(t, gameB.received(t), "Other game must not see the broadcast")
	assert.Empty(t, personal.received(t), "Player scope must not see a game broadcast")

	msg := gameA1.received(t)[0]
	assert.Equal(t, MsgGameStateUpdate, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestBroadcastDropsDeadConnections(t *testing.T) {
	hub := NewConnectionHub()

	alive := registerFake(hub, "alive", ScopeGame, "g", 1)
	dead := &fakeSocket{failWrite: true}
	hub.Register(&Conn{ID: "dead", Scope: ScopeGame, Key: "g", PlayerID: 2, sock: dead})

	assert.Equal(t, 2, hub.Count(ScopeGame, "g"))

	hub.Broadcast(ScopeGame, "g", MsgTurnStart, nil)

	assert.Equal(t, 1, hub.Count(ScopeGame, "g"), "Failed write should unregister the connection")
	assert.Len(t, alive.received(t), 1)

	// The dead connection stays gone on the next broadcast.
	hub.Broadcast(ScopeGame, "g", MsgTurnStart, nil)
	assert.Len(t, alive.received(t), 2)
}

func TestSendToPlayer(t *testing.T) {
	hub := NewConnectionHub()

	mine := registerFake(hub, "c1", ScopePlayer, "7", 7)
	other := registerFake(hub, "c2", ScopePlayer, "8", 8)

	hub.SendToPlayer(7, MsgMatchFound, MatchFoundMessage{GameID: "g1", Opponent: "Kofi", Position: 1})

	assert.Len(t, mine.received(t), 1)
	assert.Empty(t, other.received(t))
	assert.Equal(t, MsgMatchFound, mine.received(t)[0].Type)
}

func TestRegisterReplacesDuplicateID(t *testing.T) {
	hub := NewConnectionHub()

	registerFake(hub, "c1", ScopeGame, "g", 1)
	registerFake(hub, "c1", ScopeGame, "g", 1)

	assert.Equal(t, 1, hub.Count(ScopeGame, "g"))
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	hub := NewConnectionHub()
	hub.Unregister("never-registered")
	assert.Equal(t, 0, hub.Count(ScopeGame, "g"))
}

func TestCloseAll(t *testing.T) {
	hub := NewConnectionHub()

	s1 := registerFake(hub, "c1", ScopeGame, "g", 1)
	s2 := registerFake(hub, "c2", ScopeMatchmaking, "4", 4)

	hub.CloseAll("shutting down")

	assert.True(t, s1.closed)
	assert.True(t, s2.closed)
	assert.Equal(t, 0, hub.Count(ScopeGame, "g"))
	assert.Equal(t, 0, hub.Count(ScopeMatchmaking, "4"))
}

func TestHubStats(t *testing.T) {
	hub := NewConnectionHub()

	registerFake(hub, "c1", ScopeGame, "g", 1)
	registerFake(hub, "c2", ScopeGame, "g", 2)
	registerFake(hub, "c3", ScopePlayer, "1", 1)
	registerFake(hub, "c4", ScopeMatchmaking, "5", 5)

	stats := hub.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Game)
	assert.Equal(t, 1, stats.Player)
	assert.Equal(t, 1, stats.Matchmaking)
}

func TestCloseSingleConnection(t *testing.T) {
	hub := NewConnectionHub()

	s1 := registerFake(hub, "c1", ScopeGame, "g", 1)
	s2 := registerFake(hub, "c2", ScopeGame, "g", 2)

	hub.Close("c1", "inactive")

	assert.True(t, s1.closed)
	assert.False(t, s2.closed)
	assert.Equal(t, 1, hub.Count(ScopeGame, "g"))
}
