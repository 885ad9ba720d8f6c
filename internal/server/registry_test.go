package server

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kossichris/jeu-fa-api/internal/fadu"
	"github.com/kossichris/jeu-fa-api/internal/game"
)

// newTestRegistry seeds every session's deck deterministically.
func newTestRegistry() *SessionRegistry {
	r := NewSessionRegistry(game.DefaultRules())
	r.newDeck = func() *fadu.Deck {
		return fadu.NewDeck(rand.New(rand.NewSource(42)))
	}
	return r
}

func TestCreateClassicStartsImmediately(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	snap, events, err := r.CreateClassic(
		game.Player{ID: 1, Name: "Ayo"},
		game.Player{ID: 2, Name: "Kofi"},
	)
	assert.NoError(err)
	assert.NotEmpty(snap.ID)
	assert.Equal(game.PhaseAwaitingDraw, snap.Phase)
	assert.Equal(game.StatusActive, snap.Status)
	assert.Equal(1, snap.Turn)
	assert.Equal(1, snap.ActingPlayer)
	assert.NotEmpty(events)

	got, err := r.Snapshot(snap.ID)
	assert.NoError(err)
	assert.Equal(snap.ID, got.ID)
}

func TestMutateUnknownGame(t *testing.T) {
	r := newTestRegistry()

	_, _, err := r.Mutate("no-such-game", func(s *game.Session) ([]game.Event, error) {
		t.Fatal("Mutation must not run for unknown games")
		return nil, nil
	})
	assert.Error(t, err)
	assert.Equal(t, game.CodeNotFound, game.ErrorCode(err))
}

func TestMutateAppliesAndSnapshots(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	snap, _, err := r.CreateClassic(
		game.Player{ID: 1, Name: "Ayo"},
		game.Player{ID: 2, Name: "Kofi"},
	)
	assert.NoError(err)

	after, events, err := r.Mutate(snap.ID, func(s *game.Session) ([]game.Event, error) {
		return s.DrawStandard(1, 0)
	})
	assert.NoError(err)
	assert.NotEmpty(events)
	assert.Equal(game.PhaseAwaitingStrategy, after.Phase)
	assert.Greater(after.Version, snap.Version)
	assert.NotNil(after.Players[0].Card)
}

func TestRoomCodeCreateAndJoin(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	snap, err := r.CreateWithRoomCode(game.Player{ID: 1, Name: "Ayo"})
	assert.NoError(err)
	assert.Len(snap.RoomCode, 4)
	assert.Equal(game.PhaseCreated, snap.Phase)
	assert.Equal(game.ModeRoomCode, snap.Mode)

	// Lowercase input normalizes before lookup.
	joined, events, err := r.JoinByRoomCode(
		strings.ToLower(snap.RoomCode),
		game.Player{ID: 2, Name: "Kofi"},
	)
	assert.NoError(err)
	assert.Equal(snap.ID, joined.ID)
	assert.Equal(game.PhaseAwaitingDraw, joined.Phase)
	assert.NotEmpty(events)

	// The seat is taken now.
	_, _, err = r.JoinByRoomCode(snap.RoomCode, game.Player{ID: 3, Name: "Sena"})
	assert.Error(err)
	assert.Equal(game.CodeInvalidPhase, game.ErrorCode(err))
}

func TestJoinByRoomCodeRejectsBadCodes(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	_, _, err := r.JoinByRoomCode("ZZZZ", game.Player{ID: 2, Name: "Kofi"})
	assert.Equal(game.CodeNotFound, game.ErrorCode(err))

	_, _, err = r.JoinByRoomCode("12", game.Player{ID: 2, Name: "Kofi"})
	assert.Equal(game.CodeNotFound, game.ErrorCode(err))
}

func TestRemoveFreesRoomCode(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	snap, err := r.CreateWithRoomCode(game.Player{ID: 1, Name: "Ayo"})
	assert.NoError(err)

	r.Remove(snap.ID)

	_, err = r.Snapshot(snap.ID)
	assert.Equal(game.CodeNotFound, game.ErrorCode(err))
	_, _, err = r.JoinByRoomCode(snap.RoomCode, game.Player{ID: 2, Name: "Kofi"})
	assert.Equal(game.CodeNotFound, game.ErrorCode(err))
}

func TestRestoreReregistersSession(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	snap, _, err := r.CreateClassic(
		game.Player{ID: 1, Name: "Ayo"},
		game.Player{ID: 2, Name: "Kofi"},
	)
	assert.NoError(err)

	fresh := newTestRegistry()
	fresh.Restore(snap)

	got, err := fresh.Snapshot(snap.ID)
	assert.NoError(err)
	assert.Equal(snap.Phase, got.Phase)
	assert.Equal(snap.Version, got.Version)
	assert.Equal(snap.Players[0].PFH, got.Players[0].PFH)
	assert.True(fresh.HasPlayer(snap.ID, 1))
	assert.True(fresh.HasPlayer(snap.ID, 2))
}

func TestActiveSnapshots(t *testing.T) {
	assert := assert.New(t)
	r := newTestRegistry()

	for i := 0; i < 3; i++ {
		_, _, err := r.CreateClassic(
			game.Player{ID: 10 + i, Name: "A"},
			game.Player{ID: 20 + i, Name: "B"},
		)
		assert.NoError(err)
	}
	assert.Len(r.ActiveSnapshots(), 3)
}
