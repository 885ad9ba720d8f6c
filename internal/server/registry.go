package server

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kossichris/jeu-fa-api/internal/fadu"
	"github.com/kossichris/jeu-fa-api/internal/game"
)

// SessionRegistry owns every live session. The outer RWMutex guards the
// lookup maps; each session carries its own mutex, so all mutations of one
// session are serialized while different sessions proceed in parallel.
// Locks are never held across socket writes: Mutate returns the snapshot and
// events and the caller broadcasts after the locks are gone.
type SessionRegistry struct {
	mu        sync.RWMutex
	entries   map[string]*sessionEntry
	roomCodes map[string]string // room code -> session id
	usedCodes map[string]bool

	rules   game.Rules
	newDeck func() *fadu.Deck
}

type sessionEntry struct {
	mu sync.Mutex
	s  *game.Session
}

func NewSessionRegistry(rules game.Rules) *SessionRegistry {
	return &SessionRegistry{
		entries:   make(map[string]*sessionEntry),
		roomCodes: make(map[string]string),
		usedCodes: make(map[string]bool),
		rules:     rules,
		newDeck: func() *fadu.Deck {
			return fadu.NewDeck(rand.New(rand.NewSource(time.Now().UnixNano())))
		},
	}
}

// CreateClassic seats both players and starts the session immediately.
func (r *SessionRegistry) CreateClassic(p1, p2 game.Player) (*game.Snapshot, []game.Event, error) {
	s := game.NewSession(uuid.New().String(), game.ModeClassic, "", p1, r.newDeck(), r.rules)
	if err := s.Join(p2); err != nil {
		return nil, nil, err
	}
	events, err := s.Start()
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	r.entries[s.ID] = &sessionEntry{s: s}
	r.mu.Unlock()

	return s.Snapshot(), events, nil
}

// CreateWithRoomCode opens a session with one seat filled and a join code.
func (r *SessionRegistry) CreateWithRoomCode(p1 game.Player) (*game.Snapshot, error) {
	r.mu.Lock()
	code := GenerateRoomCode(r.usedCodes)
	r.usedCodes[code] = true
	s := game.NewSession(uuid.New().String(), game.ModeRoomCode, code, p1, r.newDeck(), r.rules)
	r.entries[s.ID] = &sessionEntry{s: s}
	r.roomCodes[code] = s.ID
	r.mu.Unlock()

	return s.Snapshot(), nil
}

// JoinByRoomCode seats the second player and starts the session.
func (r *SessionRegistry) JoinByRoomCode(code string, p2 game.Player) (*game.Snapshot, []game.Event, error) {
	code = NormalizeRoomCode(code)
	if err := ValidateRoomCode(code); err != nil {
		return nil, nil, &game.Error{Code: game.CodeNotFound, Message: err.Error()}
	}

	r.mu.RLock()
	id, ok := r.roomCodes[code]
	var e *sessionEntry
	if ok {
		e = r.entries[id]
	}
	r.mu.RUnlock()
	if e == nil {
		return nil, nil, &game.Error{Code: game.CodeNotFound, Message: fmt.Sprintf("no open game for room code %s", code)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.s.Join(p2); err != nil {
		return nil, nil, err
	}
	events, err := e.s.Start()
	if err != nil {
		return nil, nil, err
	}
	return e.s.Snapshot(), events, nil
}

// Restore re-registers a session rebuilt from persistence.
func (r *SessionRegistry) Restore(snap *game.Snapshot) {
	s := game.Restore(snap, r.newDeck(), r.rules)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.ID] = &sessionEntry{s: s}
	if s.RoomCode != "" {
		r.roomCodes[s.RoomCode] = s.ID
		r.usedCodes[s.RoomCode] = true
	}
}

func (r *SessionRegistry) entry(id string) (*sessionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &game.Error{Code: game.CodeNotFound, Message: fmt.Sprintf("game %s not found", id)}
	}
	return e, nil
}

// Mutate runs fn with exclusive access to the session and snapshots the
// result while still holding its lock. fn must not block on I/O.
func (r *SessionRegistry) Mutate(id string, fn func(*game.Session) ([]game.Event, error)) (*game.Snapshot, []game.Event, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	events, err := fn(e.s)
	if err != nil {
		return nil, nil, err
	}
	return e.s.Snapshot(), events, nil
}

// Snapshot reads a consistent copy of one session.
func (r *SessionRegistry) Snapshot(id string) (*game.Snapshot, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Snapshot(), nil
}

// HasPlayer reports whether the player is seated in the session.
func (r *SessionRegistry) HasPlayer(id string, playerID int) bool {
	e, err := r.entry(id)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.HasPlayer(playerID)
}

// ActiveSnapshots copies every registered session, for periodic persistence.
func (r *SessionRegistry) ActiveSnapshots() []*game.Snapshot {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	snaps := make([]*game.Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		snaps = append(snaps, e.s.Snapshot())
		e.mu.Unlock()
	}
	return snaps
}

// Remove drops a session and frees its room code.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return
	}
	delete(r.entries, id)
	if code := e.s.RoomCode; code != "" {
		delete(r.roomCodes, code)
		delete(r.usedCodes, code)
	}
}
