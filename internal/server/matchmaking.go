package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/kossichris/jeu-fa-api/internal/game"
)

// Matchmaking status values reported to clients.
const (
	QueueWaiting    = "waiting_for_opponent"
	QueueMatchFound = "match_found"
	QueueNotIn      = "not_in_queue"
	QueueRemoved    = "removed_from_queue"
)

type queueEntry struct {
	PlayerID int       `json:"player_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// MatchResult describes a formed pair. Seats follow queue order: the player
// who waited longest takes seat one.
type MatchResult struct {
	Snapshot *game.Snapshot
	Events   []game.Event
	Player1  queueEntry
	Player2  queueEntry
}

type matchNotice struct {
	gameID   string
	opponent string
}

// MatchmakingQueue pairs players first-in first-out. Session creation happens
// under the queue lock so a pop and its session are atomic: no player can be
// matched twice. Notices stay behind for players polling over REST.
type MatchmakingQueue struct {
	mu       sync.Mutex
	waiting  []queueEntry
	queued   map[int]bool
	pending  map[int]matchNotice
	registry *SessionRegistry
}

func NewMatchmakingQueue(registry *SessionRegistry) *MatchmakingQueue {
	return &MatchmakingQueue{
		queued:   make(map[int]bool),
		pending:  make(map[int]matchNotice),
		registry: registry,
	}
}

// Join enqueues the player, or forms a match when an opponent is waiting.
// Exactly one of the returns is set on success.
func (q *MatchmakingQueue) Join(playerID int, name string) (*QueueStatusMessage, *MatchResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queued[playerID] {
		return nil, nil, &game.Error{Code: game.CodeAlreadyQueued,
			Message: fmt.Sprintf("player %d is already in the queue", playerID)}
	}

	if len(q.waiting) > 0 {
		head := q.waiting[0]
		q.waiting = q.waiting[1:]
		delete(q.queued, head.PlayerID)

		joiner := queueEntry{PlayerID: playerID, Name: name, JoinedAt: time.Now().UTC()}
		snap, events, err := q.registry.CreateClassic(
			game.Player{ID: head.PlayerID, Name: head.Name},
			game.Player{ID: playerID, Name: name},
		)
		if err != nil {
			// Put the opponent back at the front rather than losing them.
			q.waiting = append([]queueEntry{head}, q.waiting...)
			q.queued[head.PlayerID] = true
			return nil, nil, err
		}

		q.pending[head.PlayerID] = matchNotice{gameID: snap.ID, opponent: name}
		q.pending[playerID] = matchNotice{gameID: snap.ID, opponent: head.Name}

		return nil, &MatchResult{Snapshot: snap, Events: events, Player1: head, Player2: joiner}, nil
	}

	q.waiting = append(q.waiting, queueEntry{PlayerID: playerID, Name: name, JoinedAt: time.Now().UTC()})
	q.queued[playerID] = true
	return &QueueStatusMessage{Status: QueueWaiting, Position: len(q.waiting)}, nil, nil
}

// Leave removes a waiting player. A matched player who never read their
// notice leaves too: the notice is discarded so Status cannot serve it later.
func (q *MatchmakingQueue) Leave(playerID int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, matched := q.pending[playerID]
	delete(q.pending, playerID)

	if !q.queued[playerID] {
		if matched {
			return nil
		}
		return &game.Error{Code: game.CodeNotInQueue,
			Message: fmt.Sprintf("player %d is not in the queue", playerID)}
	}
	for i, e := range q.waiting {
		if e.PlayerID == playerID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	delete(q.queued, playerID)
	return nil
}

// Status reports where the player stands. A pending match notice is consumed
// on read; afterwards the player polls the game itself.
func (q *MatchmakingQueue) Status(playerID int) QueueStatusMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	if notice, ok := q.pending[playerID]; ok {
		delete(q.pending, playerID)
		return QueueStatusMessage{Status: QueueMatchFound, GameID: notice.gameID, Opponent: notice.opponent}
	}
	for i, e := range q.waiting {
		if e.PlayerID == playerID {
			return QueueStatusMessage{Status: QueueWaiting, Position: i + 1}
		}
	}
	return QueueStatusMessage{Status: QueueNotIn}
}

// QueueInfo is the public view of the queue, for monitoring.
type QueueInfo struct {
	Size           int          `json:"size"`
	Players        []queueEntry `json:"players"`
	PendingMatches int          `json:"pending_matches"`
}

func (q *MatchmakingQueue) Info() QueueInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueInfo{
		Size:           len(q.waiting),
		Players:        append([]queueEntry(nil), q.waiting...),
		PendingMatches: len(q.pending),
	}
}
