package game

import (
	"time"

	"github.com/kossichris/jeu-fa-api/internal/fadu"
)

type Phase string

const (
	PhaseCreated                   Phase = "created"
	PhaseAwaitingDraw              Phase = "awaiting_draw"
	PhaseAwaitingStrategy          Phase = "awaiting_strategy"
	PhaseAwaitingSacrificeDecision Phase = "awaiting_sacrifice_decision"
	PhaseAwaitingSacrificeDraw     Phase = "awaiting_sacrifice_draw"
	PhaseResolving                 Phase = "resolving"
	PhaseCompleted                 Phase = "completed"
	PhaseAbandoned                 Phase = "abandoned"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeRoomCode Mode = "room_code"
)

type Strategy string

const (
	StrategyAggressive Strategy = "aggressive"
	StrategyDefensive  Strategy = "defensive"
	StrategyBalanced   Strategy = "balanced"
)

// ValidStrategy reports whether s is one of the three playable strategies.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyAggressive, StrategyDefensive, StrategyBalanced:
		return true
	}
	return false
}

// Rules holds the tunable match parameters. Zero values are not usable;
// construct with DefaultRules or from config.
type Rules struct {
	InitialPFH           int
	SacrificeCost        int
	MaxTurns             int
	WinningPFH           int
	MaxConsecutiveLosses int
}

func DefaultRules() Rules {
	return Rules{
		InitialPFH:           100,
		SacrificeCost:        14,
		MaxTurns:             20,
		WinningPFH:           280,
		MaxConsecutiveLosses: 3,
	}
}

// TurnState tracks one player's progress through the current turn cycle.
type TurnState struct {
	Card             *fadu.Card
	Strategy         Strategy
	SacrificeDecided bool
	Sacrifice        bool
	SacrificeCard    *fadu.Card
	SacrificeCost    int
	Resolved         bool
}

func (t *TurnState) reset() {
	*t = TurnState{}
}

type PlayerState struct {
	ID                int
	Name              string
	PFH               int
	ConsecutiveLosses int
	TotalSacrifices   int
	Turn              TurnState
}

// PlayerTurn is the immutable record of one player's completed cycle within a
// resolved turn.
type PlayerTurn struct {
	PlayerID      int        `json:"player_id"`
	Card          *fadu.Card `json:"card"`
	Strategy      Strategy   `json:"strategy"`
	Sacrifice     bool       `json:"sacrifice"`
	SacrificeCard *fadu.Card `json:"sacrifice_card,omitempty"`
	SacrificeCost int        `json:"sacrifice_cost"`
	Gains         int        `json:"gains"`
	FinalPFH      int        `json:"final_pfh"`
}

type TurnRecord struct {
	Turn     int           `json:"turn"`
	Players  [2]PlayerTurn `json:"players"`
	PlayedAt time.Time     `json:"played_at"`
}

// PlayerSnapshot is the externally visible view of a player.
type PlayerSnapshot struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	PFH               int        `json:"pfh"`
	ConsecutiveLosses int        `json:"consecutive_losses"`
	TotalSacrifices   int        `json:"total_sacrifices"`
	Card              *fadu.Card `json:"card,omitempty"`
	Strategy          Strategy   `json:"strategy,omitempty"`
	SacrificeDecided  bool       `json:"sacrifice_decided"`
	Sacrifice         bool       `json:"sacrifice"`
	SacrificeCard     *fadu.Card `json:"sacrifice_card,omitempty"`
	SacrificeCost     int        `json:"sacrifice_cost"`
	Resolved          bool       `json:"resolved"`
}

// Snapshot is a self-contained copy of session state, safe to read after the
// session lock is released.
type Snapshot struct {
	ID           string            `json:"id"`
	Mode         Mode              `json:"mode"`
	RoomCode     string            `json:"room_code,omitempty"`
	Phase        Phase             `json:"phase"`
	Status       Status            `json:"status"`
	Turn         int               `json:"turn"`
	MaxTurns     int               `json:"max_turns"`
	ActingPlayer int               `json:"acting_player"`
	Winner       *int              `json:"winner,omitempty"`
	Version      int64             `json:"version"`
	Players      [2]PlayerSnapshot `json:"players"`
	History      []TurnRecord      `json:"history,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
