package game

import (
	"fmt"
	"time"

	"github.com/kossichris/jeu-fa-api/internal/fadu"
)

// Player identifies a participant joining a session.
type Player struct {
	ID   int
	Name string
}

// Session is the state machine for one two-player match. It is not safe for
// concurrent use; the registry serializes access through a per-session lock.
//
// Each turn runs two cycles, one per player, in seating order:
//
//	awaiting_draw -> awaiting_strategy -> awaiting_sacrifice_decision
//	  -> [awaiting_sacrifice_draw] -> resolving
//
// When the second cycle reaches resolving, the turn is scored and the session
// either opens the next turn at awaiting_draw or completes.
type Session struct {
	ID       string
	Mode     Mode
	RoomCode string

	Phase   Phase
	Status  Status
	Turn    int
	Winner  *int
	Version int64

	Players [2]*PlayerState
	History []TurnRecord

	CreatedAt time.Time
	UpdatedAt time.Time

	deck   *fadu.Deck
	rules  Rules
	acting int
}

func NewSession(id string, mode Mode, roomCode string, p1 Player, deck *fadu.Deck, rules Rules) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        id,
		Mode:      mode,
		RoomCode:  roomCode,
		Phase:     PhaseCreated,
		Status:    StatusActive,
		Turn:      1,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		deck:      deck,
		rules:     rules,
	}
	s.Players[0] = &PlayerState{ID: p1.ID, Name: p1.Name, PFH: rules.InitialPFH}
	return s
}

// Restore rebuilds a session from a persisted snapshot. The deck's random
// state is not part of the snapshot; a fresh deck is fine because draws are
// with-replacement.
func Restore(snap *Snapshot, deck *fadu.Deck, rules Rules) *Session {
	s := &Session{
		ID:        snap.ID,
		Mode:      snap.Mode,
		RoomCode:  snap.RoomCode,
		Phase:     snap.Phase,
		Status:    snap.Status,
		Turn:      snap.Turn,
		Version:   snap.Version,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
		deck:      deck,
		rules:     rules,
	}
	if snap.Winner != nil {
		w := *snap.Winner
		s.Winner = &w
	}
	for i, ps := range snap.Players {
		if ps.ID == 0 && ps.Name == "" {
			continue
		}
		s.Players[i] = &PlayerState{
			ID:                ps.ID,
			Name:              ps.Name,
			PFH:               ps.PFH,
			ConsecutiveLosses: ps.ConsecutiveLosses,
			TotalSacrifices:   ps.TotalSacrifices,
			Turn: TurnState{
				Card:             copyCard(ps.Card),
				Strategy:         ps.Strategy,
				SacrificeDecided: ps.SacrificeDecided,
				Sacrifice:        ps.Sacrifice,
				SacrificeCard:    copyCard(ps.SacrificeCard),
				SacrificeCost:    ps.SacrificeCost,
				Resolved:         ps.Resolved,
			},
		}
		if ps.ID == snap.ActingPlayer {
			s.acting = i
		}
	}
	s.History = append([]TurnRecord(nil), snap.History...)
	return s
}

// Join seats the second player. Valid only while the session is in the
// created phase with an open seat.
func (s *Session) Join(p2 Player) error {
	if s.Phase != PhaseCreated {
		return newError(CodeInvalidPhase, fmt.Sprintf("cannot join a session in phase %s", s.Phase))
	}
	if s.Players[1] != nil {
		return newError(CodeInvalidPhase, "session already has two players")
	}
	if s.Players[0].ID == p2.ID {
		return newError(CodeInvalidPhase, "player is already seated in this session")
	}
	s.Players[1] = &PlayerState{ID: p2.ID, Name: p2.Name, PFH: s.rules.InitialPFH}
	s.touch()
	return nil
}

// Start opens turn 1 for the first player. Both seats must be filled.
func (s *Session) Start() ([]Event, error) {
	if s.Phase != PhaseCreated {
		return nil, newError(CodeInvalidPhase, fmt.Sprintf("cannot start a session in phase %s", s.Phase))
	}
	if s.Players[1] == nil {
		return nil, newError(CodeInvalidPhase, "session needs a second player before starting")
	}
	s.Phase = PhaseAwaitingDraw
	s.acting = 0
	s.touch()
	return []Event{
		s.stateEvent("game_started"),
		s.turnStartEvent(),
	}, nil
}

// DrawStandard draws the acting player's card for the turn.
func (s *Session) DrawStandard(playerID int, expect int64) ([]Event, error) {
	idx, err := s.check(playerID, PhaseAwaitingDraw, expect)
	if err != nil {
		return nil, err
	}
	card, err := s.deck.Draw(fadu.Standard)
	if err != nil {
		return nil, err
	}
	p := s.Players[idx]
	p.Turn.Card = &card
	s.Phase = PhaseAwaitingStrategy
	s.touch()
	return []Event{
		s.actionEvent(p.ID, "fadu_draw", map[string]any{"card": card}),
		s.stateEvent("card_drawn"),
	}, nil
}

// ChooseStrategy commits the acting player's strategy for the turn.
func (s *Session) ChooseStrategy(playerID int, strategy Strategy, expect int64) ([]Event, error) {
	idx, err := s.check(playerID, PhaseAwaitingStrategy, expect)
	if err != nil {
		return nil, err
	}
	if !ValidStrategy(strategy) {
		return nil, newError(CodeInvalidStrategy, fmt.Sprintf("unknown strategy %q", strategy))
	}
	p := s.Players[idx]
	p.Turn.Strategy = strategy
	s.Phase = PhaseAwaitingSacrificeDecision
	s.touch()
	return []Event{
		s.actionEvent(p.ID, "strategy_chosen", nil),
		s.stateEvent("strategy_chosen"),
	}, nil
}

// DecideSacrifice records whether the acting player sacrifices this turn.
// Declining moves straight to resolving; accepting requires a sacrifice draw.
func (s *Session) DecideSacrifice(playerID int, sacrifice bool, expect int64) ([]Event, error) {
	idx, err := s.check(playerID, PhaseAwaitingSacrificeDecision, expect)
	if err != nil {
		return nil, err
	}
	p := s.Players[idx]
	p.Turn.SacrificeDecided = true
	p.Turn.Sacrifice = sacrifice
	if sacrifice {
		s.Phase = PhaseAwaitingSacrificeDraw
	} else {
		s.Phase = PhaseResolving
	}
	s.touch()
	return []Event{
		s.actionEvent(p.ID, "sacrifice_decision", map[string]any{"sacrifice": sacrifice}),
		s.stateEvent("sacrifice_decided"),
	}, nil
}

// DrawSacrifice draws the sacrifice card and debits its cost immediately.
// The cost is capped at the player's available PFH, so PFH never goes
// negative.
func (s *Session) DrawSacrifice(playerID int, expect int64) ([]Event, error) {
	idx, err := s.check(playerID, PhaseAwaitingSacrificeDraw, expect)
	if err != nil {
		return nil, err
	}
	card, err := s.deck.Draw(fadu.Sacrifice)
	if err != nil {
		return nil, err
	}
	p := s.Players[idx]
	res := fadu.ComputeSacrifice(p.PFH, s.rules.SacrificeCost, card)
	p.PFH = res.Remaining
	p.TotalSacrifices++
	p.Turn.SacrificeCard = &card
	p.Turn.SacrificeCost = res.Cost
	s.Phase = PhaseResolving
	s.touch()
	return []Event{
		s.actionEvent(p.ID, "sacrifice_draw", map[string]any{
			"card": card,
			"cost": res.Cost,
			"pfh":  p.PFH,
		}),
		s.stateEvent("sacrifice_drawn"),
	}, nil
}

// AdvancePhase closes the acting player's cycle. If the other player still
// has to play this turn, the session returns to awaiting_draw for them;
// otherwise the turn resolves.
func (s *Session) AdvancePhase(playerID int, expect int64) ([]Event, error) {
	idx, err := s.check(playerID, PhaseResolving, expect)
	if err != nil {
		return nil, err
	}
	s.Players[idx].Turn.Resolved = true

	if other := 1 - idx; !s.Players[other].Turn.Resolved {
		s.acting = other
		s.Phase = PhaseAwaitingDraw
		s.touch()
		return []Event{
			s.stateEvent("cycle_complete"),
			s.turnStartEvent(),
		}, nil
	}
	return s.resolveTurn(), nil
}

// Abandon terminates the session without a winner. Valid from any
// non-terminal phase; either player may abandon.
func (s *Session) Abandon(playerID int) ([]Event, error) {
	if s.Status != StatusActive {
		return nil, newError(CodeInvalidPhase, fmt.Sprintf("session is already %s", s.Status))
	}
	if s.playerIndex(playerID) < 0 {
		return nil, newError(CodeNotFound, fmt.Sprintf("player %d is not part of this session", playerID))
	}
	s.Status = StatusAbandoned
	s.Phase = PhaseAbandoned
	s.touch()
	return []Event{
		event(EventGameEnd, map[string]any{
			"game_id":      s.ID,
			"reason":       "abandoned",
			"abandoned_by": playerID,
		}),
	}, nil
}

// resolveTurn scores both cycles, applies terminal conditions and either
// opens the next turn or completes the session.
func (s *Session) resolveTurn() []Event {
	p1, p2 := s.Players[0], s.Players[1]
	x := effectiveValue(&p1.Turn)
	y := effectiveValue(&p2.Turn)
	g1, g2 := payoffGains(p1.Turn.Strategy, p2.Turn.Strategy, x, y)

	p1.PFH += g1
	p2.PFH += g2
	updateStreak(p1)
	updateStreak(p2)

	record := TurnRecord{
		Turn:     s.Turn,
		PlayedAt: time.Now().UTC(),
		Players: [2]PlayerTurn{
			playerTurn(p1, g1),
			playerTurn(p2, g2),
		},
	}
	s.History = append(s.History, record)

	events := []Event{
		event(EventTurnResult, map[string]any{
			"game_id": s.ID,
			"result":  record,
		}),
	}

	if winner, done := s.checkTerminal(); done {
		s.Status = StatusCompleted
		s.Phase = PhaseCompleted
		s.Winner = &winner
		s.touch()
		return append(events, event(EventGameEnd, map[string]any{
			"game_id": s.ID,
			"reason":  "completed",
			"winner":  winner,
		}))
	}

	s.Turn++
	p1.Turn.reset()
	p2.Turn.reset()
	s.acting = 0
	s.Phase = PhaseAwaitingDraw
	s.touch()
	return append(events, s.turnStartEvent())
}

// checkTerminal evaluates end-of-game conditions after a resolved turn.
// Order matters: loss streaks beat the winning threshold, which beats the
// turn cap. At the cap a winner is always declared, higher PFH first, then
// fewer sacrifices, then seating order.
func (s *Session) checkTerminal() (winner int, done bool) {
	p1, p2 := s.Players[0], s.Players[1]
	switch {
	case p1.ConsecutiveLosses >= s.rules.MaxConsecutiveLosses:
		return p2.ID, true
	case p2.ConsecutiveLosses >= s.rules.MaxConsecutiveLosses:
		return p1.ID, true
	case p1.PFH >= s.rules.WinningPFH:
		return p1.ID, true
	case p2.PFH >= s.rules.WinningPFH:
		return p2.ID, true
	case s.Turn >= s.rules.MaxTurns:
		switch {
		case p1.PFH != p2.PFH:
			if p1.PFH > p2.PFH {
				return p1.ID, true
			}
			return p2.ID, true
		case p1.TotalSacrifices != p2.TotalSacrifices:
			if p1.TotalSacrifices < p2.TotalSacrifices {
				return p1.ID, true
			}
			return p2.ID, true
		default:
			return p1.ID, true
		}
	}
	return 0, false
}

// check validates version, phase and turn ownership, in that order. An
// expect of zero skips the version check; versions start at one.
func (s *Session) check(playerID int, phase Phase, expect int64) (int, error) {
	if s.Status != StatusActive {
		return 0, newError(CodeInvalidPhase, fmt.Sprintf("session is %s", s.Status))
	}
	if expect != 0 && expect != s.Version {
		return 0, newError(CodeStaleVersion,
			fmt.Sprintf("expected version %d, session is at %d", expect, s.Version))
	}
	if s.Phase != phase {
		return 0, newError(CodeInvalidPhase,
			fmt.Sprintf("operation requires phase %s, session is in %s", phase, s.Phase))
	}
	idx := s.playerIndex(playerID)
	if idx < 0 {
		return 0, newError(CodeNotFound, fmt.Sprintf("player %d is not part of this session", playerID))
	}
	if idx != s.acting {
		return 0, newError(CodeNotYourTurn,
			fmt.Sprintf("it is player %d's cycle", s.Players[s.acting].ID))
	}
	return idx, nil
}

func (s *Session) playerIndex(playerID int) int {
	for i, p := range s.Players {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether the player is seated in this session.
func (s *Session) HasPlayer(playerID int) bool {
	return s.playerIndex(playerID) >= 0
}

// ActingPlayerID returns the ID of the player whose cycle is open.
func (s *Session) ActingPlayerID() int {
	if s.Players[s.acting] == nil {
		return 0
	}
	return s.Players[s.acting].ID
}

func (s *Session) touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a deep copy of the visible session state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:           s.ID,
		Mode:         s.Mode,
		RoomCode:     s.RoomCode,
		Phase:        s.Phase,
		Status:       s.Status,
		Turn:         s.Turn,
		MaxTurns:     s.rules.MaxTurns,
		ActingPlayer: s.ActingPlayerID(),
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Winner != nil {
		w := *s.Winner
		snap.Winner = &w
	}
	for i, p := range s.Players {
		if p == nil {
			continue
		}
		snap.Players[i] = PlayerSnapshot{
			ID:                p.ID,
			Name:              p.Name,
			PFH:               p.PFH,
			ConsecutiveLosses: p.ConsecutiveLosses,
			TotalSacrifices:   p.TotalSacrifices,
			Card:              copyCard(p.Turn.Card),
			Strategy:          p.Turn.Strategy,
			SacrificeDecided:  p.Turn.SacrificeDecided,
			Sacrifice:         p.Turn.Sacrifice,
			SacrificeCard:     copyCard(p.Turn.SacrificeCard),
			SacrificeCost:     p.Turn.SacrificeCost,
			Resolved:          p.Turn.Resolved,
		}
	}
	snap.History = append([]TurnRecord(nil), s.History...)
	return snap
}

func (s *Session) stateEvent(reason string) Event {
	return event(EventGameStateUpdate, map[string]any{
		"game_id": s.ID,
		"reason":  reason,
		"state":   s.Snapshot(),
	})
}

func (s *Session) turnStartEvent() Event {
	return event(EventTurnStart, map[string]any{
		"game_id":     s.ID,
		"turn_number": s.Turn,
		"player_id":   s.ActingPlayerID(),
	})
}

func (s *Session) actionEvent(playerID int, action string, extra map[string]any) Event {
	data := map[string]any{
		"game_id":   s.ID,
		"player_id": playerID,
		"action":    action,
	}
	for k, v := range extra {
		data[k] = v
	}
	return event(EventPlayerAction, data)
}

// effectiveValue is the card value a cycle contributes to the payoff. A
// sacrifice replaces the standard card's value with the sacrifice card's.
func effectiveValue(t *TurnState) int {
	if t.Sacrifice && t.SacrificeCard != nil {
		return t.SacrificeCard.PFH
	}
	if t.Card != nil {
		return t.Card.PFH
	}
	return 0
}

func updateStreak(p *PlayerState) {
	if p.PFH == 0 {
		p.ConsecutiveLosses++
	} else {
		p.ConsecutiveLosses = 0
	}
}

func playerTurn(p *PlayerState, gains int) PlayerTurn {
	return PlayerTurn{
		PlayerID:      p.ID,
		Card:          copyCard(p.Turn.Card),
		Strategy:      p.Turn.Strategy,
		Sacrifice:     p.Turn.Sacrifice,
		SacrificeCard: copyCard(p.Turn.SacrificeCard),
		SacrificeCost: p.Turn.SacrificeCost,
		Gains:         gains,
		FinalPFH:      p.PFH,
	}
}

func copyCard(c *fadu.Card) *fadu.Card {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
