package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/kossichris/jeu-fa-api/internal/game"
)

type CreatePlayerRequest struct {
	Name string `json:"name"`
}

type PlayerResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CreateGameRequest struct {
	Mode      string `json:"mode,omitempty"` // classic (default) or room_code
	Player1ID int    `json:"player1_id"`
	Player2ID int    `json:"player2_id,omitempty"`
}

type JoinGameRequest struct {
	RoomCode string `json:"room_code"`
	PlayerID int    `json:"player_id"`
}

type GameActionRequest struct {
	PlayerID int   `json:"player_id"`
	Version  int64 `json:"version,omitempty"`
}

type StrategyRequest struct {
	PlayerID int    `json:"player_id"`
	Strategy string `json:"strategy"`
	Version  int64  `json:"version,omitempty"`
}

type SacrificeDecisionRequest struct {
	PlayerID  int   `json:"player_id"`
	Sacrifice bool  `json:"sacrifice"`
	Version   int64 `json:"version,omitempty"`
}

type MatchmakingRequest struct {
	PlayerID int `json:"player_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// httpStatusForCode maps the engine's error taxonomy onto HTTP statuses.
func httpStatusForCode(code string) int {
	switch code {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeInvalidPhase, game.CodeNotYourTurn, game.CodeStaleVersion, game.CodeAlreadyQueued:
		return http.StatusConflict
	case game.CodeNotInQueue:
		return http.StatusNotFound
	case game.CodeInvalidStrategy:
		return http.StatusBadRequest
	case game.CodeConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := game.ErrorCode(err)
	writeJSON(w, httpStatusForCode(code), ErrorMessage{
		Message: err.Error(),
		Code:    code,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
		return
	}
	writeJSON(w, http.StatusOK, s.db.Health())
}

func (s *Server) createPlayerHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := ValidatePlayerName(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.persistence == nil {
		http.Error(w, "Player registry unavailable", http.StatusServiceUnavailable)
		return
	}

	id, err := s.persistence.CreatePlayer(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, PlayerResponse{ID: id, Name: req.Name})
}

func (s *Server) getPlayerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	if s.persistence == nil {
		http.Error(w, "Player registry unavailable", http.StatusServiceUnavailable)
		return
	}

	name, err := s.persistence.GetPlayerName(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlayerResponse{ID: id, Name: name})
}

func (s *Server) probabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Probabilities())
}

func (s *Server) cardDetailsHandler(w http.ResponseWriter, r *http.Request) {
	card, err := s.catalog.CardByID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) createGameHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Player1ID == 0 {
		http.Error(w, "player1_id is required", http.StatusBadRequest)
		return
	}
	p1 := game.Player{ID: req.Player1ID, Name: s.playerName(req.Player1ID)}

	switch req.Mode {
	case "", string(game.ModeClassic):
		if req.Player2ID == 0 {
			http.Error(w, "player2_id is required for a classic game", http.StatusBadRequest)
			return
		}
		p2 := game.Player{ID: req.Player2ID, Name: s.playerName(req.Player2ID)}
		snap, events, err := s.registry.CreateClassic(p1, p2)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.dispatchGameEvents(snap.ID, events)
		s.persistMutation(snap, events)
		writeJSON(w, http.StatusCreated, snap)

	case string(game.ModeRoomCode):
		snap, err := s.registry.CreateWithRoomCode(p1)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.persistMutation(snap, nil)
		writeJSON(w, http.StatusCreated, snap)

	default:
		http.Error(w, "Unknown game mode", http.StatusBadRequest)
	}
}

func (s *Server) joinGameHandler(w http.ResponseWriter, r *http.Request) {
	var req JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p2 := game.Player{ID: req.PlayerID, Name: s.playerName(req.PlayerID)}
	snap, events, err := s.registry.JoinByRoomCode(req.RoomCode, p2)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.dispatchGameEvents(snap.ID, events)
	s.persistMutation(snap, events)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) gameStatusHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) gameTurnsHandler(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	if s.persistence != nil {
		records, err := s.persistence.LoadTurnRecords(gameID)
		if err == nil && len(records) > 0 {
			writeJSON(w, http.StatusOK, records)
			return
		}
	}

	// Fall back to the in-memory history for unsaved games.
	snap, err := s.registry.Snapshot(gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.History)
}

// mutateAndRespond runs one session mutation and handles the shared tail:
// broadcast, persist, respond with the post-transition snapshot.
func (s *Server) mutateAndRespond(w http.ResponseWriter, gameID string, fn func(*game.Session) ([]game.Event, error)) {
	snap, events, err := s.registry.Mutate(gameID, fn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.dispatchGameEvents(gameID, events)
	s.persistMutation(snap, events)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) drawCardHandler(w http.ResponseWriter, r *http.Request) {
	var req GameActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.DrawStandard(req.PlayerID, req.Version)
	})
}

func (s *Server) chooseStrategyHandler(w http.ResponseWriter, r *http.Request) {
	var req StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.ChooseStrategy(req.PlayerID, game.Strategy(req.Strategy), req.Version)
	})
}

func (s *Server) decideSacrificeHandler(w http.ResponseWriter, r *http.Request) {
	var req SacrificeDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.DecideSacrifice(req.PlayerID, req.Sacrifice, req.Version)
	})
}

func (s *Server) drawSacrificeHandler(w http.ResponseWriter, r *http.Request) {
	var req GameActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.DrawSacrifice(req.PlayerID, req.Version)
	})
}

func (s *Server) nextPhaseHandler(w http.ResponseWriter, r *http.Request) {
	var req GameActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.AdvancePhase(req.PlayerID, req.Version)
	})
}

func (s *Server) abandonHandler(w http.ResponseWriter, r *http.Request) {
	var req GameActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateAndRespond(w, r.PathValue("id"), func(sess *game.Session) ([]game.Event, error) {
		return sess.Abandon(req.PlayerID)
	})
}

func (s *Server) joinQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req MatchmakingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == 0 {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	status, match, err := s.queue.Join(req.PlayerID, s.playerName(req.PlayerID))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if match != nil {
		s.announceMatch(match)
		writeJSON(w, http.StatusOK, QueueStatusMessage{
			Status: QueueMatchFound,
			GameID: match.Snapshot.ID,
		})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) queueStatusHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.PathValue("playerID"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.queue.Status(playerID))
}

func (s *Server) leaveQueueHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.PathValue("playerID"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	if err := s.queue.Leave(playerID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueueStatusMessage{Status: QueueRemoved})
}

func (s *Server) queueInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Info())
}

func (s *Server) connectionStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Stats())
}
