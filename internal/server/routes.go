package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/kossichris/jeu-fa-api/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// REST API
	mux.HandleFunc("POST /api/v1/players", s.createPlayerHandler)
	mux.HandleFunc("GET /api/v1/players/{id}", s.getPlayerHandler)
	mux.HandleFunc("GET /api/v1/fadu/probabilities", s.probabilitiesHandler)
	mux.HandleFunc("GET /api/v1/fadu/cards/{id}", s.cardDetailsHandler)
	mux.HandleFunc("POST /api/v1/games/create", s.createGameHandler)
	mux.HandleFunc("POST /api/v1/games/join", s.joinGameHandler)
	mux.HandleFunc("GET /api/v1/games/{id}/status", s.gameStatusHandler)
	mux.HandleFunc("GET /api/v1/games/{id}/turns", s.gameTurnsHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/cards/draw", s.drawCardHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/strategy", s.chooseStrategyHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/sacrifice", s.decideSacrificeHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/cards/sacrifice", s.drawSacrificeHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/next-phase", s.nextPhaseHandler)
	mux.HandleFunc("POST /api/v1/games/{id}/abandon", s.abandonHandler)
	mux.HandleFunc("POST /api/v1/matchmaking", s.joinQueueHandler)
	mux.HandleFunc("GET /api/v1/matchmaking/status/{playerID}", s.queueStatusHandler)
	mux.HandleFunc("DELETE /api/v1/matchmaking/{playerID}", s.leaveQueueHandler)
	mux.HandleFunc("GET /api/v1/matchmaking/queue/info", s.queueInfoHandler)
	mux.HandleFunc("GET /api/v1/websocket/stats", s.connectionStatsHandler)

	// Websockets
	mux.HandleFunc("/ws/player/{id}", s.playerSocketHandler)
	mux.HandleFunc("/ws/game/{id}", s.gameSocketHandler)
	mux.HandleFunc("/ws/matchmaking", s.matchmakingSocketHandler)

	// Wrap the mux with CORS middleware
	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) acceptSocket(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // TODO: make environment-specific
	})
}

// playerSocketHandler serves /ws/player/{id}: a personal channel for
// notifications that follow the player across games. Only registered players
// get one.
func (s *Server) playerSocketHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}
	if s.persistence != nil {
		if _, err := s.persistence.GetPlayerName(playerID); err != nil {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
	}

	socket, err := s.acceptSocket(w, r)
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	connectionID := uuid.New().String()
	s.hub.Register(&Conn{
		ID:       connectionID,
		Scope:    ScopePlayer,
		Key:      strconv.Itoa(playerID),
		PlayerID: playerID,
		sock:     socket,
	})
	log.Printf("Player socket open: player %d (%s)", playerID, connectionID)
	defer s.dropConnection(connectionID)

	s.sendMessage(socket, ctx, NewServerMessage(MsgPlayerConnect, map[string]any{
		"player_id": playerID,
	}))

	s.readLoop(socket, ctx, connectionID, ScopePlayer, func(msg ClientMessage) {
		switch msg.Type {
		case MsgPing:
			s.sendMessage(socket, ctx, NewServerMessage(MsgPong, struct{}{}))

		case MsgPlayerAction:
			var action PlayerActionMessage
			if err := json.Unmarshal(msg.Data, &action); err != nil || action.GameID == "" || action.Action == "" {
				s.sendError(socket, ctx, "INVALID_PAYLOAD", "player_action needs game_id and action")
				return
			}
			s.hub.Broadcast(ScopeGame, action.GameID, MsgPlayerAction, map[string]any{
				"game_id":   action.GameID,
				"player_id": playerID,
				"action":    action.Action,
			})
		}
	})
}

// gameSocketHandler serves /ws/game/{id}?player_id=N: the channel a player
// plays a specific game over.
func (s *Server) gameSocketHandler(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID, err := strconv.Atoi(r.URL.Query().Get("player_id"))
	if err != nil {
		http.Error(w, "Missing or invalid player_id", http.StatusBadRequest)
		return
	}
	if !s.registry.HasPlayer(gameID, playerID) {
		http.Error(w, "Game not found or player not seated", http.StatusNotFound)
		return
	}

	socket, err := s.acceptSocket(w, r)
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	connectionID := uuid.New().String()
	s.hub.Register(&Conn{
		ID:       connectionID,
		Scope:    ScopeGame,
		Key:      gameID,
		PlayerID: playerID,
		sock:     socket,
	})
	log.Printf("Game socket open: game %s player %d (%s)", gameID, playerID, connectionID)

	defer func() {
		s.dropConnection(connectionID)
		s.hub.Broadcast(ScopeGame, gameID, MsgPlayerDisconnect, map[string]any{
			"game_id":   gameID,
			"player_id": playerID,
		})
	}()

	s.hub.Broadcast(ScopeGame, gameID, MsgPlayerConnect, map[string]any{
		"game_id":   gameID,
		"player_id": playerID,
	})

	// The joining player starts from the current state.
	if snap, err := s.registry.Snapshot(gameID); err == nil {
		s.sendMessage(socket, ctx, NewServerMessage(MsgGameStateUpdate, map[string]any{
			"game_id": gameID,
			"reason":  "connected",
			"state":   snap,
		}))
	}

	s.readLoop(socket, ctx, connectionID, ScopeGame, func(msg ClientMessage) {
		switch msg.Type {
		case MsgPing:
			s.sendMessage(socket, ctx, NewServerMessage(MsgPong, struct{}{}))

		case MsgGetState:
			snap, err := s.registry.Snapshot(gameID)
			if err != nil {
				s.sendError(socket, ctx, game.ErrorCode(err), err.Error())
				return
			}
			s.sendMessage(socket, ctx, NewServerMessage(MsgGameStateUpdate, map[string]any{
				"game_id": gameID,
				"reason":  "requested",
				"state":   snap,
			}))

		case MsgTurnAction:
			s.handleTurnAction(socket, ctx, gameID, playerID, msg.Data)

		case MsgAbandon:
			snap, events, err := s.registry.Mutate(gameID, func(sess *game.Session) ([]game.Event, error) {
				return sess.Abandon(playerID)
			})
			if err != nil {
				s.sendError(socket, ctx, game.ErrorCode(err), err.Error())
				return
			}
			s.dispatchGameEvents(gameID, events)
			s.persistMutation(snap, events)
		}
	})
}

// handleTurnAction runs the player's whole cycle in one session mutation:
// draw, strategy, sacrifice decision, the optional sacrifice draw, and the
// phase advance.
func (s *Server) handleTurnAction(socket *websocket.Conn, ctx context.Context, gameID string, playerID int, payload json.RawMessage) {
	var req TurnActionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD", "Invalid turn_action payload")
		return
	}
	strategy := game.Strategy(req.Strategy)
	if !game.ValidStrategy(strategy) {
		s.sendError(socket, ctx, game.CodeInvalidStrategy, fmt.Sprintf("Unknown strategy %q", req.Strategy))
		return
	}

	snap, events, err := s.registry.Mutate(gameID, func(sess *game.Session) ([]game.Event, error) {
		var all []game.Event

		evs, err := sess.DrawStandard(playerID, req.Version)
		if err != nil {
			return nil, err
		}
		all = append(all, evs...)

		if evs, err = sess.ChooseStrategy(playerID, strategy, 0); err != nil {
			return nil, err
		}
		all = append(all, evs...)

		if evs, err = sess.DecideSacrifice(playerID, req.Sacrifice, 0); err != nil {
			return nil, err
		}
		all = append(all, evs...)

		if req.Sacrifice {
			if evs, err = sess.DrawSacrifice(playerID, 0); err != nil {
				return nil, err
			}
			all = append(all, evs...)
		}

		if evs, err = sess.AdvancePhase(playerID, 0); err != nil {
			return nil, err
		}
		return append(all, evs...), nil
	})
	if err != nil {
		s.sendError(socket, ctx, game.ErrorCode(err), err.Error())
		return
	}

	s.dispatchGameEvents(gameID, events)
	s.persistMutation(snap, events)
}

// matchmakingSocketHandler serves /ws/matchmaking?player_id=N.
func (s *Server) matchmakingSocketHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.URL.Query().Get("player_id"))
	if err != nil {
		http.Error(w, "Missing or invalid player_id", http.StatusBadRequest)
		return
	}

	socket, err := s.acceptSocket(w, r)
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	connectionID := uuid.New().String()
	s.hub.Register(&Conn{
		ID:       connectionID,
		Scope:    ScopeMatchmaking,
		Key:      strconv.Itoa(playerID),
		PlayerID: playerID,
		sock:     socket,
	})
	log.Printf("Matchmaking socket open: player %d (%s)", playerID, connectionID)

	defer func() {
		s.dropConnection(connectionID)
		// A waiting player whose socket dies should not stay matchable.
		if s.hub.Count(ScopeMatchmaking, strconv.Itoa(playerID)) == 0 {
			s.queue.Leave(playerID)
		}
	}()

	s.readLoop(socket, ctx, connectionID, ScopeMatchmaking, func(msg ClientMessage) {
		switch msg.Type {
		case MsgPing:
			s.sendMessage(socket, ctx, NewServerMessage(MsgPong, struct{}{}))

		case MsgJoinQueue:
			status, match, err := s.queue.Join(playerID, s.playerName(playerID))
			if err != nil {
				s.sendError(socket, ctx, game.ErrorCode(err), err.Error())
				return
			}
			if match != nil {
				s.announceMatch(match)
				return
			}
			s.sendMessage(socket, ctx, NewServerMessage(MsgMatchmakingStatus, status))

		case MsgLeaveQueue:
			if err := s.queue.Leave(playerID); err != nil {
				s.sendError(socket, ctx, game.ErrorCode(err), err.Error())
				return
			}
			s.sendMessage(socket, ctx, NewServerMessage(MsgMatchmakingStatus,
				QueueStatusMessage{Status: QueueRemoved}))

		case MsgQueueStatus:
			s.sendMessage(socket, ctx, NewServerMessage(MsgMatchmakingStatus, s.queue.Status(playerID)))
		}
	})
}

// announceMatch notifies both players over their matchmaking and player
// sockets, then persists the freshly created session.
func (s *Server) announceMatch(match *MatchResult) {
	gameID := match.Snapshot.ID
	log.Printf("Match formed: game %s (%d vs %d)", gameID, match.Player1.PlayerID, match.Player2.PlayerID)

	pairs := []struct {
		player   queueEntry
		opponent queueEntry
		position int
	}{
		{match.Player1, match.Player2, 1},
		{match.Player2, match.Player1, 2},
	}
	for _, p := range pairs {
		found := MatchFoundMessage{
			GameID:   gameID,
			Opponent: p.opponent.Name,
			Position: p.position,
		}
		s.hub.Broadcast(ScopeMatchmaking, strconv.Itoa(p.player.PlayerID), MsgMatchFound, found)
		s.hub.SendToPlayer(p.player.PlayerID, MsgMatchFound, found)
	}

	s.dispatchGameEvents(gameID, match.Events)
	s.persistMutation(match.Snapshot, match.Events)
}

// readLoop is the shared frame pump: rate limiting, health tracking, JSON
// decoding and per-scope message type validation, then dispatch.
func (s *Server) readLoop(socket *websocket.Conn, ctx context.Context, connectionID string, scope Scope, handle func(ClientMessage)) {
	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Printf("Connection %s read error: %v", connectionID, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("Non-text input from %s", connectionID)
			continue
		}

		s.health.UpdateActivity(connectionID)
		if !s.limiter.Allow(connectionID) {
			s.sendError(socket, ctx, "RATE_LIMITED", "Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid JSON from %s: %v", connectionID, err)
			s.sendError(socket, ctx, "INVALID_PAYLOAD", "Invalid JSON")
			continue
		}

		if err := ValidateMessageType(scope, msg.Type); err != nil {
			log.Printf("Unknown message type '%s' from %s", msg.Type, connectionID)
			s.sendError(socket, ctx, "INVALID_MESSAGE_TYPE", err.Error())
			continue
		}

		handle(msg)
	}
}

func (s *Server) dropConnection(connectionID string) {
	s.hub.Unregister(connectionID)
	s.health.RemoveConnection(connectionID)
	s.limiter.RemoveConnection(connectionID)
	log.Printf("Connection closed: %s", connectionID)
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("Marshal error: %w", err)
	}

	return socket.Write(ctx, websocket.MessageText, data)
}

func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, code, msg string) {
	response := NewServerMessage(MsgError, ErrorMessage{
		Message: msg,
		Code:    code,
	})

	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send error message: %v", err)
	}
}
