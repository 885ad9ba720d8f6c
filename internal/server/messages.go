package server

import (
	"encoding/json"
	"time"
)

// Websocket message types. Clients and server share this vocabulary; every
// frame on the wire is an envelope carrying one of these in its type field.
const (
	MsgPing              = "ping"
	MsgPong              = "pong"
	MsgError             = "error"
	MsgGetState          = "get_state"
	MsgTurnAction        = "turn_action"
	MsgAbandon           = "abandon"
	MsgJoinQueue         = "join_queue"
	MsgLeaveQueue        = "leave_queue"
	MsgQueueStatus       = "queue_status"
	MsgMatchFound        = "match_found"
	MsgMatchmakingStatus = "matchmaking_status"
	MsgGameStateUpdate   = "game_state_update"
	MsgTurnStart         = "turn_start"
	MsgTurnResult        = "turn_result"
	MsgGameEnd           = "game_end"
	MsgPlayerConnect     = "player_connect"
	MsgPlayerDisconnect  = "player_disconnect"
	MsgPlayerAction      = "player_action"
)

// ClientMessage is the inbound envelope.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is the outbound envelope. Timestamp is stamped at send time.
type ServerMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewServerMessage stamps an envelope with the current UTC time.
func NewServerMessage(msgType string, data any) ServerMessage {
	return ServerMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TurnActionRequest drives a player's full turn cycle over the game socket.
type TurnActionRequest struct {
	Strategy  string `json:"strategy"`
	Sacrifice bool   `json:"sacrifice"`
	Version   int64  `json:"version,omitempty"`
}

type QueueStatusMessage struct {
	Status   string `json:"status"`
	Position int    `json:"position,omitempty"`
	GameID   string `json:"game_id,omitempty"`
	Opponent string `json:"opponent,omitempty"`
}

// PlayerActionMessage relays a free-form action from a player's personal
// socket to everyone watching the named game.
type PlayerActionMessage struct {
	GameID string `json:"game_id"`
	Action string `json:"action"`
}

type MatchFoundMessage struct {
	GameID   string `json:"game_id"`
	Opponent string `json:"opponent"`
	Position int    `json:"position"`
}
