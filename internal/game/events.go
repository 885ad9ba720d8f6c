package game

// EventType names match the websocket message types clients subscribe to.
type EventType string

const (
	EventGameStateUpdate EventType = "game_state_update"
	EventTurnStart       EventType = "turn_start"
	EventTurnResult      EventType = "turn_result"
	EventGameEnd         EventType = "game_end"
	EventPlayerAction    EventType = "player_action"
)

// Event is a domain notification produced by a session mutation. Sessions
// never touch sockets; the caller fans events out to the relevant scopes
// after the session lock is released.
type Event struct {
	Type EventType
	Data map[string]any
}

func event(t EventType, data map[string]any) Event {
	return Event{Type: t, Data: data}
}
