package fadu

// Error codes surfaced by the deck.
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// ErrCode lets callers route on the code without depending on the type.
func (e *Error) ErrCode() string {
	return e.Code
}
