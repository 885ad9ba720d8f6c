package game

import "errors"

// Error codes shared across the engine. The transport layer routes on these
// to decide whether a failure is retryable, a refresh, or a server fault.
const (
	CodeInvalidPhase    = "INVALID_PHASE"
	CodeNotYourTurn     = "NOT_YOUR_TURN"
	CodeInvalidStrategy = "INVALID_STRATEGY"
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyQueued   = "ALREADY_QUEUED"
	CodeNotInQueue      = "NOT_IN_QUEUE"
	CodeStaleVersion    = "STALE_VERSION"
	CodeConfiguration   = "CONFIGURATION_ERROR"
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) ErrCode() string {
	return e.Code
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

type coded interface {
	ErrCode() string
}

// ErrorCode extracts the taxonomy code from any engine error, or "" for
// untyped failures.
func ErrorCode(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.ErrCode()
	}
	return ""
}
