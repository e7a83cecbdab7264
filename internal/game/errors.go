package game

import "errors"

var (
	ErrInvalidColor  = errors.New("invalid color choice")
	ErrIllegalMove   = errors.New("illegal move")
	ErrEngineFailure = errors.New("engine failure")
	ErrNotStarted    = errors.New("no game in progress")
	ErrGameFinished  = errors.New("game already finished")
)

// ErrorKind classifies session errors for callers that render them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindIllegalMove
	KindEngineFailure
	KindNotStarted
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindIllegalMove:
		return "illegal_move"
	case KindEngineFailure:
		return "engine_failure"
	case KindNotStarted:
		return "not_started"
	default:
		return "unknown"
	}
}

// KindOf maps an error returned by a Session to its kind. A finished game
// is reported as NotStarted: it needs a fresh start before moves are accepted.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidColor):
		return KindInvalidInput
	case errors.Is(err, ErrIllegalMove):
		return KindIllegalMove
	case errors.Is(err, ErrEngineFailure):
		return KindEngineFailure
	case errors.Is(err, ErrNotStarted), errors.Is(err, ErrGameFinished):
		return KindNotStarted
	default:
		return KindUnknown
	}
}
