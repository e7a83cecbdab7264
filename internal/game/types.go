package game

import (
	"time"

	"github.com/park285/chess-engine-http/internal/chess/rules"
)

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseNotStarted          Phase = "not_started"
	PhaseAwaitingColorChoice Phase = "awaiting_color"
	PhaseInProgress          Phase = "in_progress"
	PhaseFinished            Phase = "finished"
)

// Outcome is the result of a finished game from the human's perspective.
type Outcome string

const (
	NoOutcome Outcome = ""
	HumanWin  Outcome = "human_win"
	EngineWin Outcome = "engine_win"
	Draw      Outcome = "draw"
)

type ReplyKind int

const (
	ReplyStarted ReplyKind = iota + 1
	// ReplyHumanOpens: the engine plays black, the human moves first.
	ReplyHumanOpens
	// ReplyEngineOpened: the engine plays white and has made its first move.
	ReplyEngineOpened
	ReplyEngineMoved
	ReplyGameOver
)

// Reply is the successful result of a session action. Rendering to text
// happens at the transport boundary.
type Reply struct {
	Kind       ReplyKind
	SessionID  string
	HumanColor rules.Color
	// EngineMove is set whenever the engine moved during the action,
	// including a move that ended the game.
	EngineMove string
	Outcome    Outcome
	Method     rules.Status
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	SessionID   string
	Phase       Phase
	HumanColor  rules.Color
	EngineColor rules.Color
	Outcome     Outcome
	Method      rules.Status
	FEN         string
	Turn        rules.Color
	Ply         int
	Moves       []string
	LastMove    string
	StartedAt   time.Time
}
