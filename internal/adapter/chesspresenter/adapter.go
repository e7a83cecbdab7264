package chesspresenter

import (
	"time"

	"github.com/park285/chess-engine-http/internal/chess/rules"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/park285/chess-engine-http/pkg/chessdto"
)

// ToDTOState maps a session snapshot and its board to the /status body.
func ToDTOState(snap game.Snapshot, pos *rules.Position) *chessdto.SessionState {
	state := &chessdto.SessionState{
		SessionID:   snap.SessionID,
		Phase:       string(snap.Phase),
		HumanColor:  string(snap.HumanColor),
		EngineColor: string(snap.EngineColor),
		Turn:        string(snap.Turn),
		FEN:         snap.FEN,
		MovesUCI:    append([]string{}, snap.Moves...),
		LastMove:    snap.LastMove,
		MoveCount:   snap.Ply,
		Outcome:     string(snap.Outcome),
		OutcomeMeta: Method(snap.Method),
	}
	if !snap.StartedAt.IsZero() {
		state.StartedAt = snap.StartedAt.UTC().Format(time.RFC3339)
	}
	if pos != nil {
		m := pos.CountMaterial()
		state.Material = chessdto.MaterialScore{White: m.White, Black: m.Black}
		state.Captured = chessdto.CapturedPieces{White: m.LostWhite, Black: m.LostBlack}
	}
	return state
}
