package chesspresenter

import (
	"context"
	"fmt"

	"github.com/park285/chess-engine-http/internal/chess/rules"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/park285/chess-engine-http/internal/render"
	"github.com/park285/chess-engine-http/pkg/chessdto"
)

// Presenter builds response bodies from the session.
type Presenter struct {
	formatter *Formatter
	renderer  render.BoardRenderer
}

func NewPresenter(formatter *Formatter, renderer render.BoardRenderer) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil, nil)
	}
	return &Presenter{formatter: formatter, renderer: renderer}
}

func (p *Presenter) Text(reply game.Reply, err error) string {
	return p.formatter.Respond(reply, err)
}

func (p *Presenter) State(s *game.Session) *chessdto.SessionState {
	return ToDTOState(s.View())
}

// Board renders the current position from the human's side.
func (p *Presenter) Board(ctx context.Context, s *game.Session) ([]byte, error) {
	if p.renderer == nil {
		return nil, fmt.Errorf("board renderer not configured")
	}
	snap, pos := s.View()
	return p.renderer.RenderPNG(ctx, pos.Board(), render.Options{
		Flip:     snap.HumanColor == rules.Black,
		LastMove: snap.LastMove,
		Caption:  boardCaption(snap),
	})
}

func boardCaption(snap game.Snapshot) string {
	switch snap.Phase {
	case game.PhaseNotStarted:
		return "No game in progress"
	case game.PhaseAwaitingColorChoice:
		return "Choose engine color: black or white"
	case game.PhaseFinished:
		if m := Method(snap.Method); m != "" {
			return fmt.Sprintf("Game over: %s (%s)", snap.Outcome, m)
		}
		return fmt.Sprintf("Game over: %s", snap.Outcome)
	default:
		who := "engine"
		if snap.Turn == snap.HumanColor {
			who = "you"
		}
		return fmt.Sprintf("Move %d, %s to move (%s)", snap.Ply/2+1, snap.Turn, who)
	}
}
