package chesspresenter

import (
	"fmt"

	"github.com/park285/chess-engine-http/internal/chess/rules"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/park285/chess-engine-http/internal/msgcat"
	"go.uber.org/zap"
)

const (
	textStarted         = "Game started. Choose engine color: black or white?"
	textHumanOpens      = "Engine is black. You are white. Make your move."
	textHumanCheckmate  = "Checkmate, you win!"
	textDraw            = "Draw"
	textInvalidColor    = "Invalid color. Choose 'black' or 'white'."
	textIllegalMove     = "Illegal move"
	textEngineFailure   = "Engine error"
	textNotStarted      = "No game in progress. Start a game with /start"
	textUnknownFailure  = "Something went wrong. Start a new game with /start"
	textStartupTemplate = "Chess Engine is Live!\n\nURL: %[1]s\n\nExample commands:\ncurl -X POST %[1]s/start\ncurl -X POST %[1]s/move -d \"white\"\ncurl -X POST %[1]s/move -d \"e2e4\""
)

// Formatter renders session replies and errors into the plain-text bodies
// returned by the HTTP API. Catalog templates win; built-in texts are used
// when a key is missing or fails to render.
type Formatter struct {
	catalog *msgcat.Catalog
	logger  *zap.Logger
}

func NewFormatter(catalog *msgcat.Catalog, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{catalog: catalog, logger: logger}
}

func (f *Formatter) Reply(r game.Reply) string {
	move := map[string]any{"Move": r.EngineMove}

	switch r.Kind {
	case game.ReplyStarted:
		return f.render("session.started", nil, textStarted)
	case game.ReplyHumanOpens:
		return f.render("session.human_opens", nil, textHumanOpens)
	case game.ReplyEngineOpened:
		data := map[string]any{"Move": r.EngineMove, "HumanColor": string(r.HumanColor)}
		return f.render("session.engine_opened", data, fmt.Sprintf("You are %s. First move: %s", r.HumanColor, r.EngineMove))
	case game.ReplyEngineMoved:
		return f.render("session.engine_moved", move, r.EngineMove)
	case game.ReplyGameOver:
		return f.gameOver(r)
	default:
		return textUnknownFailure
	}
}

func (f *Formatter) gameOver(r game.Reply) string {
	move := map[string]any{"Move": r.EngineMove}
	switch {
	case r.Outcome == game.HumanWin:
		return f.render("outcome.human_checkmate", nil, textHumanCheckmate)
	case r.Outcome == game.EngineWin:
		return f.render("outcome.engine_checkmate", move, r.EngineMove+"\nCheckmate, I win!")
	case r.EngineMove != "":
		return f.render("outcome.draw_after_move", move, r.EngineMove+"\n"+textDraw)
	default:
		return f.render("outcome.draw", nil, textDraw)
	}
}

// Error renders a session error. Every kind maps to a fixed message; the
// wrapped detail is logged, not shown.
func (f *Formatter) Error(err error) string {
	if err == nil {
		return ""
	}
	kind := game.KindOf(err)
	f.logger.Debug("chess request rejected", zap.String("kind", kind.String()), zap.Error(err))

	switch kind {
	case game.KindInvalidInput:
		return f.render("error.invalid_color", nil, textInvalidColor)
	case game.KindIllegalMove:
		return f.render("error.illegal_move", nil, textIllegalMove)
	case game.KindEngineFailure:
		return f.render("error.engine_failure", nil, textEngineFailure)
	case game.KindNotStarted:
		return f.render("error.not_started", nil, textNotStarted)
	default:
		return f.render("error.unknown", nil, textUnknownFailure)
	}
}

// Respond is Reply or Error, whichever applies.
func (f *Formatter) Respond(r game.Reply, err error) string {
	if err != nil {
		return f.Error(err)
	}
	return f.Reply(r)
}

// Startup is the text of the one-shot startup notification.
func (f *Formatter) Startup(publicURL string) string {
	return f.render("notify.startup", map[string]any{"URL": publicURL}, fmt.Sprintf(textStartupTemplate, publicURL))
}

// Method names a terminal status for JSON views.
func Method(s rules.Status) string {
	if s == rules.Ongoing {
		return ""
	}
	return s.String()
}

func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if f == nil || f.catalog == nil {
		return fallback
	}
	text, err := f.catalog.Render(key, data)
	if err != nil {
		f.logger.Warn("message template failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return text
}
