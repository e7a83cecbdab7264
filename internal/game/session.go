package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chess-engine-http/internal/chess/rules"
	"go.uber.org/zap"
)

const (
	DefaultThinkingBudget = 2 * time.Second
	DefaultWatchdogGrace  = 3 * time.Second
)

// MoveSelector picks a move for the side to move in fen.
type MoveSelector interface {
	BestMove(ctx context.Context, fen string, budget time.Duration) (string, error)
}

// newGamer is implemented by selectors that keep per-game search state.
type newGamer interface {
	NewGame(ctx context.Context) error
}

type Config struct {
	// ThinkingBudget is passed to the selector for every engine move.
	ThinkingBudget time.Duration
	// WatchdogGrace is added to the budget before an engine call is abandoned.
	WatchdogGrace time.Duration
}

// Session is the single game between a human and the engine. All methods
// are safe for concurrent use; operations are serialized.
type Session struct {
	selector MoveSelector
	cfg      Config
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time

	mu         sync.Mutex
	id         string
	board      *rules.Position
	phase      Phase
	humanColor rules.Color
	outcome    Outcome
	method     rules.Status
	startedAt  time.Time
}

func NewSession(selector MoveSelector, cfg Config, logger *zap.Logger) (*Session, error) {
	if selector == nil {
		return nil, fmt.Errorf("move selector is required")
	}
	if cfg.ThinkingBudget <= 0 {
		cfg.ThinkingBudget = DefaultThinkingBudget
	}
	if cfg.WatchdogGrace <= 0 {
		cfg.WatchdogGrace = DefaultWatchdogGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		selector: selector,
		cfg:      cfg,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
		board:    rules.NewPosition(),
		phase:    PhaseNotStarted,
	}, nil
}

// Start discards any current game and waits for a color choice.
func (s *Session) Start(ctx context.Context) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.phase
	s.id = s.newID()
	s.board = rules.NewPosition()
	s.phase = PhaseAwaitingColorChoice
	s.humanColor = ""
	s.outcome = NoOutcome
	s.method = rules.Ongoing
	s.startedAt = s.now()

	if ng, ok := s.selector.(newGamer); ok {
		if err := ng.NewGame(ctx); err != nil {
			s.logger.Warn("engine new game failed", zap.String("session_id", s.id), zap.Error(err))
		}
	}

	s.logger.Info("chess session started",
		zap.String("session_id", s.id),
		zap.String("previous_phase", string(previous)),
	)
	return Reply{Kind: ReplyStarted, SessionID: s.id}
}

// ChooseColor assigns the engine the requested color. When the engine is
// white it makes the first move before returning.
func (s *Session) ChooseColor(ctx context.Context, input string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chooseColor(ctx, input)
}

// SubmitMove applies the human move and, unless it ended the game, the
// engine reply.
func (s *Session) SubmitMove(ctx context.Context, input string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitMove(ctx, input)
}

// Input routes free text by phase: a color while awaiting one, a move while
// a game is in progress.
func (s *Session) Input(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseAwaitingColorChoice:
		return s.chooseColor(ctx, text)
	case PhaseInProgress:
		return s.submitMove(ctx, text)
	case PhaseFinished:
		return Reply{}, ErrGameFinished
	default:
		return Reply{}, ErrNotStarted
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// View returns a snapshot and a copy of the board taken under one lock.
func (s *Session) View() (Snapshot, *rules.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), s.board.Clone()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		Phase:      s.phase,
		HumanColor: s.humanColor,
		Outcome:    s.outcome,
		Method:     s.method,
		FEN:        s.board.FEN(),
		Turn:       s.board.Turn(),
		Ply:        s.board.Ply(),
		Moves:      s.board.Moves(),
		LastMove:   s.board.LastMove(),
		StartedAt:  s.startedAt,
	}
	if s.humanColor != "" {
		snap.EngineColor = s.humanColor.Other()
	}
	return snap
}

// Position returns a copy of the current board.
func (s *Session) Position() *rules.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

func (s *Session) chooseColor(ctx context.Context, input string) (Reply, error) {
	if s.phase != PhaseAwaitingColorChoice {
		return Reply{}, fmt.Errorf("choose color: %w", ErrNotStarted)
	}
	engineColor, ok := rules.ParseColor(input)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrInvalidColor, input)
	}

	s.humanColor = engineColor.Other()
	s.phase = PhaseInProgress
	s.logger.Info("chess color chosen",
		zap.String("session_id", s.id),
		zap.String("engine_color", string(engineColor)),
	)

	if engineColor == rules.Black {
		return Reply{Kind: ReplyHumanOpens, SessionID: s.id, HumanColor: s.humanColor}, nil
	}

	mv, err := s.engineTurn(ctx)
	if err != nil {
		// Back to the color prompt so resubmitting the color retries the opening move.
		s.humanColor = ""
		s.phase = PhaseAwaitingColorChoice
		return Reply{}, err
	}
	return Reply{Kind: ReplyEngineOpened, SessionID: s.id, HumanColor: s.humanColor, EngineMove: mv}, nil
}

func (s *Session) submitMove(ctx context.Context, input string) (Reply, error) {
	switch s.phase {
	case PhaseInProgress:
	case PhaseFinished:
		return Reply{}, ErrGameFinished
	default:
		return Reply{}, fmt.Errorf("submit move: %w", ErrNotStarted)
	}

	mv, err := rules.ParseMove(input)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if s.board.Turn() != s.humanColor {
		return Reply{}, fmt.Errorf("%w: not the human's turn", ErrIllegalMove)
	}

	before := s.board.Clone()
	if err := s.board.Apply(mv); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	s.logger.Debug("human move applied",
		zap.String("session_id", s.id),
		zap.String("move", mv),
		zap.Int("ply", s.board.Ply()),
	)

	if status := s.board.Status(); status.Terminal() {
		s.finish(status)
		return s.gameOver(""), nil
	}

	engineMove, err := s.engineTurn(ctx)
	if err != nil {
		// Undo the human move so the session is back where the request found it.
		s.board = before
		return Reply{}, err
	}

	if status := s.board.Status(); status.Terminal() {
		s.finish(status)
		return s.gameOver(engineMove), nil
	}
	return Reply{Kind: ReplyEngineMoved, SessionID: s.id, HumanColor: s.humanColor, EngineMove: engineMove}, nil
}

func (s *Session) gameOver(engineMove string) Reply {
	return Reply{
		Kind:       ReplyGameOver,
		SessionID:  s.id,
		HumanColor: s.humanColor,
		EngineMove: engineMove,
		Outcome:    s.outcome,
		Method:     s.method,
	}
}

func (s *Session) finish(status rules.Status) {
	s.phase = PhaseFinished
	s.method = status
	s.outcome = Draw
	if status == rules.Checkmate {
		if winner, ok := s.board.Winner(); ok && winner == s.humanColor {
			s.outcome = HumanWin
		} else {
			s.outcome = EngineWin
		}
	}
	s.logger.Info("chess game finished",
		zap.String("session_id", s.id),
		zap.String("outcome", string(s.outcome)),
		zap.String("method", status.String()),
		zap.Int("ply", s.board.Ply()),
		zap.Duration("duration", s.now().Sub(s.startedAt)),
	)
}

type selection struct {
	move string
	err  error
}

// engineTurn asks the selector for a move and applies it. Nothing is applied
// unless the move is in the current legal set.
func (s *Session) engineTurn(ctx context.Context) (string, error) {
	fen := s.board.FEN()
	budget := s.cfg.ThinkingBudget

	wctx, cancel := context.WithTimeout(ctx, budget+s.cfg.WatchdogGrace)
	defer cancel()

	start := s.now()
	ch := make(chan selection, 1)
	go func() {
		mv, err := s.selector.BestMove(wctx, fen, budget)
		ch <- selection{move: mv, err: err}
	}()

	var sel selection
	select {
	case sel = <-ch:
	case <-wctx.Done():
		sel = selection{err: wctx.Err()}
	}
	if sel.err != nil {
		s.logger.Warn("engine turn failed",
			zap.String("session_id", s.id),
			zap.String("fen", fen),
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.Error(sel.err),
		)
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, sel.err)
	}

	mv, err := rules.ParseMove(sel.move)
	if err != nil {
		s.logger.Warn("engine returned unparseable move",
			zap.String("session_id", s.id),
			zap.String("move", sel.move),
		)
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}
	if !s.board.IsLegal(mv) {
		s.logger.Warn("engine returned illegal move",
			zap.String("session_id", s.id),
			zap.String("move", mv),
			zap.String("fen", fen),
		)
		return "", fmt.Errorf("%w: illegal engine move %s", ErrEngineFailure, mv)
	}
	if err := s.board.Apply(mv); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}

	s.logger.Debug("engine move applied",
		zap.String("session_id", s.id),
		zap.String("move", mv),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return mv, nil
}
