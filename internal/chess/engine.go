package chess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/park285/chess-engine-http/internal/chess/uci"
	"go.uber.org/zap"
)

// ErrNoMove is returned when the engine reports no move for a position.
var ErrNoMove = errors.New("engine returned no move")

type EngineConfig struct {
	BinaryPath string
	// Args are extra command line arguments for the engine binary.
	Args    []string
	Options uci.Options
	// Depth is only used when a search has no thinking budget.
	Depth int
}

// Engine selects moves with a single long-lived UCI process. The process is
// restarted lazily after a failed search.
type Engine struct {
	cfg    EngineConfig
	logger *zap.Logger

	mu      sync.Mutex
	session *uci.Session
}

func NewEngine(ctx context.Context, cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("stockfish binary check: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{cfg: cfg, logger: logger}
	session, err := e.start(ctx)
	if err != nil {
		return nil, err
	}
	e.session = session
	return e, nil
}

func (e *Engine) start(ctx context.Context) (*uci.Session, error) {
	session, err := uci.NewSession(ctx, e.cfg.BinaryPath, e.cfg.Options, e.logger, e.cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start engine session: %w", err)
	}
	return session, nil
}

func (e *Engine) acquire(ctx context.Context) (*uci.Session, error) {
	if e.session != nil {
		return e.session, nil
	}
	e.logger.Info("restarting chess engine", zap.String("binary", e.cfg.BinaryPath))
	session, err := e.start(ctx)
	if err != nil {
		return nil, err
	}
	e.session = session
	return session, nil
}

// discard drops a session that failed mid-search; its output stream can no
// longer be trusted.
func (e *Engine) discard() {
	if e.session == nil {
		return
	}
	_ = e.session.Close()
	e.session = nil
}

// NewGame tells the engine a new game starts so it clears its search state.
func (e *Engine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	if err := session.NewGame(ctx); err != nil {
		e.discard()
		return fmt.Errorf("engine new game: %w", err)
	}
	return nil
}

// BestMove searches fen for at most budget and returns the move in
// coordinate notation.
func (e *Engine) BestMove(ctx context.Context, fen string, budget time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.acquire(ctx)
	if err != nil {
		return "", err
	}

	limits := searchLimits(budget, e.cfg.Depth)
	start := time.Now()
	resp, err := session.Search(ctx, uci.SearchRequest{FEN: fen, Limits: limits})
	if err != nil {
		e.discard()
		e.logger.Warn("chess engine search failed",
			zap.String("fen", fen),
			zap.Int("movetime_ms", limits.MoveTimeMillis),
			zap.Int("depth", limits.Depth),
			zap.Error(err),
		)
		return "", fmt.Errorf("engine search: %w", err)
	}
	if resp.BestMove == "" {
		return "", ErrNoMove
	}

	evalCP := 0
	if len(resp.Candidates) > 0 {
		evalCP = resp.Candidates[0].EvalCP
	}
	e.logger.Debug("chess engine move",
		zap.String("move", resp.BestMove),
		zap.Int("eval_cp", evalCP),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.BestMove, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discard()
	return nil
}
