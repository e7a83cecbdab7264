package chessbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/park285/chess-engine-http/internal/adapter/chesspresenter"
	corechess "github.com/park285/chess-engine-http/internal/chess"
	"github.com/park285/chess-engine-http/internal/chess/uci"
	"github.com/park285/chess-engine-http/internal/config"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/park285/chess-engine-http/internal/httpapi"
	"github.com/park285/chess-engine-http/internal/msgcat"
	"github.com/park285/chess-engine-http/internal/notify"
	"github.com/park285/chess-engine-http/internal/render"
	"go.uber.org/zap"
)

// requestSlack covers rules checks and rendering on top of the engine watchdog.
const requestSlack = 2 * time.Second

type Deps struct {
	Engine    *corechess.Engine
	Session   *game.Session
	Formatter *chesspresenter.Formatter
	Server    *httpapi.Server
	Notifier  notify.Notifier
}

// New starts the engine and wires everything the server needs. A missing
// or unusable engine binary is an error.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	binary, err := cfg.ResolveStockfish()
	if err != nil {
		return nil, err
	}
	engine, err := corechess.NewEngine(ctx, EngineConfig(cfg, binary), logger.Named("engine"))
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	session, err := game.NewSession(engine, game.Config{
		ThinkingBudget: cfg.MoveTime(),
		WatchdogGrace:  cfg.WatchdogGrace(),
	}, logger.Named("session"))
	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	formatter := chesspresenter.NewFormatter(catalog, logger.Named("presenter"))
	presenter := chesspresenter.NewPresenter(formatter, render.NewBoardRenderer())

	server, err := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Addr(),
		RequestTimeout: cfg.MoveTime() + cfg.WatchdogGrace() + requestSlack,
	}, session, presenter, logger.Named("http"))
	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	return &Deps{
		Engine:    engine,
		Session:   session,
		Formatter: formatter,
		Server:    server,
		Notifier:  NewNotifier(cfg, logger),
	}, nil
}

// EngineConfig maps the environment settings to engine options.
func EngineConfig(cfg *config.AppConfig, binary string) corechess.EngineConfig {
	return corechess.EngineConfig{
		BinaryPath: binary,
		Options: uci.Options{
			Threads:           cfg.EngineThreads,
			SkillLevel:        cfg.EngineSkillLevel,
			HashMB:            cfg.EngineHashMB,
			MinThinkingMillis: cfg.EngineMinThinkingMs,
		},
		Depth: cfg.EngineDepth,
	}
}

// NewNotifier returns the Telegram notifier when a token is configured and
// a log-only notifier otherwise.
func NewNotifier(cfg *config.AppConfig, logger *zap.Logger) notify.Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TelegramBotToken == "" {
		return notify.NewLogNotifier(logger)
	}
	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("telegram disabled", zap.Error(err))
		return notify.NewLogNotifier(logger)
	}
	return tg
}

func (d *Deps) Close() error {
	if d == nil || d.Engine == nil {
		return nil
	}
	return d.Engine.Close()
}
