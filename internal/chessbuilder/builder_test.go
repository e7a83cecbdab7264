package chessbuilder

import (
	"context"
	"os"
	"testing"

	"github.com/park285/chess-engine-http/internal/chess/uci/ucitest"
	"github.com/park285/chess-engine-http/internal/config"
	"github.com/park285/chess-engine-http/internal/game"
	"github.com/park285/chess-engine-http/internal/notify"
)

func TestMain(m *testing.M) {
	if ucitest.IsEngineProcess() {
		os.Exit(ucitest.Serve(os.Stdin, os.Stdout))
	}
	os.Exit(m.Run())
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Host:                  "127.0.0.1",
		Port:                  5000,
		StockfishPath:         os.Args[0],
		EngineDepth:           20,
		EngineSkillLevel:      20,
		EngineThreads:         1,
		EngineHashMB:          16,
		EngineMinThinkingMs:   100,
		EngineMoveTimeMs:      20,
		EngineWatchdogGraceMs: 500,
	}
}

func TestNewWiresSession(t *testing.T) {
	t.Setenv(ucitest.EnvEngine, "1")
	t.Setenv(ucitest.EnvMode, ucitest.ModeFirstLegal)

	deps, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	ctx := context.Background()
	deps.Session.Start(ctx)
	reply, err := deps.Session.Input(ctx, "white")
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if reply.Kind != game.ReplyEngineOpened || reply.EngineMove == "" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if got := deps.Formatter.Reply(reply); got != "You are black. First move: "+reply.EngineMove {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestNewFailsWithoutEngine(t *testing.T) {
	cfg := testConfig()
	cfg.StockfishPath = "/nonexistent/stockfish"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing engine")
	}
}

func TestEngineConfig(t *testing.T) {
	ec := EngineConfig(testConfig(), "/usr/games/stockfish")
	if ec.BinaryPath != "/usr/games/stockfish" || ec.Depth != 20 || ec.Options.SkillLevel != 20 || ec.Options.HashMB != 16 || ec.Options.MinThinkingMillis != 100 {
		t.Fatalf("unexpected engine config %+v", ec)
	}
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig()
	if _, ok := NewNotifier(cfg, nil).(*notify.Telegram); ok {
		t.Fatalf("expected log notifier without token")
	}
	cfg.TelegramBotToken = "tok"
	cfg.TelegramChatID = "42"
	if _, ok := NewNotifier(cfg, nil).(*notify.Telegram); !ok {
		t.Fatalf("expected telegram notifier with token")
	}
}
