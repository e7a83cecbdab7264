package uci

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-engine-http/internal/chess/uci/ucitest"
)

func TestMain(m *testing.M) {
	if ucitest.IsEngineProcess() {
		os.Exit(ucitest.Serve(os.Stdin, os.Stdout))
	}
	os.Exit(m.Run())
}

func testOptions() Options {
	return Options{Threads: 1, SkillLevel: 20, HashMB: 16, MinThinkingMillis: 100}
}

func startFake(t *testing.T, mode string) *Session {
	t.Helper()
	t.Setenv(ucitest.EnvEngine, "1")
	t.Setenv(ucitest.EnvMode, mode)
	s, err := NewSession(context.Background(), os.Args[0], testOptions(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBuildPositionCommand(t *testing.T) {
	if got := buildPositionCommand("", nil); got != "position startpos\n" {
		t.Fatalf("unexpected startpos command %q", got)
	}
	if got := buildPositionCommand("startpos", []string{"e2e4", "e7e5"}); got != "position startpos moves e2e4 e7e5\n" {
		t.Fatalf("unexpected moves command %q", got)
	}
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if got := buildPositionCommand(fen, nil); got != "position fen "+fen+"\n" {
		t.Fatalf("unexpected fen command %q", got)
	}
}

func TestBuildGoTokens(t *testing.T) {
	got, err := buildGoTokens(Limits{Depth: 20, MoveTimeMillis: 2000})
	if err != nil || strings.Join(got, " ") != "go movetime 2000" {
		t.Fatalf("movetime must win over depth: %v %v", got, err)
	}
	got, err = buildGoTokens(Limits{Depth: 12})
	if err != nil || strings.Join(got, " ") != "go depth 12" {
		t.Fatalf("unexpected depth tokens: %v %v", got, err)
	}
	if _, err := buildGoTokens(Limits{}); err == nil {
		t.Fatalf("expected error for empty limits")
	}
}

func TestComputeSearchTimeout(t *testing.T) {
	if got := computeSearchTimeout(Limits{MoveTimeMillis: 2000}); got != 12*time.Second {
		t.Fatalf("unexpected movetime timeout %v", got)
	}
	if got := computeSearchTimeout(Limits{Depth: 1}); got != 6*time.Second {
		t.Fatalf("depth timeout floor not applied: %v", got)
	}
	if got := computeSearchTimeout(Limits{Depth: 200}); got != 20*time.Second {
		t.Fatalf("depth timeout cap not applied: %v", got)
	}
}

func TestParseInfo(t *testing.T) {
	mv, cand, ok := parseInfo("info depth 20 seldepth 28 multipv 2 score cp -35 nodes 100 pv g1f3 d7d5 d2d4")
	if !ok || mv != 2 || cand.Move != "g1f3" || cand.EvalCP != -35 || len(cand.Principal) != 3 {
		t.Fatalf("unexpected parse: %d %+v %v", mv, cand, ok)
	}
	_, cand, ok = parseInfo("info depth 5 score mate -3 pv h7h6")
	if !ok || cand.EvalCP != -30000 {
		t.Fatalf("mate score not normalized: %+v", cand)
	}
	if _, _, ok := parseInfo("info string NNUE evaluation enabled"); ok {
		t.Fatalf("info without pv must be ignored")
	}
}

func TestParseBestMove(t *testing.T) {
	cases := map[string]string{
		"bestmove e2e4 ponder e7e5": "e2e4",
		"bestmove E7E8Q":            "e7e8q",
		"bestmove (none)":           "",
		"bestmove 0000":             "",
		"bestmove":                  "",
	}
	for line, want := range cases {
		if got := parseBestMove(line); got != want {
			t.Fatalf("parseBestMove(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestValidateOptions(t *testing.T) {
	if err := validateOptions(testOptions()); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	bad := []Options{
		{SkillLevel: 21, HashMB: 16},
		{SkillLevel: -1, HashMB: 16},
		{SkillLevel: 10, HashMB: 0},
		{SkillLevel: 10, HashMB: 16, MinThinkingMillis: -1},
	}
	for _, opt := range bad {
		if err := validateOptions(opt); err == nil {
			t.Fatalf("expected options %+v to be rejected", opt)
		}
	}
}

func TestOptionCommands(t *testing.T) {
	cmds := strings.Join(optionCommands(Options{Threads: 4, SkillLevel: 20, HashMB: 2048, MinThinkingMillis: 100}), "")
	for _, want := range []string{
		"setoption name Threads value 4\n",
		"setoption name Hash value 2048\n",
		"setoption name Skill Level value 20\n",
		"setoption name Minimum Thinking Time value 100\n",
		"setoption name UCI_LimitStrength value false\n",
	} {
		if !strings.Contains(cmds, want) {
			t.Fatalf("missing %q in %q", want, cmds)
		}
	}
}

func TestSessionSearchAgainstFakeEngine(t *testing.T) {
	s := startFake(t, ucitest.ModeFirstLegal)
	ctx := context.Background()
	if err := s.NewGame(ctx); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	resp, err := s.Search(ctx, SearchRequest{FEN: "startpos", Limits: Limits{MoveTimeMillis: 10}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.BestMove) < 4 {
		t.Fatalf("expected a best move, got %q", resp.BestMove)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Move != resp.BestMove {
		t.Fatalf("unexpected candidates %+v", resp.Candidates)
	}
}

func TestSessionSearchNoMove(t *testing.T) {
	s := startFake(t, ucitest.ModeNone)
	resp, err := s.Search(context.Background(), SearchRequest{Limits: Limits{MoveTimeMillis: 10}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "" {
		t.Fatalf("expected empty best move, got %q", resp.BestMove)
	}
}

func TestSessionSearchHonorsContext(t *testing.T) {
	s := startFake(t, ucitest.ModeHang)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := s.Search(ctx, SearchRequest{Limits: Limits{MoveTimeMillis: 10}}); err == nil {
		t.Fatalf("expected search to fail on context deadline")
	}
}

func TestNewSessionHandshakeTimeout(t *testing.T) {
	t.Setenv(ucitest.EnvEngine, "1")
	t.Setenv(ucitest.EnvMode, ucitest.ModeMute)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := NewSession(ctx, os.Args[0], testOptions(), nil); err == nil {
		t.Fatalf("expected handshake failure against a mute engine")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := startFake(t, ucitest.ModeFirstLegal)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.send("isready\n"); err != ErrClosed {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}
