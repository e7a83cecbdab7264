package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/park285/chess-engine-http/internal/chess/uci/ucitest"
)

func TestMain(m *testing.M) {
	if ucitest.IsEngineProcess() {
		os.Exit(ucitest.Serve(os.Stdin, os.Stdout))
	}
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(ucitest.EnvEngine, "1")
	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--stockfish", os.Args[0], "--movetime", "20ms"))
	err := root.Execute()
	return out.String(), err
}

func TestProbeInitialPosition(t *testing.T) {
	t.Setenv(ucitest.EnvMode, ucitest.ModeFirstLegal)
	out, err := run(t, "probe")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.HasPrefix(out, "bestmove ") || !strings.Contains(out, "legal=true") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestProbeRejectsBadFEN(t *testing.T) {
	if _, err := run(t, "probe", "--fen", "not a fen"); err == nil {
		t.Fatalf("expected error for bad fen")
	}
}

func TestProbeReportsIllegalMove(t *testing.T) {
	t.Setenv(ucitest.EnvMode, ucitest.ModeIllegal)
	out, err := run(t, "probe")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.Contains(out, "legal=false") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSelfPlayValidatesMoves(t *testing.T) {
	t.Setenv(ucitest.EnvMode, ucitest.ModeFirstLegal)
	out, err := run(t, "selfplay", "-n", "4")
	if err != nil {
		t.Fatalf("selfplay: %v", err)
	}
	if !strings.Contains(out, "  4. ") || !strings.Contains(out, "status: ongoing") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSelfPlayStopsOnIllegalMove(t *testing.T) {
	t.Setenv(ucitest.EnvMode, ucitest.ModeIllegal)
	_, err := run(t, "selfplay", "-n", "2")
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("expected rejected move error, got %v", err)
	}
}
