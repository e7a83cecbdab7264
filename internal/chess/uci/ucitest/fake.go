// Package ucitest provides a scripted UCI engine for tests.
//
// A test binary re-executes itself as the engine process:
//
//	func TestMain(m *testing.M) {
//		if ucitest.IsEngineProcess() {
//			os.Exit(ucitest.Serve(os.Stdin, os.Stdout))
//		}
//		os.Exit(m.Run())
//	}
//
// and points the engine path at os.Args[0] after setting EnvEngine and
// EnvMode with t.Setenv.
package ucitest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/park285/chess-engine-http/internal/chess/rules"
)

const (
	EnvEngine = "UCITEST_ENGINE"
	EnvMode   = "UCITEST_MODE"
)

// Modes select how the fake answers "go".
const (
	ModeFirstLegal = "first"   // first legal move of the position
	ModeNone       = "none"    // bestmove (none)
	ModeIllegal    = "illegal" // a syntactically valid move that is not legal
	ModeGarbage    = "garbage" // an unparseable move
	ModeHang       = "hang"    // never answers go
	ModeMute       = "mute"    // never answers uci
)

// IsEngineProcess reports whether the current process was started as the fake engine.
func IsEngineProcess() bool { return os.Getenv(EnvEngine) == "1" }

// Serve speaks UCI on in/out until "quit" or EOF and returns an exit code.
func Serve(in io.Reader, out io.Writer) int {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		mode = ModeFirstLegal
	}
	w := bufio.NewWriter(out)
	reply := func(lines ...string) {
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		w.Flush()
	}

	fen := ""
	var moves []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "uci":
			if mode == ModeMute {
				continue
			}
			reply("id name ucitest", "id author tests", "uciok")
		case "isready":
			reply("readyok")
		case "position":
			fen, moves = parsePosition(fields[1:])
		case "go":
			switch mode {
			case ModeHang:
				time.Sleep(time.Hour)
			case ModeNone:
				reply("info depth 1 score mate 0", "bestmove (none)")
			case ModeIllegal:
				reply("bestmove e2e5")
			case ModeGarbage:
				reply("bestmove zz9")
			default:
				mv := firstLegal(fen, moves)
				if mv == "" {
					reply("bestmove (none)")
					continue
				}
				reply(fmt.Sprintf("info depth 1 multipv 1 score cp 15 pv %s", mv), "bestmove "+mv)
			}
		case "quit":
			return 0
		}
	}
	return 0
}

func parsePosition(args []string) (string, []string) {
	var fenParts, moves []string
	inMoves := false
	for i, a := range args {
		switch {
		case i == 0 && a == "startpos":
		case i == 0 && a == "fen":
		case a == "moves":
			inMoves = true
		case inMoves:
			moves = append(moves, a)
		default:
			fenParts = append(fenParts, a)
		}
	}
	return strings.Join(fenParts, " "), moves
}

func firstLegal(fen string, moves []string) string {
	pos := rules.NewPosition()
	if fen != "" {
		p, err := rules.FromFEN(fen)
		if err != nil {
			return ""
		}
		pos = p
	}
	for _, mv := range moves {
		if err := pos.Apply(mv); err != nil {
			return ""
		}
	}
	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return ""
	}
	return legal[0]
}
