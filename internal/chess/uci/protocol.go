package uci

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// mateScore stands in for "score mate N" so candidates stay comparable.
const mateScore = 30000

const (
	searchSlack     = 2 * time.Second
	minDepthTimeout = 6 * time.Second
	maxDepthTimeout = 20 * time.Second
	perDepthTimeout = 300 * time.Millisecond
)

func validateOptions(opt Options) error {
	switch {
	case opt.SkillLevel < 0 || opt.SkillLevel > 20:
		return fmt.Errorf("skill level %d out of range 0-20", opt.SkillLevel)
	case opt.HashMB <= 0:
		return fmt.Errorf("hash size must be > 0: %d", opt.HashMB)
	case opt.Threads < 0:
		return fmt.Errorf("threads must be >= 0: %d", opt.Threads)
	case opt.MinThinkingMillis < 0:
		return fmt.Errorf("minimum thinking time must be >= 0: %d", opt.MinThinkingMillis)
	}
	return nil
}

func optionCommands(opt Options) []string {
	threads := max(opt.Threads, 1)
	set := func(name string, value any) string {
		return fmt.Sprintf("setoption name %s value %v\n", name, value)
	}
	return []string{
		set("Threads", threads),
		set("Hash", opt.HashMB),
		set("Skill Level", opt.SkillLevel),
		set("Minimum Thinking Time", opt.MinThinkingMillis),
		set("UCI_LimitStrength", opt.LimitStrength),
	}
}

func buildPositionCommand(fen string, moves []string) string {
	fen = strings.TrimSpace(fen)
	cmd := "position fen " + fen
	if fen == "" || fen == "startpos" {
		cmd = "position startpos"
	}
	if len(moves) > 0 {
		cmd += " moves " + strings.Join(moves, " ")
	}
	return cmd + "\n"
}

// buildGoTokens prefers a fixed move time; depth is only sent without one.
func buildGoTokens(l Limits) ([]string, error) {
	switch {
	case l.MoveTimeMillis > 0:
		return []string{"go", "movetime", strconv.Itoa(l.MoveTimeMillis)}, nil
	case l.Depth > 0:
		return []string{"go", "depth", strconv.Itoa(l.Depth)}, nil
	default:
		return nil, fmt.Errorf("no search limits specified")
	}
}

// computeSearchTimeout bounds how long a search may stay silent before the
// session gives up on it.
func computeSearchTimeout(l Limits) time.Duration {
	switch {
	case l.MoveTimeMillis > 0:
		return 3 * (time.Duration(l.MoveTimeMillis)*time.Millisecond + searchSlack)
	case l.Depth > 0:
		return min(max(time.Duration(l.Depth)*perDepthTimeout, minDepthTimeout), maxDepthTimeout)
	default:
		return minDepthTimeout
	}
}

func parseBestMove(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	switch mv := strings.ToLower(fields[1]); mv {
	case "(none)", "0000", "none":
		return ""
	default:
		return mv
	}
}

// parseInfo extracts the multipv index, score and principal variation from
// an "info" line. Lines without a pv are ignored.
func parseInfo(line string) (int, Candidate, bool) {
	fields := strings.Fields(line)
	multipv, eval := 1, 0
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					multipv = v
				}
				i++
			}
		case "score":
			if i+2 < len(fields) {
				eval = parseScore(fields[i+1], fields[i+2], eval)
				i += 2
			}
		case "pv":
			pv := fields[i+1:]
			if len(pv) == 0 {
				return 0, Candidate{}, false
			}
			return multipv, Candidate{
				Move:      pv[0],
				EvalCP:    eval,
				Principal: append([]string(nil), pv...),
			}, true
		}
	}
	return 0, Candidate{}, false
}

func parseScore(kind, value string, fallback int) int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	switch kind {
	case "cp":
		return v
	case "mate":
		if v < 0 {
			return -mateScore
		}
		return mateScore
	default:
		return fallback
	}
}

func collapseCandidates(m map[int]Candidate) []Candidate {
	if len(m) == 0 {
		return nil
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
