package chess

import (
	"time"

	"github.com/park285/chess-engine-http/internal/chess/uci"
)

const minMoveTime = 10 * time.Millisecond

func searchLimits(budget time.Duration, depth int) uci.Limits {
	if budget <= 0 {
		return uci.Limits{Depth: depth}
	}
	if budget < minMoveTime {
		budget = minMoveTime
	}
	return uci.Limits{
		Depth:          depth,
		MoveTimeMillis: int(budget / time.Millisecond),
	}
}
