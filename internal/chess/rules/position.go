package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrMalformedMove = errors.New("malformed move")
	ErrIllegalMove   = errors.New("illegal move")
)

var coordinateMove = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// Color is the side to move or the side a player controls.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// ParseColor accepts "white" or "black" case-insensitively after trimming.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return White, true
	case "black":
		return Black, true
	default:
		return "", false
	}
}

type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	InsufficientMaterial
	// OtherDraw covers draws the rules library declares on its own
	// (fivefold repetition, seventy-five move rule).
	OtherDraw
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient_material"
	case OtherDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Terminal reports whether no further moves can be played.
func (s Status) Terminal() bool { return s != Ongoing }

// ParseMove normalizes coordinate notation (e2e4, e7e8q).
func ParseMove(text string) (string, error) {
	mv := strings.ToLower(strings.TrimSpace(text))
	if !coordinateMove.MatchString(mv) {
		return "", fmt.Errorf("%w: %q", ErrMalformedMove, text)
	}
	return mv, nil
}

// Position is a mutable board backed by corentings/chess.
type Position struct {
	game  *nchess.Game
	moves []string
}

func NewPosition() *Position {
	return &Position{game: nchess.NewGame(), moves: []string{}}
}

// FromFEN builds a position from a FEN string.
func FromFEN(fen string) (*Position, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &Position{game: nchess.NewGame(opt), moves: []string{}}, nil
}

func (p *Position) FEN() string { return p.game.FEN() }

func (p *Position) Turn() Color {
	if p.game.Position().Turn() == nchess.Black {
		return Black
	}
	return White
}

// Ply is the number of half-moves applied to this position.
func (p *Position) Ply() int { return len(p.moves) }

// Moves returns the applied moves in coordinate notation.
func (p *Position) Moves() []string { return append([]string(nil), p.moves...) }

// Board exposes the underlying board for rendering.
func (p *Position) Board() *nchess.Board { return p.game.Position().Board() }

// LastMove returns the most recently applied move, or "".
func (p *Position) LastMove() string {
	if len(p.moves) == 0 {
		return ""
	}
	return p.moves[len(p.moves)-1]
}

// LegalMoves enumerates legal moves for the side to move.
func (p *Position) LegalMoves() []string {
	pos := p.game.Position()
	valid := p.game.ValidMoves()
	out := make([]string, 0, len(valid))
	notation := nchess.UCINotation{}
	for i := range valid {
		out = append(out, strings.ToLower(notation.Encode(pos, &valid[i])))
	}
	return out
}

// IsLegal reports whether the coordinate move is in the legal set.
func (p *Position) IsLegal(move string) bool {
	mv, err := ParseMove(move)
	if err != nil {
		return false
	}
	for _, legal := range p.LegalMoves() {
		if legal == mv {
			return true
		}
	}
	return false
}

// Apply plays a coordinate move. The position is unchanged on error.
func (p *Position) Apply(move string) error {
	mv, err := ParseMove(move)
	if err != nil {
		return err
	}
	if p.Status().Terminal() {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	if !p.IsLegal(mv) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, mv)
	}
	decoded, err := nchess.UCINotation{}.Decode(p.game.Position(), mv)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, mv, err)
	}
	if err := p.game.Move(decoded, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, mv, err)
	}
	p.moves = append(p.moves, mv)
	return nil
}

// Status classifies the current position.
func (p *Position) Status() Status {
	if p.game.Outcome() == nchess.NoOutcome {
		return Ongoing
	}
	switch p.game.Method() {
	case nchess.Checkmate:
		return Checkmate
	case nchess.Stalemate:
		return Stalemate
	case nchess.InsufficientMaterial:
		return InsufficientMaterial
	default:
		return OtherDraw
	}
}

// Winner returns the side that delivered mate.
func (p *Position) Winner() (Color, bool) {
	switch p.game.Outcome() {
	case nchess.WhiteWon:
		return White, true
	case nchess.BlackWon:
		return Black, true
	default:
		return "", false
	}
}

func (p *Position) Clone() *Position {
	return &Position{game: p.game.Clone(), moves: p.Moves()}
}
