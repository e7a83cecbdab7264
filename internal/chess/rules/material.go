package rules

import nchess "github.com/corentings/chess/v2"

var (
	pieceValues = map[nchess.PieceType]int{
		nchess.Pawn:   1,
		nchess.Knight: 3,
		nchess.Bishop: 3,
		nchess.Rook:   5,
		nchess.Queen:  9,
	}
	initialCounts = map[nchess.PieceType]int{
		nchess.Queen:  1,
		nchess.Rook:   2,
		nchess.Bishop: 2,
		nchess.Knight: 2,
		nchess.Pawn:   8,
	}
	// most valuable first
	pieceOrder = []nchess.PieceType{nchess.Queen, nchess.Rook, nchess.Bishop, nchess.Knight, nchess.Pawn}
)

// Material is the sum of piece values per side and the pieces each side has lost.
type Material struct {
	White     int
	Black     int
	LostWhite []string
	LostBlack []string
}

// CountMaterial tallies the board. Lost pieces are derived from the standard
// starting counts, so promotions can hide a lost pawn.
func (p *Position) CountMaterial() Material {
	counts := map[nchess.Color]map[nchess.PieceType]int{
		nchess.White: {},
		nchess.Black: {},
	}
	var m Material
	board := p.Board()
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			value := pieceValues[piece.Type()]
			if value == 0 {
				continue
			}
			counts[piece.Color()][piece.Type()]++
			if piece.Color() == nchess.White {
				m.White += value
			} else {
				m.Black += value
			}
		}
	}
	m.LostWhite = lostPieces(counts[nchess.White])
	m.LostBlack = lostPieces(counts[nchess.Black])
	return m
}

func lostPieces(current map[nchess.PieceType]int) []string {
	out := make([]string, 0)
	for _, pt := range pieceOrder {
		for i := current[pt]; i < initialCounts[pt]; i++ {
			out = append(out, pieceName(pt))
		}
	}
	return out
}

func pieceName(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "queen"
	case nchess.Rook:
		return "rook"
	case nchess.Bishop:
		return "bishop"
	case nchess.Knight:
		return "knight"
	case nchess.Pawn:
		return "pawn"
	case nchess.King:
		return "king"
	default:
		return ""
	}
}
