package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize    = 64
	boardSquares  = 8
	boardSize     = squareSize * boardSquares
	sideMargin    = 28
	captionHeight = 36
	bottomMargin  = 28
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	whiteMoveFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow      = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralMoveArrow    = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	captionTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// Options controls a single board image.
type Options struct {
	// Flip draws the board from black's side.
	Flip bool
	// LastMove in coordinate notation is highlighted when set.
	LastMove string
	// Caption is drawn above the board.
	Caption string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

type pngRenderer struct {
	pieces *pieceCache
	face   font.Face
}

func NewBoardRenderer() BoardRenderer {
	return &pngRenderer{pieces: newPieceCache(), face: basicfont.Face7x13}
}

func (r *pngRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, errors.New("board is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := boardSize + sideMargin*2
	height := captionHeight + boardSize + bottomMargin
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	l := layout{origin: image.Point{X: sideMargin, Y: captionHeight}, flip: opts.Flip}

	drawSquares(img, l)
	if err := r.drawPieces(img, board, l); err != nil {
		return nil, err
	}
	if from, to, ok := parseMoveSquares(opts.LastMove); ok {
		drawHighlight(img, board, from, to, l)
	}
	r.drawCoordinates(img, l)
	r.drawCaption(img, opts.Caption)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// layout maps squares to pixels for one orientation.
type layout struct {
	origin image.Point
	flip   bool
}

func (l layout) cell(sq nchess.Square) (col, row int) {
	col = int(sq.File())
	row = 7 - int(sq.Rank())
	if l.flip {
		col, row = 7-col, 7-row
	}
	return col, row
}

func (l layout) rect(sq nchess.Square) image.Rectangle {
	col, row := l.cell(sq)
	x := l.origin.X + col*squareSize
	y := l.origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func (l layout) center(sq nchess.Square) image.Point {
	rc := l.rect(sq)
	return image.Point{X: rc.Min.X + squareSize/2, Y: rc.Min.Y + squareSize/2}
}

func forEachSquare(fn func(sq nchess.Square)) {
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			fn(nchess.NewSquare(file, rank))
		}
	}
}

func drawSquares(dst imagedraw.Image, l layout) {
	forEachSquare(func(sq nchess.Square) {
		imagedraw.Draw(dst, l.rect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	})
}

func (r *pngRenderer) drawPieces(dst imagedraw.Image, board *nchess.Board, l layout) error {
	var firstErr error
	forEachSquare(func(sq nchess.Square) {
		if firstErr != nil {
			return
		}
		piece := board.Piece(sq)
		if piece == nchess.NoPiece {
			return
		}
		img, err := r.pieces.get(piece, squareSize)
		if err != nil {
			firstErr = err
			return
		}
		imagedraw.Draw(dst, l.rect(sq), img, image.Point{}, imagedraw.Over)
	})
	return firstErr
}

// drawHighlight fills both squares for a white move and draws an arrow for a black one.
func drawHighlight(img *image.RGBA, board *nchess.Board, from, to nchess.Square, l layout) {
	mover := nchess.NoColor
	if piece := board.Piece(to); piece != nchess.NoPiece {
		mover = piece.Color()
	}
	switch mover {
	case nchess.White:
		imagedraw.Draw(img, l.rect(from), image.NewUniform(whiteMoveFill), image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, l.rect(to), image.NewUniform(whiteMoveFill), image.Point{}, imagedraw.Over)
	case nchess.Black:
		drawArrow(img, l.center(from), l.center(to), blackMoveArrow)
	default:
		drawArrow(img, l.center(from), l.center(to), neutralMoveArrow)
	}
}

func (r *pngRenderer) drawCoordinates(dst imagedraw.Image, l layout) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardBottom := l.origin.Y + boardSize

	for file := nchess.FileA; file <= nchess.FileH; file++ {
		c := l.center(nchess.NewSquare(file, nchess.Rank1))
		drawCenteredText(drawer, file.String(), c.X, boardBottom+ascent+4)
	}
	for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
		c := l.center(nchess.NewSquare(nchess.FileA, rank))
		drawCenteredText(drawer, rank.String(), l.origin.X-sideMargin/2, c.Y+ascent/2)
	}
}

func (r *pngRenderer) drawCaption(dst imagedraw.Image, caption string) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return
	}
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(captionTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	drawer.Dot = fixed.P(sideMargin, (captionHeight+ascent)/2)
	drawer.DrawString(caption)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func parseMoveSquares(move string) (nchess.Square, nchess.Square, bool) {
	move = strings.ToLower(strings.TrimSpace(move))
	if len(move) < 4 {
		return 0, 0, false
	}
	from, ok := parseSquare(move[0:2])
	if !ok {
		return 0, 0, false
	}
	to, ok := parseSquare(move[2:4])
	if !ok {
		return 0, 0, false
	}
	return from, to, true
}

func parseSquare(s string) (nchess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, false
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), true
}
