// Package game defines the core board types for tic-tac-toe.
//
// A Board is a plain array value: assigning or passing it copies all nine
// cells, so the evaluator can explore the game tree without ever aliasing a
// parent's board.
package game

import (
	"fmt"
	"strings"
)

// Cell is the state of a single board space.
type Cell uint8

const (
	Empty Cell = iota
	MarkX
	MarkO
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return " "
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "?"
	}
}

// Side is one of the two participants.
type Side uint8

const (
	SideX Side = iota
	SideO
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	switch s {
	case SideX:
		return SideO
	case SideO:
		return SideX
	}
	panic(fmt.Sprintf("game: unknown side %d", s))
}

// Cell returns the mark this side writes to the board.
func (s Side) Cell() Cell {
	switch s {
	case SideX:
		return MarkX
	case SideO:
		return MarkO
	}
	panic(fmt.Sprintf("game: unknown side %d", s))
}

func (s Side) String() string {
	switch s {
	case SideX:
		return "X"
	case SideO:
		return "O"
	default:
		return fmt.Sprintf("Side(%d)", s)
	}
}

// ParseSide accepts "x"/"X"/"o"/"O".
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return SideX, nil
	case "O":
		return SideO, nil
	}
	return 0, fmt.Errorf("invalid side %q", s)
}

// SideOf returns the side owning a non-empty cell.
func SideOf(c Cell) (Side, bool) {
	switch c {
	case MarkX:
		return SideX, true
	case MarkO:
		return SideO, true
	}
	return 0, false
}

// Position is a board coordinate. (0,0) is the top left space.
type Position struct {
	Row int
	Col int
}

var (
	TopLeft      = Position{0, 0}
	TopMiddle    = Position{0, 1}
	TopRight     = Position{0, 2}
	MiddleLeft   = Position{1, 0}
	MiddleMiddle = Position{1, 1}
	MiddleRight  = Position{1, 2}
	BottomLeft   = Position{2, 0}
	BottomMiddle = Position{2, 1}
	BottomRight  = Position{2, 2}
)

var allPositions = [9]Position{
	TopLeft, TopMiddle, TopRight,
	MiddleLeft, MiddleMiddle, MiddleRight,
	BottomLeft, BottomMiddle, BottomRight,
}

// AllPositions returns the nine positions in row-major order.
// The order is stable and doubles as the evaluator's tie-break order.
func AllPositions() []Position {
	out := allPositions
	return out[:]
}

// PositionAt returns the position for row and col if both are in range.
func PositionAt(row, col int) (Position, bool) {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return Position{}, false
	}
	return Position{Row: row, Col: col}, true
}

// Index is the row-major index of the position, 0..8.
func (p Position) Index() int {
	return p.Row*3 + p.Col
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Board is the 3x3 grid, indexed [row][col].
type Board [3][3]Cell

// NewBoard returns an empty board.
func NewBoard() Board {
	return Board{}
}

// At returns the cell at p.
func (b Board) At(p Position) Cell {
	return b[p.Row][p.Col]
}

// IsEmpty reports whether p is unoccupied.
func (b Board) IsEmpty(p Position) bool {
	return b.At(p) == Empty
}

// WithMove returns a copy of b with side's mark written at p.
// b itself is never modified. Writing to an occupied cell panics: marks are
// never overwritten during play.
func (b Board) WithMove(p Position, side Side) Board {
	if !b.IsEmpty(p) {
		panic(fmt.Sprintf("game: position %s already holds %s", p, b.At(p)))
	}
	b[p.Row][p.Col] = side.Cell()
	return b
}

// EmptyCount returns the number of unoccupied cells.
func (b Board) EmptyCount() int {
	n := 0
	for _, p := range allPositions {
		if b.IsEmpty(p) {
			n++
		}
	}
	return n
}

// Cells returns the nine cells in row-major order.
func (b Board) Cells() [9]Cell {
	var out [9]Cell
	for i, p := range allPositions {
		out[i] = b.At(p)
	}
	return out
}

// Compact renders the board as nine characters, '.' for empty.
func (b Board) Compact() string {
	var sb strings.Builder
	for _, p := range allPositions {
		if c := b.At(p); c == Empty {
			sb.WriteByte('.')
		} else {
			sb.WriteString(c.String())
		}
	}
	return sb.String()
}

const horizLine = "-----------"

// String draws the board the way the terminal UI does.
func (b Board) String() string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString(horizLine)
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, " %s | %s | %s", b[row][0], b[row][1], b[row][2])
		if row < 2 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard reads nine cells in row-major order. 'X'/'x' and 'O'/'o' are
// marks; '.', '-', '_' and ' ' are empty. Newlines and '|' are ignored so
// multi-line literals work in tests and config files.
func ParseBoard(s string) (Board, error) {
	var b Board
	n := 0
	for _, r := range s {
		var c Cell
		switch r {
		case 'X', 'x':
			c = MarkX
		case 'O', 'o':
			c = MarkO
		case '.', '-', '_', ' ':
			c = Empty
		case '\n', '\r', '\t', '|':
			continue
		default:
			return Board{}, fmt.Errorf("invalid board character %q", r)
		}
		if n >= 9 {
			return Board{}, fmt.Errorf("board has more than 9 cells")
		}
		p := allPositions[n]
		b[p.Row][p.Col] = c
		n++
	}
	if n != 9 {
		return Board{}, fmt.Errorf("board has %d cells, want 9", n)
	}
	return b, nil
}

// MustParseBoard is ParseBoard for literals known to be valid.
func MustParseBoard(s string) Board {
	b, err := ParseBoard(s)
	if err != nil {
		panic(err)
	}
	return b
}
