package game

import "fmt"

// WinLine is a row, column or diagonal. Lines are checked in declaration
// order, so when a board holds several complete lines the earliest wins.
type WinLine uint8

const (
	TopRow WinLine = iota
	MiddleRow
	BottomRow
	LeftColumn
	MiddleColumn
	RightColumn
	TopLeftToBottomRight
	BottomLeftToTopRight
)

var winLinePositions = [8][3]Position{
	TopRow:               {TopLeft, TopMiddle, TopRight},
	MiddleRow:            {MiddleLeft, MiddleMiddle, MiddleRight},
	BottomRow:            {BottomLeft, BottomMiddle, BottomRight},
	LeftColumn:           {TopLeft, MiddleLeft, BottomLeft},
	MiddleColumn:         {TopMiddle, MiddleMiddle, BottomMiddle},
	RightColumn:          {TopRight, MiddleRight, BottomRight},
	TopLeftToBottomRight: {TopLeft, MiddleMiddle, BottomRight},
	BottomLeftToTopRight: {BottomLeft, MiddleMiddle, TopRight},
}

var winLineNames = [8]string{
	"TopRow", "MiddleRow", "BottomRow",
	"LeftColumn", "MiddleColumn", "RightColumn",
	"TopLeftToBottomRight", "BottomLeftToTopRight",
}

// AllWinLines returns the 8 lines in check order.
func AllWinLines() []WinLine {
	return []WinLine{
		TopRow, MiddleRow, BottomRow,
		LeftColumn, MiddleColumn, RightColumn,
		TopLeftToBottomRight, BottomLeftToTopRight,
	}
}

// Positions returns the three cells of the line.
func (l WinLine) Positions() [3]Position {
	return winLinePositions[l]
}

func (l WinLine) String() string {
	if int(l) < len(winLineNames) {
		return winLineNames[l]
	}
	return fmt.Sprintf("WinLine(%d)", l)
}

// OutcomeKind discriminates Outcome.
type OutcomeKind uint8

const (
	KindInProgress OutcomeKind = iota
	KindDraw
	KindWon
)

// Outcome is InProgress, Draw or Won(side). It is derived from a board on
// demand and must be recomputed after every move.
type Outcome struct {
	Kind   OutcomeKind
	Winner Side
	Line   WinLine
}

// InProgress is the outcome of a game that still has moves to play.
func InProgress() Outcome { return Outcome{Kind: KindInProgress} }

// Draw is the outcome of a full board with no winner.
func Draw() Outcome { return Outcome{Kind: KindDraw} }

// Won is the outcome of a game won by side with line.
func Won(side Side, line WinLine) Outcome {
	return Outcome{Kind: KindWon, Winner: side, Line: line}
}

// Finished reports whether no more moves can be played.
func (o Outcome) Finished() bool {
	switch o.Kind {
	case KindInProgress:
		return false
	case KindDraw, KindWon:
		return true
	}
	panic(fmt.Sprintf("game: unknown outcome kind %d", o.Kind))
}

// IsWon reports whether some side won.
func (o Outcome) IsWon() bool {
	return o.Kind == KindWon
}

// WonBy reports whether side won.
func (o Outcome) WonBy(side Side) bool {
	return o.Kind == KindWon && o.Winner == side
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindInProgress:
		return "in progress"
	case KindDraw:
		return "draw"
	case KindWon:
		return fmt.Sprintf("%s won (%s)", o.Winner, o.Line)
	}
	return fmt.Sprintf("Outcome(%d)", o.Kind)
}
