package rules

import (
	"fmt"
	"strings"

	"github.com/brensch/tactic/game"
)

// Mode selects how a completed line is scored.
type Mode uint8

const (
	// Classic: three of your marks in a row wins.
	Classic Mode = iota
	// Reverse: three of your marks in a row loses.
	Reverse
)

func (m Mode) String() string {
	switch m {
	case Classic:
		return "classic"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Description is the one-line explanation shown by the setup menu.
func (m Mode) Description() string {
	switch m {
	case Reverse:
		return "Play to avoid placing three of your pieces in a row."
	default:
		return "Play to place three of your pieces in a row."
	}
}

// ParseMode accepts "classic" or "reverse" (case-insensitive, empty = classic).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classic":
		return Classic, nil
	case "reverse":
		return Reverse, nil
	}
	return Classic, fmt.Errorf("invalid game mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Classify returns the classic-rules outcome of b.
func Classify(b game.Board) game.Outcome {
	return Classic.Classify(b)
}

// Classify returns the outcome of b under mode m.
//
// The 8 win lines are checked in game.AllWinLines order and the first
// complete line decides the game. Without a complete line the game is a
// draw once no empty cell remains.
func (m Mode) Classify(b game.Board) game.Outcome {
	for _, line := range game.AllWinLines() {
		owner, ok := lineOwner(b, line)
		if !ok {
			continue
		}
		switch m {
		case Classic:
			return game.Won(owner, line)
		case Reverse:
			return game.Won(owner.Opposite(), line)
		default:
			panic(fmt.Sprintf("rules: unknown mode %d", m))
		}
	}

	if b.EmptyCount() > 0 {
		return game.InProgress()
	}
	return game.Draw()
}

func lineOwner(b game.Board, line game.WinLine) (game.Side, bool) {
	ps := line.Positions()
	first := b.At(ps[0])
	if first == game.Empty {
		return 0, false
	}
	if b.At(ps[1]) != first || b.At(ps[2]) != first {
		return 0, false
	}
	return game.SideOf(first)
}

// IsTerminal reports whether the classic game on b is over.
func IsTerminal(b game.Board) bool {
	return Classify(b).Finished()
}

// LegalMoves returns every empty position in game.AllPositions order.
func LegalMoves(b game.Board) []game.Position {
	moves := make([]game.Position, 0, 9)
	for _, p := range game.AllPositions() {
		if b.IsEmpty(p) {
			moves = append(moves, p)
		}
	}
	return moves
}

// NextToMove infers whose turn it is from mark counts, X moving first.
// It is used where a board arrives without a side, e.g. over HTTP.
func NextToMove(b game.Board) game.Side {
	x, o := 0, 0
	for _, c := range b.Cells() {
		switch c {
		case game.MarkX:
			x++
		case game.MarkO:
			o++
		}
	}
	if x > o {
		return game.SideO
	}
	return game.SideX
}
