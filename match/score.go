package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brensch/tactic/game"
)

// Score counts finished games in a session.
type Score struct {
	X     uint32
	O     uint32
	Draws uint32
}

// Add books one finished outcome.
func (s *Score) Add(o game.Outcome) {
	switch o.Kind {
	case game.KindWon:
		if o.Winner == game.SideX {
			s.X++
		} else {
			s.O++
		}
	case game.KindDraw:
		s.Draws++
	}
}

func (s Score) Games() uint32 { return s.X + s.O + s.Draws }
func (s Score) Wins() uint32 { return s.X + s.O }

// Percent returns n as a percentage of all games, 0 before the first game.
func (s Score) Percent(n uint32) float64 {
	games := s.Games()
	if games == 0 {
		return 0
	}
	return float64(n) / float64(games) * 100
}

type LimitMode uint8

const (
	Unlimited LimitMode = iota
	// TotalGames stops after Value games of any result.
	TotalGames
	// WonGames stops after Value games that were not draws.
	WonGames
	// MaxScore stops once either side has won Value games.
	MaxScore
)

var limitModeNames = []string{"unlimited", "total-games", "won-games", "max-score"}

// Label is the text shown in the setup menu.
func (m LimitMode) Label() string {
	switch m {
	case TotalGames:
		return "Max number of total games"
	case WonGames:
		return "Max number of won games"
	case MaxScore:
		return "Max score of either player"
	default:
		return "Unlimited"
	}
}

func (m LimitMode) String() string {
	if int(m) < len(limitModeNames) {
		return limitModeNames[m]
	}
	return fmt.Sprintf("LimitMode(%d)", m)
}

func ParseLimitMode(s string) (LimitMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Unlimited, nil
	}
	for i, name := range limitModeNames {
		if s == name {
			return LimitMode(i), nil
		}
	}
	return Unlimited, fmt.Errorf("invalid game limit %q", s)
}

func (m LimitMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *LimitMode) UnmarshalText(text []byte) error {
	parsed, err := ParseLimitMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var ErrInvalidLimit = errors.New("game limit value must be at least 1")

// Limit decides when a session of several games ends.
type Limit struct {
	Mode  LimitMode
	Value uint32
}

func (l Limit) Validate() error {
	if l.Mode != Unlimited && l.Value == 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Reached reports whether score has hit the limit.
func (l Limit) Reached(s Score) bool {
	switch l.Mode {
	case TotalGames:
		return s.Games() >= l.Value
	case WonGames:
		return s.Wins() >= l.Value
	case MaxScore:
		return s.X >= l.Value || s.O >= l.Value
	}
	return false
}
