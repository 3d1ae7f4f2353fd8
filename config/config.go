// Package config holds the pre-game settings chosen in the setup menu or
// loaded from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/rules"
)

// Difficulties are whole percentages. The menu moves in steps of
// DifficultyStep between MinDifficulty and MaxDifficulty.
const (
	MinDifficulty     = 5
	MaxDifficulty     = 100
	DifficultyStep    = 5
	DefaultDifficulty = 85
)

var (
	ErrDifficultyRange = fmt.Errorf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)
	ErrEndlessAIGame   = errors.New("AI vs AI needs a game limit")
)

type Player struct {
	Type       match.PlayerKind `yaml:"type"`
	Difficulty int              `yaml:"difficulty"`
}

// Settings is everything decided before the first game of a session.
type Settings struct {
	X     Player      `yaml:"player_x"`
	O     Player      `yaml:"player_o"`
	Limit match.Limit `yaml:"limit"`
	Mode  rules.Mode  `yaml:"mode"`
}

// Default is human X against an AI O at the default difficulty, unlimited
// classic games.
func Default() Settings {
	return Settings{
		X:     Player{Type: match.Human, Difficulty: DefaultDifficulty},
		O:     Player{Type: match.AI, Difficulty: DefaultDifficulty},
		Limit: match.Limit{Mode: match.Unlimited, Value: 1},
		Mode:  rules.Classic,
	}
}

// Load reads a settings file. Keys missing from the file keep their
// defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s Settings) Player(side game.Side) Player {
	if side == game.SideO {
		return s.O
	}
	return s.X
}

// Validate checks the settings can start a session.
func (s Settings) Validate() error {
	for _, side := range []game.Side{game.SideX, game.SideO} {
		p := s.Player(side)
		if p.Type != match.AI {
			continue
		}
		if p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
			return fmt.Errorf("player %s: %w, got %d", side, ErrDifficultyRange, p.Difficulty)
		}
	}
	if err := s.Limit.Validate(); err != nil {
		return err
	}
	if s.X.Type == match.AI && s.O.Type == match.AI && s.Limit.Mode == match.Unlimited {
		return ErrEndlessAIGame
	}
	return nil
}

// Fraction converts a percentage difficulty to the policy range.
func Fraction(percent int) float64 {
	return float64(percent) / 100
}

// Players builds the session controllers for both sides.
func (s Settings) Players() (x, o match.Player, err error) {
	build := func(p Player) (match.Player, error) {
		if p.Type != match.AI {
			return match.HumanPlayer(), nil
		}
		policy, err := ai.NewPolicy(Fraction(p.Difficulty), ai.WithMode(s.Mode))
		if err != nil {
			return match.Player{}, err
		}
		return match.AIPlayer(policy), nil
	}
	if x, err = build(s.X); err != nil {
		return match.Player{}, match.Player{}, fmt.Errorf("player X: %w", err)
	}
	if o, err = build(s.O); err != nil {
		return match.Player{}, match.Player{}, fmt.Errorf("player O: %w", err)
	}
	return x, o, nil
}

// NewSession validates the settings and starts a session with rng.
func (s Settings) NewSession(rng ai.Rand) (*match.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	x, o, err := s.Players()
	if err != nil {
		return nil, err
	}
	return match.NewSession(x, o, s.Mode, s.Limit, rng)
}
