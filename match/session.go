// Package match runs games of tic-tac-toe between human and AI players and
// keeps score across them.
package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
)

var (
	ErrOccupied  = errors.New("space already taken")
	ErrNotHuman  = errors.New("active player is not human")
	ErrNotAI     = errors.New("active player is not an AI")
	ErrNilPolicy = errors.New("AI player has no policy")
)

type PlayerKind uint8

const (
	Human PlayerKind = iota
	AI
)

func (k PlayerKind) String() string {
	if k == AI {
		return "AI"
	}
	return "Human"
}

func ParsePlayerKind(s string) (PlayerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return Human, nil
	case "ai":
		return AI, nil
	}
	return Human, fmt.Errorf("unknown player type %q", s)
}

func (k PlayerKind) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(k.String())), nil
}

func (k *PlayerKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayerKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Player is one side's controller. Policy is only used when Kind is AI.
type Player struct {
	Kind   PlayerKind
	Policy *ai.Policy
}

func HumanPlayer() Player { return Player{Kind: Human} }

func AIPlayer(p *ai.Policy) Player { return Player{Kind: AI, Policy: p} }

// Session holds the canonical board and the running score.
// It is not safe for concurrent use.
type Session struct {
	players map[game.Side]Player
	mode    rules.Mode
	limit   Limit
	rng     ai.Rand

	board    game.Board
	active   game.Side
	turn     int
	score    Score
	recorded bool
}

// NewSession starts the first game with X to move.
func NewSession(x, o Player, mode rules.Mode, limit Limit, rng ai.Rand) (*Session, error) {
	for side, p := range map[game.Side]Player{game.SideX: x, game.SideO: o} {
		if p.Kind == AI && p.Policy == nil {
			return nil, fmt.Errorf("player %s: %w", side, ErrNilPolicy)
		}
	}
	if err := limit.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		players: map[game.Side]Player{game.SideX: x, game.SideO: o},
		mode:    mode,
		limit:   limit,
		rng:     rng,
	}
	s.NewGame()
	return s, nil
}

func (s *Session) Board() game.Board { return s.board }
func (s *Session) Active() game.Side { return s.active }
func (s *Session) Turn() int { return s.turn }
func (s *Session) Mode() rules.Mode { return s.mode }
func (s *Session) Limit() Limit { return s.limit }
func (s *Session) Score() Score { return s.score }
func (s *Session) Player(side game.Side) Player { return s.players[side] }

// ActivePlayer returns the controller of the side to move.
func (s *Session) ActivePlayer() Player {
	return s.players[s.active]
}

// Outcome classifies the current board. It is recomputed on every call.
func (s *Session) Outcome() game.Outcome {
	return s.mode.Classify(s.board)
}

// Place plays a human move at p for the active side.
func (s *Session) Place(p game.Position) error {
	if s.ActivePlayer().Kind != Human {
		return ErrNotHuman
	}
	if s.Outcome().Finished() {
		return ai.ErrGameFinished
	}
	if !s.board.IsEmpty(p) {
		return fmt.Errorf("%s: %w", p, ErrOccupied)
	}
	s.apply(s.board.WithMove(p, s.active))
	return nil
}

// PlayAI lets the active AI take its turn and returns its decision.
// ai.ErrNoMovesFound is returned unchanged and means the board model is
// broken.
func (s *Session) PlayAI() (ai.Decision, error) {
	player := s.ActivePlayer()
	if player.Kind != AI {
		return ai.Decision{}, ErrNotAI
	}

	d, err := player.Policy.Choose(s.board, s.active, s.rng)
	if err != nil {
		return ai.Decision{}, err
	}
	return d, s.Commit(d)
}

// Commit applies a decision the active AI made for the current board. The
// policy may run elsewhere, e.g. in a UI command, as long as it was given
// this session's board and active side.
func (s *Session) Commit(d ai.Decision) error {
	if s.ActivePlayer().Kind != AI {
		return ErrNotAI
	}
	if s.Outcome().Finished() {
		return ai.ErrGameFinished
	}
	p := d.Chosen.Position
	if !s.board.IsEmpty(p) {
		return fmt.Errorf("%s: %w", p, ErrOccupied)
	}

	log.Debug().
		Str("side", s.active.String()).
		Int("turn", s.turn).
		Str("position", p.String()).
		Float64("score", d.Chosen.Score).
		Bool("mistake", d.Mistake).
		Msg("ai move")

	s.apply(s.board.WithMove(p, s.active))
	return nil
}

func (s *Session) apply(next game.Board) {
	s.board = next
	s.turn++
	if !s.Outcome().Finished() {
		s.active = s.active.Opposite()
	}
}

// Record books the finished game into the score. It is a no-op while the
// game is in progress or once the game has been recorded.
func (s *Session) Record() (game.Outcome, bool) {
	outcome := s.Outcome()
	if !outcome.Finished() || s.recorded {
		return outcome, false
	}
	s.score.Add(outcome)
	s.recorded = true

	log.Info().
		Str("outcome", outcome.String()).
		Str("mode", s.mode.String()).
		Int("turns", s.turn).
		Uint32("x", s.score.X).
		Uint32("o", s.score.O).
		Uint32("draws", s.score.Draws).
		Msg("game finished")
	return outcome, true
}

// NewGame clears the board and gives the first move to X.
func (s *Session) NewGame() {
	s.board = game.NewBoard()
	s.active = game.SideX
	s.turn = 0
	s.recorded = false
}

// LimitReached reports whether the configured game limit stops the session.
func (s *Session) LimitReached() bool {
	return s.limit.Reached(s.score)
}

// SetDifficulty changes an AI player's difficulty mid-session.
func (s *Session) SetDifficulty(side game.Side, d float64) error {
	p := s.players[side]
	if p.Kind != AI {
		return ErrNotAI
	}
	return p.Policy.SetDifficulty(d)
}
