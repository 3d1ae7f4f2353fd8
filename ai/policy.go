package ai

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
)

var (
	// ErrGameFinished is returned when asked to move on a won or drawn board.
	ErrGameFinished = errors.New("game already finished")
	// ErrNoMovesFound means the board is in progress yet has no empty cell.
	// It can only happen if the outcome classifier disagrees with the board,
	// so callers should treat it as fatal.
	ErrNoMovesFound = errors.New("no moves found despite game not being finished")
	// ErrInvalidDifficulty rejects difficulties outside (0, 1].
	ErrInvalidDifficulty = errors.New("difficulty must be in (0, 1]")
)

// DefaultDifficulty matches the setup menu's default of 85.
const DefaultDifficulty = 0.85

// Rand is the random source a policy draws from. It is owned by the caller;
// a single Rand must not be shared between goroutines unless wrapped in
// a LockedRand.
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded generator suitable for one player or one worker.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// LockedRand serializes draws from a Rand that several goroutines share.
type LockedRand struct {
	mu sync.Mutex
	r  Rand
}

func NewLockedRand(r Rand) *LockedRand {
	return &LockedRand{r: r}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

type Option func(p *Policy)

// WithMode evaluates moves under the given rules mode.
func WithMode(mode rules.Mode) Option {
	return func(p *Policy) {
		p.mode = mode
	}
}

// Policy is an AI player. Apart from its difficulty it keeps no state
// between turns.
type Policy struct {
	difficulty float64
	mode       rules.Mode
	// classify replaces mode.Classify in the finished check when set.
	classify func(game.Board) game.Outcome
}

// NewPolicy validates difficulty and builds a policy.
func NewPolicy(difficulty float64, options ...Option) (*Policy, error) {
	if err := ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}
	p := &Policy{difficulty: difficulty, mode: rules.Classic}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// MustPolicy is NewPolicy for difficulties known to be valid.
func MustPolicy(difficulty float64, options ...Option) *Policy {
	p, err := NewPolicy(difficulty, options...)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateDifficulty reports whether d is usable by a policy.
func ValidateDifficulty(d float64) error {
	if math.IsNaN(d) || d <= 0 || d > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidDifficulty, d)
	}
	return nil
}

func (p *Policy) Difficulty() float64 { return p.difficulty }
func (p *Policy) Mode() rules.Mode { return p.mode }

// SetDifficulty changes the difficulty, leaving it untouched on error.
func (p *Policy) SetDifficulty(d float64) error {
	if err := ValidateDifficulty(d); err != nil {
		return err
	}
	p.difficulty = d
	return nil
}

// MistakeChance is the probability of not playing the best move.
func (p *Policy) MistakeChance() float64 {
	return clamp(1.0-p.difficulty, 0.0, 1.0)
}

// Decision is the full record of one policy choice.
type Decision struct {
	// Candidates sorted ascending by score, ties in enumeration order.
	Candidates []Candidate
	Chosen     Candidate
	Index      int
	Roll       float64
	Mistake    bool
	Board      game.Board
}

// Choose evaluates b for active and selects a move.
//
// With probability 1-difficulty the policy makes a mistake and plays the
// candidate at floor(difficulty*n) in the ascending list (or the worst one
// if that index is out of range), so mistakes get milder as difficulty
// rises. Otherwise it plays the highest-scoring candidate.
func (p *Policy) Choose(b game.Board, active game.Side, rng Rand) (Decision, error) {
	if p.outcome(b).Finished() {
		return Decision{}, ErrGameFinished
	}

	candidates := Evaluator{Mode: p.mode}.EvaluateMoves(b, active)
	if len(candidates) == 0 {
		return Decision{}, ErrNoMovesFound
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(a.Score, b.Score)
	})

	roll := rng.Float64()
	d := Decision{Candidates: candidates, Roll: roll}

	if p.MistakeChance() > roll {
		d.Mistake = true
		d.Index = int(math.Floor(p.difficulty * float64(len(candidates))))
		if d.Index >= len(candidates) {
			d.Index = 0
		}
	} else {
		d.Index = len(candidates) - 1
	}

	d.Chosen = candidates[d.Index]
	d.Board = b.WithMove(d.Chosen.Position, active)
	return d, nil
}

func (p *Policy) outcome(b game.Board) game.Outcome {
	if p.classify != nil {
		return p.classify(b)
	}
	return p.mode.Classify(b)
}

// TakeTurn plays one move for active and returns the resulting board.
// b is never modified.
func (p *Policy) TakeTurn(b game.Board, active game.Side, rng Rand) (game.Board, error) {
	d, err := p.Choose(b, active, rng)
	if err != nil {
		return b, err
	}
	return d.Board, nil
}

// TakeTurn is the single entry point the control layer calls per AI turn.
func TakeTurn(p *Policy, b game.Board, active game.Side, rng Rand) (game.Board, error) {
	return p.TakeTurn(b, active, rng)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
