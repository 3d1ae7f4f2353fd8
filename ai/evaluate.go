// Package ai implements the computer player: an exhaustive game-tree
// evaluator and a difficulty-driven policy that picks among its candidates.
package ai

import (
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
)

const (
	WinScore  = 1.0
	LossScore = -WinScore
	DrawScore = 0.0

	// Decay is applied once per ply so that outcomes reached sooner dominate
	// outcomes that need deeper continuations.
	Decay = 0.5
)

// Candidate is a legal move and its win score. Scores lie in [-1, 1] and are
// only comparable between siblings of the same evaluation.
type Candidate struct {
	Position game.Position
	Score    float64
}

// Evaluator scores moves under a rules mode.
type Evaluator struct {
	Mode rules.Mode
}

// EvaluateMoves scores every legal move for perspective under classic rules.
func EvaluateMoves(b game.Board, perspective game.Side) []Candidate {
	return Evaluator{Mode: rules.Classic}.EvaluateMoves(b, perspective)
}

// EvaluateMoves scores every move the perspective side can make on b.
//
// Candidates come back in game.AllPositions order, one per empty cell. A
// board with no empty cell yields no candidates; callers must check the
// outcome first.
func (e Evaluator) EvaluateMoves(b game.Board, perspective game.Side) []Candidate {
	return e.evaluate(b, perspective, perspective)
}

func (e Evaluator) evaluate(b game.Board, acting, perspective game.Side) []Candidate {
	candidates := make([]Candidate, 0, b.EmptyCount())
	for _, p := range game.AllPositions() {
		if !b.IsEmpty(p) {
			continue
		}
		candidates = append(candidates, Candidate{
			Position: p,
			Score:    e.score(b.WithMove(p, acting), acting, perspective),
		})
	}
	return candidates
}

// score rates the board reached after acting has moved.
func (e Evaluator) score(b game.Board, acting, perspective game.Side) float64 {
	outcome := e.Mode.Classify(b)
	if outcome.Finished() {
		return leafScore(outcome, perspective)
	}

	// A full board is never InProgress, so there is at least one reply here.
	replies := e.evaluate(b, acting.Opposite(), perspective)
	total := 0.0
	for _, r := range replies {
		total += r.Score
	}
	return Decay * total / float64(len(replies))
}

func leafScore(outcome game.Outcome, perspective game.Side) float64 {
	switch outcome.Kind {
	case game.KindWon:
		if outcome.Winner == perspective {
			return WinScore
		}
		return LossScore
	case game.KindDraw:
		return DrawScore
	}
	panic("ai: leaf reached with a game still in progress")
}
