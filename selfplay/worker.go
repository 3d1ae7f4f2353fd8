// Package selfplay plays AI against AI and archives every decision to
// parquet.
package selfplay

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
	"github.com/brensch/tactic/store"
)

const Source = "selfplay"

// Config describes the two policies of a self-play game.
type Config struct {
	DifficultyX float64
	DifficultyO float64
	Mode        rules.Mode
}

func (c Config) difficulty(side game.Side) float64 {
	if side == game.SideO {
		return c.DifficultyO
	}
	return c.DifficultyX
}

func (c Config) policies() (map[game.Side]*ai.Policy, error) {
	out := make(map[game.Side]*ai.Policy, 2)
	for _, side := range []game.Side{game.SideX, game.SideO} {
		p, err := ai.NewPolicy(c.difficulty(side), ai.WithMode(c.Mode))
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", side, err)
		}
		out[side] = p
	}
	return out, nil
}

func (c Config) Validate() error {
	_, err := c.policies()
	return err
}

type GameResult struct {
	GameID   string
	Outcome  game.Outcome
	Turns    int
	Mistakes int
}

var gameSeq atomic.Uint64

func nextGameID() string {
	return fmt.Sprintf("selfplay_%d_%d", time.Now().UnixNano(), gameSeq.Add(1))
}

// PlayGame plays one game to completion. Every AI decision becomes a row;
// row values are assigned once the game ends. Cancelling ctx aborts between
// turns and discards the partial game.
func PlayGame(ctx context.Context, cfg Config, rng ai.Rand) (GameResult, []store.TurnRow, error) {
	policies, err := cfg.policies()
	if err != nil {
		return GameResult{}, nil, err
	}

	result := GameResult{GameID: nextGameID()}
	rows := make([]store.TurnRow, 0, 9)
	board := game.NewBoard()
	active := game.SideX

	for {
		if err := ctx.Err(); err != nil {
			return result, nil, err
		}

		outcome := cfg.Mode.Classify(board)
		if outcome.Finished() {
			result.Outcome = outcome
			break
		}

		d, err := policies[active].Choose(board, active, rng)
		if err != nil {
			return result, nil, fmt.Errorf("turn %d: %w", result.Turns, err)
		}
		rows = append(rows, store.NewTurnRow(result.GameID, result.Turns, cfg.Mode.String(), active, cfg.difficulty(active), board, d))
		rows[len(rows)-1].Source = Source
		if d.Mistake {
			result.Mistakes++
		}

		board = d.Board
		active = active.Opposite()
		result.Turns++
	}

	store.SetResult(rows, result.Outcome)

	log.Debug().
		Str("game_id", result.GameID).
		Str("outcome", result.Outcome.String()).
		Int("turns", result.Turns).
		Int("mistakes", result.Mistakes).
		Msg("selfplay game finished")
	return result, rows, nil
}
