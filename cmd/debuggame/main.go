package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/logging"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/rules"
	"github.com/brensch/tactic/store"
)

const source = "debuggame"

func main() {
	outDir := flag.String("out-dir", "debug_games", "Output directory for debug games")
	difficultyX := flag.Float64("difficulty-x", 1.0, "Difficulty of X in (0, 1]")
	difficultyO := flag.Float64("difficulty-o", 0.5, "Difficulty of O in (0, 1]")
	modeName := flag.String("mode", "classic", "Game mode (classic or reverse)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time based)")
	flag.Parse()

	if err := logging.Setup(os.Stderr, "info", true); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	mode, err := rules.ParseMode(*modeName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad mode")
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	x, err := ai.NewPolicy(*difficultyX, ai.WithMode(mode))
	if err != nil {
		log.Fatal().Err(err).Msg("player X")
	}
	o, err := ai.NewPolicy(*difficultyO, ai.WithMode(mode))
	if err != nil {
		log.Fatal().Err(err).Msg("player O")
	}
	session, err := match.NewSession(match.AIPlayer(x), match.AIPlayer(o), mode,
		match.Limit{Mode: match.TotalGames, Value: 1}, ai.NewRand(*seed))
	if err != nil {
		log.Fatal().Err(err).Msg("session")
	}

	gameID := fmt.Sprintf("debug_%d", *seed)
	var rows []store.TurnRow
	for !session.Outcome().Finished() {
		before, side, turn := session.Board(), session.Active(), session.Turn()
		d, err := session.PlayAI()
		if err != nil {
			log.Fatal().Err(err).Int("turn", turn).Msg("ai turn failed")
		}

		fmt.Printf("Turn %d: %s plays %s (score %+.4f, roll %.3f, mistake %v)\n",
			turn+1, side, d.Chosen.Position, d.Chosen.Score, d.Roll, d.Mistake)
		for _, c := range d.Candidates {
			fmt.Printf("    %s %+.4f\n", c.Position, c.Score)
		}
		fmt.Println(session.Board())
		fmt.Println()

		row := store.NewTurnRow(gameID, turn, mode.String(), side, session.Player(side).Policy.Difficulty(), before, d)
		row.Source = source
		rows = append(rows, row)
	}

	outcome, _ := session.Record()
	store.SetResult(rows, outcome)
	fmt.Printf("Result: %s after %d turns\n", outcome, session.Turn())

	path := filepath.Join(*outDir, gameID+".parquet")
	if err := store.WriteArchiveParquet(path, rows); err != nil {
		log.Fatal().Err(err).Msg("failed to write debug game")
	}
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("debug game written")
}
