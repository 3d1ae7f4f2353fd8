package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/logging"
	"github.com/brensch/tactic/rules"
	"github.com/brensch/tactic/selfplay"
)

func main() {
	outDir := flag.String("out-dir", filepath.Join("data", "selfplay"), "Output directory for parquet batches")
	workers := flag.Int("workers", 4, "Number of concurrent self-play workers")
	games := flag.Int("games", 1000, "Games to play before exiting (0 = until interrupted)")
	gamesPerFlush := flag.Int("games-per-flush", 50, "Number of games per parquet file")
	difficultyX := flag.Float64("difficulty-x", 0.85, "Difficulty of X in (0, 1]")
	difficultyO := flag.Float64("difficulty-o", 0.85, "Difficulty of O in (0, 1]")
	modeName := flag.String("mode", "classic", "Game mode (classic or reverse)")
	seed := flag.Uint64("seed", 0, "Base RNG seed; worker i uses seed+i (0 = time based)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel, true); err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}

	mode, err := rules.ParseMode(*modeName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad mode")
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := selfplay.Config{DifficultyX: *difficultyX, DifficultyO: *difficultyO, Mode: mode}
	start := time.Now()
	log.Info().
		Int("workers", *workers).
		Int("games", *games).
		Str("mode", mode.String()).
		Uint64("seed", *seed).
		Msg("selfplay started")

	stats, err := selfplay.Run(ctx, cfg, selfplay.RunOptions{
		OutDir:        *outDir,
		Workers:       *workers,
		Games:         *games,
		GamesPerFlush: *gamesPerFlush,
		Seed:          *seed,
		OnGame: func(worker int, res selfplay.GameResult) {
			log.Debug().Int("worker", worker).Str("outcome", res.Outcome.String()).Int("turns", res.Turns).Msg("game done")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("selfplay failed")
	}

	log.Info().
		Uint32("games", stats.Score.Games()).
		Uint32("x_wins", stats.Score.X).
		Uint32("o_wins", stats.Score.O).
		Uint32("draws", stats.Score.Draws).
		Int("rows", stats.Rows).
		Int("files", len(stats.Files)).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("selfplay complete")
}
