package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/config"
	"github.com/brensch/tactic/logging"
	"github.com/brensch/tactic/tui"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML file with the initial setup menu values")
	logFile := flag.String("log-file", "tactic.log", "Log destination; the terminal belongs to the UI")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	seed := flag.Uint64("seed", 0, "RNG seed for AI decisions (0 = time based)")
	flag.Parse()

	f, err := logging.OpenFile(*logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := logging.Setup(f, *logLevel, false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	settings := config.Default()
	if *configPath != "" {
		if settings, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	log.Info().Uint64("seed", *seed).Msg("starting")

	m, err := tui.Run(settings, ai.NewRand(*seed))
	if err != nil {
		log.Error().Err(err).Msg("ui stopped")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if s := m.Score(); s.Games() > 0 {
		fmt.Printf("Final score: X %d, O %d, draws %d (%d games)\n", s.X, s.O, s.Draws, s.Games())
	}
}
