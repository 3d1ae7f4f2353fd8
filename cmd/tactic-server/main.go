package main

import (
	"flag"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/logging"
	"github.com/brensch/tactic/server"
)

func main() {
	listen := flag.String("listen", ":8080", "Address to listen on")
	watchDelay := flag.Duration("watch-delay", 300*time.Millisecond, "Pause between /watch frames")
	archiveDir := flag.String("archive-dir", "", "Serve selfplay parquet batches from this directory under /api/games")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if envAddr := os.Getenv("ADDR"); envAddr != "" {
		*listen = envAddr
	}
	if err := logging.Setup(os.Stderr, *logLevel, true); err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	if *logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := []server.Option{server.WithWatchDelay(*watchDelay)}
	if *archiveDir != "" {
		opts = append(opts, server.WithArchiveDir(*archiveDir))
	}
	srv := server.New(opts...)
	log.Info().Str("listen", *listen).Msg("server started")
	if err := srv.Router().Run(*listen); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
