package selfplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/store"
)

type RunOptions struct {
	OutDir        string
	Workers       int
	Games         int // <= 0 runs until ctx is cancelled
	GamesPerFlush int
	Seed          uint64
	// OnGame is called from worker goroutines after each finished game.
	OnGame func(worker int, res GameResult)
}

// Stats summarises a finished run.
type Stats struct {
	Score match.Score
	Rows  int
	Files []string
}

type gameWriteRequest struct {
	result GameResult
	rows   []store.TurnRow
}

// Run plays games on opts.Workers goroutines, each with its own RNG seeded
// from opts.Seed, and funnels their rows to a single parquet writer.
func Run(ctx context.Context, cfg Config, opts RunOptions) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.GamesPerFlush <= 0 {
		opts.GamesPerFlush = 50
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writeReqs := make(chan gameWriteRequest, opts.Workers*4)

	var stats Stats
	var writeErr error
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		stats, writeErr = parquetWriterLoop(opts.OutDir, opts.GamesPerFlush, writeReqs)
		if writeErr != nil {
			cancel()
		}
	}()

	var claimed atomic.Int64
	var playErr error
	var playErrOnce sync.Once
	var workerWG sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			rng := ai.NewRand(opts.Seed + uint64(workerID))
			log.Debug().Int("worker", workerID).Msg("selfplay worker started")

			for {
				if opts.Games > 0 && claimed.Add(1) > int64(opts.Games) {
					return
				}
				res, rows, err := PlayGame(ctx, cfg, rng)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						playErrOnce.Do(func() { playErr = err })
						cancel()
					}
					return
				}

				select {
				case writeReqs <- gameWriteRequest{result: res, rows: rows}:
				case <-ctx.Done():
					return
				}
				if opts.OnGame != nil {
					opts.OnGame(workerID, res)
				}
			}
		}(i)
	}

	workerWG.Wait()
	close(writeReqs)
	<-writerDone

	if playErr != nil {
		return stats, playErr
	}
	if writeErr != nil {
		return stats, writeErr
	}
	return stats, nil
}

func parquetWriterLoop(outDir string, gamesPerFlush int, in <-chan gameWriteRequest) (Stats, error) {
	var stats Stats
	var w *store.BatchWriter

	flush := func() error {
		if w == nil {
			return nil
		}
		outPath, rows, games, err := w.Finalize()
		w = nil
		if err != nil {
			return fmt.Errorf("parquet flush: %w", err)
		}
		if outPath != "" {
			stats.Files = append(stats.Files, outPath)
			log.Info().Str("path", outPath).Int("games", games).Int("rows", rows).Msg("parquet flush ok")
		}
		return nil
	}

	var firstErr error
	for req := range in {
		if firstErr != nil {
			continue
		}
		if w == nil {
			var err error
			if w, err = store.NewBatchWriter(outDir); err != nil {
				firstErr = err
				continue
			}
		}
		if err := w.WriteGame(req.rows); err != nil {
			firstErr = fmt.Errorf("write game %s: %w", req.result.GameID, err)
			continue
		}
		stats.Rows += len(req.rows)
		stats.Score.Add(req.result.Outcome)

		if w.Games() >= gamesPerFlush {
			if err := flush(); err != nil {
				firstErr = err
			}
		}
	}

	if err := flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	return stats, firstErr
}
