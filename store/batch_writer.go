package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/exp/slices"
)

var ErrBatchClosed = errors.New("batch already finalized")

// BatchWriter collects self-play games into one archive file. While the
// batch is open its rows live in dir/tmp; Finalize stamps the footer with
// the batch's game count and modes and publishes the file into dir.
type BatchWriter struct {
	dir  string
	name string

	f *os.File
	w *parquet.GenericWriter[TurnRow]

	games int
	rows  int
	modes map[string]struct{}
}

func NewBatchWriter(dir string) (*BatchWriter, error) {
	if dir == "" {
		return nil, errors.New("archive dir is required")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	b := &BatchWriter{dir: dir, name: batchName(), modes: make(map[string]struct{})}
	if err := os.MkdirAll(filepath.Dir(b.tmpPath()), 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	f, err := os.Create(b.tmpPath())
	if err != nil {
		return nil, fmt.Errorf("create batch file: %w", err)
	}
	b.f = f
	b.w = parquet.NewGenericWriter[TurnRow](f, writerOptions()...)
	return b, nil
}

func (b *BatchWriter) tmpPath() string { return filepath.Join(b.dir, "tmp", b.name) }

// OutPath is where the batch appears once finalized.
func (b *BatchWriter) OutPath() string { return filepath.Join(b.dir, b.name) }
func (b *BatchWriter) Games() int      { return b.games }
func (b *BatchWriter) Rows() int       { return b.rows }

// WriteGame appends every row of one finished game. An empty game is not
// counted.
func (b *BatchWriter) WriteGame(rows []TurnRow) error {
	if b.w == nil {
		return ErrBatchClosed
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := b.w.Write(rows); err != nil {
		return fmt.Errorf("write game %s: %w", rows[0].GameID, err)
	}
	for _, r := range rows {
		b.modes[r.Mode] = struct{}{}
	}
	b.rows += len(rows)
	b.games++
	return nil
}

// Finalize closes the batch. A batch with no games is discarded and
// reports an empty path. Calling it again is a no-op.
func (b *BatchWriter) Finalize() (outPath string, rows int, games int, err error) {
	if b.w == nil {
		return "", 0, 0, nil
	}
	w, f := b.w, b.f
	b.w, b.f = nil, nil

	if b.games > 0 {
		modes := make([]string, 0, len(b.modes))
		for m := range b.modes {
			modes = append(modes, m)
		}
		slices.Sort(modes)
		w.SetKeyValueMetadata(metaGames, strconv.Itoa(b.games))
		w.SetKeyValueMetadata(metaModes, strings.Join(modes, ","))
	}

	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(b.tmpPath())
		return "", 0, 0, fmt.Errorf("close batch %s: %w", b.name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(b.tmpPath())
		return "", 0, 0, fmt.Errorf("close batch %s: %w", b.name, err)
	}

	if b.games == 0 {
		os.Remove(b.tmpPath())
		return "", 0, 0, nil
	}
	if err := os.Rename(b.tmpPath(), b.OutPath()); err != nil {
		return "", 0, 0, fmt.Errorf("publish batch %s: %w", b.name, err)
	}
	return b.OutPath(), b.rows, b.games, nil
}
