package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/game"
)

const archiveSchema = "tactic_turn_v1"

// Footer keys of archive files. metaGames and metaModes are only written
// by BatchWriter.
const (
	metaSchema = "schema"
	metaGames  = "games"
	metaModes  = "modes"
)

// TurnRow is one AI decision within a recorded game.
//
// Board holds the 9 cells before the move in row-major order (0=empty,
// 1=X, 2=O). Scores holds the evaluator's score per cell, with Legal
// marking which cells were actually candidates. Value is the final result
// from the acting side's perspective: 1 win, -1 loss, 0 draw.
type TurnRow struct {
	GameID     string    `parquet:"game_id,dict"`
	Turn       int32     `parquet:"turn"`
	Mode       string    `parquet:"mode,dict"`
	Side       string    `parquet:"side,dict"`
	Difficulty float32   `parquet:"difficulty"`
	Board      []int32   `parquet:"board"`
	Scores     []float32 `parquet:"scores"`
	Legal      []bool    `parquet:"legal"`
	Row        int32     `parquet:"row"`
	Col        int32     `parquet:"col"`
	Score      float32   `parquet:"score"`
	Roll       float32   `parquet:"roll"`
	Mistake    bool      `parquet:"mistake"`
	Value      float32   `parquet:"value"`
	Winner     string    `parquet:"winner,dict,optional"`
	Source     string    `parquet:"source,dict"`
}

// NewTurnRow captures a policy decision. Value and Winner are filled once
// the game ends, see SetResult.
func NewTurnRow(gameID string, turn int, mode string, side game.Side, difficulty float64, before game.Board, d ai.Decision) TurnRow {
	row := TurnRow{
		GameID:     gameID,
		Turn:       int32(turn),
		Mode:       mode,
		Side:       side.String(),
		Difficulty: float32(difficulty),
		Board:      make([]int32, 9),
		Scores:     make([]float32, 9),
		Legal:      make([]bool, 9),
		Row:        int32(d.Chosen.Position.Row),
		Col:        int32(d.Chosen.Position.Col),
		Score:      float32(d.Chosen.Score),
		Roll:       float32(d.Roll),
		Mistake:    d.Mistake,
	}
	for i, c := range before.Cells() {
		row.Board[i] = int32(c)
	}
	for _, c := range d.Candidates {
		row.Scores[c.Position.Index()] = float32(c.Score)
		row.Legal[c.Position.Index()] = true
	}
	return row
}

// SetResult fills Value and Winner for every row of a finished game.
func SetResult(rows []TurnRow, outcome game.Outcome) {
	winner := ""
	if outcome.IsWon() {
		winner = outcome.Winner.String()
	}
	for i := range rows {
		rows[i].Winner = winner
		switch {
		case winner == "":
			rows[i].Value = 0
		case rows[i].Side == winner:
			rows[i].Value = 1
		default:
			rows[i].Value = -1
		}
	}
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata(metaSchema, archiveSchema),
	}
}

// WriteArchiveParquet writes rows to outPath via a temp file and rename.
func WriteArchiveParquet(outPath string, rows []TurnRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadArchiveParquet loads every row of an archive file.
func ReadArchiveParquet(path string) ([]TurnRow, error) {
	rows, err := parquet.ReadFile[TurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}

// ReadArchiveMetadata returns the footer key/value metadata of an archive.
func ReadArchiveMetadata(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	md := make(map[string]string)
	for _, kv := range pf.Metadata().KeyValueMetadata {
		md[kv.Key] = kv.Value
	}
	return md, nil
}

var batchSeq atomic.Uint64

func batchName() string {
	return fmt.Sprintf("batch_%d_%d.parquet", time.Now().UnixNano(), batchSeq.Add(1))
}
