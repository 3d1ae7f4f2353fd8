package store

import (
	"cmp"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// GameSummary describes one archived game.
type GameSummary struct {
	GameID string `json:"game_id"`
	// StartedNs is parsed from selfplay ids (selfplay_<unix_nano>_<seq>).
	StartedNs  *int64 `json:"started_ns"`
	Turns      int    `json:"turns"`
	Mode       string `json:"mode"`
	Winner     string `json:"winner"`
	Mistakes   int    `json:"mistakes"`
	Source     string `json:"source"`
	SourceFile string `json:"file"`
}

// LoadDir reads every archive file directly under dir. Files still being
// written live in dir/tmp and are not picked up, and parquet files written
// with another schema are skipped.
func LoadDir(dir string) ([]TurnRow, map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, nil, fmt.Errorf("list archive: %w", err)
	}
	slices.Sort(paths)

	var rows []TurnRow
	files := make(map[string]string)
	for _, path := range paths {
		md, err := ReadArchiveMetadata(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if md[metaSchema] != archiveSchema {
			log.Warn().Str("file", path).Str("schema", md[metaSchema]).Msg("skipping foreign parquet file")
			continue
		}
		fileRows, err := ReadArchiveParquet(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for _, r := range fileRows {
			files[r.GameID] = filepath.Base(path)
		}
		rows = append(rows, fileRows...)
	}
	return rows, files, nil
}

// Summarize groups rows by game, newest selfplay games first and the rest
// by id.
func Summarize(rows []TurnRow, files map[string]string) []GameSummary {
	byID := make(map[string]*GameSummary)
	var order []string
	for _, r := range rows {
		g, ok := byID[r.GameID]
		if !ok {
			g = &GameSummary{
				GameID:     r.GameID,
				StartedNs:  startedNs(r.GameID),
				Mode:       r.Mode,
				Winner:     r.Winner,
				Source:     r.Source,
				SourceFile: files[r.GameID],
			}
			byID[r.GameID] = g
			order = append(order, r.GameID)
		}
		g.Turns++
		if r.Mistake {
			g.Mistakes++
		}
	}

	out := make([]GameSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortStableFunc(out, func(x, y GameSummary) int {
		a, b := x.StartedNs, y.StartedNs
		switch {
		case a != nil && b != nil:
			return cmp.Compare(*b, *a)
		case a != nil:
			return -1
		case b != nil:
			return 1
		}
		return strings.Compare(x.GameID, y.GameID)
	})
	return out
}

// GameTurns returns the rows of one game in turn order.
func GameTurns(rows []TurnRow, gameID string) []TurnRow {
	var out []TurnRow
	for _, r := range rows {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b TurnRow) int { return cmp.Compare(a.Turn, b.Turn) })
	return out
}

func startedNs(gameID string) *int64 {
	parts := strings.Split(gameID, "_")
	if len(parts) != 3 || parts[0] != "selfplay" {
		return nil
	}
	ns, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	return &ns
}
