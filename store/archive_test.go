package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func archiveRows(id string, turns int, winner string) []TurnRow {
	rows := make([]TurnRow, turns)
	for i := range rows {
		side := "X"
		if i%2 == 1 {
			side = "O"
		}
		rows[i] = TurnRow{GameID: id, Turn: int32(turns - 1 - i), Side: side, Mode: "classic", Winner: winner, Source: "selfplay", Mistake: i == 1}
	}
	return rows
}

func TestSummarize(t *testing.T) {
	rows := append(archiveRows("debug_1", 5, "X"), archiveRows("selfplay_100_1", 9, "")...)
	rows = append(rows, archiveRows("selfplay_200_2", 6, "O")...)

	got := Summarize(rows, map[string]string{"debug_1": "a.parquet"})
	require.Len(t, got, 3)
	require.Equal(t, "selfplay_200_2", got[0].GameID, "newest selfplay game first")
	require.Equal(t, "selfplay_100_1", got[1].GameID)
	require.Equal(t, "debug_1", got[2].GameID, "ids without a timestamp go last")

	require.Equal(t, int64(200), *got[0].StartedNs)
	require.Nil(t, got[2].StartedNs)
	require.Equal(t, 6, got[0].Turns)
	require.Equal(t, 1, got[0].Mistakes)
	require.Equal(t, "O", got[0].Winner)
	require.Equal(t, "a.parquet", got[2].SourceFile)
}

func TestGameTurns(t *testing.T) {
	rows := append(archiveRows("a", 4, "X"), archiveRows("b", 3, "")...)
	got := GameTurns(rows, "a")
	require.Len(t, got, 4)
	for i, r := range got {
		require.Equal(t, int32(i), r.Turn)
	}
	require.Empty(t, GameTurns(rows, "missing"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteArchiveParquet(filepath.Join(dir, "one.parquet"), archiveRows("a", 3, "X")))
	require.NoError(t, WriteArchiveParquet(filepath.Join(dir, "two.parquet"), archiveRows("b", 2, "")))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tmp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp", "partial.parquet"), []byte("junk"), 0o644))

	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "foreign.parquet"), archiveRows("c", 4, "")))

	rows, files, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, rows, 5, "files without the archive schema are skipped")
	require.NotContains(t, files, "c")
	require.Equal(t, "one.parquet", files["a"])
	require.Equal(t, "two.parquet", files["b"])

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.parquet"), []byte("junk"), 0o644))
	_, _, err = LoadDir(dir)
	require.Error(t, err)
}
