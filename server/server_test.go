package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
	"github.com/brensch/tactic/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	return New(WithWatchDelay(0), WithSeed(1))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func ptr[T any](v T) *T { return &v }

func TestIndex(t *testing.T) {
	w := doJSON(t, newTestServer().Router(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	info := decode[InfoResponse](t, w)
	require.Equal(t, "tactic", info.Name)
	require.Equal(t, []string{"classic", "reverse"}, info.Modes)
	require.Equal(t, 0.85, info.Difficulty)
}

func TestMove(t *testing.T) {
	r := newTestServer().Router()

	t.Run("takes the immediate win", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/move", MoveRequest{
			Board:      "XX.OO....",
			Side:       "X",
			Difficulty: ptr(1.0),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		res := decode[MoveResponse](t, w)
		require.Equal(t, PositionJSON{Row: 0, Col: 2}, res.Position)
		require.Equal(t, "XXXOO....", res.Board)
		require.Equal(t, 1.0, res.Score)
		require.True(t, res.Finished)
		require.Equal(t, "X won (TopRow)", res.Outcome)
		require.Len(t, res.Candidates, 5)
	})

	t.Run("side defaults to the player to move", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/move", MoveRequest{Board: "X........", Difficulty: ptr(1.0)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b := game.MustParseBoard(decode[MoveResponse](t, w).Board)
		require.Equal(t, 7, b.EmptyCount())
		require.Equal(t, game.SideX, rules.NextToMove(b), "O should have moved")
	})

	t.Run("same seed same move", func(t *testing.T) {
		req := MoveRequest{Board: ".........", Side: "X", Difficulty: ptr(0.3), Seed: ptr(uint64(9))}
		first := decode[MoveResponse](t, doJSON(t, r, http.MethodPost, "/move", req))
		second := decode[MoveResponse](t, doJSON(t, r, http.MethodPost, "/move", req))
		require.Equal(t, first, second)
	})

	t.Run("finished board is a conflict", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/move", MoveRequest{Board: "XXXOO....", Side: "O"})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, map[string]string{"error": "game finished"}, decode[map[string]string](t, w))
	})

	t.Run("reverse mode avoids completing a line", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/move", MoveRequest{
			Board:      "OO.XXOXO.",
			Side:       "X",
			Difficulty: ptr(1.0),
			Mode:       "reverse",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, PositionJSON{Row: 2, Col: 2}, decode[MoveResponse](t, w).Position)
	})

	bad := []struct {
		name string
		req  any
	}{
		{"missing board", map[string]any{"side": "X"}},
		{"short board", MoveRequest{Board: "XX"}},
		{"unknown side", MoveRequest{Board: ".........", Side: "Z"}},
		{"zero difficulty", MoveRequest{Board: ".........", Difficulty: ptr(0.0)}},
		{"difficulty above one", MoveRequest{Board: ".........", Difficulty: ptr(1.5)}},
		{"unknown mode", MoveRequest{Board: ".........", Mode: "sideways"}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/move", tt.req)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			require.Contains(t, decode[map[string]string](t, w), "error")
		})
	}
}

func TestEvaluate(t *testing.T) {
	r := newTestServer().Router()

	w := doJSON(t, r, http.MethodPost, "/evaluate", EvaluateRequest{Board: ".OXXOO..X", Perspective: "X"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[EvaluateResponse](t, w)
	require.Equal(t, "X", res.Perspective)
	require.Len(t, res.Candidates, 3)
	want := []CandidateJSON{
		{Position: PositionJSON{0, 0}, Score: -0.25},
		{Position: PositionJSON{2, 0}, Score: -0.125},
		{Position: PositionJSON{2, 1}, Score: 0.125},
	}
	for i := range want {
		require.Equal(t, want[i].Position, res.Candidates[i].Position)
		require.InDelta(t, want[i].Score, res.Candidates[i].Score, 1e-9)
	}

	w = doJSON(t, r, http.MethodPost, "/evaluate", EvaluateRequest{Board: "XXXOO...."})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/evaluate", EvaluateRequest{Board: "not a board"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatch(t *testing.T) {
	srv := httptest.NewServer(newTestServer().Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/watch?difficulty_x=0.9&difficulty_o=0.4&seed=5"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var frames []Frame
	for {
		var f Frame
		err := conn.ReadJSON(&f)
		if err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		frames = append(frames, f)
	}

	require.GreaterOrEqual(t, len(frames), 5)
	require.LessOrEqual(t, len(frames), 9)
	for i, f := range frames {
		require.Equal(t, i+1, f.Turn)
		if i%2 == 0 {
			require.Equal(t, "X", f.Side)
		} else {
			require.Equal(t, "O", f.Side)
		}
		require.Equal(t, i == len(frames)-1, f.Finished, "only the last frame is final")
	}

	last := frames[len(frames)-1]
	require.Equal(t, rules.Classify(game.MustParseBoard(last.Board)).String(), last.Outcome)
}

func TestWatchRejectsBadParams(t *testing.T) {
	r := newTestServer().Router()
	for _, q := range []string{"difficulty_x=0", "difficulty_o=abc", "mode=upside-down", "seed=-1"} {
		w := doJSON(t, r, http.MethodGet, "/watch?"+q, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	rows := []store.TurnRow{
		{GameID: "selfplay_10_1", Turn: 0, Side: "X", Mode: "classic", Source: "selfplay"},
		{GameID: "selfplay_10_1", Turn: 1, Side: "O", Mode: "classic", Source: "selfplay"},
		{GameID: "selfplay_20_2", Turn: 0, Side: "X", Mode: "reverse", Source: "selfplay", Winner: "O"},
	}
	require.NoError(t, store.WriteArchiveParquet(filepath.Join(dir, "batch.parquet"), rows))

	r := New(WithArchiveDir(dir)).Router()

	w := doJSON(t, r, http.MethodGet, "/api/games?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	games := decode[GamesResponse](t, w)
	require.Equal(t, 2, games.Total)
	require.Len(t, games.Games, 1)
	require.Equal(t, "selfplay_20_2", games.Games[0].GameID)

	w = doJSON(t, r, http.MethodGet, "/api/games?offset=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode[GamesResponse](t, w).Games)

	w = doJSON(t, r, http.MethodGet, "/api/games/selfplay_10_1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]store.TurnRow](t, w), 2)

	w = doJSON(t, r, http.MethodGet, "/api/games/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/games?offset=1&limit=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code, "a huge limit must not overflow the page bounds")
	games = decode[GamesResponse](t, w)
	require.Len(t, games.Games, 1)
	require.Equal(t, "selfplay_10_1", games.Games[0].GameID)

	w = doJSON(t, r, http.MethodGet, "/api/games?limit=-1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, newTestServer().Router(), http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusNotFound, w.Code, "archive routes need an archive dir")
}
