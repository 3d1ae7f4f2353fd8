package tui

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/config"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/rules"
)

func key(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// drain runs AI commands until the model stops asking for more.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 100, "AI turns did not settle")
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// placeAt moves the cursor from the centre to p and places.
func placeAt(t *testing.T, m Model, p game.Position) (Model, tea.Cmd) {
	t.Helper()
	require.Equal(t, center, m.cursor, "cursor resets to the centre each turn")
	var keys []string
	for r := p.Row; r < 1; r++ {
		keys = append(keys, "up")
	}
	for r := p.Row; r > 1; r-- {
		keys = append(keys, "down")
	}
	for c := p.Col; c < 1; c++ {
		keys = append(keys, "left")
	}
	for c := p.Col; c > 1; c-- {
		keys = append(keys, "right")
	}
	return press(t, m, append(keys, "enter")...)
}

func humanSettings() config.Settings {
	s := config.Default()
	s.O.Type = match.Human
	return s
}

func TestSetupMenu(t *testing.T) {
	t.Run("difficulty stays within bounds", func(t *testing.T) {
		m := New(config.Default(), ai.NewRand(1))
		m, _ = press(t, m, "down", "down", "down")
		require.Equal(t, optPlayerODifficulty, m.menu.selected)

		m, _ = press(t, m, "right", "right", "right", "right")
		require.Equal(t, 100, m.menu.settings.O.Difficulty)

		for i := 0; i < 30; i++ {
			m, _ = press(t, m, "left")
		}
		require.Equal(t, config.MinDifficulty, m.menu.settings.O.Difficulty)
	})

	t.Run("selection is clamped", func(t *testing.T) {
		m := New(config.Default(), ai.NewRand(1))
		m, _ = press(t, m, "up")
		require.Equal(t, optPlayerXType, m.menu.selected)
		for i := 0; i < 10; i++ {
			m, _ = press(t, m, "down")
		}
		require.Equal(t, optGameMode, m.menu.selected)
	})

	t.Run("toggles and limits", func(t *testing.T) {
		m := New(config.Default(), ai.NewRand(1))
		m, _ = press(t, m, "right")
		require.Equal(t, match.AI, m.menu.settings.X.Type)
		require.True(t, m.menu.enabled(optPlayerXDifficulty))

		m, _ = press(t, m, "down", "down", "down", "down", "left")
		require.Equal(t, match.Unlimited, m.menu.settings.Limit.Mode, "unlimited is the lowest limit")
		require.False(t, m.menu.enabled(optLimitValue))

		m, _ = press(t, m, "right", "right", "right", "right")
		require.Equal(t, match.MaxScore, m.menu.settings.Limit.Mode)
		require.True(t, m.menu.enabled(optLimitValue))

		m, _ = press(t, m, "down", "left", "right", "right")
		require.Equal(t, uint32(3), m.menu.settings.Limit.Value, "value cannot drop below 1")

		m, _ = press(t, m, "down", "left")
		require.Equal(t, rules.Reverse, m.menu.settings.Mode)
		require.Contains(t, m.View(), rules.Reverse.Description())
	})

	t.Run("AI vs AI needs a limit", func(t *testing.T) {
		s := config.Default()
		s.X.Type = match.AI
		m, cmd := press(t, New(s, ai.NewRand(1)), "enter")
		require.Nil(t, cmd)
		require.Equal(t, screenSetup, m.screen)
		require.Contains(t, m.View(), config.ErrEndlessAIGame.Error())
	})

	t.Run("q quits", func(t *testing.T) {
		_, cmd := press(t, New(config.Default(), ai.NewRand(1)), "q")
		require.True(t, isQuit(cmd))
	})
}

func TestHumanGame(t *testing.T) {
	m, cmd := press(t, New(humanSettings(), ai.NewRand(1)), "enter")
	require.Nil(t, cmd, "X is human so nothing is scheduled")
	require.Equal(t, screenGame, m.screen)
	require.Contains(t, m.View(), "X's turn")

	m, _ = press(t, m, "enter")
	require.Equal(t, game.MarkX, m.session.Board().At(game.MiddleMiddle))
	require.Equal(t, game.SideO, m.session.Active())

	m, _ = press(t, m, "enter")
	require.Equal(t, game.SideO, m.session.Active(), "occupied space is ignored")

	m, _ = press(t, m, "x")
	require.Equal(t, 8, m.session.Board().EmptyCount(), "only the active letter places")

	m, _ = press(t, m, "up", "o")
	require.Equal(t, game.MarkO, m.session.Board().At(game.TopMiddle))
	require.Equal(t, center, m.cursor)
}

func TestPlayAgain(t *testing.T) {
	m, _ := press(t, New(humanSettings(), ai.NewRand(1)), "enter")
	for _, p := range []game.Position{game.TopLeft, game.MiddleLeft, game.TopMiddle, game.MiddleMiddle, game.TopRight} {
		m, _ = placeAt(t, m, p)
	}

	require.Equal(t, screenPlayAgain, m.screen)
	require.Equal(t, match.Score{X: 1}, m.Score())
	view := m.View()
	require.Contains(t, view, "Player X wins!")
	require.Contains(t, view, "X score:     1\t(100.00%)")
	require.Contains(t, view, "Total games: 1")

	m, _ = press(t, m, "y")
	require.Equal(t, screenGame, m.screen)
	require.Equal(t, game.NewBoard(), m.session.Board())

	_, cmd := press(t, m, "q", "n")
	require.True(t, isQuit(cmd))
}

func TestQuitEarly(t *testing.T) {
	m, _ := press(t, New(humanSettings(), ai.NewRand(1)), "enter", "enter")
	m, _ = press(t, m, "q")
	require.Equal(t, screenPlayAgain, m.screen)
	require.Contains(t, m.View(), "Game finished early!")
	require.Zero(t, m.Score().Games(), "an abandoned game is not scored")
}

func TestAITurn(t *testing.T) {
	m, _ := press(t, New(config.Default(), ai.NewRand(1)), "enter")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	require.True(t, m.thinking)
	require.Contains(t, m.View(), "O (AI) is thinking...")

	m, _ = press(t, m, "left")
	require.Equal(t, center, m.cursor, "keys are ignored while the AI thinks")

	next, cmd := m.Update(cmd())
	m = next.(Model)
	require.Nil(t, cmd)
	require.False(t, m.thinking)
	require.Equal(t, 7, m.session.Board().EmptyCount())
	require.Equal(t, game.SideX, m.session.Active())
}

func TestStaleAIMoveIsDropped(t *testing.T) {
	m, _ := press(t, New(config.Default(), ai.NewRand(1)), "enter")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)

	m, _ = press(t, m, "q", "y")
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Equal(t, game.NewBoard(), m.session.Board())
	require.Equal(t, game.SideX, m.session.Active())
}

func TestAIvsAIUntilLimit(t *testing.T) {
	s := config.Default()
	s.X = config.Player{Type: match.AI, Difficulty: 100}
	s.O = config.Player{Type: match.AI, Difficulty: 50}
	s.Limit = match.Limit{Mode: match.TotalGames, Value: 1}

	m, cmd := press(t, New(s, ai.NewRand(3)), "enter")
	require.NotNil(t, cmd, "X is an AI so its turn starts immediately")
	m = drain(t, m, cmd)

	require.Equal(t, screenLimitReached, m.screen)
	require.Equal(t, uint32(1), m.Score().Games())
	require.Contains(t, m.View(), "Game limit reached")

	_, cmd = press(t, m, "space")
	require.True(t, isQuit(cmd))
}

func TestTerminalTooSmall(t *testing.T) {
	m := New(config.Default(), ai.NewRand(1))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 20})
	require.Equal(t, "Terminal too small! Please enlarge terminal", next.View())

	next, _ = next.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	require.Contains(t, next.View(), "Player X Type")
}

func TestCtrlCAlwaysQuits(t *testing.T) {
	m, _ := press(t, New(humanSettings(), ai.NewRand(1)), "enter")
	_, cmd := press(t, m, "ctrl+c")
	require.True(t, isQuit(cmd))
}

// overlapRand records the most goroutines ever inside Float64 at once.
type overlapRand struct {
	inside  atomic.Int32
	maxSeen atomic.Int32
}

func (r *overlapRand) Float64() float64 {
	n := r.inside.Add(1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	r.inside.Add(-1)
	return 0.99
}

func TestAbandonedAITurnDoesNotShareRand(t *testing.T) {
	s := config.Default()
	s.X = config.Player{Type: match.AI, Difficulty: 100}
	s.O = config.Player{Type: match.AI, Difficulty: 100}
	s.Limit = match.Limit{Mode: match.TotalGames, Value: 3}

	rng := &overlapRand{}
	m, first := press(t, New(s, rng), "enter")
	require.NotNil(t, first)
	m, _ = press(t, m, "q")
	m, second := press(t, m, "y")
	require.NotNil(t, second, "the new game starts with an AI turn")

	msgs := make([]tea.Msg, 2)
	var wg sync.WaitGroup
	for i, cmd := range []tea.Cmd{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msgs[i] = cmd()
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), rng.maxSeen.Load(), "draws from the session generator must not overlap")

	next, _ := m.Update(msgs[0])
	m = next.(Model)
	require.Equal(t, game.NewBoard(), m.session.Board(), "the abandoned turn is dropped")

	next, _ = m.Update(msgs[1])
	m = next.(Model)
	require.Equal(t, 8, m.session.Board().EmptyCount())
}

func TestNoMovesFoundIsFatal(t *testing.T) {
	m, cmd := press(t, New(config.Default(), ai.NewRand(1)), "enter")
	require.Nil(t, cmd)

	next, cmd := m.Update(aiMoveMsg{gameSeq: m.gameSeq, err: ai.ErrNoMovesFound})
	m = next.(Model)
	require.True(t, isQuit(cmd))
	require.ErrorIs(t, m.Err(), ai.ErrNoMovesFound)
}
