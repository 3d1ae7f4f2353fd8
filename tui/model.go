// Package tui is the terminal front end: a setup menu, the board, and a
// play-again screen with the running score.
package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/config"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/match"
)

type screen int

const (
	screenSetup screen = iota
	screenGame
	screenPlayAgain
	screenLimitReached
)

var center = game.MiddleMiddle

// aiMoveMsg carries a decision computed off the UI goroutine. gameSeq ties
// it to the game it was computed for so late replies can be dropped.
type aiMoveMsg struct {
	gameSeq  int
	decision ai.Decision
	err      error
}

type Model struct {
	screen screen
	menu   setupMenu
	rng    ai.Rand

	session  *match.Session
	cursor   game.Position
	thinking bool
	gameSeq  int
	// early is set when the last game was abandoned with q.
	early bool

	width, height int
	err           error
}

// New starts at the setup menu with s preselected. rng is used for every AI
// decision of the session. AI turns run as commands, and an abandoned turn
// can still be drawing when the next game starts, so rng is locked.
func New(s config.Settings, rng ai.Rand) Model {
	return Model{
		screen: screenSetup,
		menu:   newSetupMenu(s),
		rng:    ai.NewLockedRand(rng),
		cursor: center,
	}
}

// Err is the fatal error that stopped the program, if any.
func (m Model) Err() error { return m.err }

// Score is the final tally, zero if no session was started.
func (m Model) Score() match.Score {
	if m.session == nil {
		return match.Score{}
	}
	return m.session.Score()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case aiMoveMsg:
		return m.handleAIMove(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenSetup:
			return m.updateSetup(msg)
		case screenGame:
			return m.updateGame(msg)
		case screenPlayAgain:
			return m.updatePlayAgain(msg)
		case screenLimitReached:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up":
		m.menu.up()
	case "down":
		m.menu.down()
	case "left":
		m.menu.change(-1)
	case "right":
		m.menu.change(1)
	case "enter":
		session, err := m.menu.settings.NewSession(m.rng)
		if err != nil {
			m.menu.notice = err.Error()
			return m, nil
		}
		log.Info().
			Str("x", playerLabel(m.menu.settings, game.SideX)).
			Str("o", playerLabel(m.menu.settings, game.SideO)).
			Str("mode", m.menu.settings.Mode.String()).
			Str("limit", m.menu.settings.Limit.Mode.String()).
			Msg("session started")
		m.session = session
		return m.startGame()
	}
	return m, nil
}

func (m Model) startGame() (tea.Model, tea.Cmd) {
	m.session.NewGame()
	m.gameSeq++
	m.early = false
	m.thinking = false
	m.screen = screenGame
	m.cursor = center
	cmd := m.nextTurn()
	return m, cmd
}

// nextTurn schedules the AI when it is the AI's move.
func (m *Model) nextTurn() tea.Cmd {
	player := m.session.ActivePlayer()
	if player.Kind != match.AI {
		return nil
	}
	m.thinking = true
	return aiTurn(m.gameSeq, player.Policy, m.session.Board(), m.session.Active(), m.rng)
}

func aiTurn(seq int, p *ai.Policy, b game.Board, side game.Side, rng ai.Rand) tea.Cmd {
	return func() tea.Msg {
		d, err := p.Choose(b, side, rng)
		return aiMoveMsg{gameSeq: seq, decision: d, err: err}
	}
}

func (m Model) handleAIMove(msg aiMoveMsg) (tea.Model, tea.Cmd) {
	if msg.gameSeq != m.gameSeq || m.screen != screenGame {
		return m, nil
	}
	m.thinking = false

	if msg.err == nil {
		msg.err = m.session.Commit(msg.decision)
	}
	if msg.err != nil {
		if errors.Is(msg.err, ai.ErrGameFinished) {
			return m.afterMove()
		}
		log.Error().Err(msg.err).Str("board", m.session.Board().Compact()).Msg("ai turn failed")
		m.err = msg.err
		return m, tea.Quit
	}
	return m.afterMove()
}

func (m Model) afterMove() (tea.Model, tea.Cmd) {
	m.cursor = center
	if !m.session.Outcome().Finished() {
		cmd := m.nextTurn()
		return m, cmd
	}
	m.session.Record()
	if m.session.LimitReached() {
		m.screen = screenLimitReached
	} else {
		m.screen = screenPlayAgain
	}
	return m, nil
}

func (m Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" {
		m.early = true
		m.thinking = false
		m.screen = screenPlayAgain
		return m, nil
	}
	if m.thinking || m.session.ActivePlayer().Kind != match.Human {
		return m, nil
	}

	switch key {
	case "up":
		m.cursor.Row = max(0, m.cursor.Row-1)
	case "down":
		m.cursor.Row = min(2, m.cursor.Row+1)
	case "left":
		m.cursor.Col = max(0, m.cursor.Col-1)
	case "right":
		m.cursor.Col = min(2, m.cursor.Col+1)
	default:
		if key != "enter" && !isSideKey(key, m.session.Active()) {
			return m, nil
		}
		if err := m.session.Place(m.cursor); err != nil {
			return m, nil
		}
		return m.afterMove()
	}
	return m, nil
}

func isSideKey(key string, side game.Side) bool {
	return strings.EqualFold(key, side.String())
}

func (m Model) updatePlayAgain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		return m.startGame()
	case "n", "q":
		return m, tea.Quit
	}
	return m, nil
}

// Run shows the UI on the terminal until the user quits.
func Run(s config.Settings, rng ai.Rand, opts ...tea.ProgramOption) (Model, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(New(s, rng), opts...).Run()
	if err != nil {
		return Model{}, err
	}
	m := final.(Model)
	return m, m.err
}
