package tui

import (
	"fmt"
	"strings"

	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/match"
)

const horizLine = "-----------"

func (m Model) View() string {
	if m.width > 0 && m.height > 0 && (m.width < minWidth || m.height < minHeight) {
		return "Terminal too small! Please enlarge terminal"
	}
	switch m.screen {
	case screenSetup:
		return m.menu.view()
	case screenGame:
		return m.gameView()
	case screenPlayAgain:
		return m.scoreView("Play again? Press y for yes or n for no")
	case screenLimitReached:
		return m.scoreView("Game limit reached. Press any key to exit.")
	}
	return ""
}

// drawBoard lays the grid out like game.Board.String and highlights the
// cursor cell when showCursor is set.
func drawBoard(b game.Board, cursor game.Position, showCursor bool) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString(horizLine)
			sb.WriteByte('\n')
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteString("|")
			}
			p := game.Position{Row: row, Col: col}
			cell := " " + b.At(p).String() + " "
			if showCursor && p == cursor {
				cell = cursorStyle.Render(cell)
			}
			sb.WriteString(cell)
		}
		if row < 2 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) gameView() string {
	active := m.session.Active()
	human := m.session.ActivePlayer().Kind == match.Human

	var sb strings.Builder
	sb.WriteString(drawBoard(m.session.Board(), m.cursor, human && !m.thinking))
	sb.WriteString("\n\n")
	if human {
		fmt.Fprintf(&sb, "%s's turn\n", active)
		sb.WriteString(helpStyle.Render(fmt.Sprintf(
			"Use arrow keys to select space. Press 'Enter' or '%s' to place. Press q to quit.", active)))
	} else {
		fmt.Fprintf(&sb, "%s (AI) is thinking...\n", active)
		sb.WriteString(helpStyle.Render("Press q to quit."))
	}
	return sb.String()
}

func (m Model) outcomeText() string {
	if m.early {
		return "Game finished early!"
	}
	outcome := m.session.Outcome()
	switch {
	case outcome.WonBy(game.SideX):
		return "Player X wins!"
	case outcome.WonBy(game.SideO):
		return "Player O wins!"
	case outcome.Finished():
		return "Draw!"
	}
	return "Game finished early!"
}

func scoreLines(s match.Score) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "X score:     %d\t(%.2f%%)\n", s.X, s.Percent(s.X))
	fmt.Fprintf(&sb, "O score:     %d\t(%.2f%%)\n", s.O, s.Percent(s.O))
	fmt.Fprintf(&sb, "Draws:       %d\t(%.2f%%)\n", s.Draws, s.Percent(s.Draws))
	fmt.Fprintf(&sb, "Total games: %d", s.Games())
	return sb.String()
}

func (m Model) scoreView(prompt string) string {
	var sb strings.Builder
	sb.WriteString(drawBoard(m.session.Board(), m.cursor, false))
	sb.WriteString("\n\n")
	sb.WriteString(outcomeStyle.Render(m.outcomeText()))
	sb.WriteByte('\n')
	sb.WriteString(scoreLines(m.session.Score()))
	sb.WriteString("\n\n")
	sb.WriteString(prompt)
	return sb.String()
}
