package tui

import "github.com/charmbracelet/lipgloss"

// Minimum terminal size that fits the board plus its status lines.
const (
	minWidth  = 11
	minHeight = 8
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	arrowStyle    = lipgloss.NewStyle().Reverse(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	outcomeStyle  = lipgloss.NewStyle().Bold(true)
)
