package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/brensch/tactic/config"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/rules"
)

type menuOption int

const (
	optPlayerXType menuOption = iota
	optPlayerOType
	optPlayerXDifficulty
	optPlayerODifficulty
	optLimitMode
	optLimitValue
	optGameMode
	numMenuOptions
)

// setupMenu edits a config.Settings in place.
type setupMenu struct {
	settings config.Settings
	selected menuOption
	notice   string
}

func newSetupMenu(s config.Settings) setupMenu {
	return setupMenu{settings: s}
}

func (m *setupMenu) player(opt menuOption) *config.Player {
	switch opt {
	case optPlayerXType, optPlayerXDifficulty:
		return &m.settings.X
	default:
		return &m.settings.O
	}
}

func (m *setupMenu) up() {
	if m.selected > 0 {
		m.selected--
	}
}

func (m *setupMenu) down() {
	if m.selected < numMenuOptions-1 {
		m.selected++
	}
}

func (m *setupMenu) name(opt menuOption) string {
	switch opt {
	case optPlayerXType:
		return "Player X Type"
	case optPlayerOType:
		return "Player O Type"
	case optPlayerXDifficulty:
		return "Player X Difficulty"
	case optPlayerODifficulty:
		return "Player O Difficulty"
	case optLimitMode:
		return "Game Limit Type"
	case optLimitValue:
		return "Game Limit Value"
	case optGameMode:
		return "Game Mode"
	}
	return ""
}

func (m *setupMenu) value(opt menuOption) string {
	switch opt {
	case optPlayerXType, optPlayerOType:
		return m.player(opt).Type.String()
	case optPlayerXDifficulty, optPlayerODifficulty:
		return fmt.Sprint(m.player(opt).Difficulty)
	case optLimitMode:
		return m.settings.Limit.Mode.Label()
	case optLimitValue:
		return fmt.Sprint(m.settings.Limit.Value)
	case optGameMode:
		if m.settings.Mode == rules.Reverse {
			return "Reverse"
		}
		return "Classic"
	}
	return ""
}

func (m *setupMenu) description(opt menuOption) string {
	if opt == optGameMode {
		return m.settings.Mode.Description()
	}
	return ""
}

// enabled reports whether the option affects the session at all.
func (m *setupMenu) enabled(opt menuOption) bool {
	switch opt {
	case optPlayerXDifficulty, optPlayerODifficulty:
		return m.player(opt).Type == match.AI
	case optLimitValue:
		return m.settings.Limit.Mode != match.Unlimited
	}
	return true
}

// Toggles wrap around, so they are never at a bound.
func (m *setupMenu) atMin(opt menuOption) bool {
	switch opt {
	case optPlayerXDifficulty, optPlayerODifficulty:
		return m.player(opt).Difficulty <= config.MinDifficulty
	case optLimitMode:
		return m.settings.Limit.Mode == match.Unlimited
	case optLimitValue:
		return m.settings.Limit.Value <= 1
	}
	return false
}

func (m *setupMenu) atMax(opt menuOption) bool {
	switch opt {
	case optPlayerXDifficulty, optPlayerODifficulty:
		return m.player(opt).Difficulty >= config.MaxDifficulty
	case optLimitMode:
		return m.settings.Limit.Mode == match.MaxScore
	case optLimitValue:
		return m.settings.Limit.Value == math.MaxUint32
	}
	return false
}

// change moves the selected option one step; dir is +1 or -1.
func (m *setupMenu) change(dir int) {
	opt := m.selected
	if (dir > 0 && m.atMax(opt)) || (dir < 0 && m.atMin(opt)) {
		return
	}
	m.notice = ""

	switch opt {
	case optPlayerXType, optPlayerOType:
		p := m.player(opt)
		if p.Type == match.AI {
			p.Type = match.Human
		} else {
			p.Type = match.AI
		}
	case optPlayerXDifficulty, optPlayerODifficulty:
		p := m.player(opt)
		d := p.Difficulty + dir*config.DifficultyStep
		p.Difficulty = max(config.MinDifficulty, min(config.MaxDifficulty, d))
	case optLimitMode:
		m.settings.Limit.Mode = match.LimitMode(int(m.settings.Limit.Mode) + dir)
	case optLimitValue:
		if dir > 0 {
			m.settings.Limit.Value++
		} else {
			m.settings.Limit.Value--
		}
	case optGameMode:
		if m.settings.Mode == rules.Classic {
			m.settings.Mode = rules.Reverse
		} else {
			m.settings.Mode = rules.Classic
		}
	}
}

func (m *setupMenu) view() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tic-Tac-Toe"))
	sb.WriteString("\n\n")

	for opt := menuOption(0); opt < numMenuOptions; opt++ {
		var line string
		if opt == m.selected {
			left, right := " ", " "
			if !m.atMin(opt) {
				left = "<"
			}
			if !m.atMax(opt) {
				right = ">"
			}
			line = fmt.Sprintf("%-20s %s %s %s", m.name(opt)+":", arrowStyle.Render(left), m.value(opt), arrowStyle.Render(right))
		} else {
			line = fmt.Sprintf("%-20s   %s  ", m.name(opt)+":", m.value(opt))
		}

		if m.enabled(opt) {
			sb.WriteString(optionStyle.Render(line))
		} else {
			sb.WriteString(disabledStyle.Render(line))
		}
		sb.WriteByte('\n')

		if desc := m.description(opt); desc != "" {
			sb.WriteString(desc)
			sb.WriteByte('\n')
		}
	}

	sb.WriteByte('\n')
	sb.WriteString(helpStyle.Render("Up/Down to select, Left/Right to change, Enter to start, q to quit."))
	if m.notice != "" {
		sb.WriteByte('\n')
		sb.WriteString(noticeStyle.Render(m.notice))
	}
	return sb.String()
}

// playerLabel is "X" for humans and "X (AI)" for computer players.
func playerLabel(s config.Settings, side game.Side) string {
	if s.Player(side).Type == match.AI {
		return side.String() + " (AI)"
	}
	return side.String()
}
