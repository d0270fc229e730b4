// Package validateui renders interactive progress for a validation run.
package validateui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cancelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// ProgressMsg carries a progress update from the validation goroutine.
// Send it with Program.Send.
type ProgressMsg struct {
	Percent float64 // 0-100
	Rows    int
	Errors  int
}

// DoneMsg ends the program when the run finishes.
type DoneMsg struct{}

// Model drives the progress display for a single run.
type Model struct {
	fileName string
	onCancel func()

	bar        progress.Model
	rows       int
	errs       int
	cancelling bool
	width      int
}

// New creates a progress model. onCancel is invoked once when the user
// requests cancellation; the run is expected to wind down and send
// DoneMsg.
func New(fileName string, onCancel func()) Model {
	bar := progress.New(progress.WithDefaultGradient())
	return Model{
		fileName: fileName,
		onCancel: onCancel,
		bar:      bar,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 8
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.bar.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling {
				m.cancelling = true
				if m.onCancel != nil {
					m.onCancel()
				}
			}
			return m, nil
		}
		return m, nil

	case ProgressMsg:
		m.rows = msg.Rows
		m.errs = msg.Errors
		return m, m.bar.SetPercent(msg.Percent / 100)

	case DoneMsg:
		return m, tea.Quit

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := titleStyle.Render("Validating "+m.fileName) + "\n\n"
	s += "  " + m.bar.View() + "\n\n"

	s += statStyle.Render(fmt.Sprintf("  %d rows", m.rows))
	if m.errs > 0 {
		s += errorStyle.Render(fmt.Sprintf("  %d errors", m.errs))
	}
	s += "\n"

	if m.cancelling {
		s += cancelStyle.Render("  cancelling, keeping partial results...") + "\n"
	} else {
		s += statStyle.Render("  press q or ctrl+c to cancel") + "\n"
	}
	return s
}
