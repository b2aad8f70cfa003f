package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imgbatch/internal/processor"
)

const recentLogLines = 3

type Model struct {
	updates  <-chan processor.ProgressUpdate
	bar      progress.Model
	started  time.Time
	width    int
	status   string
	recent   []string
	done     int
	total    int
	failed   int
	cancel   func()
	quitting bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// NewModel renders updates until the channel closes. cancel, when non-nil, is
// called on ctrl+c or q; the model keeps draining so the final summary still
// arrives.
func NewModel(updates <-chan processor.ProgressUpdate, total int, cancel func()) Model {
	bar := progress.New(progress.WithGradient(string(ColorAccentAlt), string(ColorAccent)))
	bar.Width = 40
	return Model{
		updates: updates,
		bar:     bar,
		started: time.Now(),
		status:  "Idle",
		total:   total,
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m = m.apply(processor.ProgressUpdate(msg))
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
				m.status = "Cancelling after the current file..."
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) apply(u processor.ProgressUpdate) Model {
	switch u.Kind {
	case processor.UpdateStatus, processor.UpdateDone:
		m.status = u.Message
		m.done, m.total, m.failed = u.Done, u.Total, u.Failed
	case processor.UpdateProgress:
		m.done, m.total, m.failed = u.Done, u.Total, u.Failed
	case processor.UpdateLog:
		m.recent = append(m.recent, u.Message)
		if len(m.recent) > recentLogLines {
			m.recent = m.recent[len(m.recent)-recentLogLines:]
		}
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("imgbatch"),
		labelStyle.Render(truncate(m.status, m.width)),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total)) + dimStyle.Render(fmt.Sprintf("  failed:%d", m.failed)),
		m.bar.ViewAs(ratio),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
	}
	for _, line := range m.recent {
		lines = append(lines, logStyle(line).Render(truncate(line, m.width)))
	}

	return strings.Join(lines, "\n")
}

func logStyle(line string) lipgloss.Style {
	if strings.HasPrefix(line, "Failed:") {
		return errorStyle
	}
	return dimStyle
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func barWidth(termWidth int) int {
	w := termWidth - 10
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	errorStyle = lipgloss.NewStyle().Foreground(ColorError)
)
