// Package ui renders pipeline progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fieldhash/internal/buildpipeline"
)

// MaxRows limits how many targets are listed at once.
const MaxRows = 20

type progressModel struct {
	title    string
	events   <-chan buildpipeline.Event
	spinner  spinner.Model
	prog     progress.Model
	rows     []row
	index    map[string]int
	finished int
	failed   error
	width    int
	done     bool
	// interrupted is set when the user quits before the pipeline finishes.
	interrupted bool
}

type row struct {
	address string
	label   string
	final   bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model fed by events. The model quits
// when the channel is closed.
func NewProgressModel(title string, targets []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    make([]row, 0, len(targets)),
		index:   make(map[string]int, len(targets)),
		width:   80,
	}
	for _, addr := range targets {
		m.index[addr] = len(m.rows)
		m.rows = append(m.rows, row{address: addr, label: "queued"})
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(10, msg.Width-4)
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// Interrupted reports whether the user quit the progress view early.
func Interrupted(model tea.Model) bool {
	m, ok := model.(*progressModel)
	return ok && m.interrupted
}

func (m *progressModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.Target == "" {
		if ev.Status == buildpipeline.StatusError {
			m.failed = ev.Err
		}
		return nil
	}
	idx, ok := m.index[ev.Target]
	if !ok {
		return nil
	}
	r := &m.rows[idx]
	if r.final {
		return nil
	}
	r.label = label(ev)
	if ev.Status == buildpipeline.StatusDone || ev.Status == buildpipeline.StatusError {
		r.final = true
		m.finished++
	}
	if len(m.rows) == 0 {
		return nil
	}
	return m.prog.SetPercent(float64(m.finished) / float64(len(m.rows)))
}

func label(ev buildpipeline.Event) string {
	switch ev.Status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusWorking:
		return "hashing"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusDone:
		if ev.Change != "" {
			return string(ev.Change)
		}
		return "done"
	}
	return string(ev.Status)
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	header := fmt.Sprintf("%s %s  %d/%d", m.spinner.View(), m.title, m.finished, len(m.rows))
	switch {
	case m.interrupted:
		header = fmt.Sprintf("interrupted: %s  %d/%d", m.title, m.finished, len(m.rows))
	case m.done:
		header = fmt.Sprintf("done: %s  %d/%d", m.title, m.finished, len(m.rows))
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(20, m.width-16)
	for _, r := range visibleRows(m.rows, MaxRows) {
		status := styleFor(r.label).Render(fmt.Sprintf("%10s", r.label))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(r.address, nameWidth))
	}
	if hidden := len(m.rows) - MaxRows; hidden > 0 {
		fmt.Fprintf(&b, "  ... and %d more\n", hidden)
	}
	if m.failed != nil {
		b.WriteString(styleFor("error").Render(truncate(m.failed.Error(), m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done && !m.interrupted {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// visibleRows prefers targets still in flight, then the most recent finished ones.
func visibleRows(rows []row, limit int) []row {
	if len(rows) <= limit {
		return rows
	}
	out := make([]row, 0, limit)
	for _, r := range rows {
		if !r.final && len(out) < limit {
			out = append(out, r)
		}
	}
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		if rows[i].final {
			out = append(out, rows[i])
		}
	}
	return out
}

func styleFor(status string) lipgloss.Style {
	color := "7"
	switch status {
	case "unchanged", "done":
		color = "2"
	case "new":
		color = "4"
	case "changed":
		color = "3"
	case "error":
		color = "1"
	case "hashing":
		color = "6"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
