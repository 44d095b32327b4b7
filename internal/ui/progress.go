package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/airblast-dev/test-cdylib/internal/cargo"
)

const (
	statusCompiled = "compiled"
	statusFresh    = "fresh"
	statusScript   = "build.rs"
	statusWarning  = "warning"
	statusError    = "error"
)

// maxVisible bounds the unit list to the most recent entries.
const maxVisible = 8

type progressModel struct {
	title    string
	events   <-chan cargo.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []unitItem
	index    map[string]int
	total    int
	units    int
	warnings int
	errors   int
	width    int
	finished bool
	success  bool
	done     bool
	aborted  bool
}

type unitItem struct {
	pkg    string
	status string
}

type eventMsg cargo.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders cargo progress.
// total is the expected number of packages; zero leaves the bar indeterminate
// until cargo reports build-finished.
func NewProgressModel(title string, total int, events <-chan cargo.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		total:   total,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := cargo.Event(msg)
		cmd := m.applyEvent(ev)
		if line, ok := diagnosticLine(ev); ok {
			// The next event is read only once the line is queued, so every
			// diagnostic prints before the program quits.
			return m, tea.Batch(cmd, tea.Sequence(tea.Println(line), m.listenForEvent()))
		}
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.aborted = true
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
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// Completed reports whether model, as returned by tea.Program.Run, saw the
// end of its event stream. It is false when the user quit first.
func Completed(model tea.Model) bool {
	m, ok := model.(*progressModel)
	return ok && m.done && !m.aborted
}

// diagnosticLine returns the text printed above the live view for ev.
func diagnosticLine(ev cargo.Event) (string, bool) {
	if ev.Kind != cargo.EventDiagnostic {
		return "", false
	}
	line := strings.TrimRight(ev.Rendered, "\n")
	return line, line != ""
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%s)", m.title, m.counter())
	switch {
	case m.done && m.finished && !m.success:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}
	start := 0
	if len(m.items) > maxVisible {
		start = len(m.items) - maxVisible
	}
	for _, item := range m.items[start:] {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		b.WriteString(fmt.Sprintf("  %s %s\n", statusStyled, truncate(item.pkg, nameWidth)))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) counter() string {
	parts := []string{fmt.Sprintf("%d units", m.units)}
	if m.total > 0 {
		parts[0] = fmt.Sprintf("%d/%d units", m.units, m.total)
	}
	if m.warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", m.warnings))
	}
	if m.errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", m.errors))
	}
	return strings.Join(parts, ", ")
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev cargo.Event) tea.Cmd {
	switch ev.Kind {
	case cargo.EventUnit:
		m.units++
		status := statusCompiled
		if ev.Fresh {
			status = statusFresh
		}
		m.setStatus(ev.Package, status, false)
	case cargo.EventBuildScript:
		m.setStatus(ev.Package, statusScript, false)
	case cargo.EventDiagnostic:
		switch ev.Level {
		case "error":
			m.errors++
			m.setStatus(ev.Package, statusError, true)
		case "warning":
			m.warnings++
			m.setStatus(ev.Package, statusWarning, true)
		}
	case cargo.EventFinished:
		m.finished = true
		m.success = ev.Success
		if ev.Success {
			return m.prog.SetPercent(1.0)
		}
		return nil
	}
	return m.prog.SetPercent(m.percent())
}

// setStatus records the latest status of pkg. Sticky statuses are kept
// when a later unit of the same package reports success.
func (m *progressModel) setStatus(pkg, status string, sticky bool) {
	if pkg == "" {
		return
	}
	idx, ok := m.index[pkg]
	if !ok {
		m.index[pkg] = len(m.items)
		m.items = append(m.items, unitItem{pkg: pkg, status: status})
		return
	}
	cur := m.items[idx].status
	if !sticky && (cur == statusWarning || cur == statusError) {
		return
	}
	if cur == statusError && status == statusWarning {
		return
	}
	m.items[idx].status = status
}

// percent caps below one until cargo reports build-finished so a low
// metadata count never shows a finished bar.
func (m *progressModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	pct := float64(m.units) / float64(m.total)
	if pct > 0.99 {
		pct = 0.99
	}
	return pct
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case statusCompiled:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case statusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case statusWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case statusScript:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
