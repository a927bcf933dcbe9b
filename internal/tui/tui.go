// Package tui is the interactive terminal view. The bubbletea update loop
// owns the task list, so user keys and ticks are applied one at a time.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/board"
	"pomodoro-todo/pkg/task"
)

// Run starts the terminal view over list until the user quits or ctx ends.
func Run(ctx context.Context, list *task.List) error {
	program := tea.NewProgram(New(list), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type tickMsg time.Time

type mode int

const (
	modeBrowse mode = iota
	modeAdd
)

type notice struct {
	text  string
	level activity.Level
}

// Model is the bubbletea model for the task list.
type Model struct {
	list   *task.List
	cursor int
	mode   mode
	input  textinput.Model
	keys   keyMap
	notice notice
	width  int
}

// New creates a model over list.
func New(list *task.List) *Model {
	in := textinput.New()
	in.Placeholder = "What are you working on?"
	in.CharLimit = 200
	in.Prompt = "> "
	return &Model{list: list, input: in, keys: defaultKeys()}
}

func tick() tea.Cmd {
	return tea.Tick(board.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the one tick chain for the lifetime of the program.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update applies one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		r := m.list.Tick()
		if len(r.Expired) > 0 {
			m.notify(board.MsgExpired, activity.LevelSuccess)
		}
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-10, 20)
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeAdd {
			return m.updateAdd(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Interrupt):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		if _, err := m.list.Add(m.input.Value()); err != nil {
			m.notify(board.MsgEmpty, activity.LevelWarning)
			return m, nil
		}
		m.notify(board.MsgAdded, activity.LevelSuccess)
		m.cursor = m.list.Len() - 1
		m.input.Reset()
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.list.SetDraft(m.input.Value())
	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.list.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.SetValue(m.list.Draft())
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Complete):
		if _, ok := m.list.ToggleCompletion(m.cursor); ok {
			m.notify(board.MsgToggled, activity.LevelNeutral)
		}
	case key.Matches(msg, m.keys.Timer):
		if _, err := m.list.ToggleTimer(m.cursor); errors.Is(err, task.ErrCompleted) {
			m.notify("Completed tasks can't be started.", activity.LevelWarning)
		}
	case key.Matches(msg, m.keys.Remove):
		if _, ok := m.list.Remove(m.cursor); ok {
			m.notify(board.MsgRemoved, activity.LevelInfo)
			if m.cursor >= m.list.Len() && m.cursor > 0 {
				m.cursor--
			}
		}
	}
	return m, nil
}

func (m *Model) notify(text string, level activity.Level) {
	m.notice = notice{text: text, level: level}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(1).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true).MarginTop(1)

	levelStyles = map[activity.Level]lipgloss.Style{
		activity.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		activity.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		activity.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		activity.LevelNeutral: lipgloss.NewStyle().Faint(true),
	}
)

// View renders the list, progress bar and help line.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pomodoro To-Do"))
	b.WriteString("\n")

	if m.list.Len() == 0 {
		b.WriteString(itemStyle.Render("No tasks yet. Press a to add one."))
		b.WriteString("\n")
	}
	for i, t := range m.list.Tasks() {
		b.WriteString(m.renderTask(i, t))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(progressBar(m.list.Progress(), 30))
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.notice.text != "" {
		b.WriteString("\n")
		b.WriteString(levelStyles[m.notice.level].Render(m.notice.text))
		b.WriteString("\n")
	}

	help := m.keys.browseHelp()
	if m.mode == modeAdd {
		help = m.keys.addHelp()
	}
	parts := make([]string, 0, len(help))
	for _, h := range help {
		parts = append(parts, h.Help().Key+" "+h.Help().Desc)
	}
	b.WriteString(helpStyle.Render(strings.Join(parts, " • ")))
	return b.String()
}

func (m *Model) renderTask(i int, t task.Task) string {
	text := t.Text
	if t.Completed {
		text = doneStyle.Render(text)
	}
	clock := task.FormatClock(t.Timer)
	if t.IsRunning {
		clock = runningStyle.Render(clock)
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s  spent %s", check, text, clock, task.FormatClock(t.TimeSpent))
	if i == m.cursor {
		return selectedStyle.Render(line)
	}
	return itemStyle.Render(line)
}

func progressBar(p task.Progress, width int) string {
	filled := int(p.Percent / 100 * float64(width))
	return fmt.Sprintf("%s%s %.0f%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), p.Percent)
}
