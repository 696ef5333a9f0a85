package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/scheduler"
)

const maxHerderLogLines = 10000

// collectingSink implements scheduler.Sink by buffering one cycle's worth
// of side effects into plain fields, so a tea.Cmd can run a cycle off the
// render goroutine and hand the result back as a tea.Msg.
type collectingSink struct {
	sessions       []scheduler.UiSession
	sessionsSet    bool
	statusMessage  string
	refreshErr     string
	tmuxOnline     bool
	tmuxOffline    bool
	tmuxOfflineWhy string
	logLines       []string
}

func (s *collectingSink) SetSessions(sessions []scheduler.UiSession) {
	s.sessions = sessions
	s.sessionsSet = true
}
func (s *collectingSink) SetStatusMessage(message string)  { s.statusMessage = message }
func (s *collectingSink) NoteRefreshSuccess()               {}
func (s *collectingSink) NoteRefreshError(message string)   { s.refreshErr = message }
func (s *collectingSink) SetTmuxServerOnline()              { s.tmuxOnline = true }
func (s *collectingSink) SetTmuxServerOffline(reason string) {
	s.tmuxOffline = true
	s.tmuxOfflineWhy = reason
}
func (s *collectingSink) PushHerderLog(line string) { s.logLines = append(s.logLines, line) }
func (s *collectingSink) PushHerderLogForHerd(herdID *uint8, line string) {
	if herdID != nil {
		line = fmt.Sprintf("[herd %d] %s", *herdID, line)
	}
	s.logLines = append(s.logLines, line)
}

// Messages
type refreshResultMsg struct{ sink *collectingSink }
type controlResultMsg struct{ sink *collectingSink }
type refreshTickMsg time.Time
type controlTickMsg time.Time
type dispatchSentMsg struct {
	err  error
	text string
}

func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg { return controlTickMsg(t) })
}

func runRefresh(cycle *scheduler.Cycle) tea.Cmd {
	return func() tea.Msg {
		sink := &collectingSink{}
		cycle.PerformPeriodicRefresh(sink)
		return refreshResultMsg{sink: sink}
	}
}

func runControlUpdate(cycle *scheduler.Cycle) tea.Cmd {
	return func() tea.Msg {
		sink := &collectingSink{}
		cycle.ApplyStreamedControlUpdates(sink)
		return controlResultMsg{sink: sink}
	}
}

// Model is the top-level Bubble Tea model. It renders the live session
// tree the scheduler cycle produces and dispatches user input back into
// the selected pane.
type Model struct {
	cycle  *scheduler.Cycle
	config *config.AppConfig

	sessions []scheduler.UiSession
	groups   []sessionGroup
	items    []TreeItem
	cursor   int

	herderLog []string

	preview            viewport.Model
	previewFor         string
	lastPreviewContent string

	input       textinput.Model
	dispatching bool

	width, height int
	statusMessage string
	err           error
	loaded        bool

	onSessionsUpdated func([]scheduler.UiSession)
}

// NewModel creates the initial model around a ready-to-run refresh cycle.
func NewModel(cycle *scheduler.Cycle) Model {
	ti := textinput.New()
	ti.Placeholder = "message to send to the selected pane"
	ti.CharLimit = 4096

	return Model{
		cycle:   cycle,
		config:  cycle.Config,
		preview: viewport.New(40, 20),
		input:   ti,
	}
}

// WithSessionsObserver attaches a callback invoked with the latest session
// list every time a refresh cycle changes it — used to mirror state to
// side channels (e.g. the companion WebSocket stream) without coupling
// them to Bubble Tea's render loop.
func (m Model) WithSessionsObserver(observer func([]scheduler.UiSession)) Model {
	m.onSessionsUpdated = observer
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(runRefresh(m.cycle), controlTickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview.Width = m.previewWidth()
		m.preview.Height = m.height
		return m, nil

	case refreshResultMsg:
		m.loaded = true
		firstLoad := m.sessions == nil
		m.applySink(msg.sink)
		if firstLoad {
			m.cursor = FirstAttentionPane(m.items, m.sessions)
		} else {
			m.cursor = NearestPane(m.items, m.cursor)
		}
		m.syncPreview()
		interval := time.Duration(m.config.RefreshIntervalMs) * time.Millisecond
		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		return m, refreshTickCmd(interval)

	case controlResultMsg:
		m.applySink(msg.sink)
		if msg.sink.sessionsSet {
			m.cursor = NearestPane(m.items, m.cursor)
			m.syncPreview()
		}
		return m, controlTickCmd()

	case refreshTickMsg:
		return m, runRefresh(m.cycle)

	case controlTickMsg:
		return m, runControlUpdate(m.cycle)

	case dispatchSentMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("failed to send: %v", msg.err)
			m.dispatching = true
			m.input.SetValue(msg.text)
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case tea.KeyMsg:
		if m.dispatching {
			return m.updateDispatching(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m *Model) applySink(sink *collectingSink) {
	if sink.sessionsSet {
		m.sessions = sink.sessions
		m.groups = groupBySession(m.sessions)
		m.items = FlattenTree(m.sessions)
		if m.onSessionsUpdated != nil {
			m.onSessionsUpdated(m.sessions)
		}
	}
	if sink.statusMessage != "" {
		m.statusMessage = sink.statusMessage
	}
	if sink.tmuxOffline {
		m.statusMessage = "tmux server offline: " + sink.tmuxOfflineWhy
	}
	for _, line := range sink.logLines {
		m.herderLog = append(m.herderLog, line)
	}
	if len(m.herderLog) > maxHerderLogLines {
		m.herderLog = m.herderLog[len(m.herderLog)-maxHerderLogLines:]
	}
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		next := NextPane(m.items, m.cursor)
		if next != m.cursor {
			m.cursor = next
			m.syncPreview()
		}
		return m, nil

	case "k", "up":
		prev := PrevPane(m.items, m.cursor)
		if prev != m.cursor {
			m.cursor = prev
			m.syncPreview()
		}
		return m, nil

	case "h":
		m.toggleHerdedForSelection()
		return m, nil

	case "u":
		m.unherdSelection()
		return m, nil

	case "i":
		if session, ok := m.selectedSession(); ok && session.PaneID != m.cycle.LocalPaneID {
			m.dispatching = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 0 && n < config.MaxHerds {
		m.assignHerdForSelection(uint8(n))
		return m, nil
	}
	return m, nil
}

func (m Model) updateDispatching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.dispatching = false
		m.input.Blur()
		return m, nil

	case "enter":
		m.dispatching = false
		m.input.Blur()
		text := m.input.Value()
		session, ok := m.selectedSession()
		if !ok || text == "" {
			return m, nil
		}
		paneID := session.PaneID
		if paneID == m.cycle.LocalPaneID {
			return m, nil
		}
		adapter := m.cycle.Adapter
		return m, func() tea.Msg {
			return dispatchSentMsg{err: adapter.SendKeys(paneID, text), text: text}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) selectedSession() (scheduler.UiSession, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return scheduler.UiSession{}, false
	}
	item := m.items[m.cursor]
	if item.Kind != KindPane {
		return scheduler.UiSession{}, false
	}
	return m.sessions[item.PaneIndex], true
}

func (m *Model) toggleHerdedForSelection() {
	session, ok := m.selectedSession()
	if !ok {
		return
	}
	m.cycle.Registry.ToggleHerded(session.PaneID)
	m.saveRegistry()
}

func (m *Model) unherdSelection() {
	session, ok := m.selectedSession()
	if !ok {
		return
	}
	m.cycle.Registry.SetHerded(session.PaneID, false)
	m.saveRegistry()
}

func (m *Model) assignHerdForSelection(herdID uint8) {
	session, ok := m.selectedSession()
	if !ok {
		return
	}
	m.cycle.Registry.SetHerdGroup(session.PaneID, &herdID)
	m.cycle.Registry.SetHerded(session.PaneID, true)
	m.saveRegistry()
}

func (m *Model) saveRegistry() {
	if m.cycle.StatePath == "" {
		return
	}
	_ = m.cycle.Registry.SaveToPath(m.cycle.StatePath)
}

func (m *Model) syncPreview() {
	session, ok := m.selectedSession()
	if !ok {
		return
	}
	if session.PaneID == m.previewFor && session.Content == m.lastPreviewContent {
		return
	}
	m.previewFor = session.PaneID
	content := strings.TrimRight(session.Content, "\n")
	m.lastPreviewContent = content
	m.preview.SetContent(content)
	m.preview.GotoBottom()
}

func (m Model) View() string {
	if m.width == 0 || !m.loaded {
		return ""
	}
	if m.err != nil {
		return errStyle.Render("Error: " + m.err.Error())
	}
	if len(m.items) == 0 {
		return helpStyle.Render("No tracked sessions found.\nPress q to quit.")
	}

	listWidth := m.listWidth()
	bodyHeight := m.height - 1 // reserve one row for the status/prompt line

	treeLines := m.renderTree(listWidth, bodyHeight)
	listContent := strings.Join(treeLines, "\n")
	listRendered := lipgloss.NewStyle().Width(listWidth).Height(bodyHeight).Render(listContent)

	sep := separatorStyle.Render(strings.Repeat("│\n", max(bodyHeight-1, 0)) + "│")

	pw := m.previewWidth()
	m.preview.Width = pw
	m.preview.Height = bodyHeight
	previewRendered := lipgloss.NewStyle().Width(pw).Height(bodyHeight).Render(m.preview.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, listRendered, sep, previewRendered)
	return body + "\n" + m.renderBottomLine()
}

func (m Model) renderBottomLine() string {
	if m.dispatching {
		return promptStyle.Render("send> ") + m.input.View()
	}
	if m.statusMessage != "" {
		return helpStyle.Render(m.statusMessage)
	}
	return helpStyle.Render("j/k move · h toggle herd · 0-9 assign herd · u unherd · i send · q quit")
}

func (m Model) listWidth() int {
	return max(m.width*25/100, 20)
}

func (m Model) previewWidth() int {
	return m.width - m.listWidth() - 1
}

func (m Model) renderTree(width, height int) []string {
	if len(m.items) == 0 {
		return []string{"  No sessions"}
	}
	start := VisibleSlice(len(m.items), m.cursor, height)
	end := min(start+height, len(m.items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, RenderTreeItem(m.items[i], m.sessions, m.groups, i == m.cursor, width))
	}
	return lines
}
