// Package ui is the terminal front end of the viewer. The model re-renders
// from the viewer's load slots on every frame and only mutates state in
// response to input.
package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
	"github.com/go-go-golems/chatdb-viewer/pkg/config"
	"github.com/go-go-golems/chatdb-viewer/pkg/viewer"
)

const (
	// lines above the first conversation row: top border and title
	listHeaderLines = 2
	helpLines       = 1
	// left and right borders of a pane
	borderCols = 2
)

// SettledMsg asks for a redraw after a load finished.
type SettledMsg struct{}

type refreshMsg time.Time

func refreshTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

type Model struct {
	state  *viewer.State
	styles Styles
	keys   keyMap

	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	list     list.Model
	delegate conversationDelegate

	refresh        time.Duration
	listWidth      int
	bubbleMaxWidth int

	width, height int
	flash         string

	// revision of the conversation snapshot loaded into the list, and when
	// its relative times were computed
	listRevision uint64
	listBuilt    time.Time

	// revision of the message snapshot rendered into the viewport
	shownRevision uint64
	shownWidth    int

	now    func() time.Time
	copyFn func(string) error
}

func New(state *viewer.State, s *config.Settings) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Accent))

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	styles := NewStyles(s.Theme)
	delegate := newConversationDelegate(styles, state.Selected)

	return Model{
		state:          state,
		styles:         styles,
		keys:           defaultKeyMap(),
		help:           help.New(),
		spinner:        sp,
		viewport:       vp,
		list:           newConversationList(delegate, styles),
		delegate:       delegate,
		refresh:        s.RefreshInterval,
		listWidth:      s.ListWidth,
		bubbleMaxWidth: s.BubbleMaxWidth,
		now:            time.Now,
		copyFn:         clipboard.WriteAll,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(refreshTick(m.refresh), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case refreshMsg:
		cmds = append(cmds, refreshTick(m.refresh))

	case SettledMsg:

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		m.flash = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.list.CursorUp()
		case key.Matches(msg, m.keys.Down):
			m.list.CursorDown()
		case key.Matches(msg, m.keys.Select):
			m.selectRow(m.list.Index())
		case key.Matches(msg, m.keys.Reload):
			m.state.Reload()
		case key.Matches(msg, m.keys.Copy):
			m.copySelection()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if msg.X < m.listWidth+borderCols {
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				if idx, ok := m.rowAt(msg.Y); ok {
					m.list.Select(idx)
					m.selectRow(idx)
				}
			}
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp {
				m.list.CursorUp()
			}
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown {
				m.list.CursorDown()
			}
		} else {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.syncConversations()
	m.syncMessages()
	return m, tea.Batch(cmds...)
}

func (m *Model) conversations() []chatdb.Conversation {
	snap := m.state.Conversations()
	if !snap.Ready() {
		return nil
	}
	return snap.Value
}

// rowAt maps a screen line in the list pane to a conversation index.
func (m *Model) rowAt(y int) (int, bool) {
	if y < listHeaderLines {
		return 0, false
	}
	rel := y - listHeaderLines
	step := m.delegate.Height() + m.delegate.Spacing()
	if rel%step >= m.delegate.Height() {
		return 0, false
	}
	row := rel / step
	p := m.list.Paginator
	if row >= p.ItemsOnPage(len(m.list.Items())) {
		return 0, false
	}
	idx := p.Page*p.PerPage + row
	if idx >= len(m.conversations()) {
		return 0, false
	}
	return idx, true
}

func (m *Model) selectRow(idx int) {
	convs := m.conversations()
	if idx < 0 || idx >= len(convs) {
		return
	}
	m.state.Select(convs[idx])
}

func (m *Model) copySelection() {
	sel := m.state.Selected()
	if sel == nil {
		m.flash = "no chat selected"
		return
	}
	if err := m.copyFn(sel.Name); err != nil {
		log.Warn().Err(err).Msg("could not copy to clipboard")
		m.flash = "clipboard unavailable"
		return
	}
	m.flash = fmt.Sprintf("copied %q", sel.Name)
}

func (m *Model) paneHeight() int {
	h := m.height - m.helpHeight()
	if minimum := listHeaderLines + m.delegate.Height() + 2; h < minimum {
		h = minimum
	}
	return h
}

func (m *Model) helpHeight() int {
	if !m.help.ShowAll {
		return helpLines
	}
	h := helpLines
	for _, column := range m.keys.FullHelp() {
		if len(column) > h {
			h = len(column)
		}
	}
	return h
}

func (m *Model) messagePaneWidth() int {
	w := m.width - m.listWidth - 2*borderCols
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) resize() {
	m.help.Width = m.width
	// message pane: borders, one column of padding each side, a header line
	m.viewport.Width = m.messagePaneWidth() - 2
	m.viewport.Height = m.paneHeight() - borderCols - 1
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	// list pane: borders and the title line
	m.list.SetSize(m.listWidth, m.paneHeight()-borderCols-1)
}

// syncConversations loads a new conversation snapshot into the list and
// keeps the cursor inside it. Relative times are recomputed once a minute.
func (m *Model) syncConversations() {
	snap := m.state.Conversations()
	if !snap.Ready() {
		return
	}
	now := m.now()
	if snap.Revision == m.listRevision && now.Sub(m.listBuilt) < time.Minute {
		return
	}
	m.listRevision = snap.Revision
	m.listBuilt = now
	m.list.SetItems(conversationItems(snap.Value, now))
	if n := len(snap.Value); m.list.Index() >= n {
		m.list.Select(max(0, n-1))
	}
}

// syncMessages re-renders the viewport content when the message slot
// changed since the last frame or the layout width changed.
func (m *Model) syncMessages() {
	snap := m.state.Messages()
	if snap.Revision == m.shownRevision && m.viewport.Width == m.shownWidth {
		return
	}
	sameList := snap.Revision == m.shownRevision
	m.shownRevision = snap.Revision
	m.shownWidth = m.viewport.Width
	if !snap.Ready() {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(renderMessages(m.styles, snap.Value, m.viewport.Width, m.bubbleMaxWidth))
	if !sameList {
		m.viewport.GotoBottom()
	}
}
