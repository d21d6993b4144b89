package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-go-golems/chatdb-viewer/pkg/loadslot"
)

const (
	noChatsText     = "no chats found"
	noMessagesText  = "no messages found"
	loadingText     = "loading..."
	chatsFailedText = "failed to load chats"
	msgsFailedText  = "failed to load messages"
	noSelectionText = "select a chat on the left"
)

// View only reads the load slots and the selection.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return loadingText
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.messagesView())
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.footerView())
}

func (m Model) listView() string {
	inner := m.paneHeight() - borderCols
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Chats"))
	b.WriteString("\n")

	snap := m.state.Conversations()
	switch snap.Status {
	case loadslot.StatusEmpty:
		b.WriteString(m.styles.Placeholder.Render(noChatsText))
	case loadslot.StatusFetching:
		b.WriteString(m.spinner.View() + " " + m.styles.Placeholder.Render(loadingText))
	case loadslot.StatusFailed:
		b.WriteString(m.styles.Error.Render(chatsFailedText))
	case loadslot.StatusReady:
		if len(snap.Value) == 0 {
			b.WriteString(m.styles.Placeholder.Render(noChatsText))
			break
		}
		b.WriteString(m.list.View())
	}

	return m.styles.ListPane.
		Width(m.listWidth).
		Height(inner).
		MaxHeight(inner + borderCols).
		Render(b.String())
}

func (m Model) messagesView() string {
	width := m.messagePaneWidth()
	inner := m.paneHeight() - borderCols
	pane := m.styles.MessagePane.
		Width(width).
		Height(inner).
		MaxHeight(inner + borderCols)

	sel := m.state.Selected()
	if sel == nil {
		return pane.Render(m.styles.Placeholder.Render(noSelectionText))
	}

	header := m.styles.Title.Render(sel.Name)
	var body string
	snap := m.state.Messages()
	switch snap.Status {
	case loadslot.StatusEmpty:
		body = m.styles.Placeholder.Render(noMessagesText)
	case loadslot.StatusFetching:
		body = m.spinner.View() + " " + m.styles.Placeholder.Render(loadingText)
	case loadslot.StatusFailed:
		body = m.styles.Error.Render(msgsFailedText)
	case loadslot.StatusReady:
		if len(snap.Value) == 0 {
			body = m.styles.Placeholder.Render(noMessagesText)
		} else {
			body = m.viewport.View()
		}
	}
	return pane.Render(header + "\n" + body)
}

func (m Model) footerView() string {
	help := m.help.View(m.keys)
	if m.flash == "" {
		return help
	}
	return m.styles.Flash.Render(m.flash) + "  " + help
}
