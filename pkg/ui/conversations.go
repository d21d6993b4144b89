package ui

import (
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
)

const rowTimeLayout = "2006-01-02 15:04"

// conversationItem is one row of the chat list: the name on the first line,
// the last activity on the second.
type conversationItem struct {
	conv chatdb.Conversation
	when string
}

func (i conversationItem) Title() string       { return i.conv.Name }
func (i conversationItem) Description() string { return i.when }
func (i conversationItem) FilterValue() string { return i.conv.Name }

func describeActivity(t, now time.Time) string {
	return t.Local().Format(rowTimeLayout) + " · " + humanize.RelTime(t, now, "ago", "from now")
}

func conversationItems(convs []chatdb.Conversation, now time.Time) []list.Item {
	items := make([]list.Item, 0, len(convs))
	for _, c := range convs {
		items = append(items, conversationItem{conv: c, when: describeActivity(c.LastActive, now)})
	}
	return items
}

// conversationDelegate renders rows with the default delegate and fills the
// row of the open chat.
type conversationDelegate struct {
	list.DefaultDelegate
	styles   Styles
	selected func() *chatdb.Conversation
}

func newConversationDelegate(st Styles, selected func() *chatdb.Conversation) conversationDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.NormalTitle = st.NormalTitle
	d.Styles.NormalDesc = st.NormalDesc
	d.Styles.SelectedTitle = st.CursorTitle
	d.Styles.SelectedDesc = st.CursorDesc
	return conversationDelegate{DefaultDelegate: d, styles: st, selected: selected}
}

func (d conversationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if ci, ok := item.(conversationItem); ok && d.isOpen(ci.conv.Name) {
		fill := func(s lipgloss.Style) lipgloss.Style {
			return s.Width(m.Width() - s.GetHorizontalBorderSize())
		}
		d.Styles.NormalTitle = fill(d.styles.ChosenTitle)
		d.Styles.NormalDesc = fill(d.styles.ChosenDesc)
		d.Styles.SelectedTitle = fill(d.styles.ChosenTitle.Inherit(d.styles.CursorTitle).Padding(0, 0, 0, 1))
		d.Styles.SelectedDesc = fill(d.styles.ChosenDesc.Inherit(d.styles.CursorDesc).Padding(0, 0, 0, 1))
	}
	d.DefaultDelegate.Render(w, m, index, item)
}

func (d conversationDelegate) isOpen(name string) bool {
	if d.selected == nil {
		return false
	}
	sel := d.selected()
	return sel != nil && sel.Name == name
}

func newConversationList(d conversationDelegate, st Styles) list.Model {
	l := list.New(nil, d, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = st.Pagination
	return l
}
