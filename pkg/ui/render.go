package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/go-go-golems/chatdb-viewer/pkg/chatdb"
)

const (
	metaLayout = "Jan 2 2006 15:04"
	noText     = "(no text)"
)

// wrapText word-wraps s to width columns, hard-breaking words that are
// longer than a line.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// bubbleWidth caps the text width of a bubble for a panel of panelWidth
// columns.
func bubbleWidth(panelWidth, maxWidth int) int {
	w := maxWidth
	if limit := panelWidth * 3 / 4; limit < w {
		w = limit
	}
	if w < 8 {
		w = 8
	}
	return w
}

func renderMessage(st Styles, m chatdb.Message, panelWidth, maxWidth int) string {
	w := bubbleWidth(panelWidth, maxWidth)
	// two columns of bubble padding
	text := wrapText(m.Text, w-2)
	if m.Text == "" {
		text = st.EmptyText.Render(noText)
	}

	bubbleStyle, align := st.OtherBubble, lipgloss.Left
	meta := m.Sender.Handle() + " · " + m.Date.Local().Format(metaLayout)
	if m.Sender.IsSelf() {
		bubbleStyle, align = st.SelfBubble, lipgloss.Right
		meta = m.Date.Local().Format(metaLayout)
	}
	block := lipgloss.JoinVertical(align,
		st.Meta.Render(truncate.StringWithTail(meta, uint(w), "…")),
		bubbleStyle.Render(text),
	)
	return lipgloss.PlaceHorizontal(panelWidth, align, block)
}

// renderMessages lays out messages top to bottom in the order given.
func renderMessages(st Styles, msgs []chatdb.Message, panelWidth, maxWidth int) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, renderMessage(st, m, panelWidth, maxWidth))
	}
	return strings.Join(parts, "\n\n")
}
