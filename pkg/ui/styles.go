package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-go-golems/chatdb-viewer/pkg/config"
)

// Styles are built once at startup from the theme and never change.
type Styles struct {
	ListPane    lipgloss.Style
	MessagePane lipgloss.Style

	Title       lipgloss.Style
	Placeholder lipgloss.Style
	Error       lipgloss.Style

	// conversation rows: plain, under the cursor, and the open chat
	NormalTitle lipgloss.Style
	NormalDesc  lipgloss.Style
	CursorTitle lipgloss.Style
	CursorDesc  lipgloss.Style
	ChosenTitle lipgloss.Style
	ChosenDesc  lipgloss.Style
	Pagination  lipgloss.Style

	SelfBubble  lipgloss.Style
	OtherBubble lipgloss.Style
	Meta        lipgloss.Style
	EmptyText   lipgloss.Style

	Flash lipgloss.Style
}

func NewStyles(theme config.Theme) Styles {
	border := lipgloss.Color(theme.Border)
	muted := lipgloss.Color(theme.Muted)
	white := lipgloss.Color("#FFFDF5")

	accent := lipgloss.Color(theme.Accent)
	highlight := lipgloss.Color(theme.Highlight)

	normalTitle := lipgloss.NewStyle().Foreground(white).Padding(0, 0, 0, 2)
	cursorTitle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accent).
		Foreground(accent).
		Padding(0, 0, 0, 1)
	chosenTitle := normalTitle.Background(highlight).Bold(true)

	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border)

	return Styles{
		ListPane:    pane,
		MessagePane: pane.Padding(0, 1),

		Title:       lipgloss.NewStyle().Bold(true).Foreground(white),
		Placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		NormalTitle: normalTitle,
		NormalDesc:  normalTitle.Foreground(muted),
		CursorTitle: cursorTitle,
		CursorDesc:  cursorTitle.Foreground(muted),
		ChosenTitle: chosenTitle,
		ChosenDesc:  chosenTitle.Bold(false),
		Pagination:  list.DefaultStyles().PaginationStyle.PaddingLeft(2),

		SelfBubble:  lipgloss.NewStyle().Padding(0, 1).Background(accent).Foreground(white),
		OtherBubble: lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color(theme.Neutral)).Foreground(white),
		Meta:        lipgloss.NewStyle().Foreground(muted),
		EmptyText:   lipgloss.NewStyle().Italic(true),

		Flash: lipgloss.NewStyle().Foreground(accent),
	}
}
