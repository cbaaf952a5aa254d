package tui

import (
	"fmt"
	"strings"

	"github.com/bunchhieng/sticky/internal/collection"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	searchStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func (m appModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.mode == modeSearch || m.app.Manager.Filtering() {
		b.WriteString(searchStyle.Width(max(m.width-2, 10)).Render(m.search.View()))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeAdd:
		b.WriteString(m.renderAddForm())
	case modeConfirmDelete:
		b.WriteString(m.renderDeleteConfirmation())
	default:
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func sortLabel(s collection.SortState) string {
	if s.Order == collection.SortNone {
		return "none"
	}
	arrow := "↑"
	if s.Descending {
		arrow = "↓"
	}
	return s.Order.String() + " " + arrow
}

func (m appModel) renderHeader() string {
	name := "no category"
	if c := m.app.Manager.Category(); c != nil {
		name = c.Name
	}
	header := fmt.Sprintf("sticky - %s  [Sort: %s]  [%d links]",
		name, sortLabel(m.app.Manager.Sort()), m.app.Manager.Len())
	return headerStyle.Render(header)
}

func (m appModel) renderList() string {
	links := m.app.Manager.View()
	if len(links) == 0 {
		if m.app.Manager.Category() == nil {
			return "No category selected. Press tab to pick one or 'q' to quit."
		}
		return "No links found. Press 'a' to add a link or 'q' to quit."
	}

	var b strings.Builder
	listHeight := max(m.height-6, 1)

	// Scroll so the selection stays visible.
	start := 0
	if m.selected >= listHeight {
		start = m.selected - listHeight + 1
	}
	for i := start; i < len(links) && i < start+listHeight; i++ {
		b.WriteString(m.renderLink(links[i], i == m.selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m appModel) renderLink(link *model.Link, selected bool) string {
	title := truncate(link.DisplayTitle(), 60)
	age := "-"
	if !link.CreatedAt.IsZero() {
		age = humanize.Time(link.CreatedAt)
	}

	if selected {
		return selectedStyle.Render(fmt.Sprintf("%s  %s", title, age))
	}
	return " " + fmt.Sprintf("%s  %s", titleStyle.Render(title), dimStyle.Render(age))
}

func (m appModel) renderAddForm() string {
	var b strings.Builder
	b.WriteString("Add your favourite Webpages\n")
	if m.addMessage != "" {
		b.WriteString(errorStyle.Render(m.addMessage))
		b.WriteString("\n")
	}
	b.WriteString(m.titleInput.View())
	b.WriteString("\n")
	b.WriteString(m.urlInput.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("[enter] add  [tab] next field  [esc] cancel"))
	return formStyle.Render(b.String())
}

func (m appModel) renderDeleteConfirmation() string {
	if m.pendingDelete == nil {
		return ""
	}
	text := fmt.Sprintf("Are you sure you want to delete this item?\n%s\n\n[y]es / [n]o", m.pendingDelete.Prompt())
	return selectedStyle.Width(max(m.width-4, 20)).Padding(1, 2).Render(text)
}

func (m appModel) renderStatusBar() string {
	var parts []string

	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	} else {
		n := m.app.Manager.Len()
		pos := 0
		if n > 0 {
			pos = m.selected + 1
		}
		parts = append(parts, fmt.Sprintf("%d/%d", pos, n))
	}
	parts = append(parts, "[o]pen [a]dd [x]delete [/]search [n]ame [c]reated [tab]category [q]uit")

	return statusBarStyle.Width(m.width).Render(strings.Join(parts, "  |  "))
}

// truncate shortens s to at most n terminal cells.
func truncate(s string, n int) string {
	return ansi.Truncate(s, n, "...")
}
