package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	markedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	overlayStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func (m Model) View() string {
	switch m.mode {
	case modeConflict:
		return m.viewConflict()
	case modeTrash:
		return m.viewTrash()
	case modeSearch:
		return m.viewSearch()
	case modeSearchResults:
		return m.viewSearchResults()
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.path))
	b.WriteString("\n\n")

	listHeight := m.height - 6
	if listHeight < 3 {
		listHeight = 3
	}
	top := 0
	if m.cursor >= listHeight {
		top = m.cursor - listHeight + 1
	}

	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	for i := top; i < len(m.entries) && i < top+listHeight; i++ {
		e := m.entries[i]
		mark := " "
		if m.marked[e.Path] {
			mark = "*"
		}
		fav := " "
		if m.favorites[e.Path] {
			fav = "+"
		}
		size := humanize.Bytes(uint64(e.Size))
		if e.IsDir {
			size = ""
		}
		line := fmt.Sprintf("%s%s %-40s %10s  %s", mark, fav, truncate(e.Name, 40), size, e.ModTime.Format("2006-01-02 15:04"))
		switch {
		case i == m.cursor:
			line = cursorStyle.Render(line)
		case m.marked[e.Path]:
			line = markedStyle.Render(line)
		case e.IsDir:
			line = dirStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatusLine())
	b.WriteString("\n")

	switch m.mode {
	case modeConfirmDelete:
		b.WriteString(overlayStyle.Render("Delete " + countLabel(len(m.pendingDel)) + "? (y/n)"))
		b.WriteString("\n")
	case modeRename:
		b.WriteString(overlayStyle.Render("Rename to: " + m.input.View()))
		b.WriteString("\n")
	case modeNewFolder:
		b.WriteString(overlayStyle.Render("New folder: " + m.input.View()))
		b.WriteString("\n")
	default:
		b.WriteString(dimStyle.Render("j/k move  enter open  space select  c/x/v copy/cut/paste  d delete  r rename  n folder  t trash  / search  q quit"))
		b.WriteString("\n")
	}

	if m.preview != "" && m.mode == modeBrowse {
		b.WriteString("\n")
		b.WriteString(m.preview)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStatusLine() string {
	parts := make([]string, 0, 2)
	if m.summary.Active {
		text := m.summary.Text
		if m.paused {
			text = "Paused: " + text
		}
		parts = append(parts, progressStyle.Render(fmt.Sprintf("[%s] %3.0f%%", text, m.summary.Fraction*100)))
	}
	if m.status != "" {
		style := statusStyle
		if strings.Contains(m.status, "failed") || strings.Contains(m.status, "cancelled") {
			style = errorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if len(parts) == 0 {
		return dimStyle.Render(countLabel(len(m.entries)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewConflict() string {
	req := m.conflict
	if req == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("File conflict"))
	b.WriteString("\n\n")
	b.WriteString("A file named " + req.Dest.Name + " already exists in the destination.\n\n")
	b.WriteString(fmt.Sprintf("  existing: %s  (%s, %s)\n",
		req.Dest.Path, humanize.Bytes(uint64(req.Dest.Size)), req.Dest.ModTime.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("  incoming: %s  (%s, %s)\n\n",
		req.Source.Path, humanize.Bytes(uint64(req.Source.Size)), req.Source.ModTime.Format("2006-01-02 15:04")))
	b.WriteString("  [r]eplace  [s]kip  keep [b]oth  [c]ancel operation\n")
	if req.Multiple {
		check := " "
		if m.conflictApply {
			check = "x"
		}
		b.WriteString(fmt.Sprintf("\n  [a] apply to all remaining conflicts [%s]\n", check))
	}
	if n := len(m.conflictQueue); n > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n  %d more waiting\n", n)))
	}
	return overlayStyle.Render(b.String()) + "\n"
}

func (m Model) viewTrash() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Trash"))
	b.WriteString("\n\n")
	if len(m.trashItems) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	for i, item := range m.trashItems {
		line := fmt.Sprintf("%-30s %s  %s", truncate(item.Name, 30),
			item.DeletedAt.Format("2006-01-02 15:04"), dimStyle.Render(item.OriginalPath))
		if i == m.trashCursor {
			line = cursorStyle.Render(fmt.Sprintf("%-30s %s  %s", truncate(item.Name, 30),
				item.DeletedAt.Format("2006-01-02 15:04"), item.OriginalPath))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("R restore  E empty trash  t back"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewSearch() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Search media"))
	b.WriteString("\n\n")
	b.WriteString("Query: " + m.input.View())
	b.WriteString("\n")

	if len(m.savedSearches) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Saved searches:"))
		b.WriteString("\n")
		for i, s := range m.savedSearches {
			line := "  " + s.Name
			if s.Kinds != "" {
				line += dimStyle.Render(" (" + s.Kinds + ")")
			}
			if i == m.savedCursor {
				line = markedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter search  tab cycle saved  ctrl+s save  ctrl+d delete saved  esc back"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewSearchResults() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Search results"))
	b.WriteString("\n\n")
	if len(m.searchResults) == 0 {
		b.WriteString(dimStyle.Render("  (no matches)"))
		b.WriteString("\n")
	}
	for i, res := range m.searchResults {
		title := res.Title
		if title == "" {
			title = truncate(res.Path, 50)
		}
		detail := res.Kind
		if res.Artist != "" {
			detail += "  " + res.Artist
		}
		if res.Width > 0 {
			detail += fmt.Sprintf("  %dx%d", res.Width, res.Height)
		}
		line := fmt.Sprintf("%-50s %s", truncate(title, 50), dimStyle.Render(detail))
		if i == m.resultCursor {
			line = cursorStyle.Render(fmt.Sprintf("%-50s %s", truncate(title, 50), detail))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter open location  / refine  esc back"))
	b.WriteString("\n")
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
