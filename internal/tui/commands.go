package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// The model re-arms each of these after consuming the message it produces, so
// there is always exactly one reader per subsystem channel.

func (m Model) waitFS() tea.Cmd {
	ch := m.app.FS().ResponseChan
	return func() tea.Msg {
		return fsResponseMsg{resp: <-ch}
	}
}

func (m Model) waitStore() tea.Cmd {
	ch := m.app.Store().ResponseChan
	return func() tea.Msg {
		return storeResponseMsg{resp: <-ch}
	}
}

func (m Model) waitCompletion() tea.Cmd {
	ch := m.app.Registry().Events()
	return func() tea.Msg {
		return opCompletionMsg{completion: <-ch}
	}
}

func (m Model) waitConflict() tea.Cmd {
	ch := m.app.Registry().Conflicts()
	return func() tea.Msg {
		return conflictMsg{req: <-ch}
	}
}

func (m Model) waitWatch() tea.Cmd {
	ch := m.app.Watcher().Notify()
	return func() tea.Msg {
		return watchMsg{dir: <-ch}
	}
}

func (m Model) waitThumb() tea.Cmd {
	ch := m.app.Thumbs().Loaded()
	return func() tea.Msg {
		return thumbLoadedMsg{path: <-ch}
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
