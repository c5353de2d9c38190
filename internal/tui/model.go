// Package tui is the terminal front-end shell over the application core. It
// renders directory listings, drives the operation engine and answers its
// conflict prompts; all engine interaction is message passing.
package tui

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lumen/internal/app"
	"lumen/internal/debug"
	"lumen/internal/fs"
	"lumen/internal/op"
	"lumen/internal/store"
	"lumen/internal/trash"
)

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
	modeRename
	modeNewFolder
	modeTrash
	modeConflict
	modeSearch
	modeSearchResults
)

type clipboard struct {
	paths []string
	cut   bool
}

type Model struct {
	app  *app.App
	keys KeyMap

	mode mode
	path string
	gen  int64

	rawEntries []fs.Entry
	entries    []fs.Entry
	cursor     int
	marked     map[string]bool // multi-select, keyed by path
	reselect   map[string]bool // paths to highlight after the next refresh

	clip      *clipboard
	favorites map[string]bool

	showDotfiles bool
	sortColumn   string
	sortAsc      bool

	input       textinput.Model
	renameFrom  string
	pendingDel  []string
	trashItems  []trash.Item
	trashCursor int

	searchResults []store.Media
	resultCursor  int
	savedSearches []store.SavedSearch
	savedCursor   int

	conflict        *op.ConflictRequest
	conflictQueue   []*op.ConflictRequest
	conflictApply   bool
	summary         op.Summary
	paused          bool
	status          string
	preview         string
	previewPath     string

	width  int
	height int
}

func NewModel(a *app.App, startPath string) Model {
	cfg := a.Config()
	input := textinput.New()
	input.CharLimit = 255

	gen := a.RequestDir(startPath)
	a.WatchDir(startPath)

	return Model{
		app:          a,
		keys:         DefaultKeyMap(),
		path:         startPath,
		gen:          gen,
		marked:       make(map[string]bool),
		reselect:     make(map[string]bool),
		favorites:    make(map[string]bool),
		showDotfiles: cfg.FileList.ShowDotfiles,
		sortColumn:   cfg.FileList.DefaultSort,
		sortAsc:      cfg.FileList.SortAscending,
		input:        input,
		width:        100,
		height:       30,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitFS(),
		m.waitStore(),
		m.waitCompletion(),
		m.waitConflict(),
		m.waitWatch(),
		m.waitThumb(),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)

	case fsResponseMsg:
		m.applyListing(typed.resp)
		return m, m.waitFS()

	case storeResponseMsg:
		m.applyStore(typed.resp)
		return m, m.waitStore()

	case opCompletionMsg:
		m.applyCompletion(typed.completion)
		return m, m.waitCompletion()

	case conflictMsg:
		debug.Log(debug.TUI, "conflict prompt for op %d: %s", typed.req.ID, typed.req.Dest.Path)
		if m.conflict != nil {
			// A prompt is already showing; hold the request until it is
			// answered so no worker's request is ever lost.
			m.conflictQueue = append(m.conflictQueue, typed.req)
		} else {
			m.mode = modeConflict
			m.conflict = typed.req
			m.conflictApply = false
		}
		return m, m.waitConflict()

	case watchMsg:
		if typed.dir == m.path {
			m.gen = m.app.RequestDir(m.path)
		}
		return m, m.waitWatch()

	case thumbLoadedMsg:
		m.recordMedia(typed.path)
		if typed.path == m.previewPath {
			m.renderPreview()
		}
		return m, m.waitThumb()

	case tickMsg:
		m.summary = m.app.Registry().Summarize()
		if m.summary.Active && m.summary.Running == 0 {
			// Everything tracked has finished; clear the surface.
			m.app.Registry().ClearFinished()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConflict:
		return m.handleConflictKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeRename, modeNewFolder:
		return m.handleInputKey(msg)
	case modeTrash:
		return m.handleTrashKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeSearchResults:
		return m.handleResultsKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.dropConflicts()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.updatePreview()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.updatePreview()
		}

	case key.Matches(msg, m.keys.Open):
		if e, ok := m.current(); ok && e.IsDir {
			m.navigate(e.Path)
		}

	case key.Matches(msg, m.keys.Parent):
		parent := filepath.Dir(m.path)
		if parent != m.path {
			m.navigate(parent)
		}

	case key.Matches(msg, m.keys.Select):
		if e, ok := m.current(); ok {
			if m.marked[e.Path] {
				delete(m.marked, e.Path)
			} else {
				m.marked[e.Path] = true
			}
		}

	case key.Matches(msg, m.keys.Copy):
		if paths := m.targets(); len(paths) > 0 {
			m.clip = &clipboard{paths: paths}
			m.status = "Copied " + countLabel(len(paths)) + " to clipboard"
		}

	case key.Matches(msg, m.keys.Cut):
		if paths := m.targets(); len(paths) > 0 {
			m.clip = &clipboard{paths: paths, cut: true}
			m.status = "Cut " + countLabel(len(paths))
		}

	case key.Matches(msg, m.keys.Paste):
		if m.clip != nil {
			if m.clip.cut {
				m.app.Move(m.clip.paths, m.path)
				m.clip = nil
			} else {
				m.app.Copy(m.clip.paths, m.path)
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if paths := m.targets(); len(paths) > 0 {
			if m.app.Config().Behavior.ConfirmDelete {
				m.mode = modeConfirmDelete
				m.pendingDel = paths
			} else {
				m.app.Delete(paths)
			}
		}

	case key.Matches(msg, m.keys.Rename):
		if e, ok := m.current(); ok {
			m.mode = modeRename
			m.renameFrom = e.Path
			m.input.SetValue(e.Name)
			m.input.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.NewFolder):
		m.mode = modeNewFolder
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Trash):
		items, err := trash.List()
		if err != nil {
			m.status = "Trash: " + err.Error()
			break
		}
		m.mode = modeTrash
		m.trashItems = items
		m.trashCursor = 0

	case key.Matches(msg, m.keys.Favorite):
		if e, ok := m.current(); ok {
			reqOp := store.AddFavorite
			if m.favorites[e.Path] {
				reqOp = store.RemoveFavorite
			}
			m.app.Store().RequestChan <- store.Request{Op: reqOp, Path: e.Path}
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.SetValue("")
		m.input.Focus()
		m.savedCursor = 0
		m.app.Store().RequestChan <- store.Request{Op: store.FetchSearches}
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Dotfiles):
		m.showDotfiles = !m.showDotfiles
		m.applyFilterAndSort()
		m.app.Store().RequestChan <- store.Request{
			Op: store.SaveSetting, Key: "showDotfiles", Value: strconv.FormatBool(m.showDotfiles),
		}

	case key.Matches(msg, m.keys.PauseAll):
		m.paused = !m.paused
		m.app.Registry().PauseAll(m.paused)

	case key.Matches(msg, m.keys.CancelAll):
		m.app.Registry().CancelAll()
	}
	return m, nil
}

func (m Model) handleConflictKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.conflict
	if req == nil {
		m.mode = modeBrowse
		return m, nil
	}
	answer := func(d op.Decision) {
		req.Reply(op.ConflictResponse{Decision: d, ApplyToAll: m.conflictApply})
		m.conflictApply = false
		if len(m.conflictQueue) > 0 {
			m.conflict = m.conflictQueue[0]
			m.conflictQueue = m.conflictQueue[1:]
		} else {
			m.conflict = nil
			m.mode = modeBrowse
		}
	}
	switch msg.String() {
	case "r":
		answer(op.DecisionReplace)
	case "s":
		answer(op.DecisionSkip)
	case "b":
		answer(op.DecisionKeepBoth)
	case "c", "esc":
		answer(op.DecisionCancel)
	case "a":
		m.conflictApply = !m.conflictApply
	case "ctrl+c":
		m.dropConflicts()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.app.Delete(m.pendingDel)
		m.pendingDel = nil
		m.mode = modeBrowse
	case "n", "esc":
		m.pendingDel = nil
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name != "" {
			switch m.mode {
			case modeRename:
				to := filepath.Join(filepath.Dir(m.renameFrom), name)
				if to != m.renameFrom {
					// Dialog-level pre-validation: the engine rejects
					// renames onto existing paths.
					if _, exists := m.entryByName(name); exists {
						m.status = "A file named " + name + " already exists"
						return m, nil
					}
					m.app.Rename(m.renameFrom, to)
				}
			case modeNewFolder:
				m.app.NewFolder(filepath.Join(m.path, name))
			}
		}
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	case "esc":
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query != "" {
			m.app.Store().RequestChan <- store.Request{Op: store.SearchMedia, Query: query}
		}
		return m, nil
	case "esc":
		m.input.Blur()
		m.mode = modeBrowse
		return m, nil
	case "tab":
		// Cycle through saved searches, filling the input.
		if len(m.savedSearches) > 0 {
			m.input.SetValue(m.savedSearches[m.savedCursor].Query)
			m.input.CursorEnd()
			m.savedCursor = (m.savedCursor + 1) % len(m.savedSearches)
		}
		return m, nil
	case "ctrl+s":
		query := strings.TrimSpace(m.input.Value())
		if query != "" {
			m.app.Store().RequestChan <- store.Request{
				Op:     store.SaveSearch,
				Search: &store.SavedSearch{Name: query, Query: query},
			}
		}
		return m, nil
	case "ctrl+d":
		if len(m.savedSearches) > 0 {
			idx := m.savedCursor
			if idx >= len(m.savedSearches) {
				idx = len(m.savedSearches) - 1
			}
			m.app.Store().RequestChan <- store.Request{Op: store.DeleteSearch, ID: m.savedSearches[idx].ID}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.resultCursor > 0 {
			m.resultCursor--
		}
	case key.Matches(msg, m.keys.Open):
		if m.resultCursor < len(m.searchResults) {
			m.mode = modeBrowse
			m.navigate(filepath.Dir(m.searchResults[m.resultCursor].Path))
		}
	case key.Matches(msg, m.keys.Down):
		if m.resultCursor < len(m.searchResults)-1 {
			m.resultCursor++
		}
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Quit):
		m.mode = modeBrowse
	default:
		if msg.String() == "esc" {
			m.mode = modeBrowse
		}
	}
	return m, nil
}

func (m Model) handleTrashKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.trashCursor > 0 {
			m.trashCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.trashCursor < len(m.trashItems)-1 {
			m.trashCursor++
		}
	case key.Matches(msg, m.keys.Restore):
		if m.trashCursor < len(m.trashItems) {
			m.app.Restore([]trash.Item{m.trashItems[m.trashCursor]})
			m.mode = modeBrowse
		}
	case key.Matches(msg, m.keys.EmptyTrash):
		m.app.EmptyTrash()
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Trash), key.Matches(msg, m.keys.Quit):
		m.mode = modeBrowse
	}
	return m, nil
}

// ============================================================================
// State transitions
// ============================================================================

// dropConflicts abandons the displayed prompt and everything queued behind
// it; each dropped request resolves as Cancel on the worker side. Called on
// teardown so no worker stays parked.
func (m *Model) dropConflicts() {
	if m.conflict != nil {
		m.conflict.Drop()
		m.conflict = nil
	}
	for _, req := range m.conflictQueue {
		req.Drop()
	}
	m.conflictQueue = nil
}

func (m *Model) navigate(path string) {
	m.path = path
	m.cursor = 0
	m.marked = make(map[string]bool)
	m.gen = m.app.RequestDir(path)
	m.app.WatchDir(path)
}

func (m *Model) applyListing(resp fs.Response) {
	if resp.Err != nil {
		m.status = resp.Err.Error()
		return
	}
	if resp.Gen != m.gen {
		return // stale response from an earlier navigation
	}
	m.rawEntries = resp.Entries
	m.applyFilterAndSort()

	// Re-select rows affected by the last finished operation.
	if len(m.reselect) > 0 {
		for i, e := range m.entries {
			if m.reselect[e.Path] {
				m.cursor = i
				break
			}
		}
		m.reselect = make(map[string]bool)
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.updatePreview()
}

func (m *Model) applyStore(resp store.Response) {
	if resp.Err != nil {
		debug.Log(debug.TUI, "store error: %v", resp.Err)
		return
	}
	switch resp.Op {
	case store.FetchFavorites:
		m.favorites = make(map[string]bool)
		for _, path := range resp.Favorites {
			m.favorites[path] = true
		}
	case store.SearchMedia:
		m.searchResults = resp.Media
		m.resultCursor = 0
		if m.mode == modeSearch {
			m.input.Blur()
			m.mode = modeSearchResults
		}
	case store.FetchSearches:
		m.savedSearches = resp.Searches
		if m.savedCursor >= len(m.savedSearches) {
			m.savedCursor = 0
		}
	}
}

func (m *Model) applyCompletion(c op.Completion) {
	switch {
	case c.Cancelled:
		m.status = c.Op.Describe() + ": cancelled"
	case c.Err != "":
		m.status = c.Op.Describe() + " failed: " + c.Err
	default:
		m.status = c.Op.Describe() + ": done"
		for _, path := range c.Selection.Selected {
			if filepath.Dir(path) == m.path {
				m.reselect[path] = true
			}
		}
	}
	m.gen = m.app.RequestDir(m.path)
}

func (m *Model) applyFilterAndSort() {
	var entries []fs.Entry
	for _, e := range m.rawEntries {
		if !m.showDotfiles && strings.HasPrefix(e.Name, ".") {
			continue
		}
		entries = append(entries, e)
	}

	cmp := comparator(m.sortColumn)
	sort.SliceStable(entries, func(i, j int) bool {
		// Directories first
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		less := cmp(entries[i], entries[j])
		if !m.sortAsc {
			return !less
		}
		return less
	})
	m.entries = entries
}

func comparator(column string) func(a, b fs.Entry) bool {
	switch column {
	case "date":
		return func(a, b fs.Entry) bool { return a.ModTime.Before(b.ModTime) }
	case "type":
		return func(a, b fs.Entry) bool {
			extA, extB := strings.ToLower(filepath.Ext(a.Name)), strings.ToLower(filepath.Ext(b.Name))
			if extA == extB {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return extA < extB
		}
	case "size":
		return func(a, b fs.Entry) bool {
			if a.Size == b.Size {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return a.Size < b.Size
		}
	default: // name
		return func(a, b fs.Entry) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
}

func (m Model) current() (fs.Entry, bool) {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return m.entries[m.cursor], true
	}
	return fs.Entry{}, false
}

func (m Model) entryByName(name string) (fs.Entry, bool) {
	for _, e := range m.rawEntries {
		if e.Name == name {
			return e, true
		}
	}
	return fs.Entry{}, false
}

// targets returns the marked paths, or the cursor entry when nothing is
// marked.
func (m Model) targets() []string {
	if len(m.marked) > 0 {
		paths := make([]string, 0, len(m.marked))
		for _, e := range m.entries {
			if m.marked[e.Path] {
				paths = append(paths, e.Path)
			}
		}
		return paths
	}
	if e, ok := m.current(); ok {
		return []string{e.Path}
	}
	return nil
}

func countLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}
