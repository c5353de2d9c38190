package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	Parent     key.Binding
	Select     key.Binding
	Copy       key.Binding
	Cut        key.Binding
	Paste      key.Binding
	Delete     key.Binding
	Rename     key.Binding
	NewFolder  key.Binding
	Trash      key.Binding
	Restore    key.Binding
	EmptyTrash key.Binding
	Favorite   key.Binding
	Search     key.Binding
	Dotfiles   key.Binding
	PauseAll   key.Binding
	CancelAll  key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:       key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Parent:     key.NewBinding(key.WithKeys("backspace", "h"), key.WithHelp("bksp", "parent")),
		Select:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Cut:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cut")),
		Paste:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "paste")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Rename:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		NewFolder:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new folder")),
		Trash:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trash view")),
		Restore:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restore")),
		EmptyTrash: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "empty trash")),
		Favorite:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search media")),
		Dotfiles:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "dotfiles")),
		PauseAll:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause ops")),
		CancelAll:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "cancel ops")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
