// Package trash moves files to a trash store instead of permanently deleting
// them, and provides listing, restore and empty. The primary store follows
// the freedesktop.org trash specification; a legacy store under the user home
// acts as a fallback when the XDG location is unusable.
package trash

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"
)

// Item represents a file or directory in the trash.
type Item struct {
	Name         string    // original base name
	OriginalPath string    // full path the file was deleted from
	TrashPath    string    // current path inside the trash store
	DeletedAt    time.Time // when the file was trashed
	Size         int64
	IsDir        bool

	storage storage // store that owns this item
}

// Exists reports whether the item is still present in its trash store.
func (i Item) Exists() bool {
	_, err := os.Stat(i.TrashPath)
	return err == nil
}

// storage is one trash store implementation.
type storage interface {
	put(src string) error
	restore(item Item) error
	list() ([]Item, error)
	remove(item Item) error
	available() bool
}

// stores returns the usable stores in priority order.
func stores() []storage {
	all := []storage{xdgStorage{}, legacyStorage{}}
	return lo.Filter(all, func(s storage, _ int) bool { return s.available() })
}

// Available reports whether any trash store is usable. When false, Delete
// operations fall back to permanent deletion.
func Available() bool {
	return len(stores()) > 0
}

// Put moves a file or directory into the highest-priority usable store.
func Put(path string) error {
	ss := stores()
	if len(ss) == 0 {
		return fmt.Errorf("no trash storage available")
	}
	return ss[0].put(path)
}

// Restore returns a trashed item to its original location. It fails if the
// original location is occupied.
func Restore(item Item) error {
	if item.storage != nil {
		return item.storage.restore(item)
	}
	// Item constructed by hand (e.g. deserialized): try each store.
	var lastErr error
	for _, s := range stores() {
		if err := s.restore(item); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no trash storage available")
	}
	return lastErr
}

// List returns every trashed item across all usable stores, most recently
// deleted first.
func List() ([]Item, error) {
	var items []Item
	for _, s := range stores() {
		part, err := s.list()
		if err != nil {
			return nil, err
		}
		items = append(items, part...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DeletedAt.After(items[j].DeletedAt) })
	return items, nil
}

// Remove permanently deletes one item from its trash store.
func Remove(item Item) error {
	if item.storage != nil {
		return item.storage.remove(item)
	}
	var lastErr error
	for _, s := range stores() {
		if err := s.remove(item); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no trash storage available")
	}
	return lastErr
}

// Empty permanently deletes every item in every store.
func Empty() error {
	items, err := List()
	if err != nil {
		return err
	}
	var lastErr error
	for _, item := range items {
		if err := Remove(item); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// PermanentDelete removes a path without involving the trash.
func PermanentDelete(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// DisplayName returns the user-facing name of the trash.
func DisplayName() string {
	return "Trash"
}
