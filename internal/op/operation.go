package op

import (
	"fmt"
	"path/filepath"
	"strings"

	"lumen/internal/trash"
)

// Kind discriminates the requested filesystem mutation.
type Kind int

const (
	Copy Kind = iota
	Move
	Delete
	Restore
	Rename
	NewFolder
	EmptyTrash
)

func (k Kind) String() string {
	switch k {
	case Copy:
		return "copy"
	case Move:
		return "move"
	case Delete:
		return "delete"
	case Restore:
		return "restore"
	case Rename:
		return "rename"
	case NewFolder:
		return "new folder"
	case EmptyTrash:
		return "empty trash"
	default:
		return "unknown"
	}
}

// Operation describes one requested filesystem mutation. It is immutable once
// constructed; all mutable execution state lives in the Controller. The value
// is copied into the task that performs it.
type Operation struct {
	Kind      Kind
	Paths     []string     // sources for Copy/Move/Delete
	To        string       // destination directory (Copy/Move), new path (Rename/NewFolder)
	From      string       // source path for Rename
	Items     []trash.Item // entries for Restore
	Permanent bool         // Delete bypasses the trash
}

// NewCopy copies paths into the directory to.
func NewCopy(paths []string, to string) Operation {
	return Operation{Kind: Copy, Paths: paths, To: to}
}

// NewMove moves paths into the directory to.
func NewMove(paths []string, to string) Operation {
	return Operation{Kind: Move, Paths: paths, To: to}
}

// NewDelete moves paths to the trash (or deletes permanently when trash is
// unavailable).
func NewDelete(paths []string) Operation {
	return Operation{Kind: Delete, Paths: paths}
}

// NewPermanentDelete deletes paths without moving them to the trash.
func NewPermanentDelete(paths []string) Operation {
	return Operation{Kind: Delete, Paths: paths, Permanent: true}
}

// NewRestore restores trashed items to their original locations.
func NewRestore(items []trash.Item) Operation {
	return Operation{Kind: Restore, Items: items}
}

// NewRename renames from to to. Rename fails fast if the destination exists;
// it does not route through the conflict prompt.
func NewRename(from, to string) Operation {
	return Operation{Kind: Rename, From: from, To: to}
}

// NewNewFolder creates the directory at path.
func NewNewFolder(path string) Operation {
	return Operation{Kind: NewFolder, To: path}
}

// NewEmptyTrash permanently deletes everything in the trash.
func NewEmptyTrash() Operation {
	return Operation{Kind: EmptyTrash}
}

// Describe returns a short human-readable summary for registry views and
// notifications, e.g. "Copy 3 items to Pictures".
func (o Operation) Describe() string {
	switch o.Kind {
	case Copy:
		return fmt.Sprintf("Copy %s to %s", countPhrase(o.Paths), filepath.Base(o.To))
	case Move:
		return fmt.Sprintf("Move %s to %s", countPhrase(o.Paths), filepath.Base(o.To))
	case Delete:
		return fmt.Sprintf("Delete %s", countPhrase(o.Paths))
	case Restore:
		if len(o.Items) == 1 {
			return fmt.Sprintf("Restore %q from trash", o.Items[0].Name)
		}
		return fmt.Sprintf("Restore %d items from trash", len(o.Items))
	case Rename:
		return fmt.Sprintf("Rename %q to %q", filepath.Base(o.From), filepath.Base(o.To))
	case NewFolder:
		return fmt.Sprintf("Create folder %q", filepath.Base(o.To))
	case EmptyTrash:
		return "Empty trash"
	default:
		return "Unknown operation"
	}
}

func countPhrase(paths []string) string {
	if len(paths) == 1 {
		return fmt.Sprintf("%q", filepath.Base(paths[0]))
	}
	return fmt.Sprintf("%d items", len(paths))
}

// Selection is the post-operation report consumed by the UI to refresh and
// re-select affected rows. Selected holds paths the caller should now focus
// (newly created or moved items); Ignored holds paths deliberately skipped
// by a conflict decision.
type Selection struct {
	Selected []string
	Ignored  []string
}

// keepBothPath generates a destination path that collides neither with an
// existing file nor with any name already produced in this operation,
// appending a numeric suffix before the extension.
func keepBothPath(dst string, taken map[string]bool) string {
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if !taken[candidate] && !pathExists(candidate) {
			taken[candidate] = true
			return candidate
		}
	}
}
