package trash

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// legacyStorage is the home-directory fallback used when the XDG location is
// unusable. Each trashed entry lives in its own uuid directory next to a
// small metadata file:
//
//	~/.lumen/trash/<uuid>/<original basename>
//	~/.lumen/trash/<uuid>/meta.json
type legacyStorage struct{}

const legacyMetaFile = "meta.json"

type legacyMeta struct {
	OriginalPath string    `json:"original_path"`
	DeletedAt    time.Time `json:"deleted_at"`
}

func legacyRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lumen", "trash")
}

func (l legacyStorage) available() bool {
	root := legacyRoot()
	if root == "" {
		return false
	}
	return os.MkdirAll(root, 0o700) == nil
}

func (l legacyStorage) put(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	dir := filepath.Join(legacyRoot(), uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("cannot create trash entry directory: %w", err)
	}

	meta := legacyMeta{OriginalPath: absPath, DeletedAt: time.Now()}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, legacyMetaFile), raw, 0o600); err != nil {
		return err
	}

	dest := filepath.Join(dir, filepath.Base(absPath))
	if err := os.Rename(absPath, dest); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("cannot move file to trash: %w", err)
	}
	return nil
}

func (l legacyStorage) restore(item Item) error {
	if item.OriginalPath == "" {
		return fmt.Errorf("%s: original path unknown", item.Name)
	}
	if _, err := os.Stat(item.OriginalPath); err == nil {
		return fmt.Errorf("%s: original location is occupied", item.OriginalPath)
	}
	if err := os.MkdirAll(filepath.Dir(item.OriginalPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(item.TrashPath, item.OriginalPath); err != nil {
		return err
	}
	os.RemoveAll(filepath.Dir(item.TrashPath)) // drop the uuid dir with its meta
	return nil
}

func (l legacyStorage) list() ([]Item, error) {
	entries, err := os.ReadDir(legacyRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var items []Item
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(legacyRoot(), entry.Name())

		var meta legacyMeta
		if raw, err := os.ReadFile(filepath.Join(dir, legacyMetaFile)); err == nil {
			json.Unmarshal(raw, &meta)
		}

		children, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, child := range children {
			if child.Name() == legacyMetaFile {
				continue
			}
			info, err := child.Info()
			if err != nil {
				continue
			}
			item := Item{
				Name:         child.Name(),
				OriginalPath: meta.OriginalPath,
				TrashPath:    filepath.Join(dir, child.Name()),
				DeletedAt:    meta.DeletedAt,
				Size:         info.Size(),
				IsDir:        child.IsDir(),
				storage:      l,
			}
			if item.DeletedAt.IsZero() {
				item.DeletedAt = info.ModTime()
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (l legacyStorage) remove(item Item) error {
	if err := os.RemoveAll(item.TrashPath); err != nil {
		return err
	}
	os.RemoveAll(filepath.Dir(item.TrashPath))
	return nil
}
