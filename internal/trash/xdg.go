package trash

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// xdgStorage implements the freedesktop.org trash specification.
// Trash location: $XDG_DATA_HOME/Trash (default ~/.local/share/Trash) with
//   - files/  - the trashed files themselves
//   - info/   - one .trashinfo metadata file per entry
//
// .trashinfo format:
//
//	[Trash Info]
//	Path=/original/path/to/file
//	DeletionDate=2024-01-15T10:30:45
type xdgStorage struct{}

func xdgRoot() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "Trash")
}

func xdgFiles() string { return filepath.Join(xdgRoot(), "files") }
func xdgInfo() string  { return filepath.Join(xdgRoot(), "info") }

func (x xdgStorage) available() bool {
	if xdgRoot() == "" {
		return false
	}
	if err := os.MkdirAll(xdgFiles(), 0o700); err != nil {
		return false
	}
	if err := os.MkdirAll(xdgInfo(), 0o700); err != nil {
		return false
	}
	return true
}

func (x xdgStorage) put(path string) error {
	if err := os.MkdirAll(xdgFiles(), 0o700); err != nil {
		return fmt.Errorf("cannot create trash files directory: %w", err)
	}
	if err := os.MkdirAll(xdgInfo(), 0o700); err != nil {
		return fmt.Errorf("cannot create trash info directory: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	// Pick a unique name in the store, appending numbers on collision.
	baseName := filepath.Base(absPath)
	destName := baseName
	destPath := filepath.Join(xdgFiles(), destName)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(baseName)
		name := strings.TrimSuffix(baseName, ext)
		destName = fmt.Sprintf("%s.%d%s", name, counter, ext)
		destPath = filepath.Join(xdgFiles(), destName)
	}

	infoContent := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(absPath),
		time.Now().Format("2006-01-02T15:04:05"))
	infoFilePath := filepath.Join(xdgInfo(), destName+".trashinfo")
	if err := os.WriteFile(infoFilePath, []byte(infoContent), 0o600); err != nil {
		return fmt.Errorf("cannot create trashinfo file: %w", err)
	}

	if err := os.Rename(absPath, destPath); err != nil {
		os.Remove(infoFilePath)
		return fmt.Errorf("cannot move file to trash: %w", err)
	}
	return nil
}

func (x xdgStorage) restore(item Item) error {
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
	infoFile := filepath.Join(xdgInfo(), filepath.Base(item.TrashPath)+".trashinfo")
	os.Remove(infoFile) // best effort
	return nil
}

func (x xdgStorage) list() ([]Item, error) {
	entries, err := os.ReadDir(xdgFiles())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var items []Item
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		item := Item{
			Name:      entry.Name(),
			TrashPath: filepath.Join(xdgFiles(), entry.Name()),
			DeletedAt: info.ModTime(),
			Size:      info.Size(),
			IsDir:     entry.IsDir(),
			storage:   x,
		}
		infoFilePath := filepath.Join(xdgInfo(), entry.Name()+".trashinfo")
		if origPath, delTime, err := parseTrashInfo(infoFilePath); err == nil {
			item.OriginalPath = origPath
			if origPath != "" {
				item.Name = filepath.Base(origPath)
			}
			if !delTime.IsZero() {
				item.DeletedAt = delTime
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (x xdgStorage) remove(item Item) error {
	if err := os.RemoveAll(item.TrashPath); err != nil {
		return err
	}
	infoFile := filepath.Join(xdgInfo(), filepath.Base(item.TrashPath)+".trashinfo")
	os.Remove(infoFile) // best effort
	return nil
}

// escapeTrashPath percent-encodes each path segment for the Path= line while
// keeping the separators literal, so other freedesktop trash tools can read
// the entry.
func escapeTrashPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func parseTrashInfo(path string) (originalPath string, deletionDate time.Time, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Path=") {
			encoded := strings.TrimPrefix(line, "Path=")
			if decoded, err := url.PathUnescape(encoded); err == nil {
				originalPath = decoded
			} else {
				originalPath = encoded
			}
		} else if strings.HasPrefix(line, "DeletionDate=") {
			dateStr := strings.TrimPrefix(line, "DeletionDate=")
			if t, err := time.Parse("2006-01-02T15:04:05", dateStr); err == nil {
				deletionDate = t
			}
		}
	}
	return originalPath, deletionDate, scanner.Err()
}
