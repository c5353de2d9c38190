package tui

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliukblau/pixterm/pkg/ansimage"

	"lumen/internal/debug"
	"lumen/internal/store"
)

var previewExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// updatePreview asks the thumbnail cache for the cursor entry. The rendered
// ANSI block is produced lazily once the image arrives.
func (m *Model) updatePreview() {
	m.preview = ""
	m.previewPath = ""

	e, ok := m.current()
	if !ok || e.IsDir {
		return
	}
	if !previewExts[strings.ToLower(filepath.Ext(e.Name))] {
		return
	}
	m.previewPath = e.Path
	if _, _, ok := m.app.Thumbs().Get(e.Path); ok {
		m.renderPreview()
		return
	}
	m.app.Thumbs().RequestLoad(e.Path)
}

// recordMedia upserts the decoded image's metadata into the store whenever a
// thumbnail finishes loading, so media search has rows to match against.
func (m *Model) recordMedia(path string) {
	_, size, ok := m.app.Thumbs().Get(path)
	if !ok {
		return
	}
	media := &store.Media{Path: path, Kind: "image", Width: size.X, Height: size.Y}
	if info, err := os.Stat(path); err == nil {
		media.CreatedAt = info.ModTime()
	}
	select {
	case m.app.Store().RequestChan <- store.Request{Op: store.UpsertMedia, Media: media}:
	default:
		// Store backlogged; metadata is best effort, drop the update.
	}
}

func (m *Model) renderPreview() {
	img, _, ok := m.app.Thumbs().Get(m.previewPath)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		debug.Log(debug.TUI, "preview encode %s: %v", m.previewPath, err)
		return
	}
	rows := m.height / 2
	cols := m.width / 3
	if rows < 4 || cols < 8 {
		return
	}
	ansi, err := ansimage.NewScaledFromReader(&buf, rows, cols, color.Black, ansimage.ScaleModeFit, ansimage.NoDithering)
	if err != nil {
		debug.Log(debug.TUI, "preview render %s: %v", m.previewPath, err)
		return
	}
	m.preview = ansi.Render()
}
