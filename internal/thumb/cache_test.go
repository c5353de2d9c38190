package thumb

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func awaitLoaded(t *testing.T, c *Cache, path string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p := <-c.Loaded():
			if p == path {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s to load", path)
		}
	}
}

func TestLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	writePNG(t, path, 64, 32)

	c := NewCache(4, 128)
	defer c.Close()

	if _, _, ok := c.Get(path); ok {
		t.Fatal("cache hit before any load")
	}
	c.RequestLoad(path)
	awaitLoaded(t, c, path)

	thumbImg, size, ok := c.Get(path)
	if !ok {
		t.Fatal("no cache entry after load")
	}
	if size != image.Pt(64, 32) {
		t.Errorf("original size: %v", size)
	}
	// Small images pass through undownscaled.
	if got := thumbImg.Bounds().Size(); got != image.Pt(64, 32) {
		t.Errorf("thumbnail size: %v", got)
	}
}

func TestDownscaleKeepsAspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	writePNG(t, path, 400, 100)

	c := NewCache(4, 100)
	defer c.Close()

	c.RequestLoad(path)
	awaitLoaded(t, c, path)

	thumbImg, size, ok := c.Get(path)
	if !ok {
		t.Fatal("no cache entry")
	}
	if size != image.Pt(400, 100) {
		t.Errorf("original size: %v", size)
	}
	if got := thumbImg.Bounds().Size(); got != image.Pt(100, 25) {
		t.Errorf("downscaled size: %v", got)
	}
}

func TestEvictionDropsOldest(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, "img"+string(rune('a'+i))+".png")
		writePNG(t, paths[i], 8, 8)
	}

	c := NewCache(2, 64)
	defer c.Close()

	for _, p := range paths {
		c.RequestLoad(p)
		awaitLoaded(t, c, p)
	}

	if _, _, ok := c.Get(paths[0]); ok {
		t.Error("oldest entry survived eviction")
	}
	for _, p := range paths[1:] {
		if _, _, ok := c.Get(p); !ok {
			t.Errorf("recent entry evicted: %s", p)
		}
	}
}

func TestLoadInvalidFileIsSilent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-an-image.png")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(4, 64)
	defer c.Close()

	c.RequestLoad(path)
	time.Sleep(200 * time.Millisecond)
	if _, _, ok := c.Get(path); ok {
		t.Error("undecodable file cached")
	}
}
