// Package thumb maintains an LRU cache of downscaled preview images loaded
// on a background goroutine.
package thumb

import (
	"container/list"
	"image"
	_ "image/gif" // register decoders for preview formats
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"

	"lumen/internal/debug"
)

// Cache provides an LRU cache for image thumbnails. Thumbnails are stored at
// reduced resolution to minimize memory usage.
type Cache struct {
	mu        sync.RWMutex
	cache     map[string]*entry // path -> entry
	lru       *list.List        // LRU list (front = most recent)
	maxSize   int               // Maximum number of entries
	maxPixels int               // Maximum thumbnail dimension (width or height)

	pendingMu sync.Mutex
	pending   map[string]bool // Paths currently being loaded
	loadChan  chan string     // Channel for load requests
	stopChan  chan struct{}   // Channel to stop the loader
	loadedCh  chan string     // Notifies which path finished loading
}

type entry struct {
	path      string
	thumbnail image.Image
	size      image.Point // Original image dimensions
	element   *list.Element
}

// NewCache creates a thumbnail cache. maxEntries caps the number of cached
// thumbnails; maxPixels caps the larger thumbnail dimension.
func NewCache(maxEntries, maxPixels int) *Cache {
	c := &Cache{
		cache:     make(map[string]*entry),
		lru:       list.New(),
		maxSize:   maxEntries,
		maxPixels: maxPixels,
		pending:   make(map[string]bool),
		loadChan:  make(chan string, 100),
		stopChan:  make(chan struct{}),
		loadedCh:  make(chan string, 100),
	}
	go c.backgroundLoader()
	return c
}

// Get retrieves a thumbnail. Returns the thumbnail, the original image
// dimensions and whether it was found.
func (c *Cache) Get(path string) (image.Image, image.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[path]
	if !ok {
		return nil, image.Point{}, false
	}
	c.lru.MoveToFront(e.element)
	return e.thumbnail, e.size, true
}

// RequestLoad queues a path for background thumbnail loading. Does nothing if
// the path is already cached or being loaded.
func (c *Cache) RequestLoad(path string) {
	c.mu.RLock()
	_, cached := c.cache[path]
	c.mu.RUnlock()
	if cached {
		return
	}

	c.pendingMu.Lock()
	if c.pending[path] {
		c.pendingMu.Unlock()
		return
	}
	c.pending[path] = true
	c.pendingMu.Unlock()

	select {
	case c.loadChan <- path:
	default:
		// Queue full; drop the request, the UI will ask again.
		c.pendingMu.Lock()
		delete(c.pending, path)
		c.pendingMu.Unlock()
	}
}

// Loaded notifies which paths finished loading so the UI can redraw.
func (c *Cache) Loaded() <-chan string {
	return c.loadedCh
}

// Close stops the background loader.
func (c *Cache) Close() {
	close(c.stopChan)
}

func (c *Cache) backgroundLoader() {
	for {
		select {
		case <-c.stopChan:
			return
		case path := <-c.loadChan:
			c.load(path)
			c.pendingMu.Lock()
			delete(c.pending, path)
			c.pendingMu.Unlock()
		}
	}
}

func (c *Cache) load(path string) {
	f, err := os.Open(path)
	if err != nil {
		debug.Log(debug.APP, "thumb: open %s: %v", path, err)
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		debug.Log(debug.APP, "thumb: decode %s: %v", path, err)
		return
	}

	origSize := img.Bounds().Size()
	thumbnail := c.downscale(img)

	c.mu.Lock()
	if existing, ok := c.cache[path]; ok {
		c.lru.MoveToFront(existing.element)
		c.mu.Unlock()
		return
	}
	e := &entry{path: path, thumbnail: thumbnail, size: origSize}
	e.element = c.lru.PushFront(e)
	c.cache[path] = e
	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := c.lru.Remove(oldest).(*entry)
		delete(c.cache, evicted.path)
	}
	c.mu.Unlock()

	select {
	case c.loadedCh <- path:
	default:
	}
}

// downscale shrinks the image so neither dimension exceeds maxPixels,
// preserving aspect ratio. Images already small enough pass through.
func (c *Cache) downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= c.maxPixels && h <= c.maxPixels {
		return img
	}

	scale := float64(c.maxPixels) / float64(w)
	if h > w {
		scale = float64(c.maxPixels) / float64(h)
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
