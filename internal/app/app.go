// Package app wires the subsystems together: the operation engine, the
// directory-listing worker, the metadata store, the watcher and the thumbnail
// cache. The UI talks to all of them through this package, exclusively by
// message passing.
package app

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"lumen/internal/config"
	"lumen/internal/debug"
	"lumen/internal/fs"
	"lumen/internal/op"
	"lumen/internal/store"
	"lumen/internal/thumb"
	"lumen/internal/trash"
	"lumen/internal/watch"
)

// App owns the background subsystems for one running instance.
type App struct {
	cfg      config.Config
	fs       *fs.System
	store    *store.DB
	registry *op.Registry
	watcher  *watch.DirectoryWatcher
	thumbs   *thumb.Cache
	gen      atomic.Int64
}

// New assembles the subsystems. Start must be called before use.
func New(cfg config.Config) (*App, error) {
	watcher, err := watch.NewDirectoryWatcher(200)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:      cfg,
		fs:       fs.NewSystem(),
		store:    store.NewDB(),
		registry: op.NewRegistry(),
		watcher:  watcher,
		thumbs:   thumb.NewCache(cfg.Thumbnail.MaxEntries, cfg.Thumbnail.MaxPixels),
	}, nil
}

// Start opens the metadata database and launches the worker goroutines.
func (a *App) Start() error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	if err := a.store.Open(filepath.Join(configDir, "lumen", "lumen.db")); err != nil {
		// A broken store degrades favorites and media search, not browsing.
		log.Warn("failed to open metadata database", "err", err)
	}

	go a.fs.Start()
	go a.store.Start()

	a.store.RequestChan <- store.Request{Op: store.FetchFavorites}
	a.store.RequestChan <- store.Request{Op: store.FetchSettings}
	return nil
}

// Close shuts the subsystems down.
func (a *App) Close() {
	a.registry.CancelAll()
	a.watcher.Close()
	a.thumbs.Close()
	a.store.Close()
}

func (a *App) Config() config.Config             { return a.cfg }
func (a *App) Registry() *op.Registry            { return a.registry }
func (a *App) FS() *fs.System                    { return a.fs }
func (a *App) Store() *store.DB                  { return a.store }
func (a *App) Watcher() *watch.DirectoryWatcher  { return a.watcher }
func (a *App) Thumbs() *thumb.Cache              { return a.thumbs }

// RequestDir asks the listing worker for a directory's entries and returns
// the generation number that will tag the response.
func (a *App) RequestDir(path string) int64 {
	gen := a.gen.Add(1)
	a.fs.RequestChan <- fs.Request{Op: fs.FetchDir, Path: path, Gen: gen}
	return gen
}

// Copy submits a copy of paths into the directory to.
func (a *App) Copy(paths []string, to string) uint64 {
	return a.registry.Submit(op.NewCopy(paths, to))
}

// Move submits a move of paths into the directory to.
func (a *App) Move(paths []string, to string) uint64 {
	return a.registry.Submit(op.NewMove(paths, to))
}

// Delete submits a delete; the configured trash policy decides whether the
// paths go to the trash or are removed permanently.
func (a *App) Delete(paths []string) uint64 {
	if a.cfg.Trash.PermanentDelete {
		return a.registry.Submit(op.NewPermanentDelete(paths))
	}
	return a.registry.Submit(op.NewDelete(paths))
}

// Restore submits a restore-from-trash for the given items.
func (a *App) Restore(items []trash.Item) uint64 {
	return a.registry.Submit(op.NewRestore(items))
}

// Rename submits a rename. The caller pre-validates that the destination
// does not exist; the engine rejects it otherwise.
func (a *App) Rename(from, to string) uint64 {
	return a.registry.Submit(op.NewRename(from, to))
}

// NewFolder submits a directory creation.
func (a *App) NewFolder(path string) uint64 {
	return a.registry.Submit(op.NewNewFolder(path))
}

// EmptyTrash submits a permanent deletion of all trashed items.
func (a *App) EmptyTrash() uint64 {
	return a.registry.Submit(op.NewEmptyTrash())
}

// WatchDir switches the watcher to a newly displayed directory.
func (a *App) WatchDir(path string) {
	a.watcher.UnwatchAll()
	if err := a.watcher.Watch(path); err != nil {
		debug.Log(debug.APP, "watch %s: %v", path, err)
	}
}
