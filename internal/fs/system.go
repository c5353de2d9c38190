// Package fs serves directory listings to the UI through a channel worker so
// the event loop never blocks on filesystem syscalls.
package fs

import (
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"lumen/internal/debug"
)

type OpType int

const (
	FetchDir OpType = iota
)

type Request struct {
	Op   OpType
	Path string
	Gen  int64 // Generation counter to track stale requests
}

type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

type Response struct {
	Op      OpType
	Path    string
	Entries []Entry
	Err     error
	Gen     int64 // Generation counter from request
}

type System struct {
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewSystem() *System {
	return &System{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Start runs the worker loop. Call it on its own goroutine; it exits when
// RequestChan is closed.
func (s *System) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.FS, "Request: op=%d path=%q gen=%d", req.Op, req.Path, req.Gen)

		switch req.Op {
		case FetchDir:
			resp := s.fetchDir(req.Path)
			resp.Gen = req.Gen
			debug.Log(debug.FS, "FetchDir response: path=%q entries=%d gen=%d err=%v",
				resp.Path, len(resp.Entries), resp.Gen, resp.Err)
			s.ResponseChan <- resp
		}
	}
}

func (s *System) fetchDir(path string) Response {
	var result []Entry
	var mu sync.Mutex

	// Follow symlinks so entries report their target's type and size.
	conf := &fastwalk.Config{Follow: true}
	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.Log(debug.FS_ENTRY, "fetchDir: walk error at %q: %v", fullPath, err)
			return nil // Skip errors, continue walking
		}
		if fullPath == path {
			return nil
		}

		// Only direct children: any remaining separator means a nested entry.
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Lstat fallback for broken symlinks.
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_ENTRY, "fetchDir: skipping %q: stat error: %v", d.Name(), err)
				return nil
			}
		}

		mu.Lock()
		result = append(result, Entry{
			Name:    d.Name(),
			Path:    fullPath,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		return Response{Op: FetchDir, Path: path, Err: err}
	}
	return Response{Op: FetchDir, Path: path, Entries: result}
}
