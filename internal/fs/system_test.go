package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSystem(t *testing.T) {
	s := NewSystem()
	if s == nil {
		t.Fatal("NewSystem returned nil")
	}
	if s.RequestChan == nil {
		t.Error("RequestChan is nil")
	}
	if s.ResponseChan == nil {
		t.Error("ResponseChan is nil")
	}
}

func TestFetchDir(t *testing.T) {
	tmpDir := t.TempDir()

	dirs := []string{"dir1", "dir2", ".hidden_dir"}
	files := []string{"file1.txt", "file2.go", ".hidden_file"}

	for _, d := range dirs {
		if err := os.Mkdir(filepath.Join(tmpDir, d), 0o755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, f), []byte("content"), 0o644); err != nil {
			t.Fatalf("failed to create file %s: %v", f, err)
		}
	}
	// A nested file must not show up as a direct child.
	if err := os.WriteFile(filepath.Join(tmpDir, "dir1", "nested.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSystem()
	go s.Start()
	defer close(s.RequestChan)

	s.RequestChan <- Request{Op: FetchDir, Path: tmpDir, Gen: 42}

	var resp Response
	select {
	case resp = <-s.ResponseChan:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for FetchDir response")
	}

	if resp.Err != nil {
		t.Fatalf("fetchDir error: %v", resp.Err)
	}
	if resp.Gen != 42 {
		t.Errorf("generation not echoed: %d", resp.Gen)
	}
	if len(resp.Entries) != len(dirs)+len(files) {
		t.Fatalf("expected %d entries, got %d", len(dirs)+len(files), len(resp.Entries))
	}

	byName := make(map[string]Entry)
	for _, e := range resp.Entries {
		byName[e.Name] = e
	}
	if _, ok := byName["nested.txt"]; ok {
		t.Error("nested file listed as direct child")
	}
	for _, d := range dirs {
		e, ok := byName[d]
		if !ok {
			t.Errorf("missing dir %s", d)
			continue
		}
		if !e.IsDir {
			t.Errorf("%s not flagged as directory", d)
		}
	}
	for _, f := range files {
		e, ok := byName[f]
		if !ok {
			t.Errorf("missing file %s", f)
			continue
		}
		if e.IsDir {
			t.Errorf("%s flagged as directory", f)
		}
		if e.Size != int64(len("content")) {
			t.Errorf("%s size: %d", f, e.Size)
		}
	}
}

func TestFetchDirMissingPath(t *testing.T) {
	s := NewSystem()
	go s.Start()
	defer close(s.RequestChan)

	s.RequestChan <- Request{Op: FetchDir, Path: filepath.Join(t.TempDir(), "nope"), Gen: 1}

	select {
	case resp := <-s.ResponseChan:
		if resp.Err == nil {
			t.Error("expected an error for a missing directory")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestFetchDirSymlink(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target.txt")
	if err := os.WriteFile(target, []byte("1234567890"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(tmpDir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := NewSystem()
	go s.Start()
	defer close(s.RequestChan)

	s.RequestChan <- Request{Op: FetchDir, Path: tmpDir, Gen: 1}
	resp := <-s.ResponseChan
	if resp.Err != nil {
		t.Fatalf("fetchDir error: %v", resp.Err)
	}

	for _, e := range resp.Entries {
		if e.Name == "link.txt" && e.Size != 10 {
			t.Errorf("symlink should report target size, got %d", e.Size)
		}
	}
}
