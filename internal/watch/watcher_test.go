package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func awaitNotify(t *testing.T, dw *DirectoryWatcher, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case dir := <-dw.Notify():
			if dir == want {
				return
			}
		case <-deadline:
			t.Fatalf("no notification for %s", want)
		}
	}
}

func TestNotifyOnCreate(t *testing.T) {
	dir := t.TempDir()
	dw, err := NewDirectoryWatcher(50)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Close()

	if err := dw.Watch(dir); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	awaitNotify(t, dw, dir)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	dw, err := NewDirectoryWatcher(100)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Close()

	if err := dw.Watch(dir); err != nil {
		t.Fatalf("watch: %v", err)
	}
	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, "burst.txt")
		if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	awaitNotify(t, dw, dir)

	// The burst must have collapsed into a single notification.
	select {
	case dir2 := <-dw.Notify():
		t.Errorf("second notification for the same burst: %s", dir2)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestUnwatchStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	dw, err := NewDirectoryWatcher(50)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Close()

	if err := dw.Watch(dir); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := dw.Unwatch(dir); err != nil {
		t.Fatalf("unwatch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-dw.Notify():
		t.Errorf("notification after unwatch: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dw, err := NewDirectoryWatcher(50)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Close()

	if err := dw.Watch(dir); err != nil {
		t.Fatal(err)
	}
	if err := dw.Watch(dir); err != nil {
		t.Errorf("second watch of the same path: %v", err)
	}
}
