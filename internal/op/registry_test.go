package op

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSubmitAssignsMonotonicIDs(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()

	var ids []uint64
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, string(rune('a'+i)))
		ids = append(ids, r.Submit(NewNewFolder(path)))
	}
	for i := 0; i < 3; i++ {
		awaitCompletion(t, r)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}
}

func TestLifecycleTables(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()

	okID := r.Submit(NewNewFolder(filepath.Join(dir, "ok")))
	awaitCompletion(t, r)
	failID := r.Submit(NewNewFolder(dir)) // already exists
	awaitCompletion(t, r)

	snap := r.Poll()
	if len(snap.Pending) != 0 {
		t.Errorf("pending not empty: %+v", snap.Pending)
	}
	if len(snap.Completed) != 1 || snap.Completed[0].ID != okID {
		t.Errorf("completed table: %+v", snap.Completed)
	}
	if len(snap.Failed) != 1 || snap.Failed[0].ID != failID {
		t.Errorf("failed table: %+v", snap.Failed)
	}
	if snap.Failed[0].Err == "" {
		t.Error("failed row carries no error text")
	}
}

func TestDismissRemovesTerminalRows(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()

	id := r.Submit(NewNewFolder(dir)) // fails
	awaitCompletion(t, r)

	r.Dismiss(id)
	snap := r.Poll()
	if len(snap.Failed) != 0 {
		t.Errorf("dismissed row still present: %+v", snap.Failed)
	}
}

func TestControllerLookup(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")

	r := NewRegistry()
	id := r.Submit(NewCopy([]string{filepath.Join(src, "a.txt")}, dst))

	req := awaitConflict(t, r) // operation is now parked and surely pending
	if r.Controller(id) == nil {
		t.Error("no controller for a pending operation")
	}
	if r.Controller(id+1000) != nil {
		t.Error("controller returned for an unknown id")
	}

	req.Reply(ConflictResponse{Decision: DecisionSkip})
	awaitCompletion(t, r)

	if r.Controller(id) != nil {
		t.Error("controller still resolvable after completion")
	}
}

// Cancelling an operation parked on a conflict must unwind the worker even
// if the prompt is never answered.
func TestCancelUnblocksConflictWait(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")

	r := NewRegistry()
	id := r.Submit(NewCopy([]string{filepath.Join(src, "a.txt")}, dst))

	awaitConflict(t, r)
	r.Cancel(id)

	c := awaitCompletion(t, r)
	if !c.Cancelled {
		t.Fatalf("expected cancelled completion, got err=%q", c.Err)
	}
	if got := readFile(t, filepath.Join(dst, "a.txt")); got != "old" {
		t.Errorf("destination modified after cancel: %q", got)
	}
}

func TestCancelRemovesFromProgressDisplayImmediately(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")

	r := NewRegistry()
	id := r.Submit(NewCopy([]string{filepath.Join(src, "a.txt")}, dst))

	awaitConflict(t, r)
	if s := r.Summarize(); !s.Active {
		t.Fatal("running operation not tracked for progress")
	}

	// The id leaves the display at Cancel time, before the worker unwinds.
	r.Cancel(id)
	if s := r.Summarize(); s.Active {
		t.Errorf("cancelled operation still tracked: %+v", s)
	}
	awaitCompletion(t, r)
}

func TestPauseAllSetsEveryController(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")

	r := NewRegistry()
	id := r.Submit(NewCopy([]string{filepath.Join(src, "a.txt")}, dst))

	req := awaitConflict(t, r)
	r.PauseAll(true)
	if ctl := r.Controller(id); ctl == nil || !ctl.IsPaused() {
		t.Error("PauseAll did not pause the pending operation")
	}
	r.PauseAll(false)
	if ctl := r.Controller(id); ctl == nil || ctl.IsPaused() {
		t.Error("PauseAll(false) did not unpause")
	}

	req.Reply(ConflictResponse{Decision: DecisionSkip})
	awaitCompletion(t, r)
}

func TestCompletionReportsOperation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "made")

	r := NewRegistry()
	id := r.Submit(NewNewFolder(path))
	c := awaitCompletion(t, r)

	if c.ID != id {
		t.Errorf("completion id %d, submitted %d", c.ID, id)
	}
	if c.Op.Kind != NewFolder {
		t.Errorf("completion op kind %s", c.Op.Kind)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("folder missing: %v", err)
	}
}
