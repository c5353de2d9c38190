package op

import (
	"context"
	"errors"
	"sort"
	"sync"

	"lumen/internal/debug"
)

// Completion is the terminal message a finished task delivers to the UI loop.
// Exactly one Completion is emitted per submitted operation.
type Completion struct {
	ID        uint64
	Op        Operation
	Selection Selection
	Err       string // empty unless the operation failed
	Cancelled bool
}

type entry struct {
	op     Operation
	ctl    *Controller
	cancel context.CancelFunc
}

// PendingOp is a registry view row for an in-flight operation.
type PendingOp struct {
	ID       uint64
	Desc     string
	Progress float64
	State    string
	Paused   bool
}

// CompletedOp is a registry view row for a successful operation.
type CompletedOp struct {
	ID        uint64
	Desc      string
	Selection Selection
}

// FailedOp is a registry view row for a failed operation. Failed operations
// stay visible until dismissed.
type FailedOp struct {
	ID   uint64
	Desc string
	Err  string
}

// Snapshot is a point-in-time copy of the registry tables, ordered by id.
type Snapshot struct {
	Pending   []PendingOp
	Completed []CompletedOp
	Failed    []FailedOp
	Cancelled []CompletedOp // history view; selections reflect work done before cancel
}

// Registry owns operation identifiers and their lifecycle tables and fans out
// one goroutine per submitted operation. Ids are assigned by a monotonically
// incrementing counter and never reused for the lifetime of the process.
type Registry struct {
	mu           sync.Mutex
	nextID       uint64
	pending      map[uint64]*entry
	completed    map[uint64]CompletedOp
	failed       map[uint64]FailedOp
	cancelled    map[uint64]CompletedOp
	showProgress map[uint64]struct{}

	events    chan Completion
	conflicts chan *ConflictRequest
}

// NewRegistry creates an empty registry. The UI loop must drain Events and
// Conflicts while operations run.
func NewRegistry() *Registry {
	return &Registry{
		pending:      make(map[uint64]*entry),
		completed:    make(map[uint64]CompletedOp),
		failed:       make(map[uint64]FailedOp),
		cancelled:    make(map[uint64]CompletedOp),
		showProgress: make(map[uint64]struct{}),
		events:       make(chan Completion, 16),
		conflicts:    make(chan *ConflictRequest, 1),
	}
}

// Events delivers one Completion per finished operation.
func (r *Registry) Events() <-chan Completion {
	return r.events
}

// Conflicts surfaces collision prompts from suspended workers. Each request
// must be answered with Reply or abandoned with Drop.
func (r *Registry) Conflicts() <-chan *ConflictRequest {
	return r.conflicts
}

// Submit assigns the next id, registers a fresh Controller and spawns exactly
// one task for the operation. Completed or failed operations are never re-run
// automatically; retry is a fresh Submit.
func (r *Registry) Submit(op Operation) uint64 {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	e := &entry{op: op, ctl: NewController(), cancel: cancel}
	r.pending[id] = e
	r.showProgress[id] = struct{}{}
	r.mu.Unlock()

	debug.Log(debug.OP, "submit %d: %s", id, op.Describe())

	go func() {
		sel, err := op.perform(ctx, e.ctl, newResolver(id, r.conflicts))
		cancel()
		r.finish(id, sel, err)
	}()
	return id
}

func (r *Registry) finish(id uint64, sel Selection, err error) {
	r.mu.Lock()
	e := r.pending[id]
	delete(r.pending, id)

	c := Completion{ID: id, Op: e.op, Selection: sel}
	switch {
	case err == nil:
		r.completed[id] = CompletedOp{ID: id, Desc: e.op.Describe(), Selection: sel}
	case errors.Is(err, ErrCancelled):
		c.Cancelled = true
		r.cancelled[id] = CompletedOp{ID: id, Desc: e.op.Describe(), Selection: sel}
		delete(r.showProgress, id)
	default:
		c.Err = err.Error()
		r.failed[id] = FailedOp{ID: id, Desc: e.op.Describe(), Err: c.Err}
	}
	r.mu.Unlock()

	debug.Log(debug.OP, "finish %d: cancelled=%v err=%q", id, c.Cancelled, c.Err)
	r.events <- c
}

// Controller returns the shared controller for a pending operation, or nil if
// the id is not pending.
func (r *Registry) Controller(id uint64) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.pending[id]; ok {
		return e.ctl
	}
	return nil
}

// Cancel requests cancellation of one operation. The id leaves the progress
// display immediately even though the task may take a moment to unwind.
func (r *Registry) Cancel(id uint64) {
	r.mu.Lock()
	e, ok := r.pending[id]
	delete(r.showProgress, id)
	r.mu.Unlock()
	if ok {
		e.ctl.Cancel()
		e.cancel()
	}
}

// CancelAll cancels every pending operation.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.pending))
	for id, e := range r.pending {
		entries = append(entries, e)
		delete(r.showProgress, id)
	}
	r.mu.Unlock()
	for _, e := range entries {
		e.ctl.Cancel()
		e.cancel()
	}
}

// Pause sets or clears the pause flag on one pending operation.
func (r *Registry) Pause(id uint64, paused bool) {
	r.mu.Lock()
	e, ok := r.pending[id]
	r.mu.Unlock()
	if ok {
		e.ctl.SetPaused(paused)
	}
}

// PauseAll sets or clears the pause flag on every pending operation.
func (r *Registry) PauseAll(paused bool) {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.pending))
	for _, e := range r.pending {
		entries = append(entries, e)
	}
	r.mu.Unlock()
	for _, e := range entries {
		e.ctl.SetPaused(paused)
	}
}

// Dismiss removes a terminal operation from the completed, failed and
// cancelled tables and from the progress display.
func (r *Registry) Dismiss(id uint64) {
	r.mu.Lock()
	delete(r.completed, id)
	delete(r.failed, id)
	delete(r.cancelled, id)
	delete(r.showProgress, id)
	r.mu.Unlock()
}

// ClearFinished drops every finished id from the progress display, hiding the
// progress surface once all tracked operations are done.
func (r *Registry) ClearFinished() {
	r.mu.Lock()
	for id := range r.showProgress {
		if _, running := r.pending[id]; !running {
			delete(r.showProgress, id)
		}
	}
	r.mu.Unlock()
}

// Poll returns a point-in-time copy of the registry tables for UI rendering.
func (r *Registry) Poll() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap Snapshot
	for id, e := range r.pending {
		snap.Pending = append(snap.Pending, PendingOp{
			ID:       id,
			Desc:     e.op.Describe(),
			Progress: e.ctl.Progress(),
			State:    e.ctl.State(),
			Paused:   e.ctl.IsPaused(),
		})
	}
	for _, c := range r.completed {
		snap.Completed = append(snap.Completed, c)
	}
	for _, f := range r.failed {
		snap.Failed = append(snap.Failed, f)
	}
	for _, c := range r.cancelled {
		snap.Cancelled = append(snap.Cancelled, c)
	}
	sort.Slice(snap.Pending, func(i, j int) bool { return snap.Pending[i].ID < snap.Pending[j].ID })
	sort.Slice(snap.Completed, func(i, j int) bool { return snap.Completed[i].ID < snap.Completed[j].ID })
	sort.Slice(snap.Failed, func(i, j int) bool { return snap.Failed[i].ID < snap.Failed[j].ID })
	sort.Slice(snap.Cancelled, func(i, j int) bool { return snap.Cancelled[i].ID < snap.Cancelled[j].ID })
	return snap
}
