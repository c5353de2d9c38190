package op

import (
	"context"
	"os"
	"time"

	"lumen/internal/debug"
)

// Decision is the user's (or batch policy's) answer to a destination
// collision.
type Decision int

const (
	// DecisionReplace overwrites the existing destination.
	DecisionReplace Decision = iota
	// DecisionSkip leaves the destination untouched and records the source
	// in the operation's ignored set.
	DecisionSkip
	// DecisionKeepBoth writes the source under a new non-colliding name.
	DecisionKeepBoth
	// DecisionCancel aborts the whole operation. Completed partial work is
	// not rolled back.
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionReplace:
		return "replace"
	case DecisionSkip:
		return "skip"
	case DecisionKeepBoth:
		return "keep both"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ConflictItem describes one side of a collision for display in the prompt.
type ConflictItem struct {
	Name    string
	Path    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

func conflictItem(path string, info os.FileInfo) ConflictItem {
	return ConflictItem{
		Name:    info.Name(),
		Path:    path,
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}

// ConflictResponse carries the decision plus the apply-to-all hint. When
// ApplyToAll is set the worker reuses the decision for the rest of the
// current operation without prompting again.
type ConflictResponse struct {
	Decision   Decision
	ApplyToAll bool
}

// ConflictRequest is sent from a worker to the UI when a destination path
// already exists. The worker suspends until Reply is called or the request
// is dropped.
type ConflictRequest struct {
	ID       uint64 // operation id
	Source   ConflictItem
	Dest     ConflictItem
	Multiple bool // more collisions may follow in this operation

	reply chan ConflictResponse
}

// Reply delivers the user's answer to the suspended worker. It may be called
// at most once per request.
func (r *ConflictRequest) Reply(resp ConflictResponse) {
	r.reply <- resp
	close(r.reply)
}

// Drop abandons the request without an answer; the worker treats this as
// Cancel. The UI calls it on teardown so no worker hangs forever.
func (r *ConflictRequest) Drop() {
	close(r.reply)
}

// resolver is the worker-side half of the conflict protocol. One resolver is
// scoped to a single Perform invocation; the remembered apply-to-all decision
// is local state, never global.
type resolver struct {
	id         uint64
	requests   chan<- *ConflictRequest
	remembered *Decision
}

func newResolver(id uint64, requests chan<- *ConflictRequest) *resolver {
	return &resolver{id: id, requests: requests}
}

// resolve suspends the worker until the UI answers the collision described by
// src and dst. A previously remembered apply-to-all decision short-circuits
// the prompt. A dropped reply channel or context teardown resolves to Cancel.
func (r *resolver) resolve(ctx context.Context, src, dst ConflictItem, multiple bool) Decision {
	if r.remembered != nil {
		return *r.remembered
	}

	req := &ConflictRequest{
		ID:       r.id,
		Source:   src,
		Dest:     dst,
		Multiple: multiple,
		reply:    make(chan ConflictResponse, 1),
	}

	select {
	case r.requests <- req:
	case <-ctx.Done():
		debug.Log(debug.OP, "conflict request abandoned before send (op %d)", r.id)
		return DecisionCancel
	}

	select {
	case resp, ok := <-req.reply:
		if !ok {
			// UI dropped the request without answering.
			debug.Log(debug.OP, "conflict reply channel dropped (op %d)", r.id)
			return DecisionCancel
		}
		if resp.ApplyToAll {
			d := resp.Decision
			r.remembered = &d
		}
		return resp.Decision
	case <-ctx.Done():
		debug.Log(debug.OP, "conflict wait cancelled by context (op %d)", r.id)
		return DecisionCancel
	}
}
