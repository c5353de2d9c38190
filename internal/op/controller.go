// Package op implements the background file-operation engine: cancellable,
// pausable filesystem mutations with progress reporting and an interactive
// conflict-resolution protocol.
package op

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCancelled is returned by Check and Perform when the user cancelled the
// operation. It is a terminal state, not an I/O failure; callers should not
// surface it as an error dialog.
var ErrCancelled = errors.New("operation cancelled")

// pausePoll is how often a paused worker re-checks for unpause or cancel.
const pausePoll = 100 * time.Millisecond

// Controller is the shared lifecycle handle for one running operation. The UI
// and the background worker hold references to the same Controller; all access
// goes through its synchronized methods. Cancellation is monotonic: once set
// it never reverts. Progress is clamped non-decreasing and saturates at 1.0.
type Controller struct {
	cancelled atomic.Bool
	paused    atomic.Bool

	mu       sync.Mutex
	progress float64
	state    string
}

// NewController returns a Controller in the "preparing" state.
func NewController() *Controller {
	return &Controller{state: "Preparing"}
}

// Cancel requests cooperative cancellation. The worker observes it at the
// next Check call site.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// IsCancelled reports whether cancellation has been requested.
func (c *Controller) IsCancelled() bool {
	return c.cancelled.Load()
}

// Pause asks the worker to block at its next Check call.
func (c *Controller) Pause() {
	c.paused.Store(true)
}

// Unpause lets a paused worker resume.
func (c *Controller) Unpause() {
	c.paused.Store(false)
}

// SetPaused sets the pause flag directly. Used for bulk pause/unpause.
func (c *Controller) SetPaused(paused bool) {
	c.paused.Store(paused)
}

// IsPaused reports whether the operation is currently paused.
func (c *Controller) IsPaused() bool {
	return c.paused.Load()
}

// Check is called by the worker between units of work. It returns
// ErrCancelled the moment cancellation is observed. While the operation is
// paused it blocks in a sleep/re-check loop, still honoring cancellation and
// context teardown during the pause.
func (c *Controller) Check(ctx context.Context) error {
	for {
		if c.cancelled.Load() {
			return ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			c.cancelled.Store(true)
			return ErrCancelled
		}
		if !c.paused.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			c.cancelled.Store(true)
			return ErrCancelled
		case <-time.After(pausePoll):
		}
	}
}

// SetProgress records a new progress fraction. Values are clamped to [0,1]
// and never move backwards while the operation is active.
func (c *Controller) SetProgress(f float64) {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	c.mu.Lock()
	if f > c.progress {
		c.progress = f
	}
	c.mu.Unlock()
}

// Progress returns the current progress fraction in [0,1].
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// SetState records a human-readable description of what the worker is doing,
// e.g. "Copying photo.jpg (1.2 MB of 10 MB)".
func (c *Controller) SetState(s string) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the current state description.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
