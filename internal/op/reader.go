package op

import (
	"context"
	"io"
)

// opReader wraps an operation's source stream. Every Read observes the
// Controller first, so cancellation and pause take effect mid-file with
// chunk-level latency, and reports the bytes read for progress weighting.
type opReader struct {
	r      io.Reader
	ctx    context.Context
	ctl    *Controller
	onRead func(int64)
}

func (r *opReader) Read(p []byte) (int, error) {
	if err := r.ctl.Check(r.ctx); err != nil {
		return 0, err
	}
	n, err := r.r.Read(p)
	if n > 0 && r.onRead != nil {
		r.onRead(int64(n))
	}
	return n, err
}
