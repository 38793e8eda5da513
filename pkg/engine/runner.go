package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/mendrika-alma/formfill/pkg/schema"
)

// ErrRunActive is returned when a run is requested while another is still
// in flight. Runs against one browser session never interleave; callers
// decide whether to reject or queue.
var ErrRunActive = errors.New("a form-fill run is already in progress")

// Runner serializes runs over a shared engine and owns cancellation of the
// in-flight run.
type Runner struct {
	engine *Engine

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

// NewRunner wraps an engine.
func NewRunner(e *Engine) *Runner {
	return &Runner{engine: e}
}

// Start executes a run and blocks until its report is ready. It returns
// ErrRunActive if another run is in flight.
func (r *Runner) Start(ctx context.Context, rec *schema.Record) (*schema.Report, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, ErrRunActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.active = true
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.active = false
		r.cancel = nil
		r.mu.Unlock()
	}()

	return r.engine.Run(runCtx, rec), nil
}

// Cancel aborts the in-flight run, if any, and reports whether there was
// one. The aborted run still emits its terminal report to its caller.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

// Active reports whether a run is currently in flight.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
