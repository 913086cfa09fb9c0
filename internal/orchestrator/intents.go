package orchestrator

import (
	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keygen"
)

// ErrBusy is returned when the intent queue is saturated. The intent is
// rejected, never silently dropped; the caller decides whether to retry.
var ErrBusy = errors.New(errors.ErrExec,
	"Too many pending operations",
	"Wait for the current operation to finish and try again")

// ErrClosed is returned when dispatching to a shut-down orchestrator.
var ErrClosed = errors.New(errors.ErrExec,
	"The session is closing",
	"Restart skm to run more operations")

// Intent is one user-initiated key-lifecycle request.
type Intent struct {
	// Action selects the operation.
	Action cmdlog.Action

	// Target is the private key path (or name resolved by the caller).
	// Unused for create.
	Target string

	// Params carries create parameters.
	Params keygen.Params
}

// Result is the outcome of one processed intent.
type Result struct {
	// Entry is the command log entry recorded for the intent.
	Entry cmdlog.Entry

	// Err is nil on success. Failures are also reflected in Entry; Err
	// carries the structured error for programmatic callers.
	Err error

	// Content holds the key material for view and copy intents.
	Content string
}

// Failed reports whether the intent failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

type envelope struct {
	intent Intent
	reply  chan Result
}

// Dispatch enqueues an intent without blocking. The returned channel
// delivers exactly one Result when the intent completes. A full queue
// rejects with ErrBusy.
func (o *Orchestrator) Dispatch(in Intent) (<-chan Result, error) {
	env := envelope{intent: in, reply: make(chan Result, 1)}

	select {
	case <-o.quit:
		return nil, ErrClosed
	default:
	}

	select {
	case o.intents <- env:
		return env.reply, nil
	default:
		return nil, ErrBusy
	}
}

// Do dispatches an intent and waits for its result. Used by the one-shot
// CLI verbs; the TUI uses Dispatch and consumes results as messages.
func (o *Orchestrator) Do(in Intent) Result {
	reply, err := o.Dispatch(in)
	if err != nil {
		return Result{Err: err}
	}
	return <-reply
}
