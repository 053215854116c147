// File: internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext creates a new context derived from master (the session
// context carrying the CDP target) that is canceled when *either* master
// or op (the per-operation context) is canceled. Deriving from master is
// required for chromedp: the connection values must survive into the
// combined context, while the operation deadline still applies.
func CombineContext(master, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(master)

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values (CDP target info) from its parent but
// ignores the parent's deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that keeps ctx's values but is not canceled
// when ctx is. Used for cleanup script calls that must run even while the
// caller's operation is being torn down.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
