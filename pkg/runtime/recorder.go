package runtime

import (
	"context"
	"sync"

	"github.com/wilhg/persephone/pkg/action"
)

// Recorder is a dispatcher that only remembers what it received. It stands
// in for a store in tests and dry runs.
type Recorder struct {
	mu      sync.Mutex
	actions []action.Action
}

func (r *Recorder) Dispatch(_ context.Context, a action.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

// Actions returns a copy of the recorded actions in dispatch order.
func (r *Recorder) Actions() []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.Action(nil), r.actions...)
}

// Kinds returns the kinds of the recorded actions in dispatch order.
func (r *Recorder) Kinds() []action.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]action.Kind, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Kind()
	}
	return out
}

// Clear forgets every recorded action.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
