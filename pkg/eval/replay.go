// Package eval replays captured action sequences and scores them against
// expectations about the resulting state.
package eval

import (
	"context"
	"fmt"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/state"
	"github.com/wilhg/persephone/pkg/store"
)

// Capture is a recorded session: the run it came from and its actions in
// dispatch order.
type Capture struct {
	RunID   string            `json:"run_id"`
	Actions []action.Envelope `json:"actions"`
}

// Replay dispatches every captured action into a fresh store journaled to st
// and returns the final state. A nil st replays in memory.
func Replay(ctx context.Context, st store.Store, c Capture, opts ...runtime.Option) (state.Root, error) {
	if st != nil {
		opts = append([]runtime.Option{
			runtime.WithJournal(st, c.RunID),
			runtime.WithSnapshot(runtime.JSONCodec{}, 2),
		}, opts...)
	}
	rs := runtime.NewStore(nil, opts...)
	for i, env := range c.Actions {
		a, err := env.Decode()
		if err != nil {
			return state.Root{}, fmt.Errorf("action %d: %w", i, err)
		}
		rs.Dispatch(ctx, a)
		if err := rs.Err(); err != nil {
			return state.Root{}, fmt.Errorf("action %d (%s): %w", i, env.Kind, err)
		}
	}
	return rs.State(), nil
}
