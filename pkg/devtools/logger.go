// Package devtools is the developer surface of the reader: a logger that
// prints every action with the slices it changed, and an HTTP inspector for
// the live state and the action journal.
package devtools

import (
	"context"
	"log"
	"strings"

	"github.com/fatih/color"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/state"
)

var (
	added   = color.New(color.FgGreen).SprintFunc()
	removed = color.New(color.FgRed).SprintFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Logger returns a store subscriber that logs each action and the diff of
// every slice it changed. Colors follow fatih/color's terminal detection.
func Logger(l *log.Logger) runtime.Subscriber {
	if l == nil {
		l = log.Default()
	}
	return func(_ context.Context, a action.Action, prev, next state.Root) {
		diffs, err := StateDiff(prev, next)
		if err != nil {
			l.Printf("[WARN] devtools: %s: %v", a.Kind(), err)
			return
		}
		if len(diffs) == 0 {
			l.Printf("[DEBUG] action %s (no change)", heading(string(a.Kind())))
			return
		}
		var b strings.Builder
		for _, d := range diffs {
			b.WriteString("  " + d.Key + ":\n")
			for _, line := range strings.Split(strings.TrimSuffix(d.Diff, "\n"), "\n") {
				switch {
				case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
					continue
				case strings.HasPrefix(line, "+"):
					line = added(line)
				case strings.HasPrefix(line, "-"):
					line = removed(line)
				}
				b.WriteString("    " + line + "\n")
			}
		}
		l.Printf("[DEBUG] action %s\n%s", heading(string(a.Kind())), strings.TrimSuffix(b.String(), "\n"))
	}
}
