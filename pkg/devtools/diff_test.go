package devtools

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/reducer"
)

func TestUnifiedDiff(t *testing.T) {
	if d := UnifiedDiff("same", "same"); d != "" {
		t.Fatalf("diff=%q", d)
	}
	d := UnifiedDiff("Hello\nWorld", "Hello\nEveryone")
	if !strings.Contains(d, "-World") || !strings.Contains(d, "+Everyone") {
		t.Fatalf("unexpected diff: %q", d)
	}
}

func TestStateDiff_OnlyChangedSlices(t *testing.T) {
	root := reducer.Default()
	prev := root.Init()
	next := root.Reduce(prev, action.CommentSuccess(model.Comment{ID: 34}))

	diffs, err := StateDiff(prev, next)
	if err != nil {
		t.Fatal(err)
	}
	if len(diffs) != 1 || diffs[0].Key != "commentOnArticle" {
		t.Fatalf("diffs=%+v", diffs)
	}
	if !strings.Contains(diffs[0].Diff, `"id": 34`) {
		t.Fatalf("diff=%s", diffs[0].Diff)
	}

	none, err := StateDiff(next, next)
	if err != nil || len(none) != 0 {
		t.Fatalf("none=%+v err=%v", none, err)
	}
}

func TestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	sub := Logger(log.New(&buf, "", 0))
	root := reducer.Default()
	prev := root.Init()

	sub(context.Background(), action.Toggle(), prev, root.Reduce(prev, action.Toggle()))
	out := buf.String()
	if !strings.Contains(out, "[DEBUG] action TOGGLE_THEME") || !strings.Contains(out, `+  "theme": "dark-theme"`) {
		t.Fatalf("log=%q", out)
	}

	buf.Reset()
	sub(context.Background(), action.Logout{}, prev, prev)
	if !strings.Contains(buf.String(), "(no change)") {
		t.Fatalf("log=%q", buf.String())
	}
}

func TestSlice(t *testing.T) {
	r := reducer.Default().Init()
	for _, k := range Keys {
		if _, ok := Slice(r, k); !ok {
			t.Fatalf("missing slice %s", k)
		}
	}
	if _, ok := Slice(r, "nope"); ok {
		t.Fatal("unknown key should not resolve")
	}

	parts, err := slices(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != len(Keys) {
		t.Fatalf("root has %d slices, Keys lists %d", len(parts), len(Keys))
	}
	for _, k := range Keys {
		if _, ok := parts[k]; !ok {
			t.Fatalf("key %s is not a root field", k)
		}
	}
}
