package devtools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wilhg/persephone/pkg/reducer"
	"github.com/wilhg/persephone/pkg/state"
)

// UnifiedDiff returns a simple line diff between two strings, or "" when
// they are equal.
func UnifiedDiff(a, b string) string {
	if a == b {
		return ""
	}
	var buf bytes.Buffer
	buf.WriteString("--- prev\n")
	buf.WriteString("+++ next\n")
	al := strings.Split(a, "\n")
	bl := strings.Split(b, "\n")
	i, j := 0, 0
	for i < len(al) || j < len(bl) {
		if i < len(al) && j < len(bl) && al[i] == bl[j] {
			i++
			j++
			continue
		}
		if i < len(al) {
			fmt.Fprintf(&buf, "-%s\n", al[i])
			i++
		}
		if j < len(bl) {
			fmt.Fprintf(&buf, "+%s\n", bl[j])
			j++
		}
	}
	return buf.String()
}

// SliceDiff is the change of one feature slice.
type SliceDiff struct {
	Key  string
	Diff string
}

// StateDiff compares two roots slice by slice and returns the slices that
// changed, in root field order.
func StateDiff(prev, next state.Root) ([]SliceDiff, error) {
	a, err := slices(prev)
	if err != nil {
		return nil, err
	}
	b, err := slices(next)
	if err != nil {
		return nil, err
	}
	var out []SliceDiff
	for _, key := range Keys {
		if d := UnifiedDiff(a[key], b[key]); d != "" {
			out = append(out, SliceDiff{Key: key, Diff: d})
		}
	}
	return out, nil
}

// Keys lists the feature keys in binding order of the default root reducer.
var Keys = reducer.Default().Keys()

// slices renders each slice of r as indented JSON keyed by feature key.
func slices(r state.Root) (map[string]string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var parts map[string]json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(parts))
	for k, v := range parts {
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err != nil {
			return nil, err
		}
		out[k] = buf.String()
	}
	return out, nil
}

// Slice returns one slice of r by feature key.
func Slice(r state.Root, key string) (any, bool) {
	switch key {
	case state.KeyTheme:
		return r.Theme, true
	case state.KeySignup:
		return r.Signup, true
	case state.KeyUser:
		return r.User, true
	case state.KeyReadArticle:
		return r.ReadArticle, true
	case state.KeyComment:
		return r.Comment, true
	case state.KeyBookmark:
		return r.Bookmark, true
	case state.KeyReport:
		return r.Report, true
	}
	return nil, false
}
