// Package reducer holds the pure state-transition functions of every feature
// slice and the composer that folds them into one root reducer.
//
// Reducers must be:
//   - Pure functions with no side effects
//   - Deterministic given the same inputs
//   - Total: actions a slice does not own leave it unchanged
//
// Reducers receive slices by value and return a new value; they never write
// through pointers held by the incoming slice.
package reducer

import (
	"fmt"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/state"
)

// Slice is the reducer of one feature slice.
type Slice[S any] interface {
	// Init returns the state of the slice before any action was applied.
	Init() S
	// Reduce folds a into current and returns the next state.
	Reduce(current S, a action.Action) S
}

// Binding ties a slice reducer to its field of the root tree.
type Binding struct {
	key    string
	init   func(*state.Root)
	reduce func(*state.Root, action.Action)
}

// Key returns the feature key the binding owns.
func (b Binding) Key() string { return b.key }

// Bind attaches sl to the field returned by field. The accessor must return a
// pointer into the root it is given and nothing else; that is what keeps
// slices isolated from each other.
func Bind[S any](key string, sl Slice[S], field func(*state.Root) *S) Binding {
	return Binding{
		key:  key,
		init: func(r *state.Root) { *field(r) = sl.Init() },
		reduce: func(r *state.Root, a action.Action) {
			p := field(r)
			*p = sl.Reduce(*p, a)
		},
	}
}

// Root runs every action through all bound slice reducers.
type Root struct {
	bindings []Binding
}

// Combine builds a root reducer. Keys must be unique.
func Combine(bindings ...Binding) (*Root, error) {
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if b.key == "" {
			return nil, fmt.Errorf("binding key is empty")
		}
		if seen[b.key] {
			return nil, fmt.Errorf("slice %q bound twice", b.key)
		}
		seen[b.key] = true
	}
	return &Root{bindings: bindings}, nil
}

// Default returns the root reducer with every feature of the reader bound to
// its key.
func Default() *Root {
	r, err := Combine(
		Bind(state.KeyTheme, Theme{}, func(r *state.Root) *state.ThemeState { return &r.Theme }),
		Bind(state.KeySignup, Signup{}, func(r *state.Root) *state.AuthState { return &r.Signup }),
		Bind(state.KeyUser, User{}, func(r *state.Root) *state.AuthState { return &r.User }),
		Bind(state.KeyReadArticle, Article{}, func(r *state.Root) *state.ArticleState { return &r.ReadArticle }),
		Bind(state.KeyComment, Comment{}, func(r *state.Root) *state.CommentState { return &r.Comment }),
		Bind(state.KeyBookmark, Bookmark{}, func(r *state.Root) *state.BookmarkState { return &r.Bookmark }),
		Bind(state.KeyReport, Report{}, func(r *state.Root) *state.ReportState { return &r.Report }),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Init returns the initial root tree.
func (r *Root) Init() state.Root {
	var s state.Root
	for _, b := range r.bindings {
		b.init(&s)
	}
	return s
}

// Reduce applies a to every bound slice of current.
func (r *Root) Reduce(current state.Root, a action.Action) state.Root {
	next := current
	if a == nil {
		return next
	}
	for _, b := range r.bindings {
		b.reduce(&next, a)
	}
	return next
}

// Keys lists the bound feature keys in binding order.
func (r *Root) Keys() []string {
	out := make([]string, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b.key)
	}
	return out
}
