// Package action defines the descriptors that flow from coordinators into
// reducers.
//
// An Action is a closed set of variants: one struct per kind, each carrying
// only the data of that kind. Reducers match variants with a type switch and
// ignore the ones they do not own.
//
// Descriptors are plain values and must be treated as immutable once
// created. For persistence they are wrapped in an Envelope, which records a
// stable ID and the dispatch time; the kind registry turns an Envelope back
// into its variant during replay.
//
// Example:
//
//	d.Dispatch(ctx, action.CommentStart())
//	c, err := client.CreateComment(ctx, token, slug, api.CommentInput{Comment: text})
//	if err != nil {
//		d.Dispatch(ctx, action.CommentError(errmodel.From(err)))
//		return
//	}
//	d.Dispatch(ctx, action.CommentSuccess(c))
package action

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind tags an action variant. The string values match the action types the
// web client has always used so journals stay readable.
type Kind string

// Action is implemented by every descriptor variant.
type Action interface {
	Kind() Kind
}

// Envelope is the persisted form of a dispatched action.
type Envelope struct {
	// ID is a unique identifier, a UUID unless the caller supplies one.
	ID string `json:"id"`

	// Kind selects the variant used to decode Payload.
	Kind Kind `json:"kind"`

	// Timestamp records when the action was dispatched.
	Timestamp time.Time `json:"timestamp"`

	// Payload is the JSON encoding of the variant. Empty for kinds without data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a for persistence.
func NewEnvelope(a Action) (Envelope, error) {
	if a == nil {
		return Envelope{}, fmt.Errorf("action is nil")
	}
	b, err := json.Marshal(a)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	if string(b) == "{}" {
		b = nil
	}
	return Envelope{
		ID:        uuid.NewString(),
		Kind:      a.Kind(),
		Timestamp: time.Now().UTC(),
		Payload:   b,
	}, nil
}

// Decode turns an envelope back into its registered variant.
func (e Envelope) Decode() (Action, error) {
	newFn, ok := lookup(e.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown action kind %q", e.Kind)
	}
	return newFn(e.Payload)
}

var (
	kindsMu sync.RWMutex
	kinds   = map[Kind]func(json.RawMessage) (Action, error){}
)

// Register makes a variant decodable from an Envelope. It panics on
// duplicates since registration happens from package init.
func Register[A Action](kind Kind) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, exists := kinds[kind]; exists {
		panic(fmt.Sprintf("action kind %q already registered", kind))
	}
	kinds[kind] = func(raw json.RawMessage) (Action, error) {
		var a A
		if len(raw) == 0 {
			return a, nil
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return a, nil
	}
}

func lookup(kind Kind) (func(json.RawMessage) (Action, error), bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	f, ok := kinds[kind]
	return f, ok
}

// Kinds lists every registered kind.
func Kinds() []Kind {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	return out
}
