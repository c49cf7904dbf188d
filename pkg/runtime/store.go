// Package runtime holds the store: the one place actions are dispatched,
// reduced into the root state, journaled and announced to subscribers.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/reducer"
	"github.com/wilhg/persephone/pkg/state"
	"github.com/wilhg/persephone/pkg/store"
)

// DefaultRunID names the journal of a reader when none is configured.
const DefaultRunID = "default"

// Subscriber observes every dispatched action with the state before and
// after it. Subscribers run outside the state lock, in dispatch order, and
// must not dispatch themselves.
type Subscriber func(ctx context.Context, a action.Action, prev, next state.Root)

// SnapshotCodec encodes and decodes the root state for durable snapshots.
type SnapshotCodec interface {
	Encode(s state.Root) ([]byte, error)
	Decode(data []byte) (state.Root, error)
}

// JSONCodec stores snapshots as JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(s state.Root) ([]byte, error) { return json.Marshal(s) }

func (JSONCodec) Decode(data []byte) (state.Root, error) {
	var s state.Root
	err := json.Unmarshal(data, &s)
	return s, err
}

// Store owns the root state.
type Store struct {
	root   *reducer.Root
	logger *log.Logger
	tracer trace.Tracer

	journal store.Store
	runID   string

	snapshotInterval int
	snapshotCodec    SnapshotCodec

	mu      sync.Mutex
	current state.Root
	lastSeq int64
	lastErr error

	subMu   sync.RWMutex
	subs    map[int]Subscriber
	nextSub int

	// notifyMu keeps subscriber callbacks in dispatch order.
	notifyMu sync.Mutex
}

// Option configures the Store at construction time.
type Option func(*Store)

// WithJournal appends every dispatched action to st under runID.
func WithJournal(st store.Store, runID string) Option {
	return func(s *Store) {
		s.journal = st
		if runID != "" {
			s.runID = runID
		}
	}
}

// WithSnapshot enables snapshotting with the provided codec at the given
// interval (number of journaled actions). If interval <= 0 or codec is nil,
// snapshotting is disabled.
func WithSnapshot(codec SnapshotCodec, interval int) Option {
	return func(s *Store) {
		if codec != nil && interval > 0 {
			s.snapshotCodec = codec
			s.snapshotInterval = interval
		}
	}
}

// WithLogger sets the logger for journal failures.
func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// NewStore builds a store around root. A nil root selects reducer.Default.
func NewStore(root *reducer.Root, opts ...Option) *Store {
	if root == nil {
		root = reducer.Default()
	}
	s := &Store{
		root:    root,
		logger:  log.Default(),
		tracer:  otel.Tracer("persephone/runtime"),
		runID:   DefaultRunID,
		current: root.Init(),
		subs:    make(map[int]Subscriber),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RunID returns the journal run this store writes to.
func (s *Store) RunID() string { return s.runID }

// State returns the current root state.
func (s *Store) State() state.Root {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Seq returns the journal sequence of the last applied action.
func (s *Store) Seq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// Err returns the last journal failure, if any. Dispatch itself never fails.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch reduces a into the root state, journals it and notifies
// subscribers. Journal failures are logged and kept in Err; the state
// transition still happens.
func (s *Store) Dispatch(ctx context.Context, a action.Action) {
	if a == nil {
		return
	}
	ctx, span := s.tracer.Start(ctx, "Store.Dispatch", trace.WithAttributes(
		attribute.String("run.id", s.runID),
		attribute.String("action.kind", string(a.Kind())),
	))
	defer span.End()

	// notifyMu is taken before mu so a second dispatch cannot notify ahead
	// of this one.
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.current
	next := s.root.Reduce(prev, a)
	s.current = next
	if s.journal != nil {
		if err := s.record(ctx, a, next); err != nil {
			span.RecordError(err)
			s.lastErr = err
			s.logger.Printf("[ERROR] journal %s: %v", a.Kind(), err)
		}
	}
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(ctx, a, prev, next)
	}
}

func (s *Store) subscribers() []Subscriber {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

// record appends a to the journal and snapshots next every N actions.
// Callers hold s.mu.
func (s *Store) record(ctx context.Context, a action.Action, next state.Root) error {
	env, err := action.NewEnvelope(a)
	if err != nil {
		return err
	}
	rec, err := s.journal.AppendEvent(ctx, envelopeToRecord(s.runID, env))
	if err != nil {
		return err
	}
	s.lastSeq = rec.Seq
	if s.snapshotCodec != nil && s.snapshotInterval > 0 && rec.Seq > 0 && rec.Seq%int64(s.snapshotInterval) == 0 {
		if err := s.saveSnapshot(ctx, rec.Seq, next); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return nil
}

// Restore rebuilds the state from the latest snapshot plus the journal
// tail. Without a journal it resets to the initial state.
func (s *Store) Restore(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Store.Restore", trace.WithAttributes(attribute.String("run.id", s.runID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		s.current, s.lastSeq = s.root.Init(), 0
		return nil
	}
	current, last, err := s.replay(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.current, s.lastSeq = current, last
	return nil
}

func (s *Store) replay(ctx context.Context) (state.Root, int64, error) {
	base := s.root.Init()
	var upto int64
	sn, err := s.journal.LoadLatestSnapshot(ctx, s.runID)
	switch {
	case err == nil && len(sn.State) > 0 && s.snapshotCodec != nil:
		if decoded, derr := s.snapshotCodec.Decode(sn.State); derr == nil {
			base, upto = decoded, sn.UptoSeq
		} else {
			s.logger.Printf("[WARN] ignoring snapshot %s: %v", sn.SnapshotID, derr)
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return state.Root{}, 0, err
	}

	records, err := s.journal.ListEvents(ctx, s.runID, upto, 0)
	if err != nil {
		return state.Root{}, 0, err
	}
	current, last := base, upto
	for _, rec := range records {
		a, err := recordToEnvelope(rec).Decode()
		if err != nil {
			return state.Root{}, 0, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		current = s.root.Reduce(current, a)
		last = rec.Seq
	}
	return current, last, nil
}

// Actions lists journaled actions after seq, oldest first.
func (s *Store) Actions(ctx context.Context, afterSeq int64, limit int) ([]action.Envelope, error) {
	if s.journal == nil {
		return nil, nil
	}
	records, err := s.journal.ListEvents(ctx, s.runID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	out := make([]action.Envelope, 0, len(records))
	for _, rec := range records {
		out = append(out, recordToEnvelope(rec))
	}
	return out, nil
}

func (s *Store) saveSnapshot(ctx context.Context, upto int64, st state.Root) error {
	data, err := s.snapshotCodec.Encode(st)
	if err != nil {
		return err
	}
	_, err = s.journal.SaveSnapshot(ctx, store.SnapshotRecord{
		SnapshotID: fmt.Sprintf("snap-%s-%d", s.runID, upto),
		RunID:      s.runID,
		UptoSeq:    upto,
		State:      data,
		CreatedAt:  time.Now().UTC(),
	})
	return err
}

func envelopeToRecord(runID string, env action.Envelope) store.EventRecord {
	return store.EventRecord{
		EventID:   env.ID,
		RunID:     runID,
		Type:      string(env.Kind),
		Payload:   env.Payload,
		CreatedAt: env.Timestamp,
	}
}

func recordToEnvelope(rec store.EventRecord) action.Envelope {
	return action.Envelope{
		ID:        rec.EventID,
		Kind:      action.Kind(rec.Type),
		Timestamp: rec.CreatedAt,
		Payload:   rec.Payload,
	}
}
