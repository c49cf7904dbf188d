// Package store defines the durable journal of dispatched actions and the
// state snapshots taken along it. Backends must give identical ordering so
// a journal replays to the same state anywhere.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// EventRecord is one journaled action. Seq is assigned on append and is
// strictly increasing per run.
type EventRecord struct {
	EventID   string
	RunID     string
	Seq       int64
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// SnapshotRecord is the root state as of UptoSeq.
type SnapshotRecord struct {
	SnapshotID string
	RunID      string
	UptoSeq    int64
	State      json.RawMessage
	CreatedAt  time.Time
}

// EventStore appends and lists journaled actions.
type EventStore interface {
	AppendEvent(ctx context.Context, e EventRecord) (EventRecord, error)
	GetEventByID(ctx context.Context, eventID string) (EventRecord, error)
	ListEvents(ctx context.Context, runID string, afterSeq int64, limit int) ([]EventRecord, error)
	LastSeq(ctx context.Context, runID string) (int64, error)
}

// SnapshotStore saves and loads state snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s SnapshotRecord) (SnapshotRecord, error)
	LoadLatestSnapshot(ctx context.Context, runID string) (SnapshotRecord, error)
}

// Store aggregates event and snapshot stores.
type Store interface {
	EventStore
	SnapshotStore
}
