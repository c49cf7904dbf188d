package entstore

import (
	"encoding/json"

	"github.com/wilhg/persephone/pkg/store"
)

func journalEntry(id, runID, kind string, payload json.RawMessage) store.EventRecord {
	return store.EventRecord{
		EventID: id,
		RunID:   runID,
		Type:    kind,
		Payload: payload,
	}
}
