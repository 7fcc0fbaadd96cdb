// Package persist mirrors deck state into a session-scoped store and a
// durable cross-session store. Both tiers share one record codec so the
// serialized shapes can never drift apart.
package persist

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

// Record is the serialized form of one deck's state. The same record
// is written to both tiers.
type Record struct {
	Items        []deck.Card `json:"items"`
	Cursor       int         `json:"cursor"`
	DecidedIDs   []string    `json:"decided_ids"`
	DismissedIDs []string    `json:"dismissed_ids"`
	Ready        bool        `json:"ready"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// FromState converts a deck snapshot into a persistable record.
func FromState(s deck.State) *Record {
	return &Record{
		Items:        s.Items,
		Cursor:       s.Cursor,
		DecidedIDs:   sortedIDs(s.DecidedIDs),
		DismissedIDs: sortedIDs(s.DismissedIDs),
		Ready:        s.Ready,
		UpdatedAt:    time.Now().UTC(),
	}
}

// State converts the record back into a deck snapshot.
func (r *Record) State() deck.State {
	return deck.State{
		Items:        r.Items,
		Cursor:       r.Cursor,
		DecidedIDs:   idSet(r.DecidedIDs),
		DismissedIDs: idSet(r.DismissedIDs),
		Ready:        r.Ready,
	}
}

// Marshal encodes a record as JSON.
func Marshal(r *Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode deck record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a record from JSON.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode deck record: %w", err)
	}
	return &r, nil
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
