package persist

import (
	"sync"
)

// SessionStore is the volatile tier: it lives exactly as long as the
// engine instance, the way a tab-scoped store lives as long as the tab.
// Records go through the codec even here so both tiers exercise the
// same serialization.
type SessionStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{records: make(map[string][]byte)}
}

// Load returns the record for a key.
func (s *SessionStore) Load(key string) (*Record, bool, error) {
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	record, err := Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Save stores the record for a key.
func (s *SessionStore) Save(key string, record *Record) error {
	data, err := Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
	return nil
}

// Delete removes the record for a key.
func (s *SessionStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// List returns all stored records.
func (s *SessionStore) List() (map[string]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Record, len(s.records))
	for key, data := range s.records {
		record, err := Unmarshal(data)
		if err != nil {
			return nil, err
		}
		out[key] = record
	}
	return out, nil
}

// Close discards all records.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	s.records = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}
