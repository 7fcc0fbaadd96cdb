package persist

// Store is one persistence tier. Both the volatile session mirror and
// the durable cross-session mirror implement it, so the facade can
// treat them uniformly.
type Store interface {
	// Load returns the record for a deck key, with found=false when no
	// record exists.
	Load(key string) (record *Record, found bool, err error)

	// Save writes the record for a deck key, replacing any previous one.
	Save(key string, record *Record) error

	// Delete removes the record for a deck key. Deleting a missing key
	// is not an error.
	Delete(key string) error

	// List returns all stored records by key.
	List() (map[string]*Record, error)

	// Close releases any resources held by the store.
	Close() error
}
