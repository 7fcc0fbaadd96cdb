package persist

import (
	"fmt"
	"log"
)

// Source identifies which tier a rehydrated record came from.
type Source string

const (
	SourceSession Source = "session"
	SourceDurable Source = "durable"
	SourceNone    Source = "none"
)

// Facade writes deck records through both tiers and rehydrates with
// session-first precedence. One facade per engine instance.
type Facade struct {
	session Store
	durable Store
}

// NewFacade creates a facade over the two tiers. The durable store may
// be nil, in which case only the session mirror is maintained.
func NewFacade(session, durable Store) *Facade {
	if session == nil {
		session = NewSessionStore()
	}
	return &Facade{session: session, durable: durable}
}

// Save mirrors the record into both tiers. The session write must
// succeed; a durable write failure is logged and absorbed, since the
// durable tier is an optimization and the session tier already holds
// the truth for this run.
func (f *Facade) Save(key string, record *Record) error {
	if err := f.session.Save(key, record); err != nil {
		return fmt.Errorf("session mirror: %w", err)
	}
	if f.durable != nil {
		if err := f.durable.Save(key, record); err != nil {
			log.Printf("[Persist] durable mirror write failed for %s: %v", key, err)
		}
	}
	return nil
}

// Rehydrate loads the record for a key: session mirror first, then the
// durable mirror, then nothing.
func (f *Facade) Rehydrate(key string) (*Record, Source, error) {
	record, found, err := f.session.Load(key)
	if err != nil {
		return nil, SourceNone, fmt.Errorf("session mirror: %w", err)
	}
	if found {
		return record, SourceSession, nil
	}

	if f.durable != nil {
		record, found, err = f.durable.Load(key)
		if err != nil {
			return nil, SourceNone, fmt.Errorf("durable mirror: %w", err)
		}
		if found {
			return record, SourceDurable, nil
		}
	}
	return nil, SourceNone, nil
}

// Delete removes the record from both tiers.
func (f *Facade) Delete(key string) error {
	if err := f.session.Delete(key); err != nil {
		return err
	}
	if f.durable != nil {
		return f.durable.Delete(key)
	}
	return nil
}

// Durable exposes the durable tier for snapshot export; nil when the
// facade runs session-only.
func (f *Facade) Durable() Store { return f.durable }

// Close closes both tiers.
func (f *Facade) Close() error {
	serr := f.session.Close()
	if f.durable != nil {
		if derr := f.durable.Close(); derr != nil {
			return derr
		}
	}
	return serr
}
