package deck

import (
	"sync"
)

// DefaultCapacity is the maximum number of cards retained per deck.
const DefaultCapacity = 50

// deckState is the mutable per-key state owned by the Manager.
type deckState struct {
	items        []Card
	cursor       int
	decidedIDs   map[string]struct{}
	dismissedIDs map[string]struct{}
	ready        bool
}

func newDeckState() *deckState {
	return &deckState{
		items:        make([]Card, 0, DefaultCapacity),
		decidedIDs:   make(map[string]struct{}),
		dismissedIDs: make(map[string]struct{}),
	}
}

// Manager owns all deck state. It is safe for concurrent use; every
// accessor takes the lock and every snapshot is a deep copy, so callers
// can never alias internal slices or maps.
type Manager struct {
	mu       sync.RWMutex
	capacity int
	decks    map[Key]*deckState
}

// NewManager creates a Manager with the given per-deck capacity.
// A capacity of 0 uses DefaultCapacity.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		capacity: capacity,
		decks:    make(map[Key]*deckState),
	}
}

// deck returns the state for key, creating it empty if needed.
// Must be called with m.mu held for writing.
func (m *Manager) deck(key Key) *deckState {
	d, ok := m.decks[key]
	if !ok {
		d = newDeckState()
		m.decks[key] = d
	}
	return d
}

// Ingest appends candidates to the deck, skipping any that belong to
// the acting user, are already in the deck, or have already been
// decided or dismissed. If the deck then exceeds capacity, the oldest
// entries are trimmed from the front and the cursor is shifted down to
// keep pointing at the same card. Returns the number of cards added.
//
// Front-trim eviction deliberately keeps the most recently supplied
// cards: supply is demand-driven, so the oldest entries are the ones
// most likely already behind the cursor.
func (m *Manager) Ingest(key Key, candidates []Card, currentUserID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	d.ready = true

	present := make(map[string]struct{}, len(d.items))
	for _, c := range d.items {
		present[c.ID] = struct{}{}
	}

	added := 0
	for _, c := range candidates {
		if c.OwnerID == currentUserID || c.ID == currentUserID {
			continue
		}
		if _, ok := present[c.ID]; ok {
			continue
		}
		if _, ok := d.decidedIDs[c.ID]; ok {
			continue
		}
		if _, ok := d.dismissedIDs[c.ID]; ok {
			continue
		}
		d.items = append(d.items, copyCard(c))
		present[c.ID] = struct{}{}
		added++
	}

	if overflow := len(d.items) - m.capacity; overflow > 0 {
		d.items = append(d.items[:0], d.items[overflow:]...)
		d.cursor -= overflow
		if d.cursor < 0 {
			d.cursor = 0
		}
	}

	return added
}

// Advance moves the cursor forward by one and returns the new value.
// Advancing past the end is a no-op: a cursor equal to len(items) is
// the legitimate "deck exhausted" position.
func (m *Manager) Advance(key Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	if d.cursor < len(d.items) {
		d.cursor++
	}
	return d.cursor
}

// CommitSwipe atomically advances the cursor and marks the candidate
// decided. This is the single mutation a committed swipe performs.
func (m *Manager) CommitSwipe(key Key, candidateID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	if d.cursor < len(d.items) {
		d.cursor++
	}
	d.decidedIDs[candidateID] = struct{}{}
	return snapshotLocked(d)
}

// RestoreSwipe reverses a committed swipe: the cursor returns to its
// pre-swipe value and the candidate is removed from the decided set.
// Used exclusively by the undo path.
func (m *Manager) RestoreSwipe(key Key, candidateID string, prevCursor int) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	if prevCursor >= 0 && prevCursor <= len(d.items) {
		d.cursor = prevCursor
	}
	delete(d.decidedIDs, candidateID)
	return snapshotLocked(d)
}

// Dismiss marks a candidate as permanently excluded and drops it from
// the deck if it is still queued. Dismissals survive Reset.
func (m *Manager) Dismiss(key Key, candidateID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	d.dismissedIDs[candidateID] = struct{}{}
	for i, c := range d.items {
		if c.ID != candidateID {
			continue
		}
		d.items = append(d.items[:i], d.items[i+1:]...)
		if i < d.cursor {
			d.cursor--
		}
		break
	}
	return snapshotLocked(d)
}

// Reset clears items, the decided set, and the cursor for the deck.
// Dismissals are a durable user action independent of deck lifecycle
// and are kept.
func (m *Manager) Reset(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	d.items = d.items[:0]
	d.cursor = 0
	d.decidedIDs = make(map[string]struct{})
	d.ready = false
}

// Hydrate installs persisted state into an empty deck. Cards owned by
// the acting user are filtered out again here, in case a stale mirror
// was written before the ingestion filter existed. Hydrating a deck
// that already has items is a no-op (live state wins).
func (m *Manager) Hydrate(key Key, s State, currentUserID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.deck(key)
	if len(d.items) > 0 {
		return false
	}

	items := make([]Card, 0, len(s.Items))
	dropped := 0
	for i, c := range s.Items {
		if c.OwnerID == currentUserID || c.ID == currentUserID {
			if i < s.Cursor {
				dropped++
			}
			continue
		}
		items = append(items, copyCard(c))
	}

	d.items = items
	d.cursor = s.Cursor - dropped
	if d.cursor < 0 {
		d.cursor = 0
	}
	if d.cursor > len(d.items) {
		d.cursor = len(d.items)
	}
	d.decidedIDs = copySet(s.DecidedIDs)
	if d.decidedIDs == nil {
		d.decidedIDs = make(map[string]struct{})
	}
	for id := range s.DismissedIDs {
		d.dismissedIDs[id] = struct{}{}
	}
	d.ready = s.Ready
	return true
}

// Top returns the card at the cursor, if any.
func (m *Manager) Top(key Key) (Card, bool) {
	return m.at(key, 0)
}

// Next returns the card just behind the top card, if any.
func (m *Manager) Next(key Key) (Card, bool) {
	return m.at(key, 1)
}

// Peek returns the card at cursor+offset, if any.
func (m *Manager) Peek(key Key, offset int) (Card, bool) {
	return m.at(key, offset)
}

func (m *Manager) at(key Key, offset int) (Card, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decks[key]
	if !ok {
		return Card{}, false
	}
	idx := d.cursor + offset
	if idx < 0 || idx >= len(d.items) {
		return Card{}, false
	}
	return copyCard(d.items[idx]), true
}

// Remaining returns the number of cards at or after the cursor.
func (m *Manager) Remaining(key Key) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decks[key]
	if !ok {
		return 0
	}
	if d.cursor >= len(d.items) {
		return 0
	}
	return len(d.items) - d.cursor
}

// Snapshot returns a deep copy of the deck's state.
func (m *Manager) Snapshot(key Key) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decks[key]
	if !ok {
		return State{
			DecidedIDs:   make(map[string]struct{}),
			DismissedIDs: make(map[string]struct{}),
		}
	}
	return snapshotLocked(d)
}

func snapshotLocked(d *deckState) State {
	items := make([]Card, len(d.items))
	for i, c := range d.items {
		items[i] = copyCard(c)
	}
	return State{
		Items:        items,
		Cursor:       d.cursor,
		DecidedIDs:   copySet(d.decidedIDs),
		DismissedIDs: copySet(d.dismissedIDs),
		Ready:        d.ready,
	}
}

func copyCard(c Card) Card {
	out := c
	if c.MediaURLs != nil {
		out.MediaURLs = append([]string(nil), c.MediaURLs...)
	}
	return out
}

func copySet(s map[string]struct{}) map[string]struct{} {
	if s == nil {
		return make(map[string]struct{})
	}
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
