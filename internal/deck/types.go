// Package deck owns the ordered, capacity-bounded queue of candidate
// cards for each browsing context, the cursor into it, and the sets of
// decided and dismissed candidates. All mutation goes through the
// Manager so the deck invariants are enforced in one place.
package deck

// Key identifies one logical deck: one (role, category) browsing context.
type Key struct {
	Role     string `json:"role"`
	Category string `json:"category"`
}

// String returns the key in the form used for persistence store keys.
func (k Key) String() string {
	return "deck:" + k.Role + ":" + k.Category
}

// Direction is the user's verdict on a card.
type Direction int

const (
	// DirectionPass rejects the candidate.
	DirectionPass Direction = iota
	// DirectionLike accepts the candidate.
	DirectionLike
)

// String returns the wire form of the direction.
func (d Direction) String() string {
	if d == DirectionLike {
		return "like"
	}
	return "pass"
}

// Card is one candidate (a listing or a profile) in a deck.
// Cards are immutable once ingested; the engine only ever moves them,
// never rewrites their content.
type Card struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Category    string   `json:"category"`
	TargetType  string   `json:"target_type"` // "listing" or "profile"
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	MediaURLs   []string `json:"media_urls"`
}

// Decision records a single committed swipe so it can be reversed.
// At most one Decision per deck is retained (see the undo package).
type Decision struct {
	Key         Key
	CandidateID string
	Direction   Direction
	TargetType  string
	// PrevCursor is the cursor value immediately before the swipe,
	// restored verbatim by an undo.
	PrevCursor int
}

// State is a point-in-time copy of one deck. Snapshots are deep copies;
// mutating a State never affects the Manager's internal state.
type State struct {
	Items        []Card              `json:"items"`
	Cursor       int                 `json:"cursor"`
	DecidedIDs   map[string]struct{} `json:"-"`
	DismissedIDs map[string]struct{} `json:"-"`
	Ready        bool                `json:"ready"`
}

// Empty reports whether the deck has no items at all.
func (s State) Empty() bool {
	return len(s.Items) == 0
}

// Exhausted reports whether the cursor has run past the last item.
// An empty deck is not "exhausted"; the two are distinct terminal states.
func (s State) Exhausted() bool {
	return len(s.Items) > 0 && s.Cursor >= len(s.Items)
}

// Remaining returns the number of cards at or after the cursor.
func (s State) Remaining() int {
	if s.Cursor >= len(s.Items) {
		return 0
	}
	return len(s.Items) - s.Cursor
}
