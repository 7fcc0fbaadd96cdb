// Package remote implements the engine's two external collaborators:
// the candidate supply (paged, ranked cards) and the decision writer
// (durable swipe records with mutual-match detection). Both are plain
// rate-limited HTTP clients.
package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for the write-outcome taxonomy. Benign outcomes mean
// the remote state already reflects the decision (or the row is gone
// for reasons unrelated to user intent); the local decision stands and
// nothing is surfaced.
var (
	// ErrDuplicateDecision: the decision was already recorded.
	ErrDuplicateDecision = errors.New("decision already recorded")

	// ErrConflict: a unique-constraint conflict on the decision row.
	ErrConflict = errors.New("decision conflict")

	// ErrPermissionDenied: the target row is no longer accessible.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStaleReference: the candidate no longer exists upstream.
	ErrStaleReference = errors.New("stale candidate reference")

	// ErrSelfTarget: the user tried to decide on their own candidate.
	// The ingestion filter should make this impossible; seeing it means
	// a filtering defect, and the swipe must be rejected.
	ErrSelfTarget = errors.New("cannot decide on own candidate")
)

// Class buckets a write outcome for the dispatch path.
type Class int

const (
	// ClassOK: the decision is durably recorded.
	ClassOK Class = iota
	// ClassBenign: absorbed silently; the local decision stands.
	ClassBenign
	// ClassSelfTarget: filtering defect; reject and notify.
	ClassSelfTarget
	// ClassUnexpected: the decision may not have been recorded; the
	// user is told this one needs retrying.
	ClassUnexpected
)

// Classify maps a write error onto the outcome taxonomy.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, ErrSelfTarget):
		return ClassSelfTarget
	case errors.Is(err, ErrDuplicateDecision),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrStaleReference):
		return ClassBenign
	default:
		return ClassUnexpected
	}
}

// APIError is a structured error response from the remote service.
type APIError struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d (%s): %s", e.Status, e.Code, e.Detail)
}

// Unwrap maps well-known API error codes onto the sentinel errors so
// Classify sees through the HTTP layer.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "duplicate_decision":
		return ErrDuplicateDecision
	case "unique_violation":
		return ErrConflict
	case "permission_denied":
		return ErrPermissionDenied
	case "foreign_key_violation", "not_found":
		return ErrStaleReference
	case "self_target":
		return ErrSelfTarget
	default:
		return nil
	}
}
