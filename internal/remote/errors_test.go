package remote

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassOK},
		{"duplicate", ErrDuplicateDecision, ClassBenign},
		{"conflict", ErrConflict, ClassBenign},
		{"permission", ErrPermissionDenied, ClassBenign},
		{"stale", ErrStaleReference, ClassBenign},
		{"self target", ErrSelfTarget, ClassSelfTarget},
		{"wrapped benign", fmt.Errorf("record decision: %w", ErrDuplicateDecision), ClassBenign},
		{"wrapped self", fmt.Errorf("record decision: %w", ErrSelfTarget), ClassSelfTarget},
		{"network", errors.New("connection refused"), ClassUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	tests := []struct {
		code string
		want Class
	}{
		{"duplicate_decision", ClassBenign},
		{"unique_violation", ClassBenign},
		{"permission_denied", ClassBenign},
		{"foreign_key_violation", ClassBenign},
		{"not_found", ClassBenign},
		{"self_target", ClassSelfTarget},
		{"internal_error", ClassUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &APIError{Status: 409, Code: tt.code, Detail: "detail"}
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestAPIErrorThroughWrapping(t *testing.T) {
	apiErr := &APIError{Status: 409, Code: "duplicate_decision", Detail: "already decided"}
	wrapped := fmt.Errorf("record decision for cand-1: %w", apiErr)

	if !errors.Is(wrapped, ErrDuplicateDecision) {
		t.Error("Expected wrapped APIError to match ErrDuplicateDecision")
	}
	if Classify(wrapped) != ClassBenign {
		t.Error("Expected wrapped APIError to classify as benign")
	}
}
