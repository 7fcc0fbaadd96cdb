package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

// DecisionResult is the remote service's answer to a recorded decision.
type DecisionResult struct {
	// Mutual is true when a like was reciprocated.
	Mutual bool `json:"mutual"`
}

// DecisionOptions configures the decision client.
type DecisionOptions struct {
	// BaseURL of the decision service.
	BaseURL string

	// RateLimit controls request frequency (default: 5 req/sec).
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds).
	Timeout time.Duration

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client
}

// DecisionClient records, rolls back, and dismisses swipe decisions.
// The engine calls it off the interactive path and never waits on the
// result for UI purposes.
type DecisionClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDecisionClient creates a decision client.
func NewDecisionClient(options DecisionOptions) *DecisionClient {
	if options.RateLimit == 0 {
		options.RateLimit = rate.Every(defaultRateDelay)
	}
	if options.Timeout == 0 {
		options.Timeout = defaultTimeout
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}
	return &DecisionClient{
		baseURL:    options.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
	}
}

type decisionRequest struct {
	IntentID    string `json:"intent_id"`
	CandidateID string `json:"candidate_id"`
	Direction   string `json:"direction"`
	TargetType  string `json:"target_type"`
}

// RecordDecision durably records a swipe decision. The intent id makes
// retries idempotent on the server side.
func (c *DecisionClient) RecordDecision(ctx context.Context, intentID, candidateID string, direction deck.Direction, targetType string) (*DecisionResult, error) {
	body := decisionRequest{
		IntentID:    intentID,
		CandidateID: candidateID,
		Direction:   direction.String(),
		TargetType:  targetType,
	}

	var result DecisionResult
	if err := c.post(ctx, "/v1/decisions", body, &result); err != nil {
		return nil, fmt.Errorf("record decision for %s: %w", candidateID, err)
	}
	return &result, nil
}

// RollbackDecision reverses a previously recorded decision. Used by
// the undo path.
func (c *DecisionClient) RollbackDecision(ctx context.Context, candidateID string) error {
	body := map[string]string{"candidate_id": candidateID}
	if err := c.post(ctx, "/v1/decisions/rollback", body, nil); err != nil {
		return fmt.Errorf("rollback decision for %s: %w", candidateID, err)
	}
	return nil
}

// RecordDismissal permanently excludes a candidate (reported or
// not-interested). Dismissals are independent of deck lifecycle.
func (c *DecisionClient) RecordDismissal(ctx context.Context, candidateID string) error {
	body := map[string]string{"candidate_id": candidateID}
	if err := c.post(ctx, "/v1/dismissals", body, nil); err != nil {
		return fmt.Errorf("record dismissal for %s: %w", candidateID, err)
	}
	return nil
}

func (c *DecisionClient) post(ctx context.Context, path string, payload any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
