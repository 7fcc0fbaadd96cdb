package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateDelay = 200 * time.Millisecond
	defaultPageSize  = 20
)

// Filters describes one browsing context sent to the supply service.
type Filters struct {
	Role     string `json:"role"`
	Category string `json:"category"`
	Query    string `json:"query,omitempty"`
}

// Page is one slice of ranked candidates. Ordering is only
// approximately most-relevant-first; the engine never assumes a global
// order across pages.
type Page struct {
	Cards     []deck.Card `json:"cards"`
	NextToken string      `json:"next_token"`
}

// SupplyOptions configures the supply client.
type SupplyOptions struct {
	// BaseURL of the supply service.
	BaseURL string

	// RateLimit controls request frequency (default: 5 req/sec).
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds).
	Timeout time.Duration

	// PageSize requested per fetch (default: 20).
	PageSize int

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client
}

// SupplyClient fetches pages of ranked candidate cards.
type SupplyClient struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSupplyClient creates a supply client.
func NewSupplyClient(options SupplyOptions) *SupplyClient {
	if options.RateLimit == 0 {
		options.RateLimit = rate.Every(defaultRateDelay)
	}
	if options.Timeout == 0 {
		options.Timeout = defaultTimeout
	}
	if options.PageSize <= 0 {
		options.PageSize = defaultPageSize
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}
	return &SupplyClient{
		baseURL:    options.BaseURL,
		pageSize:   options.PageSize,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
	}
}

// FetchPage returns the next page of candidates for the user and
// filter set. An empty pageToken requests the first page.
func (c *SupplyClient) FetchPage(ctx context.Context, userID string, filters Filters, pageToken string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("role", filters.Role)
	q.Set("category", filters.Category)
	if filters.Query != "" {
		q.Set("q", filters.Query)
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	q.Set("limit", fmt.Sprintf("%d", c.pageSize))

	endpoint := fmt.Sprintf("%s/v1/candidates?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parse candidates page: %w", err)
	}
	return &page, nil
}

// decodeAPIError turns a non-200 response into a typed error when the
// body carries a structured payload.
func decodeAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.Status = status
		return &apiErr
	}
	return fmt.Errorf("request failed with status %d: %s", status, string(body))
}
