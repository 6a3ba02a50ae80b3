// Package stripe is a minimal client for the parts of the Stripe API the
// export needs: walking the customer collection.
package stripe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

const (
	defaultBaseURL = "https://api.stripe.com"
	pageLimit      = 100
	requestTimeout = 60 * time.Second
)

// APIError is a non-2xx response from the Stripe API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Body       string // raw response body when no error object could be parsed
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stripe: API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("stripe: API error (%d): %s", e.StatusCode, e.Body)
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the Stripe API with a secret key.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a new Stripe client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Customers walks the full customer collection in the API's own order,
// 100 records per page. The walk is lazy: no request is issued until the
// first Next call.
//
// GET /v1/customers
func (c *Client) Customers(ctx context.Context) *CustomerIter {
	return &CustomerIter{ctx: ctx, client: c}
}

// CustomerIter cursors through /v1/customers with starting_after. Each page
// after the first starts after the last customer already seen, and the walk
// stops at the first page with no data. has_more is deliberately not
// consulted; termination follows the data itself.
type CustomerIter struct {
	ctx    context.Context
	client *Client

	lastID  string
	buf     []record.Record
	pos     int
	current record.Record
	started bool
	done    bool
	err     error
}

// Next advances to the next customer, fetching pages on demand. It returns
// false when the collection is exhausted or a fetch failed; check Err to
// tell the two apart.
func (it *CustomerIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	for it.pos >= len(it.buf) {
		if !it.fetchPage() {
			return false
		}
	}
	it.current = it.buf[it.pos]
	it.pos++
	it.lastID = it.current.String("id")
	return true
}

// Record returns the customer produced by the last successful Next.
func (it *CustomerIter) Record() record.Record {
	return it.current
}

// Err returns the error that stopped the walk, or nil after a clean finish.
func (it *CustomerIter) Err() error {
	return it.err
}

func (it *CustomerIter) fetchPage() bool {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))
	if it.started && it.lastID != "" {
		params.Set("starting_after", it.lastID)
	}
	it.started = true

	page, err := it.client.listCustomers(it.ctx, params)
	if err != nil {
		it.err = fmt.Errorf("failed to list customers: %w", err)
		return false
	}
	if len(page) == 0 {
		it.done = true
		return false
	}

	it.buf = page
	it.pos = 0
	return true
}

func (c *Client) listCustomers(ctx context.Context, params url.Values) ([]record.Record, error) {
	reqURL := c.baseURL + "/v1/customers?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope errorEnvelope
		if sonic.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Type = envelope.Error.Type
			apiErr.Message = envelope.Error.Message
		} else {
			apiErr.Body = string(respBody)
		}
		return nil, apiErr
	}

	var page struct {
		Data    []map[string]any `json:"data"`
		HasMore bool             `json:"has_more"`
	}
	if err := sonic.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make([]record.Record, len(page.Data))
	for i, item := range page.Data {
		records[i] = record.Record(item)
	}
	return records, nil
}
