package chargify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

const (
	basicAuthPassword = "x"
	defaultPerPage    = 100 // Chargify caps per_page at 200
	requestTimeout    = 60 * time.Second
)

// ErrMissingEnvelope reports a listing page that did not contain its
// announced envelope key.
var ErrMissingEnvelope = errors.New("envelope key missing from listing page")

// APIError is a non-2xx response from the Chargify API.
type APIError struct {
	StatusCode int
	Errors     []string // messages from the "errors" field, when parseable
	Body       string   // raw response body otherwise
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("chargify: API error (%d): %s", e.StatusCode, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("chargify: API error (%d): %s", e.StatusCode, e.Body)
}

// Client talks to one Chargify subdomain.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a client for https://{domain}.chargify.com.
func NewClient(domain, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: fmt.Sprintf("https://%s.chargify.com", domain),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Customer fetches a customer by its Chargify-generated ID.
//
// GET /customers/{id}.json
func (c *Client) Customer(ctx context.Context, customerID string) (record.Record, error) {
	if customerID == "" {
		return nil, fmt.Errorf("invalid customer id")
	}
	res, err := c.request(ctx, http.MethodGet, "customers/"+customerID+".json", nil, nil)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

// CustomerByReference fetches a customer by the reference ID assigned by
// the calling application.
//
// GET /customers/lookup.json?reference={reference}
func (c *Client) CustomerByReference(ctx context.Context, reference string) (record.Record, error) {
	params := url.Values{}
	params.Set("reference", reference)
	res, err := c.request(ctx, http.MethodGet, "customers/lookup.json", params, nil)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

// CustomerSubscriptions lists every subscription belonging to a customer.
// The endpoint is not paginated.
//
// GET /customers/{id}/subscriptions.json
func (c *Client) CustomerSubscriptions(ctx context.Context, customerID string) ([]record.Record, error) {
	res, err := c.request(ctx, http.MethodGet, "customers/"+customerID+"/subscriptions.json", nil, nil)
	if err != nil {
		return nil, err
	}
	return asRecordList(res)
}

// Customers walks the full customer listing.
//
// GET /customers.json
func (c *Client) Customers(ctx context.Context) *PageIter {
	return newPageIter(ctx, c, "customers.json", nil, "")
}

// CreateCustomer creates a customer from the given attributes.
//
// POST /customers.json
func (c *Client) CreateCustomer(ctx context.Context, customer record.Record) (record.Record, error) {
	payload := map[string]any{"customer": customer}
	res, err := c.request(ctx, http.MethodPost, "customers.json", nil, payload)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

// DeleteCustomer deletes a customer. Chargify responds 204 with no body.
//
// DELETE /customers/{id}.json
func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	_, err := c.request(ctx, http.MethodDelete, "customers/"+customerID+".json", nil, nil)
	return err
}

// Subscription fetches a single subscription.
//
// GET /subscriptions/{id}.json
func (c *Client) Subscription(ctx context.Context, subscriptionID string) (record.Record, error) {
	res, err := c.request(ctx, http.MethodGet, "subscriptions/"+subscriptionID+".json", nil, nil)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

// Subscriptions walks the full subscription listing. Each entry is wrapped
// in a {"subscription": {...}} object. perPage <= 0 uses the default of 100.
//
// GET /subscriptions.json
func (c *Client) Subscriptions(ctx context.Context, perPage int) *PageIter {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	return newPageIter(ctx, c, "subscriptions.json", params, "")
}

// SubscriptionEvents walks the event listing for a subscription. Each event
// type carries its own event_specific_data. perPage <= 0 uses the default
// of 100.
//
// GET /subscriptions/{id}/events.json
func (c *Client) SubscriptionEvents(ctx context.Context, subscriptionID string, perPage int) *PageIter {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	return newPageIter(ctx, c, "subscriptions/"+subscriptionID+"/events.json", params, "")
}

// Invoices walks the full invoice listing. Pages arrive wrapped in an
// {"invoices": [...]} envelope.
//
// GET /invoices.json
func (c *Client) Invoices(ctx context.Context) *PageIter {
	return newPageIter(ctx, c, "invoices.json", nil, "invoices")
}

// Product fetches a product definition.
//
// GET /products/{id}.json
func (c *Client) Product(ctx context.Context, productID string) (record.Record, error) {
	res, err := c.request(ctx, http.MethodGet, "products/"+productID+".json", nil, nil)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

// request performs one API call and returns the decoded response body.
// The body is decoded before the status is judged: error payloads are JSON
// too, and some successes (204) carry no body at all.
func (c *Client) request(ctx context.Context, method, path string, params url.Values, payload any) (any, error) {
	reqURL := c.baseURL + "/" + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, basicAuthPassword)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded any
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := sonic.Unmarshal(respBody, &decoded); err != nil {
			decoded = nil
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decoded, nil
	}

	return nil, newAPIError(resp.StatusCode, decoded, respBody)
}

func newAPIError(statusCode int, decoded any, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	if m, ok := decoded.(map[string]any); ok {
		switch errs := m["errors"].(type) {
		case []any:
			for _, e := range errs {
				if s, ok := e.(string); ok {
					apiErr.Errors = append(apiErr.Errors, s)
				}
			}
		case string:
			apiErr.Errors = []string{errs}
		}
	}

	if len(apiErr.Errors) == 0 {
		apiErr.Body = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func asRecord(v any) (record.Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return record.Record(m), nil
}

func asRecordList(v any) ([]record.Record, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", v)
	}
	out := make([]record.Record, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a JSON object at index %d, got %T", i, item)
		}
		out[i] = record.Record(m)
	}
	return out, nil
}
