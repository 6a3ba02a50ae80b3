package export

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// ErrMockUpstream simulates an upstream listing failure.
var ErrMockUpstream = errors.New("mock upstream failure")

// sliceIter walks a fixed set of records, then reports err if set.
type sliceIter struct {
	records []record.Record
	pos     int
	current record.Record
	err     error
}

func (it *sliceIter) Next() bool {
	if it.pos >= len(it.records) {
		return false
	}
	it.current = it.records[it.pos]
	it.pos++
	return true
}

func (it *sliceIter) Record() record.Record { return it.current }

func (it *sliceIter) Err() error { return it.err }

// fixedSource returns a Deps field that serves the given records.
func fixedSource(records ...record.Record) func(context.Context) RecordIter {
	return func(context.Context) RecordIter {
		return &sliceIter{records: records}
	}
}

// failingSource returns a Deps field whose walk fails immediately.
func failingSource(err error) func(context.Context) RecordIter {
	return func(context.Context) RecordIter {
		return &sliceIter{err: err}
	}
}

// wrapped puts a subscription into the envelope the upstream listing uses.
func wrapped(sub record.Record) record.Record {
	return record.Record{"subscription": map[string]any(sub)}
}

// baseSubscription returns an active paid subscription with a card.
func baseSubscription() record.Record {
	return record.Record{
		"id":                        float64(1001),
		"state":                     "active",
		"currency":                  "GBP",
		"created_at":                "2019-03-01T10:00:00Z",
		"current_period_started_at": "2020-01-01T00:00:00Z",
		"current_period_ends_at":    "2020-02-01T00:00:00Z",
		"trial_started_at":          nil,
		"trial_ended_at":            nil,
		"canceled_at":               nil,
		"on_hold_at":                nil,
		"coupon_codes":              []any{},
		"coupon_code":               nil,
		"product":                   map[string]any{"handle": "pro"},
		"customer": map[string]any{
			"reference":    "acct-1",
			"first_name":   "Ada",
			"last_name":    "Lovelace",
			"phone":        "+44 20 7946 0000",
			"organization": "Analytical Ltd",
			"email":        "ada@example.com",
			"vat_number":   "GB123456789",
			"verified":     true,
		},
		"credit_card": map[string]any{
			"first_name":        "Ada",
			"last_name":         "Lovelace",
			"billing_address":   "1 Engine Street",
			"billing_address_2": nil,
			"billing_city":      "London",
			"billing_state":     nil,
			"billing_zip":       "EC1A 1AA",
			"billing_country":   "GB",
			"vault_token":       "cus_100",
		},
	}
}

// baseInvoice returns a paid invoice for baseSubscription. Its amounts
// give amount = 100 - 10 = 90 and total = 90 - 5 + 21 = 106.
func baseInvoice() record.Record {
	return record.Record{
		"uid":                 "inv_1",
		"subscription_id":     float64(1001),
		"status":              "paid",
		"issue_date":          "2020-01-15",
		"sequence_number":     float64(42),
		"subtotal_amount":     "100.0",
		"credit_amount":       "10.0",
		"discount_amount":     "5.0",
		"tax_amount":          "21.0",
		"paid_amount":         "106.0",
		"paid_date":           "2020-01-16T09:30:00Z",
		"product_family_name": "Search",
		"product_name":        "Scale",
		"customer": map[string]any{
			"first_name":   "Ada",
			"last_name":    "Lovelace",
			"email":        "ada@example.com",
			"organization": "Analytical Ltd",
		},
		"billing_address": map[string]any{
			"street":  "1 Engine Street",
			"line2":   nil,
			"city":    "London",
			"state":   nil,
			"zip":     "EC1A 1AA",
			"country": "GB",
		},
	}
}

// baseStripeCustomer returns the Stripe customer behind baseSubscription's
// card.
func baseStripeCustomer() record.Record {
	return record.Record{
		"id":             "cus_100",
		"default_source": "card_200",
		"email":          "ada@example.com",
	}
}

// cellAt resolves a cell by column name, so tests don't hardcode column
// positions.
func cellAt(t *testing.T, table [][]any, row int, column string) any {
	t.Helper()
	for i, c := range table[0] {
		if c == column {
			return table[row][i]
		}
	}
	t.Fatalf("column %q not in header", column)
	return nil
}
