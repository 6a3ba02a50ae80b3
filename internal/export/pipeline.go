package export

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// RecordIter walks records from an upstream listing.
type RecordIter interface {
	// Next advances to the next record, fetching pages as needed. It
	// returns false when the listing is exhausted or an error occurred.
	Next() bool
	// Record returns the record Next advanced to.
	Record() record.Record
	// Err returns the error that stopped the walk, if any.
	Err() error
}

// Deps supplies the pipeline's upstream listings. Each call starts a
// fresh walk; the pipeline drains all three every cycle.
type Deps struct {
	Subscriptions func(ctx context.Context) RecordIter
	Invoices      func(ctx context.Context) RecordIter
	Customers     func(ctx context.Context) RecordIter
}

// Pipeline assembles one consistent snapshot from the upstream listings.
type Pipeline struct {
	deps Deps
}

// New creates a new Pipeline over the given sources.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run executes one export cycle. The returned snapshot carries all six
// datasets and no ID; the caller stamps it before publishing. On any
// error the snapshot is nil, so a failed cycle can never replace good
// data with partial data.
func (p *Pipeline) Run(ctx context.Context) (*dataset.Snapshot, error) {
	// 1. Drain the subscription listing and unwrap the per-entry envelope.
	wrapped, err := drain(p.deps.Subscriptions(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	subs := make([]record.Record, len(wrapped))
	for i, entry := range wrapped {
		sub := entry.Map("subscription")
		if sub == nil {
			return nil, fmt.Errorf("subscription listing entry %d has no subscription envelope", i)
		}
		subs[i] = sub
	}

	// 2. Drain the invoice listing.
	invoices, err := drain(p.deps.Invoices(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	// 3. Drain the card-holding customers.
	customers, err := drain(p.deps.Customers(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stripe customers: %w", err)
	}

	// 4. Index both sides of the joins by canonical ID.
	subsByID := make(map[string]record.Record, len(subs))
	for _, sub := range subs {
		subsByID[sub.String("id")] = sub
	}
	stripeByID := make(map[string]record.Record, len(customers))
	for _, cust := range customers {
		stripeByID[cust.String("id")] = cust
	}

	// 5. Curated datasets. Subscriptions also produce the plan mapping
	// that decides which invoices survive.
	customerRows, err := buildCustomerRows(subs, stripeByID)
	if err != nil {
		return nil, err
	}
	subscriptionRows, planBySubscription, err := buildSubscriptionRows(subs)
	if err != nil {
		return nil, err
	}
	invoiceRows, err := buildInvoiceRows(invoices, subsByID, planBySubscription)
	if err != nil {
		return nil, err
	}

	// 6. Raw datasets, straight flattenings of the upstream records.
	rawSubs, err := buildRawRows(subs, dataset.ChargifySubscriptions)
	if err != nil {
		return nil, err
	}
	rawInvoices, err := buildRawRows(invoices, dataset.ChargifyInvoices)
	if err != nil {
		return nil, err
	}
	rawCustomers, err := buildRawRows(customers, dataset.StripeCustomers)
	if err != nil {
		return nil, err
	}

	return &dataset.Snapshot{
		FetchedAt: time.Now(),
		Tables: map[string]dataset.Table{
			dataset.Customers:             customerRows,
			dataset.Subscriptions:         subscriptionRows,
			dataset.Invoices:              invoiceRows,
			dataset.ChargifySubscriptions: rawSubs,
			dataset.ChargifyInvoices:      rawInvoices,
			dataset.StripeCustomers:       rawCustomers,
		},
	}, nil
}

func drain(it RecordIter) ([]record.Record, error) {
	var out []record.Record
	for it.Next() {
		out = append(out, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
