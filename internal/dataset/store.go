// Package dataset holds the published result of an export cycle: six named
// tables, replaced wholesale each time a cycle succeeds and served as CSV.
package dataset

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Dataset names. The first three are curated for the target billing
// system's import format; the raw_ prefixed view of the upstream data keeps
// the source names.
const (
	Customers             = "customers"
	Subscriptions         = "subscriptions"
	Invoices              = "invoices"
	ChargifySubscriptions = "chargify_subscriptions"
	ChargifyInvoices      = "chargify_invoices"
	StripeCustomers       = "stripe_customers"
)

// Names lists every dataset in serving order.
var Names = []string{
	Customers,
	Subscriptions,
	Invoices,
	ChargifySubscriptions,
	ChargifyInvoices,
	StripeCustomers,
}

// ErrNotLoaded is returned while no export cycle has completed yet.
var ErrNotLoaded = errors.New("data not loaded yet")

// Table is one dataset: a header row followed by data rows. Cells keep
// their decoded types until CSV rendering.
type Table [][]any

// RowCount returns the number of data rows, excluding the header.
func (t Table) RowCount() int {
	if len(t) == 0 {
		return 0
	}
	return len(t) - 1
}

// Snapshot is the complete output of one export cycle.
type Snapshot struct {
	ID        string
	FetchedAt time.Time
	Tables    map[string]Table
}

// RowCounts returns data row counts per dataset.
func (s *Snapshot) RowCounts() map[string]int {
	counts := make(map[string]int, len(s.Tables))
	for name, table := range s.Tables {
		counts[name] = table.RowCount()
	}
	return counts
}

// Store publishes snapshots to concurrent readers. Replace swaps the whole
// snapshot pointer, so a reader sees either the previous cycle's set or the
// new one, never a mix, and a failed cycle simply never calls Replace.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store. It stays empty, answering ErrNotLoaded,
// until the first successful cycle calls Replace.
func NewStore() *Store {
	return &Store{}
}

// Replace publishes a new snapshot.
func (s *Store) Replace(snap *Snapshot) {
	s.current.Store(snap)
}

// Current returns the published snapshot, or nil before the first Replace.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Table returns one dataset from the current snapshot.
func (s *Store) Table(name string) (Table, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	table, ok := snap.Tables[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return table, nil
}

// Counts returns data row counts for the current snapshot, or nil before
// the first Replace.
func (s *Store) Counts() map[string]int {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.RowCounts()
}
