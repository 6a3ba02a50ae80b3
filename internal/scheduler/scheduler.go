// Package scheduler drives the periodic refresh of the published datasets.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
	"github.com/cloudfind/chargify-to-chargebee/internal/journal"
	"github.com/cloudfind/chargify-to-chargebee/internal/metrics"
)

// Pipeline produces a complete snapshot of all datasets.
type Pipeline interface {
	Run(ctx context.Context) (*dataset.Snapshot, error)
}

// CycleLog records finished refresh cycles.
type CycleLog interface {
	Record(rec *journal.CycleRecord) error
}

// Deps supplies the refresher's collaborators. Journal may be nil; cycles
// then go unrecorded.
type Deps struct {
	Pipeline Pipeline
	Store    *dataset.Store
	Journal  CycleLog
	Interval time.Duration
}

// Refresher runs export cycles and publishes their snapshots.
type Refresher struct {
	pipeline Pipeline
	store    *dataset.Store
	journal  CycleLog
	interval time.Duration
	kick     chan struct{}
}

// New creates a new Refresher.
func New(deps Deps) *Refresher {
	return &Refresher{
		pipeline: deps.Pipeline,
		store:    deps.Store,
		journal:  deps.Journal,
		interval: deps.Interval,
		kick:     make(chan struct{}, 1),
	}
}

// Run executes one cycle immediately, then another every interval,
// measured from the end of the previous cycle so slow fetches don't
// overlap. Kick requests fold into the wait. Run returns when ctx is
// cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
		case <-time.After(r.interval):
		}
		r.runOnce(ctx)
	}
}

// Kick requests an immediate refresh. It never blocks; kicks arriving
// while a cycle is underway coalesce into one pending run.
func (r *Refresher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	started := time.Now()
	cycleID := uuid.New().String()

	snap, err := r.pipeline.Run(ctx)
	finished := time.Now()
	elapsed := finished.Sub(started)

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown, not a failed export; leave no journal entry.
			return
		}
		log.Printf("Warning: refresh cycle failed, keeping previous data: %v", err)
		metrics.ObserveCycle(journal.StatusError, elapsed)
		r.record(&journal.CycleRecord{
			ID:         cycleID,
			StartedAt:  started,
			FinishedAt: finished,
			Status:     journal.StatusError,
			Error:      err.Error(),
			Duration:   elapsed,
		})
		return
	}

	snap.ID = cycleID
	snap.FetchedAt = finished
	r.store.Replace(snap)

	counts := snap.RowCounts()
	for name, rows := range counts {
		metrics.SetDatasetRows(name, rows)
	}
	metrics.ObserveCycle(journal.StatusOK, elapsed)
	metrics.MarkSuccess(finished)
	r.record(&journal.CycleRecord{
		ID:         cycleID,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     journal.StatusOK,
		RowCounts:  counts,
		Duration:   elapsed,
	})

	log.Printf("CSV data loaded in %s (%d customers, %d subscriptions, %d invoices)",
		elapsed.Round(time.Millisecond),
		counts[dataset.Customers], counts[dataset.Subscriptions], counts[dataset.Invoices])
}

func (r *Refresher) record(rec *journal.CycleRecord) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Record(rec); err != nil {
		log.Printf("Warning: failed to journal refresh cycle: %v", err)
	}
}
