package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cloudfind/chargify-to-chargebee/internal/chargify"
	"github.com/cloudfind/chargify-to-chargebee/internal/config"
	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
	"github.com/cloudfind/chargify-to-chargebee/internal/export"
	"github.com/cloudfind/chargify-to-chargebee/internal/journal"
	"github.com/cloudfind/chargify-to-chargebee/internal/scheduler"
	"github.com/cloudfind/chargify-to-chargebee/internal/stripe"
	"github.com/cloudfind/chargify-to-chargebee/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Fetch billing data on a schedule and serve it as CSV",
	Long: `Start the export server.

The server pulls subscriptions and invoices from Chargify and customers
from Stripe, joins them into the Chargebee import datasets, and serves
each one at /{dataset}/csv. The data is refreshed every refresh_interval,
measured from the end of the previous cycle, and a failed cycle keeps the
previous data in place.

Examples:
  c2c serve
  c2c serve --config ./c2c.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := dataset.NewStore()

	var cycleLog *journal.Journal
	if cfg.JournalPath != "" {
		cycleLog, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer cycleLog.Close()
	}

	deps := scheduler.Deps{
		Pipeline: newPipeline(cfg),
		Store:    store,
		Interval: cfg.RefreshInterval,
	}
	if cycleLog != nil {
		deps.Journal = cycleLog
	}
	refresher := scheduler.New(deps)
	go refresher.Run(ctx)

	// Prune old journal entries once a day
	if cycleLog != nil && cfg.JournalRetention > 0 {
		pruner := cron.New()
		pruner.AddFunc("@daily", func() {
			removed, err := cycleLog.Prune(cfg.JournalRetention)
			if err != nil {
				log.Printf("Warning: journal prune failed: %v", err)
				return
			}
			if removed > 0 {
				log.Printf("Pruned %d journal entries older than %s", removed, cfg.JournalRetention)
			}
		})
		pruner.Start()
		defer pruner.Stop()
	}

	var history web.CycleLog
	if cycleLog != nil {
		history = cycleLog
	}
	server := web.NewServer(store, refresher, history)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving CSV exports on %s", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newPipeline wires the upstream clients into an export pipeline.
func newPipeline(cfg *config.Config) *export.Pipeline {
	chargifyClient := chargify.NewClient(cfg.ChargifyDomain, cfg.ChargifyAPIKey)
	stripeClient := stripe.NewClient(cfg.StripeAPIKey)

	return export.New(export.Deps{
		Subscriptions: func(ctx context.Context) export.RecordIter {
			return chargifyClient.Subscriptions(ctx, 0)
		},
		Invoices: func(ctx context.Context) export.RecordIter {
			return chargifyClient.Invoices(ctx)
		},
		Customers: func(ctx context.Context) export.RecordIter {
			return stripeClient.Customers(ctx)
		},
	})
}
