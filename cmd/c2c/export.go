package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudfind/chargify-to-chargebee/internal/config"
	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
)

var (
	exportDataset string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one export cycle and write the CSV files",
	Long: `Run a single export cycle without starting the server.

With --dataset, that one dataset is written to stdout. Otherwise every
dataset is written to the output directory as {name}.csv.

Examples:
  c2c export --out ./exports
  c2c export --dataset customers > customers.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDataset, "dataset", "d", "", "write one dataset to stdout ("+strings.Join(dataset.Names, ", ")+")")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "directory for the CSV files")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := newPipeline(cfg).Run(ctx)
	if err != nil {
		return fmt.Errorf("export cycle failed: %w", err)
	}

	if exportDataset != "" {
		table, ok := snap.Tables[exportDataset]
		if !ok {
			return fmt.Errorf("unknown dataset %q", exportDataset)
		}
		return table.WriteCSV(os.Stdout)
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, name := range dataset.Names {
		path := filepath.Join(exportOut, name+".csv")
		if err := writeCSVFile(path, snap.Tables[name]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d rows)\n", path, snap.Tables[name].RowCount())
	}
	return nil
}

func writeCSVFile(path string, table dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
