package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running export server",
	Long: `Query a running server's /status endpoint and display:
- Whether data has been loaded
- Row counts by dataset
- Recent refresh cycles from the journal`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8080", "server base URL")
}

type statusPayload struct {
	Loaded       bool           `json:"loaded"`
	CycleID      string         `json:"cycle_id"`
	FetchedAt    string         `json:"fetched_at"`
	RowCounts    map[string]int `json:"row_counts"`
	RecentCycles []struct {
		ID         string `json:"id"`
		StartedAt  string `json:"started_at"`
		Status     string `json:"status"`
		DurationMS int64  `json:"duration_ms"`
		Error      string `json:"error"`
	} `json:"recent_cycles"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("Exporter Status")
	fmt.Println(strings.Repeat("=", 40))

	fmt.Printf("\nServer:   %s\n", statusAddr)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(statusAddr, "/") + "/status")
	if err != nil {
		fmt.Printf("Status:   UNREACHABLE (%s)\n", err)
		return nil // Don't fail command, just report status
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Status:   ERROR (%d)\n", resp.StatusCode)
		return nil
	}

	var payload statusPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}

	if !payload.Loaded {
		fmt.Println("Loaded:   no (no cycle has completed yet)")
		printRecentCycles(payload)
		return nil
	}

	fmt.Println("Loaded:   yes")
	fmt.Printf("Cycle:    %s\n", payload.CycleID)
	fmt.Printf("Fetched:  %s\n", payload.FetchedAt)

	fmt.Println("\nRows by dataset:")
	total := 0
	for _, name := range dataset.Names {
		count, ok := payload.RowCounts[name]
		if !ok {
			continue
		}
		fmt.Printf("  %-24s %d\n", name+":", count)
		total += count
	}
	fmt.Printf("  %-24s %d\n", "TOTAL:", total)

	printRecentCycles(payload)
	return nil
}

func printRecentCycles(payload statusPayload) {
	if len(payload.RecentCycles) == 0 {
		return
	}

	fmt.Println("\nRecent cycles:")
	for _, c := range payload.RecentCycles {
		line := fmt.Sprintf("  %s  %-6s %s", c.StartedAt, c.Status, time.Duration(c.DurationMS)*time.Millisecond)
		if c.Error != "" {
			line += "  " + c.Error
		}
		fmt.Println(line)
	}
}
