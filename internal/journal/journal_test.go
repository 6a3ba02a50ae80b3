package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// =============================================================================
// Test: Open
// =============================================================================

func TestJournal_Open(t *testing.T) {
	t.Run("Given a missing directory When Open called Then creates it", func(t *testing.T) {
		// Given
		path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")

		// When
		j, err := Open(path)

		// Then
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer j.Close()

		if err := j.Record(&CycleRecord{ID: "c1", StartedAt: time.Now(), FinishedAt: time.Now(), Status: StatusOK}); err != nil {
			t.Errorf("Record on fresh journal failed: %v", err)
		}
	})

	t.Run("Given an existing journal When Open called again Then keeps its rows", func(t *testing.T) {
		// Given
		path := filepath.Join(t.TempDir(), "journal.db")
		j, err := Open(path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if err := j.Record(&CycleRecord{ID: "c1", StartedAt: time.Now(), FinishedAt: time.Now(), Status: StatusOK}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		j.Close()

		// When
		reopened, err := Open(path)

		// Then
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer reopened.Close()
		records, err := reopened.Recent(10)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 surviving record, got %d", len(records))
		}
	})
}

// =============================================================================
// Test: Record / Recent
// =============================================================================

func TestJournal_RecordAndRecent(t *testing.T) {
	t.Run("Given recorded cycles When Recent called Then returns newest first", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		for i, id := range []string{"c1", "c2", "c3"} {
			rec := &CycleRecord{
				ID:         id,
				StartedAt:  base.Add(time.Duration(i) * time.Hour),
				FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
				Status:     StatusOK,
				Duration:   time.Minute,
			}
			if err := j.Record(rec); err != nil {
				t.Fatalf("Record failed: %v", err)
			}
		}

		// When
		records, err := j.Recent(10)

		// Then
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].ID != "c3" || records[2].ID != "c1" {
			t.Errorf("expected newest first, got %s..%s", records[0].ID, records[2].ID)
		}
	})

	t.Run("Given more cycles than limit When Recent called Then truncates", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			rec := &CycleRecord{
				ID:         string(rune('a' + i)),
				StartedAt:  base.Add(time.Duration(i) * time.Hour),
				FinishedAt: base.Add(time.Duration(i) * time.Hour),
				Status:     StatusOK,
			}
			if err := j.Record(rec); err != nil {
				t.Fatalf("Record failed: %v", err)
			}
		}

		// When
		records, err := j.Recent(2)

		// Then
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})

	t.Run("Given a cycle with row counts When read back Then counts survive", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		rec := &CycleRecord{
			ID:         "c1",
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
			Status:     StatusOK,
			RowCounts:  map[string]int{"customers": 10, "invoices": 25},
			Duration:   90 * time.Second,
		}
		if err := j.Record(rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		// When
		records, err := j.Recent(1)

		// Then
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0].RowCounts["invoices"] != 25 {
			t.Errorf("expected 25 invoices, got %d", records[0].RowCounts["invoices"])
		}
		if records[0].Duration != 90*time.Second {
			t.Errorf("expected 90s duration, got %v", records[0].Duration)
		}
	})

	t.Run("Given a failed cycle When read back Then the error survives", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		rec := &CycleRecord{
			ID:         "c1",
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
			Status:     StatusError,
			Error:      "failed to fetch subscriptions: boom",
		}
		if err := j.Record(rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		// When
		records, err := j.Recent(1)

		// Then
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if records[0].Status != StatusError {
			t.Errorf("expected error status, got %s", records[0].Status)
		}
		if records[0].Error == "" {
			t.Error("expected error message to survive")
		}
	})

	t.Run("Given an empty journal When Recent called Then returns no records", func(t *testing.T) {
		// Given
		j := openTestJournal(t)

		// When
		records, err := j.Recent(10)

		// Then
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected 0 records, got %d", len(records))
		}
	})
}

// =============================================================================
// Test: Prune
// =============================================================================

func TestJournal_Prune(t *testing.T) {
	t.Run("Given old and fresh cycles When Prune called Then removes only the old ones", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		old := &CycleRecord{
			ID:         "old",
			StartedAt:  time.Now().Add(-60 * 24 * time.Hour),
			FinishedAt: time.Now().Add(-60 * 24 * time.Hour),
			Status:     StatusOK,
		}
		fresh := &CycleRecord{
			ID:         "fresh",
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
			Status:     StatusOK,
		}
		if err := j.Record(old); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if err := j.Record(fresh); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		// When
		removed, err := j.Prune(30 * 24 * time.Hour)

		// Then
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removed cycle, got %d", removed)
		}
		records, err := j.Recent(10)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(records) != 1 || records[0].ID != "fresh" {
			t.Errorf("expected only the fresh cycle to survive, got %v", records)
		}
	})

	t.Run("Given nothing old enough When Prune called Then removes nothing", func(t *testing.T) {
		// Given
		j := openTestJournal(t)
		if err := j.Record(&CycleRecord{ID: "c1", StartedAt: time.Now(), FinishedAt: time.Now(), Status: StatusOK}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		// When
		removed, err := j.Prune(30 * 24 * time.Hour)

		// Then
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if removed != 0 {
			t.Errorf("expected 0 removed cycles, got %d", removed)
		}
	})
}
