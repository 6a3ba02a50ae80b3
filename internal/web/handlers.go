package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
)

const recentCycleLimit = 10

// Dataset handlers

// csvHandler serves one dataset as CSV. Before the first successful
// refresh cycle every dataset answers 503, never a partial file.
func (s *Server) csvHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		table, err := s.store.Table(name)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, dataset.ErrNotLoaded) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		var buf bytes.Buffer
		if err := table.WriteCSV(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}

// Operational handlers

func (s *Server) handleHealthcheck(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("OK"))
}

func (s *Server) handleStatus(c *gin.Context) {
	payload := gin.H{
		"success": true,
		"loaded":  false,
	}

	if snap := s.store.Current(); snap != nil {
		payload["loaded"] = true
		payload["cycle_id"] = snap.ID
		payload["fetched_at"] = snap.FetchedAt.UTC().Format(time.RFC3339)
		payload["row_counts"] = snap.RowCounts()
	}

	if s.cycles != nil {
		records, err := s.cycles.Recent(recentCycleLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		cycles := make([]gin.H, 0, len(records))
		for _, rec := range records {
			entry := gin.H{
				"id":          rec.ID,
				"started_at":  rec.StartedAt.UTC().Format(time.RFC3339),
				"status":      rec.Status,
				"duration_ms": rec.Duration.Milliseconds(),
			}
			if rec.Error != "" {
				entry["error"] = rec.Error
			}
			cycles = append(cycles, entry)
		}
		payload["recent_cycles"] = cycles
	}

	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleRefresh(c *gin.Context) {
	if s.refresh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "refresh not available",
		})
		return
	}

	s.refresh.Kick()
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh scheduled",
	})
}
