package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudfind/chargify-to-chargebee/internal/dataset"
	"github.com/cloudfind/chargify-to-chargebee/internal/journal"
)

// DatasetStore serves read access to the published snapshot.
type DatasetStore interface {
	Table(name string) (dataset.Table, error)
	Current() *dataset.Snapshot
}

// Kicker triggers an immediate refresh.
type Kicker interface {
	Kick()
}

// CycleLog reads back recent refresh cycles.
type CycleLog interface {
	Recent(limit int) ([]*journal.CycleRecord, error)
}

// Server is the CSV export web server
type Server struct {
	store   DatasetStore
	refresh Kicker
	cycles  CycleLog
	router  *gin.Engine
}

// NewServer creates a new web server. refresh and cycles may be nil; the
// refresh endpoint then reports itself unavailable and /status omits the
// cycle history.
func NewServer(store DatasetStore, refresh Kicker, cycles CycleLog) *Server {
	router := gin.Default()

	s := &Server{
		store:   store,
		refresh: refresh,
		cycles:  cycles,
		router:  router,
	}

	router.GET("/healthcheck", s.handleHealthcheck)

	// One CSV endpoint per dataset
	for _, name := range dataset.Names {
		router.GET("/"+name+"/csv", s.csvHandler(name))
	}

	// Operational routes
	router.GET("/status", s.handleStatus)
	router.POST("/refresh", s.handleRefresh)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the web server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
