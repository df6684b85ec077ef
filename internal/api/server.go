package api

import (
	"net/http"
	"time"

	"github.com/closedwallet/closedwallet/internal/services/idempotency"
	"github.com/closedwallet/closedwallet/internal/services/projections"
	"github.com/closedwallet/closedwallet/internal/services/transfer"
)

// NewServer creates and returns a configured *http.Server exposing the
// wallet API on addr.
func NewServer(addr string, engine *transfer.Engine, ic *idempotency.Coordinator, reads *projections.Reads) *http.Server {
	mux := NewRouter(engine, ic, reads)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
