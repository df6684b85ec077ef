package api

import (
	"net/http"

	"github.com/closedwallet/closedwallet/internal/services/idempotency"
	"github.com/closedwallet/closedwallet/internal/services/projections"
	"github.com/closedwallet/closedwallet/internal/services/transfer"
	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the chi router with all wallet endpoints registered.
func NewRouter(engine *transfer.Engine, ic *idempotency.Coordinator, reads *projections.Reads) http.Handler {
	h := NewHandler(engine, ic, reads)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/wallets", func(r chi.Router) {
		r.Post("/transactions", h.CreateTransferHandler)
		r.Get("/transactions/{transactionId}", h.GetTransactionByIdHandler)
		r.Get("/{userId}/balance", h.GetBalanceHandler)
		r.Get("/{userId}/ledger", h.GetLedgerHandler)
		r.Get("/{userId}/transactions", h.GetTransactionHistoryHandler)
	})

	return r
}
