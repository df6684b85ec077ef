package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/repos/transactions"
	"github.com/closedwallet/closedwallet/internal/services/idempotency"
	"github.com/closedwallet/closedwallet/internal/services/projections"
	"github.com/closedwallet/closedwallet/internal/services/transfer"
)

// HandlerProvider wraps the core services and exposes HTTP handlers.
type HandlerProvider struct {
	engine *transfer.Engine
	ic     *idempotency.Coordinator
	reads  *projections.Reads
}

func NewHandler(engine *transfer.Engine, ic *idempotency.Coordinator, reads *projections.Reads) *HandlerProvider {
	return &HandlerProvider{engine: engine, ic: ic, reads: reads}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeError(w, statusForKind(kind), messageForError(err))
}

// CreateTransferHandler handles POST /api/v1/wallets/transactions. It
// reserves the idempotency key before running the transfer engine and
// finalizes the terminal outcome back into the cache once settled.
func (h *HandlerProvider) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseTransferRequest(w, r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	reserve, err := h.ic.ReserveOrFetch(r.Context(), req.IdempotencyKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch reserve.Status {
	case idempotency.InFlight:
		writeError(w, http.StatusConflict, "duplicate request is currently processing")
		return
	case idempotency.Terminal:
		writeTerminalOutcome(w, *reserve.Outcome)
		return
	}
	// Reserved or CacheUnavailable both fall through to run the engine:
	// a cache outage degrades latency, not correctness.

	result, err := h.engine.ExecuteTransfer(r.Context(), req)
	if err != nil {
		outcome := outcomeForError(err)
		if reserve.Status == idempotency.Reserved {
			h.finalize(r.Context(), req.IdempotencyKey, outcome)
		}
		writeDomainError(w, err)
		return
	}

	balanceStr := result.Balance.StringFixed(4)
	outcome := idempotency.Outcome{
		Status:  idempotency.StatusSuccess,
		TxID:    &result.TxID,
		Balance: &balanceStr,
	}
	if reserve.Status == idempotency.Reserved {
		h.finalize(r.Context(), req.IdempotencyKey, outcome)
	}

	resp := map[string]any{
		"status":  "SUCCESS",
		"txId":    result.TxID,
		"balance": balanceStr,
	}
	if result.Cached {
		resp["_cached"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HandlerProvider) finalize(ctx context.Context, key string, outcome idempotency.Outcome) {
	if err := h.ic.Finalize(ctx, key, outcome); err != nil {
		slog.Warn("failed to finalize idempotency outcome", "key", key, "error", err)
	}
}

func outcomeForError(err error) idempotency.Outcome {
	kind := domain.KindOf(err)
	return idempotency.Outcome{
		Status:  idempotency.StatusFailed,
		Kind:    string(kind),
		Message: messageForError(err),
	}
}

func writeTerminalOutcome(w http.ResponseWriter, outcome idempotency.Outcome) {
	if outcome.Status == idempotency.StatusSuccess {
		resp := map[string]any{
			"status":  "SUCCESS",
			"_cached": true,
		}
		if outcome.TxID != nil {
			resp["txId"] = *outcome.TxID
		}
		if outcome.Balance != nil {
			resp["balance"] = *outcome.Balance
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	status := statusForKind(domain.Kind(outcome.Kind))
	writeError(w, status, outcome.Message)
}

// GetBalanceHandler handles GET /api/v1/wallets/{userId}/balance.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	asset := r.URL.Query().Get("asset")
	if asset == "" {
		writeError(w, http.StatusBadRequest, "asset query param is required")
		return
	}

	bal, err := h.reads.GetBalance(r.Context(), userID, asset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"balance": bal.StringFixed(4),
	})
}

// GetLedgerHandler handles GET /api/v1/wallets/{userId}/ledger.
func (h *HandlerProvider) GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.reads.GetLedger(r.Context(), userID, r.URL.Query().Get("asset"), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": page.Entries,
		"pagination": map[string]any{
			"total":   page.Pagination.Total,
			"limit":   page.Pagination.Limit,
			"offset":  page.Pagination.Offset,
			"hasMore": page.Pagination.HasMore,
		},
	})
}

// GetTransactionHistoryHandler handles GET /api/v1/wallets/{userId}/transactions.
func (h *HandlerProvider) GetTransactionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	startDate, err := parseOptionalDate(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	endDate, err := parseOptionalDate(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := transactions.HistoryFilter{
		Limit:     limit,
		Offset:    offset,
		StartDate: startDate,
		EndDate:   endDate,
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		t := domain.TransactionType(raw)
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "invalid type")
			return
		}
		filter.Type = &t
	}

	if raw := r.URL.Query().Get("asset"); raw != "" {
		assetID, err := h.reads.ResolveAsset(r.Context(), raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.AssetID = &assetID
	}

	page, err := h.reads.GetTransactionHistory(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": page.Transactions,
		"pagination": map[string]any{
			"total":   page.Pagination.Total,
			"limit":   page.Pagination.Limit,
			"offset":  page.Pagination.Offset,
			"hasMore": page.Pagination.HasMore,
		},
	})
}

// GetTransactionByIdHandler handles GET /api/v1/wallets/transactions/{transactionId}.
func (h *HandlerProvider) GetTransactionByIdHandler(w http.ResponseWriter, r *http.Request) {
	txID, err := parseTransactionIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transactionId")
		return
	}

	detail, err := h.reads.GetTransactionById(r.Context(), txID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transaction": detail.Transaction,
		"ledger":      detail.Ledger,
	})
}
