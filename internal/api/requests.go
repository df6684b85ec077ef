package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/closedwallet/closedwallet/internal/domain"
	"github.com/closedwallet/closedwallet/internal/services/transfer"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// parseUserIDFromPath reads {userId} from routes like
// GET /api/v1/wallets/{userId}/balance.
func parseUserIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "userId")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing userId")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid userId: %w", err)
	}
	return id, nil
}

func parseTransactionIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "transactionId")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing transactionId")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid transactionId: %w", err)
	}
	return id, nil
}

type transferRequestBody struct {
	UserID      uuid.UUID              `json:"userId"`
	Type        domain.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	AssetSymbol string                 `json:"assetSymbol"`
}

// parseTransferRequest decodes the one mutating route's body plus its
// required Idempotency-Key header into a validated, typed
// transfer.TransferRequest. The engine never sees a raw header lookup
// or a loose JSON map.
func parseTransferRequest(w http.ResponseWriter, r *http.Request) (transfer.TransferRequest, error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return transfer.TransferRequest{}, domain.NewValidation("Idempotency-Key header is required")
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var body transferRequestBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if err == io.EOF {
			return transfer.TransferRequest{}, domain.NewValidation("empty body")
		}
		return transfer.TransferRequest{}, domain.NewValidation("invalid JSON body: " + err.Error())
	}

	if body.UserID == uuid.Nil {
		return transfer.TransferRequest{}, domain.NewValidation("userId is required")
	}
	if body.AssetSymbol == "" {
		return transfer.TransferRequest{}, domain.NewValidation("assetSymbol is required")
	}

	return transfer.TransferRequest{
		IdempotencyKey: key,
		UserID:         body.UserID,
		Type:           body.Type,
		Amount:         body.Amount,
		AssetSymbol:    body.AssetSymbol,
	}, nil
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit, offset = 50, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid limit: %w", err)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid offset: %w", err)
		}
	}

	return limit, offset, nil
}

func parseOptionalDate(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &t, nil
}
