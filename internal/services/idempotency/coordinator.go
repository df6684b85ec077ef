// Package idempotency implements the Idempotency Coordinator: an optimistic
// cache in front of the Transfer Engine's authoritative unique-constraint
// guard. A cache outage degrades latency, never correctness.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/closedwallet/closedwallet/internal/infra/rediscache"
	"github.com/google/uuid"
)

// Status is the value side of a cached idempotency record.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// Outcome is the JSON payload stored under idempotency:<key>.
type Outcome struct {
	Status  Status     `json:"status"`
	TxID    *uuid.UUID `json:"txId,omitempty"`
	Balance *string    `json:"balance,omitempty"`
	Kind    string     `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ReserveStatus is the outcome of ReserveOrFetch.
type ReserveStatus int

const (
	// Reserved means the caller holds the key and must call Finalize.
	Reserved ReserveStatus = iota
	// InFlight means another caller is currently processing this key.
	InFlight
	// Terminal means a previous attempt already finished; Outcome is the
	// cached SUCCESS/FAILED result.
	Terminal
	// CacheUnavailable means the cache could not be reached; the caller
	// must fall back to the database-level idempotency probe alone.
	CacheUnavailable
)

type ReserveResult struct {
	Status  ReserveStatus
	Outcome *Outcome
}

type Coordinator struct {
	client        rediscache.Client
	processingTTL time.Duration
	terminalTTL   time.Duration
}

func New(client rediscache.Client, processingTTL, terminalTTL time.Duration) *Coordinator {
	return &Coordinator{client: client, processingTTL: processingTTL, terminalTTL: terminalTTL}
}

func cacheKey(key string) string { return "idempotency:" + key }

// ReserveOrFetch reserves key under PROCESSING if absent, or reports the
// existing reservation/terminal outcome if present.
func (c *Coordinator) ReserveOrFetch(ctx context.Context, key string) (ReserveResult, error) {
	placeholder, err := json.Marshal(Outcome{Status: StatusProcessing})
	if err != nil {
		return ReserveResult{}, fmt.Errorf("marshal placeholder: %w", err)
	}

	ck := cacheKey(key)

	ok, err := c.client.SetNX(ctx, ck, string(placeholder), c.processingTTL)
	if err != nil {
		slog.Warn("idempotency cache unavailable, degrading to database-only dedup", "error", err)
		return ReserveResult{Status: CacheUnavailable}, nil
	}
	if ok {
		return ReserveResult{Status: Reserved}, nil
	}

	raw, err := c.client.Get(ctx, ck)
	if err != nil {
		if errors.Is(err, rediscache.ErrMiss) {
			// Reservation expired between the failed SetNX and this Get;
			// treat as if we'd won the race.
			return c.ReserveOrFetch(ctx, key)
		}
		slog.Warn("idempotency cache unavailable on fetch, degrading to database-only dedup", "error", err)
		return ReserveResult{Status: CacheUnavailable}, nil
	}

	var out Outcome
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return ReserveResult{}, fmt.Errorf("decode cached outcome: %w", err)
	}

	if out.Status == StatusProcessing {
		return ReserveResult{Status: InFlight}, nil
	}

	return ReserveResult{Status: Terminal, Outcome: &out}, nil
}

// Finalize overwrites key's value with a terminal outcome and extends its
// TTL to terminalTTL.
func (c *Coordinator) Finalize(ctx context.Context, key string, outcome Outcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	err = c.client.Set(ctx, cacheKey(key), string(raw), c.terminalTTL)
	if err != nil {
		// Finalize failing is an Infrastructure-kind degrade, not a
		// correctness problem: the database's unique constraint already recorded
		// the authoritative outcome. Log and continue.
		slog.Warn("failed to finalize idempotency cache entry", "key", key, "error", err)
		return nil
	}

	return nil
}
