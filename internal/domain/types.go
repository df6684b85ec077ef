// Package domain holds the entities and value types of the wallet ledger,
// shared by every repo and service package. It has no storage or transport
// dependencies of its own.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the caller-facing reason for a transfer.
type TransactionType string

const (
	TopUp TransactionType = "TOP_UP"
	Bonus TransactionType = "BONUS"
	Spend TransactionType = "SPEND"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TopUp, Bonus, Spend:
		return true
	default:
		return false
	}
}

// TransactionStatus is the terminal outcome of a committed transaction row.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
)

// LedgerEntryType distinguishes the two sides of a double-entry pair.
type LedgerEntryType string

const (
	Debit  LedgerEntryType = "DEBIT"
	Credit LedgerEntryType = "CREDIT"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}

type Asset struct {
	ID        uuid.UUID
	Symbol    string
	Name      string
	CreatedAt time.Time
}

// Wallet is the cached balance projection for one (user, asset) pair.
type Wallet struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	AssetID uuid.UUID
	Balance decimal.Decimal
}

type Transaction struct {
	ID             uuid.UUID
	IdempotencyKey string
	FromWallet     uuid.UUID
	ToWallet       uuid.UUID
	Amount         decimal.Decimal
	Type           TransactionType
	Status         TransactionStatus
	CreatedAt      time.Time
}

type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	WalletID      uuid.UUID
	EntryType     LedgerEntryType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}
