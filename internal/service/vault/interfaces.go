package vault

import (
	"context"
	"errors"
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// Service defines the escrow manager surface. Deposit is only ever invoked
// by the transfer orchestrator; the remaining operations are exposed to
// clients.
type Service interface {
	// Deposit creates a pending escrow record and returns its id
	Deposit(ctx context.Context, sender, receiver values.Address, amount values.Money, delay time.Duration, reason string) (int64, error)
	// RecallFunds cancels a pending transaction; sender only
	RecallFunds(ctx context.Context, id int64, caller values.Address) error
	// ReleaseFunds completes a pending transaction once unlocked
	ReleaseFunds(ctx context.Context, id int64, caller values.Address) error
	// GetTransaction returns a read-only snapshot
	GetTransaction(ctx context.Context, id int64) (vault.Transaction, error)
	// GetUserTransactions returns every transaction where the address is
	// sender or receiver, in insertion order
	GetUserTransactions(ctx context.Context, addr values.Address) ([]vault.Transaction, error)
}

// Store is the durable record of escrow transactions. Every record must be
// persisted before Deposit returns and every status transition must be
// persisted before RecallFunds/ReleaseFunds return.
type Store interface {
	// Create persists a new transaction with its manager-assigned id
	Create(ctx context.Context, tx *vault.Transaction) error
	// GetByID loads a transaction; ErrTxNotFound for unknown ids
	GetByID(ctx context.Context, id int64) (*vault.Transaction, error)
	// UpdateStatus transitions id from one status to another atomically.
	// Returns ErrStatusConflict when the stored status no longer matches
	// from, ErrTxNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id int64, from, to vault.Status, resolvedAt time.Time) error
	// ListByAddress returns transactions involving the address as sender
	// or receiver, ordered by id
	ListByAddress(ctx context.Context, addr values.Address) ([]*vault.Transaction, error)
	// ListReleasable returns pending transactions whose unlock time has
	// passed as of the given instant, ordered by id
	ListReleasable(ctx context.Context, asOf time.Time, limit int) ([]*vault.Transaction, error)
	// MaxID returns the highest assigned id, 0 when empty
	MaxID(ctx context.Context) (int64, error)
}

// Ledger is the external token-transfer primitive underlying recall and
// release. Settlement and finality are out of scope; calls are assumed
// atomic at the ledger layer.
type Ledger interface {
	Transfer(ctx context.Context, from, to values.Address, amount values.Money) error
}

// Store sentinel errors
var (
	// ErrTxNotFound indicates an unknown transaction id
	ErrTxNotFound = errors.New("vault transaction not found")

	// ErrStatusConflict indicates the stored status no longer matches the
	// expected one (a concurrent transition won)
	ErrStatusConflict = errors.New("vault transaction status conflict")
)
