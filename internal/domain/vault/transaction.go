package vault

import (
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// Transaction is the escrow record for a risk-diverted transfer. The escrow
// manager exclusively owns the canonical copy; every other component only
// references it by id and receives read-only snapshots.
type Transaction struct {
	ID         int64          `json:"id"`
	Sender     values.Address `json:"sender"`
	Receiver   values.Address `json:"receiver"`
	Amount     values.Money   `json:"amount"`
	UnlockTime time.Time      `json:"unlock_time"`
	Status     Status         `json:"status"`
	Reason     string         `json:"reason"`
	CreatedAt  time.Time      `json:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}

type Status int

const (
	StatusPending Status = iota
	StatusReleased
	StatusRecalled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReleased:
		return "released"
	case StatusRecalled:
		return "recalled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status admits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRecalled
}

// ParseStatus maps the persisted string form back to a Status
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "released":
		return StatusReleased, nil
	case "recalled":
		return StatusRecalled, nil
	}
	return StatusPending, errors.NewValidationError("INVALID_STATUS", "unknown vault transaction status: "+s)
}

// NewTransaction creates a pending escrow record. The unlock time is fixed
// here and never recomputed.
func NewTransaction(id int64, sender, receiver values.Address, amount values.Money, delay time.Duration, reason string) (*Transaction, error) {
	if id < 1 {
		return nil, errors.NewValidationError("INVALID_ID", "transaction id must be positive")
	}
	if sender.IsZero() || receiver.IsZero() {
		return nil, errors.NewValidationError("INVALID_ADDRESS", "sender and receiver addresses are required")
	}
	if !amount.IsPositive() {
		return nil, errors.NewInvalidAmountError("deposit amount must be positive")
	}
	if delay < 0 {
		return nil, errors.NewValidationError("INVALID_DELAY", "vault delay cannot be negative")
	}

	now := clock.Now()
	return &Transaction{
		ID:         id,
		Sender:     sender,
		Receiver:   receiver,
		Amount:     amount,
		UnlockTime: now.Add(delay),
		Status:     StatusPending,
		Reason:     reason,
		CreatedAt:  now,
	}, nil
}

// Recall transitions the transaction to Recalled. Valid only while Pending
// and only for the original sender.
func (t *Transaction) Recall(caller values.Address) error {
	if t.Status != StatusPending {
		return errors.NewNotPendingError("transaction is " + t.Status.String() + ", not pending")
	}
	if !caller.Equal(t.Sender) {
		return errors.NewUnauthorizedError("only the sender can recall a pending transaction")
	}

	now := clock.Now()
	t.Status = StatusRecalled
	t.ResolvedAt = &now
	return nil
}

// Release transitions the transaction to Released. Valid only while Pending
// and only once the unlock time has passed. The time gate is mandatory for
// every caller, including the automatic release scheduler.
func (t *Transaction) Release() error {
	if t.Status != StatusPending {
		return errors.NewNotPendingError("transaction is " + t.Status.String() + ", not pending")
	}

	now := clock.Now()
	if now.Before(t.UnlockTime) {
		return errors.NewNotYetUnlockedError("unlock time has not passed yet")
	}

	t.Status = StatusReleased
	t.ResolvedAt = &now
	return nil
}

// Unlocked reports whether the unlock time has passed at the given instant
func (t *Transaction) Unlocked(now time.Time) bool {
	return !now.Before(t.UnlockTime)
}

// Involves reports whether the address is the sender or the receiver
func (t *Transaction) Involves(addr values.Address) bool {
	return t.Sender.Equal(addr) || t.Receiver.Equal(addr)
}

// Snapshot returns a read-only copy safe to hand outside the escrow manager
func (t *Transaction) Snapshot() Transaction {
	cp := *t
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		cp.ResolvedAt = &resolved
	}
	return cp
}
