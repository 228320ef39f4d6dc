package vault

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"time"

	"go.uber.org/zap"

	"github.com/vetolabs/veto-backend/internal/domain/audit"
	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/metrics"
)

// Manager implements the escrow state machine. It serializes all
// operations on a given transaction id; distinct ids proceed in parallel.
type Manager struct {
	store      Store
	ledger     Ledger
	escrowAddr values.Address
	publisher  audit.Publisher
	logger     *zap.Logger
	registry   *metrics.Registry

	nextID atomic.Int64

	locksMu sync.Mutex
	locks   map[int64]*idLock
}

// idLock is a per-transaction mutex with a holder count so the manager can
// evict map entries once the last holder releases.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates an escrow manager over the given durable store. The
// escrow address is the ledger account that holds locked funds. The id
// counter resumes from the highest persisted id.
func NewManager(ctx context.Context, store Store, ledger Ledger, escrowAddr values.Address, publisher audit.Publisher, logger *zap.Logger, registry *metrics.Registry) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		store:      store,
		ledger:     ledger,
		escrowAddr: escrowAddr,
		publisher:  publisher,
		logger:     logger,
		registry:   registry,
		locks:      make(map[int64]*idLock),
	}

	maxID, err := store.MaxID(ctx)
	if err != nil {
		return nil, domainerrors.NewStorageFailureError("could not read last assigned transaction id").WithCause(err)
	}
	m.nextID.Store(maxID)

	return m, nil
}

// Deposit validates the request, durably records the pending transaction,
// and then moves funds into escrow. The record is persisted first so a
// failed deposit never leaves escrowed funds without a record; a retry
// after a persistence failure starts clean. Ids are strictly increasing
// from 1 and never reused, even when a later step fails.
func (m *Manager) Deposit(ctx context.Context, sender, receiver values.Address, amount values.Money, delay time.Duration, reason string) (int64, error) {
	if !amount.IsPositive() {
		return 0, domainerrors.NewInvalidAmountError("deposit amount must be positive")
	}

	id := m.nextID.Add(1)
	tx, err := vault.NewTransaction(id, sender, receiver, amount, delay, reason)
	if err != nil {
		return 0, err
	}

	if err := m.store.Create(ctx, tx); err != nil {
		return 0, domainerrors.NewStorageFailureError("could not persist escrow transaction").WithCause(err)
	}

	if err := m.ledger.Transfer(ctx, sender, m.escrowAddr, amount); err != nil {
		// The record exists but no funds were escrowed; void it so it can
		// never be released against money the vault does not hold.
		m.voidUnfunded(ctx, tx)
		return 0, domainerrors.NewExternalError("ledger", "could not move funds into escrow").WithCause(err)
	}

	m.logger.Info("funds locked",
		zap.Int64("transaction_id", id),
		zap.String("sender", sender.Short()),
		zap.String("receiver", receiver.Short()),
		zap.String("amount", amount.String()),
		zap.Time("unlock_time", tx.UnlockTime),
	)
	m.emit(ctx, audit.EventFundsLocked, tx)
	if m.registry != nil {
		m.registry.RecordVaultDeposit(ctx, amount.ToFloat64())
	}

	return id, nil
}

// RecallFunds cancels a pending transaction and returns the funds to the
// sender. Only the original sender may recall; any later recall or release
// on the same id observes NotPending.
func (m *Manager) RecallFunds(ctx context.Context, id int64, caller values.Address) error {
	unlock := m.lockID(id)
	defer unlock()

	tx, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if err := tx.Recall(caller); err != nil {
		return err
	}

	if err := m.persistTransition(ctx, tx, vault.StatusRecalled); err != nil {
		return err
	}

	if err := m.ledger.Transfer(ctx, m.escrowAddr, tx.Sender, tx.Amount); err != nil {
		// The terminal transition is already durable; the refund movement
		// is the ledger layer's to complete.
		m.logger.Error("refund transfer failed after recall",
			zap.Int64("transaction_id", id), zap.Error(err))
		return domainerrors.NewExternalError("ledger", "recall recorded but refund transfer failed").WithCause(err)
	}

	m.logger.Info("funds recalled",
		zap.Int64("transaction_id", id),
		zap.String("sender", tx.Sender.Short()),
		zap.String("amount", tx.Amount.String()),
	)
	m.emit(ctx, audit.EventFundsRecalled, tx)
	if m.registry != nil {
		m.registry.RecordVaultRecall(ctx, tx.Amount.ToFloat64())
	}

	return nil
}

// ReleaseFunds completes a pending transaction once its unlock time has
// passed and pays the receiver. The time gate applies to every caller,
// the automatic scheduler included.
func (m *Manager) ReleaseFunds(ctx context.Context, id int64, caller values.Address) error {
	unlock := m.lockID(id)
	defer unlock()

	tx, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if err := tx.Release(); err != nil {
		return err
	}

	if err := m.persistTransition(ctx, tx, vault.StatusReleased); err != nil {
		return err
	}

	if err := m.ledger.Transfer(ctx, m.escrowAddr, tx.Receiver, tx.Amount); err != nil {
		m.logger.Error("payout transfer failed after release",
			zap.Int64("transaction_id", id), zap.Error(err))
		return domainerrors.NewExternalError("ledger", "release recorded but payout transfer failed").WithCause(err)
	}

	m.logger.Info("funds released",
		zap.Int64("transaction_id", id),
		zap.String("receiver", tx.Receiver.Short()),
		zap.String("amount", tx.Amount.String()),
		zap.String("caller", caller.Short()),
	)
	m.emit(ctx, audit.EventFundsReleased, tx)
	if m.registry != nil {
		m.registry.RecordVaultRelease(ctx, tx.Amount.ToFloat64())
	}

	return nil
}

// GetTransaction returns a read-only snapshot of the transaction
func (m *Manager) GetTransaction(ctx context.Context, id int64) (vault.Transaction, error) {
	tx, err := m.load(ctx, id)
	if err != nil {
		return vault.Transaction{}, err
	}
	return tx.Snapshot(), nil
}

// GetUserTransactions returns every transaction involving the address as
// sender or receiver, in insertion order.
func (m *Manager) GetUserTransactions(ctx context.Context, addr values.Address) ([]vault.Transaction, error) {
	txs, err := m.store.ListByAddress(ctx, addr)
	if err != nil {
		return nil, domainerrors.NewStorageFailureError("could not list escrow transactions").WithCause(err)
	}

	out := make([]vault.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Snapshot())
	}
	return out, nil
}

// voidUnfunded marks a freshly created transaction recalled after the
// escrow funding transfer failed. No refund movement follows because no
// funds ever left the sender.
func (m *Manager) voidUnfunded(ctx context.Context, tx *vault.Transaction) {
	if err := m.store.UpdateStatus(ctx, tx.ID, vault.StatusPending, vault.StatusRecalled, time.Now()); err != nil {
		m.logger.Error("could not void unfunded escrow transaction",
			zap.Int64("transaction_id", tx.ID), zap.Error(err))
	}
}

// lockID acquires the per-id mutex and returns its release func. The map
// entry is evicted once the last holder releases, so the map stays bounded
// by in-flight operations rather than transaction count.
func (m *Manager) lockID(id int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &idLock{}
		m.locks[id] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.locksMu.Unlock()
	}
}

func (m *Manager) load(ctx context.Context, id int64) (*vault.Transaction, error) {
	tx, err := m.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTxNotFound) {
			return nil, domainerrors.NewNotFoundError("vault transaction")
		}
		return nil, domainerrors.NewStorageFailureError("could not load escrow transaction").WithCause(err)
	}
	return tx, nil
}

func (m *Manager) persistTransition(ctx context.Context, tx *vault.Transaction, to vault.Status) error {
	resolvedAt := time.Now()
	if tx.ResolvedAt != nil {
		resolvedAt = *tx.ResolvedAt
	}

	err := m.store.UpdateStatus(ctx, tx.ID, vault.StatusPending, to, resolvedAt)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStatusConflict) {
		return domainerrors.NewNotPendingError("transaction already reached a terminal status")
	}
	if errors.Is(err, ErrTxNotFound) {
		return domainerrors.NewNotFoundError("vault transaction")
	}
	return domainerrors.NewStorageFailureError("could not persist escrow transition").WithCause(err)
}

func (m *Manager) emit(ctx context.Context, eventType audit.EventType, tx *vault.Transaction) {
	if m.publisher == nil {
		return
	}

	event, err := audit.NewEvent(eventType, tx.ID, tx.Sender, tx.Receiver, tx.Amount)
	if err != nil {
		m.logger.Warn("could not build transition event", zap.Error(err))
		return
	}
	if eventType == audit.EventFundsLocked {
		event.WithUnlockTime(tx.UnlockTime).WithReason(tx.Reason)
	}
	m.publisher.Publish(ctx, event)
}
