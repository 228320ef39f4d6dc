package vault_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	vaultdomain "github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/infrastructure/repository"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

func TestReleaseScheduler_ScanOnce(t *testing.T) {
	clock := setupClock(t)
	store := repository.NewMemoryVaultStore()
	manager, ledger, _ := setupManager(t, store)
	ctx := context.Background()

	ledger.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	shortID, err := manager.Deposit(ctx, sender, receiver, amount, 15*time.Minute, "")
	require.NoError(t, err)
	longID, err := manager.Deposit(ctx, sender, receiver, amount, time.Hour, "")
	require.NoError(t, err)

	scheduler := vaultsvc.NewReleaseScheduler(manager, store, time.Minute, escrow, zaptest.NewLogger(t))

	// Nothing is unlocked yet
	scheduler.ScanOnce(ctx)
	tx, err := manager.GetTransaction(ctx, shortID)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusPending, tx.Status)

	// Only the short-delay transaction crosses its unlock time
	clock.Advance(30 * time.Minute)
	scheduler.ScanOnce(ctx)

	tx, err = manager.GetTransaction(ctx, shortID)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusReleased, tx.Status)

	tx, err = manager.GetTransaction(ctx, longID)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusPending, tx.Status)

	// The remaining one follows once its own delay elapses
	clock.Advance(time.Hour)
	scheduler.ScanOnce(ctx)

	tx, err = manager.GetTransaction(ctx, longID)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusReleased, tx.Status)
}

func TestReleaseScheduler_RecalledTransactionIsSkipped(t *testing.T) {
	clock := setupClock(t)
	store := repository.NewMemoryVaultStore()
	manager, ledger, _ := setupManager(t, store)
	ctx := context.Background()

	ledger.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	id, err := manager.Deposit(ctx, sender, receiver, amount, 15*time.Minute, "")
	require.NoError(t, err)
	require.NoError(t, manager.RecallFunds(ctx, id, sender))

	clock.Advance(time.Hour)
	scheduler := vaultsvc.NewReleaseScheduler(manager, store, time.Minute, escrow, zaptest.NewLogger(t))
	scheduler.ScanOnce(ctx)

	tx, err := manager.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusRecalled, tx.Status, "recalled transaction must never be released")
}

func TestReleaseScheduler_RunStopsOnCancel(t *testing.T) {
	setupClock(t)
	store := repository.NewMemoryVaultStore()
	manager, _, _ := setupManager(t, store)

	scheduler := vaultsvc.NewReleaseScheduler(manager, store, 10*time.Millisecond, escrow, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := scheduler.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// The scheduler releases through the manager rather than writing the store
// directly; a pending transaction whose unlock time regressed (clock skew)
// stays locked because the time gate is re-checked on release.
func TestReleaseScheduler_TimeGateRechecked(t *testing.T) {
	clock := setupClock(t)
	store := repository.NewMemoryVaultStore()
	manager, ledger, _ := setupManager(t, store)
	ctx := context.Background()

	ledger.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	id, err := manager.Deposit(ctx, sender, receiver, amount, time.Hour, "")
	require.NoError(t, err)

	// The store reports the transaction releasable at a future instant,
	// but the domain clock still sits before the unlock time.
	releasable, err := store.ListReleasable(ctx, clock.CurrentTime.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, releasable, 1)

	scheduler := vaultsvc.NewReleaseScheduler(manager, store, time.Minute, escrow, zaptest.NewLogger(t))
	scheduler.ScanOnce(ctx)

	tx, err := manager.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vaultdomain.StatusPending, tx.Status)
}
