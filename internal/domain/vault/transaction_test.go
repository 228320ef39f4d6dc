package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

var (
	testSender   = values.MustNewAddress("0x1111111111111111111111111111111111111111")
	testReceiver = values.MustNewAddress("0x2222222222222222222222222222222222222222")
	testOther    = values.MustNewAddress("0x3333333333333333333333333333333333333333")
)

func setupClock(t *testing.T) *MockClock {
	t.Helper()
	mock := &MockClock{CurrentTime: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	SetClock(mock)
	t.Cleanup(ResetClock)
	return mock
}

func newPendingTx(t *testing.T, delay time.Duration) *Transaction {
	t.Helper()
	tx, err := NewTransaction(1, testSender, testReceiver,
		values.MustNewMoneyFromFloat(18000, values.MNEE), delay, "elevated risk")
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	clock := setupClock(t)

	tx := newPendingTx(t, time.Hour)

	assert.Equal(t, int64(1), tx.ID)
	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, clock.CurrentTime, tx.CreatedAt)
	assert.Equal(t, clock.CurrentTime.Add(time.Hour), tx.UnlockTime)
	assert.Nil(t, tx.ResolvedAt)
}

func TestNewTransaction_Validation(t *testing.T) {
	setupClock(t)
	amount := values.MustNewMoneyFromFloat(100, values.MNEE)

	tests := []struct {
		name     string
		id       int64
		sender   values.Address
		receiver values.Address
		amount   values.Money
		delay    time.Duration
		wantCode string
	}{
		{
			name: "zero id", id: 0, sender: testSender, receiver: testReceiver,
			amount: amount, wantCode: "INVALID_ID",
		},
		{
			name: "missing sender", id: 1, receiver: testReceiver,
			amount: amount, wantCode: "INVALID_ADDRESS",
		},
		{
			name: "zero amount", id: 1, sender: testSender, receiver: testReceiver,
			amount: values.Zero(values.MNEE), wantCode: domainerrors.CodeInvalidAmount,
		},
		{
			name: "negative amount", id: 1, sender: testSender, receiver: testReceiver,
			amount: values.MustNewMoneyFromFloat(-5, values.MNEE), wantCode: domainerrors.CodeInvalidAmount,
		},
		{
			name: "negative delay", id: 1, sender: testSender, receiver: testReceiver,
			amount: amount, delay: -time.Second, wantCode: "INVALID_DELAY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.id, tt.sender, tt.receiver, tt.amount, tt.delay, "")
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, tt.wantCode), "expected code %s, got %v", tt.wantCode, err)
		})
	}
}

func TestTransaction_Recall(t *testing.T) {
	clock := setupClock(t)

	t.Run("sender can recall while pending", func(t *testing.T) {
		tx := newPendingTx(t, time.Hour)
		require.NoError(t, tx.Recall(testSender))

		assert.Equal(t, StatusRecalled, tx.Status)
		require.NotNil(t, tx.ResolvedAt)
		assert.Equal(t, clock.CurrentTime, *tx.ResolvedAt)
	})

	t.Run("recall works even after unlock time", func(t *testing.T) {
		tx := newPendingTx(t, time.Hour)
		clock.Advance(2 * time.Hour)
		assert.NoError(t, tx.Recall(testSender))
	})

	t.Run("non-sender cannot recall", func(t *testing.T) {
		tx := newPendingTx(t, time.Hour)

		err := tx.Recall(testOther)
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeUnauthorized))
		assert.Equal(t, StatusPending, tx.Status)

		err = tx.Recall(testReceiver)
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeUnauthorized))
	})

	t.Run("recall of terminal transaction fails", func(t *testing.T) {
		tx := newPendingTx(t, time.Hour)
		require.NoError(t, tx.Recall(testSender))

		err := tx.Recall(testSender)
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotPending))
	})
}

func TestTransaction_Release(t *testing.T) {
	t.Run("release before unlock time fails", func(t *testing.T) {
		clock := setupClock(t)
		tx := newPendingTx(t, time.Hour)

		err := tx.Release()
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotYetUnlocked))

		// One second short of the gate
		clock.Advance(time.Hour - time.Second)
		err = tx.Release()
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotYetUnlocked))
		assert.Equal(t, StatusPending, tx.Status)
	})

	t.Run("release exactly at unlock time succeeds", func(t *testing.T) {
		clock := setupClock(t)
		tx := newPendingTx(t, time.Hour)
		clock.Advance(time.Hour)

		require.NoError(t, tx.Release())
		assert.Equal(t, StatusReleased, tx.Status)
		require.NotNil(t, tx.ResolvedAt)
	})

	t.Run("zero delay is immediately releasable", func(t *testing.T) {
		setupClock(t)
		tx := newPendingTx(t, 0)
		assert.NoError(t, tx.Release())
	})

	t.Run("release of terminal transaction fails", func(t *testing.T) {
		clock := setupClock(t)
		tx := newPendingTx(t, time.Hour)
		clock.Advance(time.Hour)
		require.NoError(t, tx.Release())

		err := tx.Release()
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotPending))
	})

	t.Run("release after recall fails", func(t *testing.T) {
		clock := setupClock(t)
		tx := newPendingTx(t, time.Hour)
		require.NoError(t, tx.Recall(testSender))
		clock.Advance(2 * time.Hour)

		err := tx.Release()
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotPending))
		assert.Equal(t, StatusRecalled, tx.Status)
	})
}

func TestTransaction_Unlocked(t *testing.T) {
	clock := setupClock(t)
	tx := newPendingTx(t, time.Hour)

	assert.False(t, tx.Unlocked(clock.CurrentTime))
	assert.False(t, tx.Unlocked(tx.UnlockTime.Add(-time.Nanosecond)))
	assert.True(t, tx.Unlocked(tx.UnlockTime))
	assert.True(t, tx.Unlocked(tx.UnlockTime.Add(time.Second)))
}

func TestTransaction_Involves(t *testing.T) {
	setupClock(t)
	tx := newPendingTx(t, time.Hour)

	assert.True(t, tx.Involves(testSender))
	assert.True(t, tx.Involves(testReceiver))
	assert.False(t, tx.Involves(testOther))
}

func TestTransaction_Snapshot(t *testing.T) {
	setupClock(t)
	tx := newPendingTx(t, time.Hour)
	require.NoError(t, tx.Recall(testSender))

	snap := tx.Snapshot()
	require.NotNil(t, snap.ResolvedAt)

	// Mutating the snapshot's resolved time must not touch the original
	*snap.ResolvedAt = snap.ResolvedAt.Add(time.Hour)
	assert.NotEqual(t, *tx.ResolvedAt, *snap.ResolvedAt)
}

func TestStatus_Strings(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "released", StatusReleased.String())
	assert.Equal(t, "recalled", StatusRecalled.String())

	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusReleased.IsTerminal())
	assert.True(t, StatusRecalled.IsTerminal())

	for _, s := range []Status{StatusPending, StatusReleased, StatusRecalled} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("bogus")
	assert.Error(t, err)
}
