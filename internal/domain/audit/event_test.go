package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetolabs/veto-backend/internal/domain/values"
)

var (
	sender   = values.MustNewAddress("0x1111111111111111111111111111111111111111")
	receiver = values.MustNewAddress("0x2222222222222222222222222222222222222222")
	amount   = values.MustNewMoneyFromFloat(100, values.MNEE)
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventFundsLocked, 1, sender, receiver, amount)
	require.NoError(t, err)

	assert.NotEqual(t, event.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, EventFundsLocked, event.Type)
	assert.Equal(t, int64(1), event.TransactionID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Nil(t, event.UnlockTime)
}

func TestNewEvent_Validation(t *testing.T) {
	_, err := NewEvent("funds_teleported", 1, sender, receiver, amount)
	assert.Error(t, err)

	_, err = NewEvent(EventFundsLocked, 0, sender, receiver, amount)
	assert.Error(t, err)
}

func TestEvent_Builders(t *testing.T) {
	unlock := time.Now().Add(time.Hour)
	event, err := NewEvent(EventFundsLocked, 1, sender, receiver, amount)
	require.NoError(t, err)

	event.WithUnlockTime(unlock).WithReason("elevated risk")
	require.NotNil(t, event.UnlockTime)
	assert.Equal(t, unlock, *event.UnlockTime)
	assert.Equal(t, "elevated risk", event.Reason)
}

func TestLog(t *testing.T) {
	log := NewLog()
	ctx := context.Background()

	locked, err := NewEvent(EventFundsLocked, 1, sender, receiver, amount)
	require.NoError(t, err)
	released, err := NewEvent(EventFundsReleased, 1, sender, receiver, amount)
	require.NoError(t, err)
	other, err := NewEvent(EventFundsLocked, 2, sender, receiver, amount)
	require.NoError(t, err)

	log.Publish(ctx, locked)
	log.Publish(ctx, other)
	log.Publish(ctx, released)
	log.Publish(ctx, nil)

	assert.Len(t, log.Events(), 3)

	forOne := log.ForTransaction(1)
	require.Len(t, forOne, 2)
	assert.Equal(t, EventFundsLocked, forOne[0].Type)
	assert.Equal(t, EventFundsReleased, forOne[1].Type)

	assert.Empty(t, log.ForTransaction(42))
}
