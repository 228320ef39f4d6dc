package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// EventType classifies an escrow transition record. The three types mirror
// the on-chain vault event log one-to-one.
type EventType string

const (
	EventFundsLocked   EventType = "funds_locked"
	EventFundsRecalled EventType = "funds_recalled"
	EventFundsReleased EventType = "funds_released"
)

// Event is an immutable, append-only record of a single escrow transition,
// emitted for observability by the escrow manager.
type Event struct {
	ID            uuid.UUID      `json:"id"`
	Type          EventType      `json:"type"`
	TransactionID int64          `json:"transaction_id"`
	Sender        values.Address `json:"sender"`
	Receiver      values.Address `json:"receiver"`
	Amount        values.Money   `json:"amount"`
	UnlockTime    *time.Time     `json:"unlock_time,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewEvent creates a transition event with validation
func NewEvent(eventType EventType, txID int64, sender, receiver values.Address, amount values.Money) (*Event, error) {
	switch eventType {
	case EventFundsLocked, EventFundsRecalled, EventFundsReleased:
	default:
		return nil, errors.NewValidationError("INVALID_EVENT_TYPE", "unknown transition event type: "+string(eventType))
	}
	if txID < 1 {
		return nil, errors.NewValidationError("INVALID_EVENT_TARGET", "transition event requires a positive transaction id")
	}

	return &Event{
		ID:            uuid.New(),
		Type:          eventType,
		TransactionID: txID,
		Sender:        sender,
		Receiver:      receiver,
		Amount:        amount,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// WithUnlockTime attaches the unlock time (FundsLocked events)
func (e *Event) WithUnlockTime(t time.Time) *Event {
	e.UnlockTime = &t
	return e
}

// WithReason attaches the human-readable lock reason
func (e *Event) WithReason(reason string) *Event {
	e.Reason = reason
	return e
}
