package transfer

import (
	"time"

	"github.com/vetolabs/veto-backend/internal/service/risk"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// SubmitRequest carries one transfer attempt
type SubmitRequest struct {
	Sender   values.Address
	Receiver values.Address
	Amount   values.Money

	// ReviewDuration is how long the sender looked at the resolved
	// recipient before submitting. Nil when the client cannot measure it.
	ReviewDuration *time.Duration
}

// OutcomeStatus distinguishes the two terminal decisions
type OutcomeStatus string

const (
	// OutcomeSent means the transfer was forwarded directly
	OutcomeSent OutcomeStatus = "sent"

	// OutcomeLocked means the transfer was diverted into the vault escrow
	OutcomeLocked OutcomeStatus = "locked"
)

// Outcome is the result of a submitted transfer: either it was sent
// directly or it was locked into escrow, never both, never neither
// (absent an error).
type Outcome struct {
	Status        OutcomeStatus    `json:"status"`
	TransactionID int64            `json:"transaction_id,omitempty"`
	Assessment    *risk.Assessment `json:"assessment"`
}
