package wallet

import (
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// TransferRecord is a single entry of recent-transfer history between a
// sender/receiver pair, consumed by the pattern detectors.
type TransferRecord struct {
	Sender      values.Address `json:"sender"`
	Receiver    values.Address `json:"receiver"`
	Amount      values.Money   `json:"amount"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// SamePair reports whether the record involves the same sender/receiver pair
func (r TransferRecord) SamePair(sender, receiver values.Address) bool {
	return r.Sender.Equal(sender) && r.Receiver.Equal(receiver)
}

// BetweenPair reports whether the record moved funds between the two
// addresses in either direction
func (r TransferRecord) BetweenPair(a, b values.Address) bool {
	return (r.Sender.Equal(a) && r.Receiver.Equal(b)) ||
		(r.Sender.Equal(b) && r.Receiver.Equal(a))
}

// Age returns how long ago the transfer was submitted relative to now
func (r TransferRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.SubmittedAt)
}
