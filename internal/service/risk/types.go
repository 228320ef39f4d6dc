package risk

import (
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/wallet"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// Pattern tags a named fraud pattern. The set is fixed but extensible;
// new patterns may be added without breaking existing ones.
type Pattern string

const (
	PatternFreshWallet  Pattern = "fresh_wallet"
	PatternPennyDrop    Pattern = "penny_drop"
	PatternHyperUrgency Pattern = "hyper_urgency"
	PatternDoubleDip    Pattern = "double_dip"
	PatternKnownScammer Pattern = "known_scammer"
	PatternZeroBalance  Pattern = "zero_balance"
)

// Level is the discrete risk classification derived from the score
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// DetectionInput carries every resolved fact a detector may consult.
// Profile and history are fetched before detection; detectors never reach
// the network themselves.
type DetectionInput struct {
	Sender   values.Address
	Receiver values.Address
	Amount   values.Money
	Profile  *wallet.Profile
	History  []wallet.TransferRecord

	// ReviewDuration is the elapsed time between the recipient address
	// being resolved and the transfer being submitted. Nil when the
	// caller cannot measure it.
	ReviewDuration *time.Duration

	// Now anchors all window checks so detection stays deterministic
	// for identical inputs.
	Now time.Time
}

// Assessment is the immutable verdict produced once per transfer attempt.
// Level is a deterministic monotone function of Score, and VaultDelay is
// zero exactly when Level is low.
type Assessment struct {
	Level            Level           `json:"risk_level"`
	Score            int             `json:"risk_score"`
	Patterns         []Pattern       `json:"patterns"`
	VaultDelay       time.Duration   `json:"vault_delay"`
	Explanation      string          `json:"explanation"`
	RecipientProfile *wallet.Profile `json:"recipient_profile"`
}

// VaultDelaySeconds returns the delay in whole seconds, the unit used on
// the wire and in the escrow ledger.
func (a *Assessment) VaultDelaySeconds() int64 {
	return int64(a.VaultDelay / time.Second)
}

// Matched reports whether a given pattern fired
func (a *Assessment) Matched(p Pattern) bool {
	for _, matched := range a.Patterns {
		if matched == p {
			return true
		}
	}
	return false
}
