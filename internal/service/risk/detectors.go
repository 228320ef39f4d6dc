package risk

import (
	"github.com/shopspring/decimal"
)

// Detector is a pure predicate over a resolved detection input. Detectors
// have no side effects, never error, and report not-fired on missing or
// invalid inputs.
type Detector interface {
	// Pattern returns the tag this detector fires
	Pattern() Pattern
	// Description returns the human-readable explanation fragment used
	// when the pattern fires
	Description() string
	// Match reports whether the pattern is present in the input
	Match(input DetectionInput) bool
}

// WeightedDetector pairs a detector with its fixed severity weight. The
// scorer only ever consumes these pairs, so new detectors slot in without
// touching the aggregation logic.
type WeightedDetector struct {
	Detector Detector
	Weight   int
}

// DefaultDetectors returns the built-in detector set in its fixed
// registration order. Explanation fragments are concatenated in this order.
func DefaultDetectors() []WeightedDetector {
	return []WeightedDetector{
		{Detector: FreshWalletDetector{}, Weight: WeightFreshWallet},
		{Detector: PennyDropDetector{}, Weight: WeightPennyDrop},
		{Detector: HyperUrgencyDetector{}, Weight: WeightHyperUrgency},
		{Detector: DoubleDipDetector{}, Weight: WeightDoubleDip},
		{Detector: KnownScammerDetector{}, Weight: WeightKnownScammer},
		{Detector: ZeroBalanceDetector{}, Weight: WeightZeroBalance},
	}
}

// FreshWalletDetector fires for recipients with almost no observable
// history, common in scam operations using disposable wallets.
type FreshWalletDetector struct{}

func (FreshWalletDetector) Pattern() Pattern { return PatternFreshWallet }

func (FreshWalletDetector) Description() string {
	return "recipient wallet is brand new with very few transactions"
}

func (FreshWalletDetector) Match(input DetectionInput) bool {
	if input.Profile == nil {
		return false
	}
	return input.Profile.WalletAgeDays < FreshWalletMaxAgeDays &&
		input.Profile.TransactionCount < FreshWalletMaxTxCount
}

// PennyDropDetector fires when a micro-payment moved between the pair in
// either direction shortly before a large request. The classic
// trust-building prelude to an APP scam is the scammer sending the small
// payment to the victim first, so the reverse direction counts too.
type PennyDropDetector struct{}

func (PennyDropDetector) Pattern() Pattern { return PatternPennyDrop }

func (PennyDropDetector) Description() string {
	return "a small test payment between these wallets preceded this much larger transfer"
}

func (PennyDropDetector) Match(input DetectionInput) bool {
	if !input.Amount.IsPositive() {
		return false
	}

	microCeiling := input.Amount.Amount().Mul(decimal.NewFromFloat(PennyDropMaxFraction))
	for _, rec := range input.History {
		if !rec.BetweenPair(input.Sender, input.Receiver) {
			continue
		}
		age := rec.Age(input.Now)
		if age < 0 || age > PennyDropLookback {
			continue
		}
		if rec.Amount.Token() != input.Amount.Token() {
			continue
		}
		if rec.Amount.IsPositive() && rec.Amount.Amount().Cmp(microCeiling) < 0 {
			return true
		}
	}
	return false
}

// HyperUrgencyDetector fires when the transfer was submitted almost
// immediately after the recipient address was resolved, a signal of
// panic-driven or coerced sending. Reports not-fired when the caller
// could not measure the review duration.
type HyperUrgencyDetector struct{}

func (HyperUrgencyDetector) Pattern() Pattern { return PatternHyperUrgency }

func (HyperUrgencyDetector) Description() string {
	return "transfer was submitted seconds after entering the recipient address"
}

func (HyperUrgencyDetector) Match(input DetectionInput) bool {
	if input.ReviewDuration == nil {
		return false
	}
	d := *input.ReviewDuration
	return d >= 0 && d < HyperUrgencyThreshold
}

// DoubleDipDetector fires when an identical (sender, receiver, amount)
// tuple appears again within a short window of a prior transfer, guarding
// against duplicate or confused resubmission.
type DoubleDipDetector struct{}

func (DoubleDipDetector) Pattern() Pattern { return PatternDoubleDip }

func (DoubleDipDetector) Description() string {
	return "an identical transfer to this recipient was already submitted minutes ago"
}

func (DoubleDipDetector) Match(input DetectionInput) bool {
	for _, rec := range input.History {
		if !rec.SamePair(input.Sender, input.Receiver) {
			continue
		}
		age := rec.Age(input.Now)
		if age < 0 || age > DoubleDipWindow {
			continue
		}
		if rec.Amount.Equal(input.Amount) {
			return true
		}
	}
	return false
}

// KnownScammerDetector fires when the wallet data source has flagged the
// recipient address.
type KnownScammerDetector struct{}

func (KnownScammerDetector) Pattern() Pattern { return PatternKnownScammer }

func (KnownScammerDetector) Description() string {
	return "recipient wallet has been reported for fraudulent activity"
}

func (KnownScammerDetector) Match(input DetectionInput) bool {
	return input.Profile != nil && input.Profile.KnownScammer
}

// ZeroBalanceDetector fires for wallets with transaction history but no
// balance, suggesting funds are immediately moved elsewhere.
type ZeroBalanceDetector struct{}

func (ZeroBalanceDetector) Pattern() Pattern { return PatternZeroBalance }

func (ZeroBalanceDetector) Description() string {
	return "recipient wallet drains every incoming payment immediately"
}

func (ZeroBalanceDetector) Match(input DetectionInput) bool {
	if input.Profile == nil {
		return false
	}
	return input.Profile.TransactionCount > 0 && input.Profile.Balance.IsZero()
}
