package risk

import "time"

// Risk score bounds
const (
	// ScoreMin is the lowest possible risk score
	ScoreMin = 0

	// ScoreMax is the score ceiling; raw pattern sums are clamped to it
	ScoreMax = 100
)

// Risk level thresholds. The score-to-level mapping is a step function:
// score >= ThresholdHigh is High, score >= ThresholdMedium is Medium,
// everything below is Low.
const (
	// ThresholdHigh is the minimum score classified as high risk
	ThresholdHigh = 80

	// ThresholdMedium is the minimum score classified as medium risk
	ThresholdMedium = 30
)

// Vault delay table. Delay scales with severity and is zero exactly at Low.
const (
	// DelayHigh is the escrow window for high-risk transfers
	DelayHigh = 3600 * time.Second

	// DelayMedium is the escrow window for medium-risk transfers
	DelayMedium = 900 * time.Second

	// DelayLow is the (absent) escrow window for low-risk transfers
	DelayLow = 0
)

// Pattern severity weights
const (
	// WeightFreshWallet scores a recipient with nearly no history
	WeightFreshWallet = 40

	// WeightPennyDrop scores a trust-building micro-payment preceding a
	// large request
	WeightPennyDrop = 50

	// WeightHyperUrgency scores a submission rushed through review
	WeightHyperUrgency = 15

	// WeightDoubleDip scores an identical transfer resubmitted shortly
	// after a prior one
	WeightDoubleDip = 20

	// WeightKnownScammer scores a recipient flagged by the wallet data
	// source
	WeightKnownScammer = 60

	// WeightZeroBalance scores a wallet that drains every incoming payment
	WeightZeroBalance = 20
)

// Detector parameters
const (
	// FreshWalletMaxAgeDays is the wallet age below which a recipient
	// counts as fresh
	FreshWalletMaxAgeDays = 1

	// FreshWalletMaxTxCount is the transaction count below which a
	// recipient counts as fresh
	FreshWalletMaxTxCount = 5

	// PennyDropMaxFraction is the fraction of the current amount below
	// which a prior transfer counts as a micro-payment (1%)
	PennyDropMaxFraction = 0.01

	// PennyDropLookback is how far back to look for a prior micro-payment
	PennyDropLookback = 24 * time.Hour

	// HyperUrgencyThreshold is the review duration below which a
	// submission counts as rushed
	HyperUrgencyThreshold = 3 * time.Second

	// DoubleDipWindow is the window within which an identical transfer
	// counts as a duplicate
	DoubleDipWindow = 5 * time.Minute
)
