package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetolabs/veto-backend/internal/domain/wallet"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

var (
	sender   = values.MustNewAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	receiver = values.MustNewAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func mustProfile(t *testing.T, txCount, ageDays int, balance float64, scammer bool) *wallet.Profile {
	t.Helper()
	p, err := wallet.NewProfile(receiver, txCount, ageDays,
		values.MustNewMoneyFromFloat(balance, values.MNEE), scammer)
	require.NoError(t, err)
	return p
}

func baseInput(t *testing.T, amount float64, profile *wallet.Profile) DetectionInput {
	t.Helper()
	return DetectionInput{
		Sender:   sender,
		Receiver: receiver,
		Amount:   values.MustNewMoneyFromFloat(amount, values.MNEE),
		Profile:  profile,
		Now:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestScorer_EstablishedWalletIsLow(t *testing.T) {
	scorer := NewScorer()
	input := baseInput(t, 500, mustProfile(t, 1247, 730, 5000, false))

	assessment := scorer.Score(input)

	assert.Equal(t, LevelLow, assessment.Level)
	assert.Equal(t, 0, assessment.Score)
	assert.Empty(t, assessment.Patterns)
	assert.Zero(t, assessment.VaultDelay)
	assert.Equal(t, "no risk detected", assessment.Explanation)
}

func TestScorer_FreshWalletWithPennyDrop(t *testing.T) {
	scorer := NewScorer()

	// Brand new wallet, and a 1-unit transfer between the same pair ten
	// minutes before an 18000-unit request.
	input := baseInput(t, 18000, mustProfile(t, 1, 0, 1, false))
	input.History = []wallet.TransferRecord{{
		Sender:      sender,
		Receiver:    receiver,
		Amount:      values.MustNewMoneyFromFloat(1, values.MNEE),
		SubmittedAt: input.Now.Add(-10 * time.Minute),
	}}

	assessment := scorer.Score(input)

	assert.True(t, assessment.Matched(PatternFreshWallet))
	assert.True(t, assessment.Matched(PatternPennyDrop))
	assert.Equal(t, LevelHigh, assessment.Level)
	assert.Equal(t, WeightFreshWallet+WeightPennyDrop, assessment.Score)
	assert.Equal(t, DelayHigh, assessment.VaultDelay)
	assert.Equal(t, int64(3600), assessment.VaultDelaySeconds())
}

func TestScorer_ScoreIsClamped(t *testing.T) {
	scorer := NewScorer()

	// Fire everything at once: fresh scammer wallet with zero balance,
	// penny drop, double dip, and a rushed submission.
	review := time.Second
	input := baseInput(t, 18000, mustProfile(t, 1, 0, 0, true))
	input.ReviewDuration = &review
	input.History = []wallet.TransferRecord{
		{
			Sender: sender, Receiver: receiver,
			Amount:      values.MustNewMoneyFromFloat(1, values.MNEE),
			SubmittedAt: input.Now.Add(-10 * time.Minute),
		},
		{
			Sender: sender, Receiver: receiver,
			Amount:      values.MustNewMoneyFromFloat(18000, values.MNEE),
			SubmittedAt: input.Now.Add(-2 * time.Minute),
		},
	}

	assessment := scorer.Score(input)

	assert.Equal(t, ScoreMax, assessment.Score)
	assert.Equal(t, LevelHigh, assessment.Level)
	assert.Len(t, assessment.Patterns, 6)
}

func TestScorer_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{score: 0, want: LevelLow},
		{score: ThresholdMedium - 1, want: LevelLow},
		{score: ThresholdMedium, want: LevelMedium},
		{score: ThresholdHigh - 1, want: LevelMedium},
		{score: ThresholdHigh, want: LevelHigh},
		{score: ScoreMax, want: LevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %d", tt.score)
	}
}

func TestScorer_DelayTable(t *testing.T) {
	assert.Equal(t, time.Duration(0), DelayForLevel(LevelLow))
	assert.Equal(t, DelayMedium, DelayForLevel(LevelMedium))
	assert.Equal(t, DelayHigh, DelayForLevel(LevelHigh))
}

func TestScorer_ExplanationFollowsRegistrationOrder(t *testing.T) {
	scorer := NewScorer()
	input := baseInput(t, 18000, mustProfile(t, 1, 0, 1, false))
	input.History = []wallet.TransferRecord{{
		Sender: sender, Receiver: receiver,
		Amount:      values.MustNewMoneyFromFloat(1, values.MNEE),
		SubmittedAt: input.Now.Add(-10 * time.Minute),
	}}

	assessment := scorer.Score(input)

	// Fresh wallet registers before penny drop, so its fragment comes first
	assert.Equal(t,
		FreshWalletDetector{}.Description()+"; "+PennyDropDetector{}.Description(),
		assessment.Explanation)
}

func TestScorer_CustomDetectorSet(t *testing.T) {
	scorer := NewScorer(WeightedDetector{Detector: KnownScammerDetector{}, Weight: WeightKnownScammer})
	input := baseInput(t, 100, mustProfile(t, 1, 0, 0, false))

	// Only the scammer detector is registered, so a fresh zero-balance
	// wallet scores nothing.
	assessment := scorer.Score(input)
	assert.Equal(t, 0, assessment.Score)
	assert.Equal(t, LevelLow, assessment.Level)
}
