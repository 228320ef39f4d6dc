package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vetolabs/veto-backend/internal/domain/values"
)

func TestTransferRecord_PairMatching(t *testing.T) {
	a := values.MustNewAddress("0x1111111111111111111111111111111111111111")
	b := values.MustNewAddress("0x2222222222222222222222222222222222222222")
	c := values.MustNewAddress("0x3333333333333333333333333333333333333333")

	rec := TransferRecord{
		Sender:      a,
		Receiver:    b,
		Amount:      values.MustNewMoneyFromFloat(1, values.MNEE),
		SubmittedAt: time.Now(),
	}

	assert.True(t, rec.SamePair(a, b))
	assert.False(t, rec.SamePair(b, a), "SamePair is directional")

	assert.True(t, rec.BetweenPair(a, b))
	assert.True(t, rec.BetweenPair(b, a), "BetweenPair matches either direction")
	assert.False(t, rec.BetweenPair(a, c))
	assert.False(t, rec.BetweenPair(c, b))
}
