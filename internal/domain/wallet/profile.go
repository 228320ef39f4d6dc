package wallet

import (
	"fmt"
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// Profile is an immutable snapshot of a wallet's observable history,
// fetched at assessment time. Snapshots are never cached across
// assessments; freshness matters for fraud detection.
type Profile struct {
	Address          values.Address `json:"address"`
	TransactionCount int            `json:"transaction_count"`
	WalletAgeDays    int            `json:"wallet_age_days"`
	Balance          values.Money   `json:"balance"`
	KnownScammer     bool           `json:"known_scammer"`
	FetchedAt        time.Time      `json:"fetched_at"`
}

// NewProfile creates a validated profile snapshot
func NewProfile(addr values.Address, txCount, ageDays int, balance values.Money, knownScammer bool) (*Profile, error) {
	if addr.IsZero() {
		return nil, fmt.Errorf("profile address cannot be empty")
	}
	if txCount < 0 {
		return nil, fmt.Errorf("transaction count cannot be negative")
	}
	if ageDays < 0 {
		return nil, fmt.Errorf("wallet age cannot be negative")
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("balance cannot be negative")
	}

	return &Profile{
		Address:          addr,
		TransactionCount: txCount,
		WalletAgeDays:    ageDays,
		Balance:          balance,
		KnownScammer:     knownScammer,
		FetchedAt:        time.Now(),
	}, nil
}
