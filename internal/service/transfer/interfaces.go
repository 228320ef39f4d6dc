package transfer

import (
	"context"
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/wallet"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// ProfileFetcher resolves the observable history of a wallet address. It
// is an injected external data source and may block on network I/O; the
// orchestrator bounds every call with a timeout.
type ProfileFetcher interface {
	Fetch(ctx context.Context, addr values.Address) (*wallet.Profile, error)
}

// Ledger is the external token-transfer primitive used for the direct-send
// path. Settlement and finality semantics are out of scope.
type Ledger interface {
	Transfer(ctx context.Context, from, to values.Address, amount values.Money) error
}

// HistoryStore records submitted transfers and serves the recent-transfer
// history windows the pattern detectors consume.
type HistoryStore interface {
	// RecentTransfers returns transfers between the pair, in either
	// direction, submitted within the window, newest first
	RecentTransfers(ctx context.Context, sender, receiver values.Address, window time.Duration) ([]wallet.TransferRecord, error)
	// Record stores a submitted transfer for future lookups
	Record(ctx context.Context, rec wallet.TransferRecord) error
}

// Vault is the escrow deposit surface the orchestrator drives for
// elevated-risk transfers.
type Vault interface {
	Deposit(ctx context.Context, sender, receiver values.Address, amount values.Money, delay time.Duration, reason string) (int64, error)
}
