package vault

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
)

// ReleaseScheduler periodically releases pending transactions whose unlock
// time has passed. It goes through the same ReleaseFunds path as any other
// caller, so the per-id locking discipline and the time gate apply
// unchanged; losing a race to a recall just surfaces as NotPending.
type ReleaseScheduler struct {
	manager  *Manager
	store    Store
	interval time.Duration
	batch    int
	caller   values.Address
	logger   *zap.Logger
}

const (
	defaultScanInterval = 30 * time.Second
	defaultScanBatch    = 100
)

// NewReleaseScheduler creates a scheduler over the manager's store. The
// caller address identifies the scheduler in transition logs.
func NewReleaseScheduler(manager *Manager, store Store, interval time.Duration, caller values.Address, logger *zap.Logger) *ReleaseScheduler {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReleaseScheduler{
		manager:  manager,
		store:    store,
		interval: interval,
		batch:    defaultScanBatch,
		caller:   caller,
		logger:   logger,
	}
}

// Run scans until the context is cancelled
func (s *ReleaseScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce releases every currently releasable transaction once. Exposed
// separately so tests and the worker entrypoint can drive it directly.
func (s *ReleaseScheduler) ScanOnce(ctx context.Context) {
	txs, err := s.store.ListReleasable(ctx, time.Now(), s.batch)
	if err != nil {
		s.logger.Error("release scan failed", zap.Error(err))
		return
	}

	for _, tx := range txs {
		err := s.manager.ReleaseFunds(ctx, tx.ID, s.caller)
		switch {
		case err == nil:
			s.logger.Debug("auto-released transaction", zap.Int64("transaction_id", tx.ID))
		case domainerrors.IsCode(err, domainerrors.CodeNotPending),
			domainerrors.IsCode(err, domainerrors.CodeNotYetUnlocked):
			// Lost the race to a recall or a concurrent release; nothing
			// to do for this id.
		default:
			s.logger.Warn("auto-release failed",
				zap.Int64("transaction_id", tx.ID), zap.Error(err))
		}
	}
}
