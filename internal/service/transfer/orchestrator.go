package transfer

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/wallet"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/metrics"
	"github.com/vetolabs/veto-backend/internal/service/risk"
)

// Profile fetch retry policy. A failed fetch blocks the transfer rather
// than defaulting to a low risk verdict.
const (
	profileFetchTimeout  = 5 * time.Second
	profileFetchAttempts = 3
	profileFetchBackoff  = 200 * time.Millisecond
)

// historyLookback covers the widest detector window (penny drop, 24h)
const historyLookback = 24 * time.Hour

// Orchestrator is the single coordination point between the risk engine
// and the vault escrow: it scores each transfer, then either forwards the
// funds directly or deposits them into escrow.
type Orchestrator struct {
	scorer   *risk.Scorer
	fetcher  ProfileFetcher
	ledger   Ledger
	history  HistoryStore
	vault    Vault
	logger   *zap.Logger
	registry *metrics.Registry
}

// NewOrchestrator wires the orchestrator's collaborators. The orchestrator
// owns its references; there is no ambient shared state.
func NewOrchestrator(scorer *risk.Scorer, fetcher ProfileFetcher, ledger Ledger, history HistoryStore, vault Vault, logger *zap.Logger, registry *metrics.Registry) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		scorer:   scorer,
		fetcher:  fetcher,
		ledger:   ledger,
		history:  history,
		vault:    vault,
		logger:   logger,
		registry: registry,
	}
}

// SubmitTransfer assesses one outgoing transfer and settles it on exactly
// one path: direct send for low risk, escrow deposit otherwise.
func (o *Orchestrator) SubmitTransfer(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	if !req.Amount.IsPositive() {
		return nil, domainerrors.NewInvalidAmountError("transfer amount must be positive")
	}
	if req.Sender.IsZero() || req.Receiver.IsZero() {
		return nil, domainerrors.NewValidationError("INVALID_ADDRESS", "sender and receiver addresses are required")
	}

	start := time.Now()

	profile, err := o.fetchProfile(ctx, req.Receiver)
	if err != nil {
		o.countFailure(ctx)
		return nil, err
	}

	history, err := o.history.RecentTransfers(ctx, req.Sender, req.Receiver, historyLookback)
	if err != nil {
		// Detectors treat missing history as no match; an unavailable
		// history store must not block the transfer outright.
		o.logger.Warn("recent-transfer history unavailable",
			zap.String("sender", req.Sender.Short()), zap.Error(err))
		history = nil
	}

	assessment := o.scorer.Score(risk.DetectionInput{
		Sender:         req.Sender,
		Receiver:       req.Receiver,
		Amount:         req.Amount,
		Profile:        profile,
		History:        history,
		ReviewDuration: req.ReviewDuration,
		Now:            time.Now(),
	})

	if o.registry != nil {
		o.registry.TransferSubmissions.Add(ctx, 1)
		o.registry.RecordAssessment(ctx, assessment.Level.String(), patternNames(assessment.Patterns), time.Since(start).Seconds())
	}

	outcome, err := o.settle(ctx, req, assessment)
	if err != nil {
		o.countFailure(ctx)
		return nil, err
	}

	o.recordHistory(ctx, req)
	return outcome, nil
}

func (o *Orchestrator) settle(ctx context.Context, req SubmitRequest, assessment *risk.Assessment) (*Outcome, error) {
	if assessment.Level == risk.LevelLow {
		if err := o.ledger.Transfer(ctx, req.Sender, req.Receiver, req.Amount); err != nil {
			return nil, domainerrors.NewExternalError("ledger", "direct transfer failed").WithCause(err)
		}

		o.logger.Info("transfer sent directly",
			zap.String("sender", req.Sender.Short()),
			zap.String("receiver", req.Receiver.Short()),
			zap.String("amount", req.Amount.String()),
		)
		if o.registry != nil {
			o.registry.TransfersSent.Add(ctx, 1)
		}

		return &Outcome{Status: OutcomeSent, Assessment: assessment}, nil
	}

	id, err := o.vault.Deposit(ctx, req.Sender, req.Receiver, req.Amount, assessment.VaultDelay, assessment.Explanation)
	if err != nil {
		return nil, err
	}

	o.logger.Info("transfer locked into vault",
		zap.Int64("transaction_id", id),
		zap.String("sender", req.Sender.Short()),
		zap.String("receiver", req.Receiver.Short()),
		zap.String("risk_level", assessment.Level.String()),
		zap.Int("risk_score", assessment.Score),
	)
	if o.registry != nil {
		o.registry.TransfersLocked.Add(ctx, 1)
	}

	return &Outcome{Status: OutcomeLocked, TransactionID: id, Assessment: assessment}, nil
}

// fetchProfile retries the wallet data source a bounded number of times
// with backoff, then surfaces ProfileUnavailable. The transfer is neither
// sent nor locked on that path.
func (o *Orchestrator) fetchProfile(ctx context.Context, addr values.Address) (*wallet.Profile, error) {
	var lastErr error

	for attempt := 0; attempt < profileFetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := profileFetchBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, domainerrors.NewProfileUnavailableError("wallet data source unavailable").WithCause(ctx.Err())
			case <-time.After(backoff):
			}
		}

		fetchCtx, cancel := context.WithTimeout(ctx, profileFetchTimeout)
		profile, err := o.fetcher.Fetch(fetchCtx, addr)
		cancel()

		if err == nil {
			return profile, nil
		}
		lastErr = err
		o.logger.Warn("wallet profile fetch failed",
			zap.String("address", addr.Short()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, domainerrors.NewProfileUnavailableError("wallet data source unavailable").WithCause(lastErr)
}

func (o *Orchestrator) recordHistory(ctx context.Context, req SubmitRequest) {
	err := o.history.Record(ctx, wallet.TransferRecord{
		Sender:      req.Sender,
		Receiver:    req.Receiver,
		Amount:      req.Amount,
		SubmittedAt: time.Now(),
	})
	if err != nil {
		o.logger.Warn("could not record transfer history", zap.Error(err))
	}
}

func (o *Orchestrator) countFailure(ctx context.Context) {
	if o.registry != nil {
		o.registry.TransferFailures.Add(ctx, 1)
	}
}

func patternNames(patterns []risk.Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}
