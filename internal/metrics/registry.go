package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Transfer metrics
	TransferSubmissions metric.Int64Counter
	TransfersSent       metric.Int64Counter
	TransfersLocked     metric.Int64Counter
	TransferFailures    metric.Int64Counter

	// Risk engine metrics
	AssessmentDuration metric.Float64Histogram
	RiskLevelCounter   metric.Int64Counter
	PatternCounter     metric.Int64Counter

	// Vault metrics
	VaultDeposits metric.Int64Counter
	VaultRecalls  metric.Int64Counter
	VaultReleases metric.Int64Counter
	VaultAmount   metric.Float64Histogram
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{meter: otel.Meter(meterName)}

	var err error

	if r.TransferSubmissions, err = r.meter.Int64Counter(
		"veto.transfer.submissions",
		metric.WithDescription("Transfer attempts submitted for risk assessment"),
	); err != nil {
		return nil, err
	}

	if r.TransfersSent, err = r.meter.Int64Counter(
		"veto.transfer.sent",
		metric.WithDescription("Transfers sent directly after a low-risk verdict"),
	); err != nil {
		return nil, err
	}

	if r.TransfersLocked, err = r.meter.Int64Counter(
		"veto.transfer.locked",
		metric.WithDescription("Transfers diverted into the vault escrow"),
	); err != nil {
		return nil, err
	}

	if r.TransferFailures, err = r.meter.Int64Counter(
		"veto.transfer.failures",
		metric.WithDescription("Transfer attempts that failed before a decision"),
	); err != nil {
		return nil, err
	}

	if r.AssessmentDuration, err = r.meter.Float64Histogram(
		"veto.risk.assessment_duration",
		metric.WithDescription("Risk assessment latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if r.RiskLevelCounter, err = r.meter.Int64Counter(
		"veto.risk.level",
		metric.WithDescription("Assessments by resulting risk level"),
	); err != nil {
		return nil, err
	}

	if r.PatternCounter, err = r.meter.Int64Counter(
		"veto.risk.pattern",
		metric.WithDescription("Fired fraud patterns by name"),
	); err != nil {
		return nil, err
	}

	if r.VaultDeposits, err = r.meter.Int64Counter(
		"veto.vault.deposits",
		metric.WithDescription("Escrow deposits created"),
	); err != nil {
		return nil, err
	}

	if r.VaultRecalls, err = r.meter.Int64Counter(
		"veto.vault.recalls",
		metric.WithDescription("Escrow transactions recalled by their sender"),
	); err != nil {
		return nil, err
	}

	if r.VaultReleases, err = r.meter.Int64Counter(
		"veto.vault.releases",
		metric.WithDescription("Escrow transactions released to their receiver"),
	); err != nil {
		return nil, err
	}

	if r.VaultAmount, err = r.meter.Float64Histogram(
		"veto.vault.amount",
		metric.WithDescription("Escrowed amounts by transition"),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RecordAssessment records a completed risk assessment
func (r *Registry) RecordAssessment(ctx context.Context, level string, patterns []string, seconds float64) {
	r.AssessmentDuration.Record(ctx, seconds)
	r.RiskLevelCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("level", level)))
	for _, p := range patterns {
		r.PatternCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", p)))
	}
}

// RecordVaultDeposit records a new escrow deposit
func (r *Registry) RecordVaultDeposit(ctx context.Context, amount float64) {
	r.VaultDeposits.Add(ctx, 1)
	r.VaultAmount.Record(ctx, amount, metric.WithAttributes(attribute.String("transition", "deposit")))
}

// RecordVaultRecall records a sender-initiated recall
func (r *Registry) RecordVaultRecall(ctx context.Context, amount float64) {
	r.VaultRecalls.Add(ctx, 1)
	r.VaultAmount.Record(ctx, amount, metric.WithAttributes(attribute.String("transition", "recall")))
}

// RecordVaultRelease records a completed release
func (r *Registry) RecordVaultRelease(ctx context.Context, amount float64) {
	r.VaultReleases.Add(ctx, 1)
	r.VaultAmount.Record(ctx, amount, metric.WithAttributes(attribute.String("transition", "release")))
}
