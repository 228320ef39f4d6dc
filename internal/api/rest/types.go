package rest

import (
	"time"

	"github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/service/risk"
)

// SubmitTransferRequest is the payload for POST /api/v1/transfers
type SubmitTransferRequest struct {
	Sender   string `json:"sender" validate:"required,eth_addr"`
	Receiver string `json:"receiver" validate:"required,eth_addr"`
	Amount   string `json:"amount" validate:"required"`
	Token    string `json:"token" validate:"required,oneof=MNEE USDC USDT"`
	// ReviewSeconds is how long the sender had the confirmation screen
	// open before submitting, when the client reports it
	ReviewSeconds *float64 `json:"review_seconds,omitempty" validate:"omitempty,gte=0"`
}

// VaultActionRequest is the payload for recall and release calls
type VaultActionRequest struct {
	Caller string `json:"caller" validate:"required,eth_addr"`
}

// RiskResponse describes an assessment in API responses
type RiskResponse struct {
	Level             string   `json:"level"`
	Score             int      `json:"score"`
	Patterns          []string `json:"patterns"`
	VaultDelaySeconds int64    `json:"vault_delay_seconds"`
	Explanation       string   `json:"explanation"`
}

// SubmitTransferResponse is the result of a transfer submission
type SubmitTransferResponse struct {
	Status        string       `json:"status"`
	TransactionID *int64       `json:"transaction_id,omitempty"`
	UnlockTime    *time.Time   `json:"unlock_time,omitempty"`
	Risk          RiskResponse `json:"risk"`
}

// TransactionResponse is the API form of an escrow transaction
type TransactionResponse struct {
	ID         int64      `json:"id"`
	Sender     string     `json:"sender"`
	Receiver   string     `json:"receiver"`
	Amount     string     `json:"amount"`
	Token      string     `json:"token"`
	UnlockTime time.Time  `json:"unlock_time"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRiskResponse(a *risk.Assessment) RiskResponse {
	patterns := make([]string, 0, len(a.Patterns))
	for _, p := range a.Patterns {
		patterns = append(patterns, string(p))
	}
	return RiskResponse{
		Level:             a.Level.String(),
		Score:             a.Score,
		Patterns:          patterns,
		VaultDelaySeconds: a.VaultDelaySeconds(),
		Explanation:       a.Explanation,
	}
}

func newTransactionResponse(t vault.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         t.ID,
		Sender:     t.Sender.String(),
		Receiver:   t.Receiver.String(),
		Amount:     t.Amount.Amount().String(),
		Token:      t.Amount.Token(),
		UnlockTime: t.UnlockTime,
		Status:     t.Status.String(),
		Reason:     t.Reason,
		CreatedAt:  t.CreatedAt,
		ResolvedAt: t.ResolvedAt,
	}
}
