// Package blockchain adapts the external ledger node API to the domain
// interfaces. Profiles are read from the node's wallet endpoint; transfers
// are submitted as signed movements between addresses.
package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/domain/wallet"
)

// Client talks to the ledger node over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a ledger node client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type profileResponse struct {
	Address          string  `json:"address"`
	TransactionCount int     `json:"transaction_count"`
	WalletAgeDays    int     `json:"wallet_age_days"`
	Balance          string  `json:"balance"`
	Token            string  `json:"token"`
	KnownScammer     bool    `json:"known_scammer"`
	RiskNotes        *string `json:"risk_notes,omitempty"`
}

// Fetch resolves the observable history of a wallet address.
func (c *Client) Fetch(ctx context.Context, addr values.Address) (*wallet.Profile, error) {
	url := fmt.Sprintf("%s/v1/wallets/%s", c.baseURL, addr.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewProfileUnavailableError("wallet profile request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProfileUnavailableError(
			fmt.Sprintf("wallet profile request returned status %d", resp.StatusCode))
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, errors.NewProfileUnavailableError("decoding wallet profile response").WithCause(err)
	}

	token := pr.Token
	if token == "" {
		token = values.MNEE
	}
	balance, err := values.NewMoneyFromString(pr.Balance, token)
	if err != nil {
		return nil, errors.NewProfileUnavailableError("invalid balance in wallet profile").WithCause(err)
	}

	return wallet.NewProfile(addr, pr.TransactionCount, pr.WalletAgeDays, balance, pr.KnownScammer)
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

// Transfer submits a token movement between two addresses. The node
// applies it atomically; a non-2xx response means no funds moved.
func (c *Client) Transfer(ctx context.Context, from, to values.Address, amount values.Money) error {
	body, err := json.Marshal(transferRequest{
		From:   from.String(),
		To:     to.String(),
		Amount: amount.Amount().String(),
		Token:  amount.Token(),
	})
	if err != nil {
		return fmt.Errorf("encoding transfer request: %w", err)
	}

	url := c.baseURL + "/v1/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewExternalError("ledger", "transfer request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ledger transfer rejected",
			zap.String("from", from.Short()),
			zap.String("to", to.Short()),
			zap.Int("status", resp.StatusCode))
		return errors.NewExternalError("ledger",
			fmt.Sprintf("transfer returned status %d", resp.StatusCode))
	}

	return nil
}
