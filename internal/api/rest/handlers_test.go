package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	vaultdomain "github.com/vetolabs/veto-backend/internal/domain/vault"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/service/risk"
	"github.com/vetolabs/veto-backend/internal/service/transfer"
)

const (
	senderAddr   = "0x1111111111111111111111111111111111111111"
	receiverAddr = "0x2222222222222222222222222222222222222222"
)

type stubTransfers struct {
	outcome *transfer.Outcome
	err     error
}

func (s *stubTransfers) SubmitTransfer(context.Context, transfer.SubmitRequest) (*transfer.Outcome, error) {
	return s.outcome, s.err
}

type stubVault struct {
	tx        vaultdomain.Transaction
	txErr     error
	actionErr error
	list      []vaultdomain.Transaction
}

func (s *stubVault) Deposit(context.Context, values.Address, values.Address, values.Money, time.Duration, string) (int64, error) {
	return 0, nil
}

func (s *stubVault) RecallFunds(context.Context, int64, values.Address) error {
	return s.actionErr
}

func (s *stubVault) ReleaseFunds(context.Context, int64, values.Address) error {
	return s.actionErr
}

func (s *stubVault) GetTransaction(context.Context, int64) (vaultdomain.Transaction, error) {
	return s.tx, s.txErr
}

func (s *stubVault) GetUserTransactions(context.Context, values.Address) ([]vaultdomain.Transaction, error) {
	return s.list, nil
}

func newMux(t *testing.T, transfers TransferService, vault *stubVault) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(transfers, vault, logger, nil)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func pendingTx(t *testing.T) vaultdomain.Transaction {
	t.Helper()
	mock := &vaultdomain.MockClock{CurrentTime: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	vaultdomain.SetClock(mock)
	t.Cleanup(vaultdomain.ResetClock)

	tx, err := vaultdomain.NewTransaction(1,
		values.MustNewAddress(senderAddr), values.MustNewAddress(receiverAddr),
		values.MustNewMoneyFromFloat(18000, values.MNEE), time.Hour, "elevated risk")
	require.NoError(t, err)
	return *tx
}

func TestHandleSubmitTransfer_Sent(t *testing.T) {
	transfers := &stubTransfers{outcome: &transfer.Outcome{
		Status: transfer.OutcomeSent,
		Assessment: &risk.Assessment{
			Level: risk.LevelLow, Score: 0, Explanation: "no risk detected",
		},
	}}
	mux := newMux(t, transfers, &stubVault{})

	body := `{"sender":"` + senderAddr + `","receiver":"` + receiverAddr + `","amount":"500","token":"MNEE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SubmitTransferResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "sent", resp.Status)
	assert.Nil(t, resp.TransactionID)
	assert.Equal(t, "low", resp.Risk.Level)
	assert.Zero(t, resp.Risk.VaultDelaySeconds)
}

func TestHandleSubmitTransfer_Locked(t *testing.T) {
	tx := pendingTx(t)
	transfers := &stubTransfers{outcome: &transfer.Outcome{
		Status:        transfer.OutcomeLocked,
		TransactionID: 1,
		Assessment: &risk.Assessment{
			Level:      risk.LevelHigh,
			Score:      90,
			Patterns:   []risk.Pattern{risk.PatternFreshWallet, risk.PatternPennyDrop},
			VaultDelay: time.Hour,
		},
	}}
	mux := newMux(t, transfers, &stubVault{tx: tx})

	body := `{"sender":"` + senderAddr + `","receiver":"` + receiverAddr + `","amount":"18000","token":"MNEE","review_seconds":1.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var resp SubmitTransferResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "locked", resp.Status)
	require.NotNil(t, resp.TransactionID)
	assert.Equal(t, int64(1), *resp.TransactionID)
	assert.Equal(t, int64(3600), resp.Risk.VaultDelaySeconds)
	assert.Equal(t, []string{"fresh_wallet", "penny_drop"}, resp.Risk.Patterns)
	require.NotNil(t, resp.UnlockTime)
}

func TestHandleSubmitTransfer_Validation(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing sender", body: `{"receiver":"` + receiverAddr + `","amount":"5","token":"MNEE"}`},
		{name: "bad address", body: `{"sender":"nope","receiver":"` + receiverAddr + `","amount":"5","token":"MNEE"}`},
		{name: "unsupported token", body: `{"sender":"` + senderAddr + `","receiver":"` + receiverAddr + `","amount":"5","token":"DOGE"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestHandleSubmitTransfer_ProfileUnavailable(t *testing.T) {
	transfers := &stubTransfers{err: domainerrors.NewProfileUnavailableError("wallet data source unavailable")}
	mux := newMux(t, transfers, &stubVault{})

	body := `{"sender":"` + senderAddr + `","receiver":"` + receiverAddr + `","amount":"500","token":"MNEE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domainerrors.CodeProfileUnavailable, resp.Error.Code)
}

func TestHandleGetTransaction(t *testing.T) {
	tx := pendingTx(t)
	mux := newMux(t, &stubTransfers{}, &stubVault{tx: tx})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vault/transactions/1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp TransactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, senderAddr, resp.Sender)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "18000", resp.Amount)
	assert.Equal(t, "MNEE", resp.Token)
}

func TestHandleGetTransaction_NotFound(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{txErr: domainerrors.NewNotFoundError("vault transaction")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vault/transactions/42", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGetTransaction_BadID(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{})

	for _, id := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vault/transactions/"+id, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "id %q", id)
	}
}

func TestHandleRecall(t *testing.T) {
	tx := pendingTx(t)
	require.NoError(t, tx.Recall(values.MustNewAddress(senderAddr)))
	mux := newMux(t, &stubTransfers{}, &stubVault{tx: tx})

	body := `{"caller":"` + senderAddr + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vault/transactions/1/recall", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp TransactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "recalled", resp.Status)
	assert.NotNil(t, resp.ResolvedAt)
}

func TestHandleRecall_Unauthorized(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{
		actionErr: domainerrors.NewUnauthorizedError("only the sender can recall a pending transaction"),
	})

	body := `{"caller":"` + receiverAddr + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vault/transactions/1/recall", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleRelease_NotYetUnlocked(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{
		actionErr: domainerrors.NewNotYetUnlockedError("unlock time has not passed yet"),
	})

	body := `{"caller":"` + receiverAddr + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vault/transactions/1/release", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domainerrors.CodeNotYetUnlocked, resp.Error.Code)
}

func TestHandleUserTransactions(t *testing.T) {
	tx := pendingTx(t)
	mux := newMux(t, &stubTransfers{}, &stubVault{list: []vaultdomain.Transaction{tx}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vault/users/"+senderAddr+"/transactions", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []TransactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, int64(1), resp[0].ID)
}

func TestHandleHealth(t *testing.T) {
	mux := newMux(t, &stubTransfers{}, &stubVault{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
