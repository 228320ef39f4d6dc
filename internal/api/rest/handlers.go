package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
	"github.com/vetolabs/veto-backend/internal/domain/values"
	"github.com/vetolabs/veto-backend/internal/service/transfer"
	vaultsvc "github.com/vetolabs/veto-backend/internal/service/vault"
)

// TransferService is the submission surface the API exposes
type TransferService interface {
	SubmitTransfer(ctx context.Context, req transfer.SubmitRequest) (*transfer.Outcome, error)
}

// Handler serves the VETO HTTP API
type Handler struct {
	transfers TransferService
	vault     vaultsvc.Service
	validate  *validator.Validate
	logger    *slog.Logger
	health    func(ctx context.Context) error
}

// NewHandler creates the API handler. health is invoked by the health
// endpoint and may be nil.
func NewHandler(transfers TransferService, vault vaultsvc.Service, logger *slog.Logger, health func(ctx context.Context) error) *Handler {
	return &Handler{
		transfers: transfers,
		vault:     vault,
		validate:  validator.New(),
		logger:    logger,
		health:    health,
	}
}

// RegisterRoutes wires all endpoints onto the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/transfers", h.handleSubmitTransfer)
	mux.HandleFunc("GET /api/v1/vault/transactions/{id}", h.handleGetTransaction)
	mux.HandleFunc("POST /api/v1/vault/transactions/{id}/recall", h.handleRecall)
	mux.HandleFunc("POST /api/v1/vault/transactions/{id}/release", h.handleRelease)
	mux.HandleFunc("GET /api/v1/vault/users/{address}/transactions", h.handleUserTransactions)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func (h *Handler) handleSubmitTransfer(w http.ResponseWriter, r *http.Request) {
	var req SubmitTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sender, err := values.NewAddress(req.Sender)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	receiver, err := values.NewAddress(req.Receiver)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	amount, err := values.NewMoneyFromString(req.Amount, req.Token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	submitReq := transfer.SubmitRequest{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
	}
	if req.ReviewSeconds != nil {
		d := time.Duration(*req.ReviewSeconds * float64(time.Second))
		submitReq.ReviewDuration = &d
	}

	outcome, err := h.transfers.SubmitTransfer(r.Context(), submitReq)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := SubmitTransferResponse{
		Status: string(outcome.Status),
		Risk:   newRiskResponse(outcome.Assessment),
	}
	if outcome.Status == transfer.OutcomeLocked {
		id := outcome.TransactionID
		resp.TransactionID = &id
		if tx, err := h.vault.GetTransaction(r.Context(), id); err == nil {
			unlock := tx.UnlockTime
			resp.UnlockTime = &unlock
		}
	}

	status := http.StatusOK
	if outcome.Status == transfer.OutcomeLocked {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tx, err := h.vault.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (h *Handler) handleRecall(w http.ResponseWriter, r *http.Request) {
	h.handleVaultAction(w, r, h.vault.RecallFunds)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleVaultAction(w, r, h.vault.ReleaseFunds)
}

func (h *Handler) handleVaultAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64, caller values.Address) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req VaultActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	caller, err := values.NewAddress(req.Caller)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := action(r.Context(), id, caller); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tx, err := h.vault.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (h *Handler) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	addr, err := values.NewAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	txs, err := h.vault.GetUserTransactions(r.Context(), addr)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, newTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, h.logger,
			domainerrors.NewValidationError("INVALID_ID", "transaction id must be a positive integer"))
		return 0, false
	}
	return id, true
}
