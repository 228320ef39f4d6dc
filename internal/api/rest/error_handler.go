package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/vetolabs/veto-backend/internal/domain/errors"
)

// writeError renders any error as the uniform error payload. Domain errors
// carry their own HTTP status; everything else is a 500 with a generic
// message so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var resp ErrorResponse

	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		resp.Error.Code = appErr.Code
		resp.Error.Message = appErr.Message
		writeJSON(w, appErr.StatusCode, resp)
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		resp.Error.Code = "VALIDATION_FAILED"
		resp.Error.Message = validationErrs.Error()
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	logger.ErrorContext(r.Context(), "unhandled error",
		slog.String("path", r.URL.Path), slog.Any("error", err))

	resp.Error.Code = "INTERNAL_ERROR"
	resp.Error.Message = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	writeJSON(w, http.StatusBadRequest, resp)
}
