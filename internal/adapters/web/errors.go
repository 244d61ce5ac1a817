package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-pos/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service-layer errors to HTTP status codes: input and
// business-rule rejections are 400, missing documents 404, retryable database
// conflicts 409, everything else 500 with the detail kept out of the response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		stockErr      *core.InsufficientStockError
		notInBillErr  *core.ItemNotInBillError
		excessErr     *core.ExcessReturnError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, validationErr.Message, "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrNegativeGrandTotal):
		writeError(w, r, err.Error(), "NEGATIVE_GRAND_TOTAL", http.StatusBadRequest)
	case errors.As(err, &stockErr):
		writeError(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusBadRequest)
	case errors.As(err, &notInBillErr):
		writeError(w, r, notInBillErr.Error(), "ITEM_NOT_IN_BILL", http.StatusBadRequest)
	case errors.As(err, &excessErr):
		writeError(w, r, excessErr.Error(), "EXCESS_RETURN", http.StatusBadRequest)
	case core.IsNotFound(err):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.IsConcurrencyConflict(err):
		writeError(w, r, "concurrent modification detected, retry the operation", "CONFLICT", http.StatusConflict)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
