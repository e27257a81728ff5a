package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/novapay/remit/internal/adapter/http/dto"
	"github.com/novapay/remit/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// internalErrorDetail is what clients see when the underlying failure
// is infrastructure, not their request. The real error stays in the
// logs and the transaction record.
const internalErrorDetail = "an internal error occurred, please retry later"

// writeDomainError maps err to a status and writes it, exposing the
// error text only when it is safe for clients.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)

	detail := internalErrorDetail
	if domain.IsUserFacing(err) || status != http.StatusInternalServerError {
		detail = err.Error()
	}

	writeError(w, status, message, detail)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWalletExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSameWallet),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCounterparty),
		errors.Is(err, domain.ErrUnsupportedCurrencyPair):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStaleRates):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRailAmbiguous):
		// The movement may still settle; the record stays pending.
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
