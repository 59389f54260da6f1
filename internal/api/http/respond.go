// Package http maps domain failures onto HTTP responses shared by every
// handler: validation 400, capacity and balance 422, authorization 403,
// missing records 404, lifecycle and timing conflicts 409.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	accounting "tbill-market/internal/accounting/domain"
	"tbill-market/internal/auth"
	bills "tbill-market/internal/bills/domain"
	"tbill-market/internal/payments"
	repomarket "tbill-market/internal/repomarket/domain"
	series "tbill-market/internal/series/domain"
)

// RespondJSON writes a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError maps a domain error onto an HTTP status with a JSON body.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	RespondJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, bills.ErrNotOperator):
		return http.StatusForbidden

	case errors.Is(err, series.ErrSeriesNotFound),
		errors.Is(err, repomarket.ErrPositionNotFound):
		return http.StatusNotFound

	case errors.Is(err, series.ErrSeriesExists),
		errors.Is(err, series.ErrInvalidStatus),
		errors.Is(err, series.ErrSeriesNotActive),
		errors.Is(err, series.ErrSeriesNotMatured),
		errors.Is(err, repomarket.ErrInvalidStatus),
		errors.Is(err, repomarket.ErrDeadlinePassed),
		errors.Is(err, repomarket.ErrDeadlineNotPassed):
		return http.StatusConflict

	case errors.Is(err, series.ErrExceedsSeriesCap),
		errors.Is(err, series.ErrExceedsUserCap),
		errors.Is(err, repomarket.ErrExceedsMaxCash),
		errors.Is(err, bills.ErrInsufficientBalance),
		errors.Is(err, payments.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity

	case errors.Is(err, series.ErrInvalidAmount),
		errors.Is(err, series.ErrInvalidTimestamp),
		errors.Is(err, series.ErrInvalidIssuePrice),
		errors.Is(err, series.ErrInvalidCapAmounts),
		errors.Is(err, series.ErrEmptySeriesID),
		errors.Is(err, bills.ErrInvalidAmount),
		errors.Is(err, bills.ErrInvalidParty),
		errors.Is(err, bills.ErrEmptySeriesID),
		errors.Is(err, repomarket.ErrInvalidAmount),
		errors.Is(err, repomarket.ErrInvalidDeadline),
		errors.Is(err, repomarket.ErrInvalidBasisPoints),
		errors.Is(err, payments.ErrInvalidAmount),
		errors.Is(err, accounting.ErrInvalidAmount):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
