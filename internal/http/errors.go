// Package httpapi exposes the storefront over HTTP: server-rendered pages,
// a JSON API and the operational endpoints.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/fairyhunter13/hampers-storefront/internal/checkout"
	"github.com/fairyhunter13/hampers-storefront/internal/nav"
	"github.com/fairyhunter13/hampers-storefront/internal/storefront"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps domain errors to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, storefront.ErrUnknownProduct):
		return http.StatusNotFound, "unknown_product"
	case errors.Is(err, nav.ErrUnknownPage):
		return http.StatusBadRequest, "unknown_page"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, checkout.ErrMissingName), errors.Is(err, checkout.ErrMissingAddress):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logFor(r).WithError(err).Error("request_failed")
		WriteJSONError(w, status, code, "")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
