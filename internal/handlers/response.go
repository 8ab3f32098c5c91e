package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ruralpay/ledger/internal/services"
)

const maxBodyBytes = 1_048_576

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

// sendServiceError maps a core error onto its HTTP status.
func sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		SendErrorResponse(w, "Account not found.", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrForbidden):
		SendErrorResponse(w, "Not enough permissions", http.StatusForbidden, nil)
	case errors.Is(err, services.ErrInsufficientFunds):
		SendErrorResponse(w, "Insufficient funds", http.StatusConflict, nil)
	case errors.Is(err, services.ErrInvalidAmount):
		SendErrorResponse(w, "Invalid amount: must be non-zero, below 10^18 and have at most two decimal places", http.StatusBadRequest, nil)
	case services.KindOf(err) == services.KindAuth:
		w.Header().Set("WWW-Authenticate", "Bearer")
		SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
	default:
		log.Printf("[HTTP] Service unavailable: %v", err)
		SendErrorResponse(w, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	}
}
