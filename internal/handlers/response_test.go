package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruralpay/ledger/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestSendServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", services.ErrAccountNotFound, http.StatusNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"insufficient funds", fmt.Errorf("withdraw: %w", services.ErrInsufficientFunds), http.StatusConflict},
		{"invalid amount", services.ErrInvalidAmount, http.StatusBadRequest},
		{"expired token", &services.AuthError{Kind: services.AuthExpired}, http.StatusUnauthorized},
		{"storage", &services.InfrastructureError{Op: "create transaction", Err: errors.New("conn reset")}, http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			sendServiceError(w, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotContains(t, w.Body.String(), "conn reset")
		})
	}
}
