package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_TransactionRequest(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("missing amount and account", func(t *testing.T) {
		err := vh.ValidateStruct(&createTransactionRequest{})
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("negative account id", func(t *testing.T) {
		var req createTransactionRequest
		require.NoError(t, json.Unmarshal([]byte(`{"account_id":-1,"amount":"5"}`), &req))

		err := vh.ValidateStruct(&req)
		assert.Error(t, err)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("without validation details", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Test error", http.StatusBadRequest, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Test error", resp.Error)
		assert.Nil(t, resp.Details)
	})

	t.Run("with validation details", func(t *testing.T) {
		err := NewValidationHelper().ValidateStruct(&loginRequest{Username: "alice"})

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Field Validation Failed on 'required' tag", resp.Details["Password"])
	})
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"single object", `{"account_id":1,"amount":"2.50"}`, true},
		{"unknown field", `{"account_id":1,"amount":"2.50","currency":"USD"}`, false},
		{"trailing object", `{"account_id":1,"amount":"2.50"} {}`, false},
		{"not json", `account_id=1`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/transactions/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var req createTransactionRequest
			assert.Equal(t, tt.ok, decodeJSON(w, r, &req))
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}
