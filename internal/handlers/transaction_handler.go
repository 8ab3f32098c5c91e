package handlers

import (
	"context"
	"net/http"

	"github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Engine applies signed amounts to accounts.
type Engine interface {
	CreateTransaction(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*models.Transaction, error)
}

type TransactionHandler struct {
	engine    Engine
	validator *ValidationHelper
}

func NewTransactionHandler(engine Engine) *TransactionHandler {
	return &TransactionHandler{
		engine:    engine,
		validator: NewValidationHelper(),
	}
}

type createTransactionRequest struct {
	AccountID int64            `json:"account_id" validate:"required,gt=0"`
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
}

// Create deposits (positive amount) or withdraws (negative amount)
// @Summary Create transaction
// @Description Apply a signed amount to one of the caller's accounts
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createTransactionRequest true "Transaction request"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /transactions/ [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
		return
	}

	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	tx, err := h.engine.CreateTransaction(r.Context(), user.ID, req.AccountID, *req.Amount)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
