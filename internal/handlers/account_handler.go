package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/models"
)

// Ledger is the account side of the core used by AccountHandler.
type Ledger interface {
	CreateAccount(ctx context.Context, ownerID int64) (*models.Account, error)
	ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error)
	ListAccountTransactions(ctx context.Context, ownerID, accountID int64) ([]models.Transaction, error)
}

type AccountHandler struct {
	ledger Ledger
}

func NewAccountHandler(ledger Ledger) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Create opens an account for the caller
// @Summary Create account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Account
// @Failure 401 {object} ErrorResponse
// @Router /accounts/ [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), user.ID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// List returns the caller's accounts
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Account
// @Failure 401 {object} ErrorResponse
// @Router /accounts/ [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
		return
	}

	accounts, err := h.ledger.ListAccounts(r.Context(), user.ID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// ListTransactions returns an owned account's transactions, oldest first
// @Summary List account transactions
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {array} models.Transaction
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id}/transactions [get]
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
		return
	}

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	txs, err := h.ledger.ListAccountTransactions(r.Context(), user.ID, accountID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
