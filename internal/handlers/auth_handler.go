package handlers

import (
	"context"
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/ruralpay/ledger/internal/services"
)

// TokenIssuer exchanges a username and password for a bearer token.
type TokenIssuer interface {
	IssueToken(ctx context.Context, username, password string) (*services.Token, error)
}

type AuthHandler struct {
	auth      TokenIssuer
	validator *ValidationHelper
}

func NewAuthHandler(auth TokenIssuer) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: NewValidationHelper(),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=1024"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login issues a bearer token
// @Summary Issue access token
// @Description Exchange username and password (form or JSON) for a bearer token
// @Tags Auth
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !decodeJSON(w, r, &req) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			SendErrorResponse(w, "Invalid form body", http.StatusBadRequest, nil)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	token, err := h.auth.IssueToken(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthFailed) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			SendErrorResponse(w, "Incorrect username or password", http.StatusUnauthorized, nil)
			return
		}
		log.Printf("[AUTH] Token issuance failed: %v", err)
		sendServiceError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
}
