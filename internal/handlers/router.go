package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mW "github.com/ruralpay/ledger/internal/middleware"
)

// RouterConfig collects what NewRouter mounts.
type RouterConfig struct {
	Auth         *AuthHandler
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Verifier     mW.TokenVerifier

	DefaultLimiter mW.Limiter
	TokenLimiter   mW.Limiter

	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Group(func(r chi.Router) {
		if cfg.DefaultLimiter != nil {
			r.Use(mW.RateLimit(cfg.DefaultLimiter, "default"))
		}

		token := r.With()
		if cfg.TokenLimiter != nil {
			token = r.With(mW.RateLimit(cfg.TokenLimiter, "token"))
		}
		token.Post("/auth/token", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(mW.Authenticate(cfg.Verifier))

			r.Post("/accounts/", cfg.Accounts.Create)
			r.Get("/accounts/", cfg.Accounts.List)
			r.Get("/accounts/{id}/transactions", cfg.Accounts.ListTransactions)

			r.Post("/transactions/", cfg.Transactions.Create)
		})
	})

	return r
}
