package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/database"
	"github.com/ruralpay/ledger/internal/handlers"
	mW "github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/store"
)

const retryBackoff = 20 * time.Millisecond

type userStore interface {
	services.CredentialStore
	services.UserCreator
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	clock := services.SystemClock{}
	auditLogger := audit.NewLogger()

	users, ledgerStore, db := openStores(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	redisClient := database.OpenRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	hasher := services.NewPasswordHasher(cfg.Argon2)
	tokenService, err := services.NewTokenService(cfg.JWT, clock)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	authService, err := services.NewAuthService(users, tokenService, hasher, auditLogger, cfg.Storage.Timeout)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}

	if cfg.Bootstrap.Username != "" {
		_, err := services.ProvisionUser(ctx, users, hasher, clock, cfg.Bootstrap.Username, cfg.Bootstrap.Password)
		switch {
		case errors.Is(err, services.ErrUserExists):
			log.Printf("Bootstrap user %s already exists", cfg.Bootstrap.Username)
		case err != nil:
			log.Fatalf("Failed to create bootstrap user: %v", err)
		}
	}

	opts := services.LedgerOptions{
		StorageTimeout:      cfg.Storage.Timeout,
		HideForeignAccounts: cfg.Ledger.HideForeignAccounts,
		MaxRetries:          cfg.Ledger.MaxRetries,
		RetryBackoff:        retryBackoff,
	}

	var events services.EventPublisher
	if redisClient != nil {
		events = services.NewRedisEventPublisher(redisClient, cfg.Ledger.EventsQueue)
	}

	ledger := services.NewAccountLedger(ledgerStore, clock, opts)
	engine := services.NewTransactionEngine(ledgerStore, clock, opts, auditLogger, events)

	defaultLimiter, tokenLimiter, closeLimiters := newLimiters(redisClient, cfg.RateLimit)
	defer closeLimiters()

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService),
		Accounts:       handlers.NewAccountHandler(ledger),
		Transactions:   handlers.NewTransactionHandler(engine),
		Verifier:       authService,
		DefaultLimiter: defaultLimiter,
		TokenLimiter:   tokenLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (storage: %s)", cfg.Server.Port, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (userStore, services.LedgerStore, *sql.DB) {
	if cfg.Storage.Driver == "memory" {
		log.Println("Using in-memory storage; data is lost on restart")
		mem := store.NewMemoryStore()
		return mem, mem, nil
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
	return store.NewPostgresUserStore(db), store.NewPostgresLedgerStore(db), db
}

// newLimiters shares counters across replicas through Redis when available.
// The returned func stops the in-memory limiters' cleanup goroutines.
func newLimiters(client *redis.Client, cfg config.RateLimitConfig) (mW.Limiter, mW.Limiter, func()) {
	if client != nil {
		return mW.NewRedisLimiter(client, cfg.Prefix, cfg.DefaultPerMinute),
			mW.NewRedisLimiter(client, cfg.Prefix, cfg.TokenPerMinute),
			func() {}
	}
	defaultLimiter := mW.NewMemoryLimiter(cfg.DefaultPerMinute)
	tokenLimiter := mW.NewMemoryLimiter(cfg.TokenPerMinute)
	return defaultLimiter, tokenLimiter, func() {
		defaultLimiter.Close()
		tokenLimiter.Close()
	}
}
