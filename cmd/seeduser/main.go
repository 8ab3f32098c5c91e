// Command seeduser creates a login for the ledger service in Postgres.
//
//	seeduser --username alice --password 's3cret'
//
// The password may also come from SEED_PASSWORD to keep it out of shell history.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/database"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", ".env", "path to the .env configuration file")
	username := pflag.StringP("username", "u", "", "username to create")
	password := pflag.StringP("password", "p", "", "password (defaults to $SEED_PASSWORD)")
	migrate := pflag.Bool("migrate", true, "apply schema migrations first")
	pflag.Parse()

	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *username == "" || *password == "" {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("seeduser needs storage.driver=postgres, got %s", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout*4)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	hasher := services.NewPasswordHasher(cfg.Argon2)
	user, err := services.ProvisionUser(ctx, store.NewPostgresUserStore(db), hasher, services.SystemClock{}, *username, *password)
	if errors.Is(err, services.ErrUserExists) {
		log.Fatalf("User %s already exists", *username)
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	log.Printf("Created user %d (%s)", user.ID, user.Username)
}
