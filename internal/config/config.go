package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingSigningKey is returned when no JWT secret is configured.
var ErrMissingSigningKey = errors.New("jwt.secret_key is required")

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Argon2    Argon2Config
	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	CORS      CORSConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type StorageConfig struct {
	Driver  string // postgres or memory
	Timeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
	Issuer    string
}

type Argon2Config struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

type RateLimitConfig struct {
	DefaultPerMinute int
	TokenPerMinute   int
	Prefix           string
}

type LedgerConfig struct {
	HideForeignAccounts bool
	MaxRetries          int
	EventsQueue         string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// BootstrapConfig names a user created at startup when missing. Both fields
// empty disables it.
type BootstrapConfig struct {
	Username string
	Password string
}

var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.read_timeout":    "SERVER_READ_TIMEOUT",
	"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
	"server.request_timeout": "SERVER_REQUEST_TIMEOUT",

	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.name":              "DATABASE_NAME",
	"database.ssl_mode":          "DATABASE_SSL_MODE",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DATABASE_CONN_MAX_LIFETIME",
	"database.migrate":           "DATABASE_MIGRATE",

	"storage.driver":  "STORAGE_DRIVER",
	"storage.timeout": "STORAGE_TIMEOUT",

	"redis.enabled":  "REDIS_ENABLED",
	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key": "JWT_SECRET_KEY",
	"jwt.ttl":        "JWT_TTL",
	"jwt.issuer":     "JWT_ISSUER",

	"argon2.time":        "ARGON2_TIME",
	"argon2.memory":      "ARGON2_MEMORY",
	"argon2.threads":     "ARGON2_THREADS",
	"argon2.key_length":  "ARGON2_KEY_LENGTH",
	"argon2.salt_length": "ARGON2_SALT_LENGTH",

	"ratelimit.default_per_minute": "RATELIMIT_DEFAULT_PER_MINUTE",
	"ratelimit.token_per_minute":   "RATELIMIT_TOKEN_PER_MINUTE",
	"ratelimit.prefix":             "RATELIMIT_PREFIX",

	"ledger.hide_foreign_accounts": "LEDGER_HIDE_FOREIGN_ACCOUNTS",
	"ledger.max_retries":           "LEDGER_MAX_RETRIES",
	"ledger.events_queue":          "LEDGER_EVENTS_QUEUE",

	"cors.allowed_origins": "CORS_ALLOWED_ORIGINS",

	"bootstrap.username": "BOOTSTRAP_USERNAME",
	"bootstrap.password": "BOOTSTRAP_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "transactions")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Minute*5)
	v.SetDefault("database.migrate", true)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.timeout", 5*time.Second)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.ttl", 30*time.Minute)
	v.SetDefault("jwt.issuer", "transactions-api")

	v.SetDefault("argon2.time", 1)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)
	v.SetDefault("argon2.key_length", 32)
	v.SetDefault("argon2.salt_length", 16)

	v.SetDefault("ratelimit.default_per_minute", 100)
	v.SetDefault("ratelimit.token_per_minute", 5)
	v.SetDefault("ratelimit.prefix", "ledger:rate_limit")

	v.SetDefault("ledger.hide_foreign_accounts", true)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.events_queue", "ledger:transaction_events")

	v.SetDefault("cors.allowed_origins", "*")

	v.SetDefault("bootstrap.username", "")
	v.SetDefault("bootstrap.password", "")
}

// Load reads configuration from an optional .env style file and the
// environment. Environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[CONFIG] Config file not found, using environment and defaults: %v", err)
		}
		// .env keys are UPPER_SNAKE; lift them onto the dotted keys below env precedence.
		for key, env := range envBindings {
			if fileKey := strings.ToLower(env); v.InConfig(fileKey) {
				v.SetDefault(key, v.Get(fileKey))
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			Migrate:         v.GetBool("database.migrate"),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(v.GetString("storage.driver")),
			Timeout: v.GetDuration("storage.timeout"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			TTL:       v.GetDuration("jwt.ttl"),
			Issuer:    v.GetString("jwt.issuer"),
		},
		Argon2: Argon2Config{
			Time:       v.GetUint32("argon2.time"),
			Memory:     v.GetUint32("argon2.memory"),
			Threads:    uint8(v.GetUint("argon2.threads")),
			KeyLength:  v.GetUint32("argon2.key_length"),
			SaltLength: v.GetInt("argon2.salt_length"),
		},
		RateLimit: RateLimitConfig{
			DefaultPerMinute: v.GetInt("ratelimit.default_per_minute"),
			TokenPerMinute:   v.GetInt("ratelimit.token_per_minute"),
			Prefix:           v.GetString("ratelimit.prefix"),
		},
		Ledger: LedgerConfig{
			HideForeignAccounts: v.GetBool("ledger.hide_foreign_accounts"),
			MaxRetries:          v.GetInt("ledger.max_retries"),
			EventsQueue:         v.GetString("ledger.events_queue"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		},
		Bootstrap: BootstrapConfig{
			Username: v.GetString("bootstrap.username"),
			Password: v.GetString("bootstrap.password"),
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return ErrMissingSigningKey
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL)
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive, got %s", c.Storage.Timeout)
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("ledger.max_retries must not be negative")
	}
	if (c.Bootstrap.Username == "") != (c.Bootstrap.Password == "") {
		return fmt.Errorf("bootstrap.username and bootstrap.password must be set together")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
