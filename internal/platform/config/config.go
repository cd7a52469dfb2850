// Package config reads skillchain server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	id "skillchain/pkg/domain"
)

// State backend names accepted by STATE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAddr              = ":8080"
	DefaultMaxMetadataLength = 128
	DefaultEventsTopic       = "skillchain.events"
	DefaultTokenIssuer       = "skillchain"
	DefaultTokenAudience     = "skillchain-api"
	DefaultTokenTTL          = 15 * time.Minute
	DefaultBlockInterval     = 6 * time.Second
	devSigningKey            = "dev-secret-key-change-in-production"
)

// Config is the full server configuration.
type Config struct {
	Environment string
	LogLevel    string
	Server      Server
	Ledger      Ledger
	State       State
	Kafka       Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenIssuer   string
	TokenAudience string
	TokenTTL      time.Duration
}

// Ledger configures call semantics.
type Ledger struct {
	MaxMetadataLength int
	BlockInterval     time.Duration
	// VerifierAccounts, when non-empty, restricts verify to these accounts.
	VerifierAccounts []id.AccountID
	// RequireExistingCredential rejects endorsements of ids that were never minted.
	RequireExistingCredential bool
	GenesisBalances           map[id.AccountID]id.Balance
}

// State selects and configures the state backend.
type State struct {
	Backend     string
	DatabaseURL string
	Database    DatabasePool
	Redis       RedisConfig
}

type DatabasePool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka is disabled when Brokers is empty; events then go to the log only.
type Kafka struct {
	Brokers []string
	Topic   string
}

// IsDev reports whether the server runs outside production.
func (c Config) IsDev() bool {
	return c.Environment != "production"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup. Malformed values are errors; unset values take defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		Environment: r.str("ENVIRONMENT", "development"),
		LogLevel:    r.str("LOG_LEVEL", "info"),
		Server: Server{
			Addr:          r.str("SKILLCHAIN_ADDR", DefaultAddr),
			JWTSigningKey: r.str("JWT_SIGNING_KEY", ""),
			TokenIssuer:   r.str("TOKEN_ISSUER", DefaultTokenIssuer),
			TokenAudience: r.str("TOKEN_AUDIENCE", DefaultTokenAudience),
			TokenTTL:      r.duration("TOKEN_TTL", DefaultTokenTTL),
		},
		Ledger: Ledger{
			MaxMetadataLength:         r.positiveInt("MAX_METADATA_LENGTH", DefaultMaxMetadataLength),
			BlockInterval:             r.duration("BLOCK_INTERVAL", DefaultBlockInterval),
			VerifierAccounts:          r.accounts("VERIFIER_ACCOUNTS"),
			RequireExistingCredential: r.boolean("REQUIRE_EXISTING_CREDENTIAL", false),
			GenesisBalances:           r.balances("GENESIS_BALANCES"),
		},
		State: State{
			Backend:     strings.ToLower(r.str("STATE_BACKEND", BackendMemory)),
			DatabaseURL: r.str("DATABASE_URL", ""),
			Database: DatabasePool{
				MaxOpenConns:    r.positiveInt("DB_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    r.positiveInt("DB_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			Redis: RedisConfig{
				URL:          r.str("REDIS_URL", ""),
				KeyPrefix:    r.str("REDIS_KEY_PREFIX", "skillchain:"),
				PoolSize:     r.positiveInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: r.positiveInt("REDIS_MIN_IDLE_CONNS", 2),
				DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
		},
		Kafka: Kafka{
			Brokers: r.list("KAFKA_BROKERS"),
			Topic:   r.str("EVENTS_TOPIC", DefaultEventsTopic),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}

	if cfg.Server.JWTSigningKey == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		// Use a default for development - should be overridden in production
		cfg.Server.JWTSigningKey = devSigningKey
	}

	switch cfg.State.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.State.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if cfg.State.Redis.URL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	default:
		return Config{}, fmt.Errorf("STATE_BACKEND %q is not one of memory, postgres, redis", cfg.State.Backend)
	}

	return cfg, nil
}

// reader keeps the first parse error so FromLookup can read every field in one pass.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) fail(key, value, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s=%q: want %s", key, value, want)
	}
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) positiveInt(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.fail(key, v, "a positive integer")
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		r.fail(key, v, "a non-negative duration")
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, "true or false")
		return def
	}
	return b
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) accounts(key string) []id.AccountID {
	var out []id.AccountID
	for _, s := range r.list(key) {
		account, err := id.ParseAccountID(s)
		if err != nil {
			r.fail(key, s, "comma separated account ids")
			return nil
		}
		out = append(out, account)
	}
	return out
}

// balances parses "alice=1000,bob=50". Repeated accounts are an error.
func (r *reader) balances(key string) map[id.AccountID]id.Balance {
	out := make(map[id.AccountID]id.Balance)
	for _, entry := range r.list(key) {
		name, amount, found := strings.Cut(entry, "=")
		if !found {
			r.fail(key, entry, "account=amount")
			return nil
		}
		account, err := id.ParseAccountID(name)
		if err != nil {
			r.fail(key, entry, "a valid account id")
			return nil
		}
		balance, err := id.ParseBalance(strings.TrimSpace(amount))
		if err != nil {
			r.fail(key, entry, "a non-negative integer amount")
			return nil
		}
		if _, dup := out[account]; dup {
			r.fail(key, entry, "each account at most once")
			return nil
		}
		out[account] = balance
	}
	return out
}
