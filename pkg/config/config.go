// pkg/config/config.go
package config

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Accounts store (Postgres). Empty -> in-memory store for dev.
	DatabaseURL string

	// Default per-tenant data store endpoint. Defaults to DatabaseURL.
	StorageURL string

	// Managed-hosting mode: every account must carry its own storage URL.
	PerTenantRouting bool

	// Public endpoint identity baked into report keys.
	Endpoint string

	// AES-128 key protecting report key contents (32 hex chars).
	APIPrivateKey []byte

	// Dashboard OIDC / JWT
	Issuer       string
	JWKSURL      string
	OIDCClientID string
	JWKSCacheTTL time.Duration

	// Redis account cache
	RedisURL        string
	AccountCacheTTL time.Duration

	// Optional YAML file with dev seed accounts.
	AccountSeedFile string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("RESDEX_ENV", "dev"),
		HTTPAddr:         env("RESDEX_HTTP_ADDR", ":8080"),
		DatabaseURL:      env("DATABASE_URL", ""),
		StorageURL:       env("STORAGE_DATABASE_URL", ""),
		PerTenantRouting: envBool("PER_TENANT_ROUTING", false),
		Endpoint:         env("ENDPOINT", "resdex.localhost"),
		APIPrivateKey:    envKey("API_PRIVATE_KEY"),
		Issuer:           env("OIDC_ISSUER", ""),
		JWKSURL:          env("JWKS_URL", ""),
		OIDCClientID:     env("OIDC_CLIENT_ID", ""),
		JWKSCacheTTL:     envDur("JWKS_CACHE_TTL_SEC", 6*60*60) * time.Second,
		RedisURL:         env("REDIS_URL", ""),
		AccountCacheTTL:  envDur("ACCOUNT_CACHE_TTL_SEC", 300) * time.Second,
		AccountSeedFile:  env("ACCOUNT_SEED_FILE", ""),
	}
	if cfg.StorageURL == "" {
		cfg.StorageURL = cfg.DatabaseURL
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory account store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}

// envKey decodes a 16-byte hex key. Missing or malformed values return nil;
// report key auth refuses to start without one.
func envKey(k string) []byte {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	b, err := hex.DecodeString(v)
	if err != nil || len(b) != 16 {
		log.Printf("[WARN] %s is not 32 hex chars, ignoring", k)
		return nil
	}
	return b
}
