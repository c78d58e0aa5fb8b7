package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Fees        FeeConfig
	Webhook     WebhookConfig
	Idempotency IdempotencyConfig
	RateLimit   RateLimitConfig
	Blockchain  BlockchainConfig
	Security    SecurityConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration for dashboard sessions
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// FeeConfig holds processing fee and settlement parameters
type FeeConfig struct {
	PercentBps      int64
	Fixed           int64
	SettlementDelay time.Duration
}

// WebhookConfig holds webhook delivery parameters
type WebhookConfig struct {
	ReplayWindow   time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
	PollInterval   time.Duration
	BatchSize      int
	// InboundSecrets maps external provider names to the shared secret
	// used to verify webhooks they send us.
	InboundSecrets map[string]string
}

// IdempotencyConfig holds idempotency key retention parameters
type IdempotencyConfig struct {
	Retention time.Duration
}

// RateLimitConfig holds per-key request rate limits
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

// BlockchainConfig holds blockchain RPC settings for crypto payments
type BlockchainConfig struct {
	BaseSepoliaRPC string
	BSCSepoliaRPC  string
	Confirmations  uint64
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	WebhookSecretEncryptionKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "defiant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Fees: FeeConfig{
			PercentBps:      getEnvAsInt64("FEE_PERCENT_BPS", 300),
			Fixed:           getEnvAsInt64("FEE_FIXED", 0),
			SettlementDelay: getEnvAsDuration("SETTLEMENT_DELAY", 2*24*time.Hour),
		},
		Webhook: WebhookConfig{
			ReplayWindow:   getEnvAsDuration("WEBHOOK_REPLAY_WINDOW", 5*time.Minute),
			MaxAttempts:    getEnvAsInt("WEBHOOK_MAX_ATTEMPTS", 5),
			BackoffBase:    getEnvAsDuration("WEBHOOK_BACKOFF_BASE", 30*time.Second),
			RequestTimeout: getEnvAsDuration("WEBHOOK_REQUEST_TIMEOUT", 10*time.Second),
			PollInterval:   getEnvAsDuration("WEBHOOK_POLL_INTERVAL", 15*time.Second),
			BatchSize:      getEnvAsInt("WEBHOOK_BATCH_SIZE", 50),
			InboundSecrets: getEnvAsMap("WEBHOOK_INBOUND_SECRETS"),
		},
		Idempotency: IdempotencyConfig{
			Retention: getEnvAsDuration("IDEMPOTENCY_RETENTION", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:            getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Blockchain: BlockchainConfig{
			BaseSepoliaRPC: getEnv("BASE_SEPOLIA_RPC_URL", "https://sepolia.base.org"),
			BSCSepoliaRPC:  getEnv("BSC_SEPOLIA_RPC_URL", "https://data-seed-prebsc-1-s1.binance.org:8545"),
			Confirmations:  uint64(getEnvAsInt("BLOCKCHAIN_CONFIRMATIONS", 3)),
		},
		Security: SecurityConfig{
			WebhookSecretEncryptionKey: getEnv("WEBHOOK_SECRET_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsMap parses "name=value,name2=value2" pairs. Malformed pairs are
// skipped.
func getEnvAsMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(os.Getenv(key), ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" || value == "" {
			continue
		}
		out[name] = value
	}
	return out
}
