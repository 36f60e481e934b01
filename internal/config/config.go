// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string        // e.g. "8080"
	BackofficePort       string        // e.g. "8081"
	Env                  string        // "development" | "production"
	ReadTimeout          time.Duration // default 10s
	WriteTimeout         time.Duration // default 10s
	BackofficeAPIKey     string        // owner credential; must be set in production
	BackofficeAllowedIPs string        // comma-separated IPs; "" = allow all
	AllowedOrigins       []string      // CORS origins allowed in production
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// JWTConfig holds bearer-token signing settings for ledger accounts.
type JWTConfig struct {
	AccessSecret string        // must be set
	AccessTTL    time.Duration // default 720h (30 days)
}

// ProtocolConfig holds the bonding-curve protocol constants.
type ProtocolConfig struct {
	ReferenceSymbol   string          // reference liquidity asset, e.g. "USDC"
	ReferenceDecimals int             // informational; amounts are base units
	ReserveSeed       decimal.Decimal // initial reference reserve per market (base units)
	TokenSupply       decimal.Decimal // initial MetaCoin reserve per market (base units)
	TokenizeFee       decimal.Decimal // flat tokenize fee when enabled (base units)
	WithdrawCooldown  time.Duration   // owner withdrawal cooldown, default 14 days
	OwnerAccount      string          // ledger address receiving owner withdrawals
	FaucetEnabled     bool            // dev-only mint endpoint
}

// FeeConfig holds the boot-time fee configuration. The owner can fully
// replace it at runtime via the back-office API.
type FeeConfig struct {
	TokenizeFeeEnabled bool
	StartingBp         int64
	DecayBp            int64
	DecayIntervalSec   int64
	FinalBp            int64
	DeployerBp         int64
	SellBp             int64
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	Protocol ProtocolConfig
	Fee      FeeConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must be set"))
	}
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}
	if c.IsProd() && c.Server.BackofficeAPIKey == "" {
		errs = append(errs, errors.New("BACKOFFICE_API_KEY must be set in production"))
	}
	if c.IsProd() && c.Protocol.FaucetEnabled {
		errs = append(errs, errors.New("FAUCET_ENABLED must be false in production"))
	}

	// Seed reserves define the curve; both sides must start strictly positive.
	if !c.Protocol.ReserveSeed.IsPositive() {
		errs = append(errs, fmt.Errorf("PROTOCOL_RESERVE_SEED must be > 0, got %s", c.Protocol.ReserveSeed))
	}
	if !c.Protocol.TokenSupply.IsPositive() {
		errs = append(errs, fmt.Errorf("PROTOCOL_TOKEN_SUPPLY must be > 0, got %s", c.Protocol.TokenSupply))
	}
	if c.Protocol.WithdrawCooldown <= 0 {
		errs = append(errs, errors.New("PROTOCOL_WITHDRAW_COOLDOWN must be > 0"))
	}
	if c.Protocol.OwnerAccount == "" {
		errs = append(errs, errors.New("PROTOCOL_OWNER_ACCOUNT must be set"))
	}

	// The decay interval is validated here and again in domain.FeeInfo so a
	// division by zero can never reach the fee query path.
	if c.Fee.DecayIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("FEE_DECAY_INTERVAL must be > 0 seconds, got %d", c.Fee.DecayIntervalSec))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:                 getEnv("SERVER_PORT", "8080"),
		BackofficePort:       getEnv("BACKOFFICE_PORT", "8081"),
		Env:                  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:          getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BackofficeAPIKey:     getEnv("BACKOFFICE_API_KEY", ""),
		BackofficeAllowedIPs: getEnv("BACKOFFICE_ALLOWED_IPS", ""),
		AllowedOrigins:       splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "metaswap"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── JWT ───────────────────────────────────────────────────────────────────
	cfg.JWT = JWTConfig{
		AccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		AccessTTL:    getDuration("JWT_ACCESS_TTL", 30*24*time.Hour),
	}

	// ── Protocol constants ────────────────────────────────────────────────────
	refDecimals, err := getInt("PROTOCOL_REFERENCE_DECIMALS", 6)
	if err != nil {
		return nil, fmt.Errorf("PROTOCOL_REFERENCE_DECIMALS: %w", err)
	}
	// Defaults: 10,000 USDC (6 dp) against 1,000,000 MetaCoins (18 dp).
	seed, err := getDecimal("PROTOCOL_RESERVE_SEED", "10000000000")
	if err != nil {
		return nil, fmt.Errorf("PROTOCOL_RESERVE_SEED: %w", err)
	}
	supply, err := getDecimal("PROTOCOL_TOKEN_SUPPLY", "1000000000000000000000000")
	if err != nil {
		return nil, fmt.Errorf("PROTOCOL_TOKEN_SUPPLY: %w", err)
	}
	tokenizeFee, err := getDecimal("PROTOCOL_TOKENIZE_FEE", "5000000")
	if err != nil {
		return nil, fmt.Errorf("PROTOCOL_TOKENIZE_FEE: %w", err)
	}

	cfg.Protocol = ProtocolConfig{
		ReferenceSymbol:   getEnv("PROTOCOL_REFERENCE_SYMBOL", "USDC"),
		ReferenceDecimals: refDecimals,
		ReserveSeed:       seed,
		TokenSupply:       supply,
		TokenizeFee:       tokenizeFee,
		WithdrawCooldown:  getDuration("PROTOCOL_WITHDRAW_COOLDOWN", 14*24*time.Hour),
		OwnerAccount:      getEnv("PROTOCOL_OWNER_ACCOUNT", "protocol:owner"),
		FaucetEnabled:     getEnv("FAUCET_ENABLED", "true") == "true",
	}

	// ── Fee defaults ──────────────────────────────────────────────────────────
	starting, err := getInt64("FEE_STARTING_BP", 9900)
	if err != nil {
		return nil, fmt.Errorf("FEE_STARTING_BP: %w", err)
	}
	decayBp, err := getInt64("FEE_DECAY_BP", 100)
	if err != nil {
		return nil, fmt.Errorf("FEE_DECAY_BP: %w", err)
	}
	interval, err := getInt64("FEE_DECAY_INTERVAL", 6)
	if err != nil {
		return nil, fmt.Errorf("FEE_DECAY_INTERVAL: %w", err)
	}
	final, err := getInt64("FEE_FINAL_BP", 100)
	if err != nil {
		return nil, fmt.Errorf("FEE_FINAL_BP: %w", err)
	}
	deployer, err := getInt64("FEE_DEPLOYER_BP", 1000)
	if err != nil {
		return nil, fmt.Errorf("FEE_DEPLOYER_BP: %w", err)
	}
	sell, err := getInt64("FEE_SELL_BP", 100)
	if err != nil {
		return nil, fmt.Errorf("FEE_SELL_BP: %w", err)
	}

	cfg.Fee = FeeConfig{
		TokenizeFeeEnabled: getEnv("FEE_TOKENIZE_ENABLED", "false") == "true",
		StartingBp:         starting,
		DecayBp:            decayBp,
		DecayIntervalSec:   interval,
		FinalBp:            final,
		DeployerBp:         deployer,
		SellBp:             sell,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

// splitList splits a comma-separated env value into trimmed non-empty parts.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// getDecimal parses an env var as an integer amount in base units. Amounts
// larger than int64 (18-decimal supplies) are expected, hence decimal.
func getDecimal(key, defaultVal string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", v)
	}
	if !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("amount %q must be an integer in base units", v)
	}
	return d, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}
