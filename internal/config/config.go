package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "MarketPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultRechargeTTL    = 30 * time.Minute
	defaultSweepInterval  = time.Minute

	defaultBuyerMinimum    = 1000
	defaultMerchantMinimum = 5000
	defaultSilverMinimum   = 100
	defaultBuyerFeeBps     = 0
	defaultMerchantFeeBps  = 100
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Withdrawal policy. Minimums are in minor units, fees in basis points
	// of the requested amount.
	BuyerWithdrawMin          int64
	MerchantWithdrawMin       int64
	BuyerSilverWithdrawMin    int64
	MerchantSilverWithdrawMin int64
	BuyerFeeBps               int64
	MerchantFeeBps            int64

	// Recharge lifecycle.
	RechargeTTL   time.Duration
	SweepInterval time.Duration

	// Shared HMAC secrets per payment channel.
	MomoCallbackSecret string
	CardCallbackSecret string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		RechargeTTL:    defaultRechargeTTL,
		SweepInterval:  defaultSweepInterval,

		BuyerWithdrawMin:          defaultBuyerMinimum,
		MerchantWithdrawMin:       defaultMerchantMinimum,
		BuyerSilverWithdrawMin:    defaultSilverMinimum,
		MerchantSilverWithdrawMin: defaultSilverMinimum,
		BuyerFeeBps:               defaultBuyerFeeBps,
		MerchantFeeBps:            defaultMerchantFeeBps,

		MomoCallbackSecret: os.Getenv("CALLBACK_SECRET_MOMO"),
		CardCallbackSecret: os.Getenv("CALLBACK_SECRET_CARD"),
	}

	durations := []struct {
		envVar string
		dst    *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"RECHARGE_TTL", &cfg.RechargeTTL},
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	amounts := []struct {
		envVar string
		dst    *int64
	}{
		{"WITHDRAW_MIN_BUYER", &cfg.BuyerWithdrawMin},
		{"WITHDRAW_MIN_MERCHANT", &cfg.MerchantWithdrawMin},
		{"WITHDRAW_MIN_BUYER_SILVER", &cfg.BuyerSilverWithdrawMin},
		{"WITHDRAW_MIN_MERCHANT_SILVER", &cfg.MerchantSilverWithdrawMin},
		{"WITHDRAW_FEE_BPS_BUYER", &cfg.BuyerFeeBps},
		{"WITHDRAW_FEE_BPS_MERCHANT", &cfg.MerchantFeeBps},
	}
	for _, a := range amounts {
		if v := os.Getenv(a.envVar); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", a.envVar, err)
			}
			if parsed < 0 {
				return Config{}, fmt.Errorf("%s must not be negative", a.envVar)
			}
			*a.dst = parsed
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// ChannelSecrets maps payment channel names to their shared HMAC secrets.
// Channels without a configured secret are left out so callbacks for them
// fail verification instead of verifying against an empty key.
func (c Config) ChannelSecrets() map[string]string {
	secrets := make(map[string]string, 2)
	if c.MomoCallbackSecret != "" {
		secrets["momo"] = c.MomoCallbackSecret
	}
	if c.CardCallbackSecret != "" {
		secrets["card"] = c.CardCallbackSecret
	}
	return secrets
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
