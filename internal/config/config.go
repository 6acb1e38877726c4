package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the brokerage backend.
type Config struct {
	Port     int
	LogLevel string

	// Market session: wall-clock open/close as "HH:MM" on trading
	// weekdays, checked at SessionCheckInterval.
	MarketOpen           string
	MarketClose          string
	SessionCheckInterval time.Duration

	// Liquidity provider: standing order volume and half-spread in
	// basis points around each reference price.
	MakerVolume    int64
	MakerSpreadBps int64

	// SeedSymbols is the listed universe with static reference prices,
	// as "SYMBOL:price,SYMBOL:price" in dollars.
	SeedSymbols map[string]int64

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	marketOpen := getStr("MARKET_OPEN", "09:00")
	marketClose := getStr("MARKET_CLOSE", "17:00")

	sessionCheckInterval, err := getDuration("SESSION_CHECK_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_CHECK_INTERVAL: %w", err)
	}

	makerVolume, err := getInt64("MAKER_VOLUME", 20000)
	if err != nil {
		return nil, fmt.Errorf("invalid MAKER_VOLUME: %w", err)
	}
	if makerVolume <= 0 {
		return nil, fmt.Errorf("MAKER_VOLUME must be > 0")
	}

	makerSpreadBps, err := getInt64("MAKER_SPREAD_BPS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid MAKER_SPREAD_BPS: %w", err)
	}
	if makerSpreadBps < 0 {
		return nil, fmt.Errorf("MAKER_SPREAD_BPS must be >= 0")
	}

	seedSymbols, err := parseSeedSymbols(getStr("SEED_SYMBOLS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_SYMBOLS: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                 port,
		LogLevel:             logLevel,
		MarketOpen:           marketOpen,
		MarketClose:          marketClose,
		SessionCheckInterval: sessionCheckInterval,
		MakerVolume:          makerVolume,
		MakerSpreadBps:       makerSpreadBps,
		SeedSymbols:          seedSymbols,
		ReadTimeout:          readTimeout,
		WriteTimeout:         writeTimeout,
		IdleTimeout:          idleTimeout,
		ShutdownTimeout:      shutdownTimeout,
	}, nil
}

// parseSeedSymbols parses "AAPL:150.00,MSFT:300.00" into symbol →
// price in cents. An empty input yields an empty universe.
func parseSeedSymbols(s string) (map[string]int64, error) {
	result := make(map[string]int64)
	if strings.TrimSpace(s) == "" {
		return result, nil
	}
	for _, pair := range strings.Split(s, ",") {
		sym, priceStr, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || sym == "" {
			return nil, fmt.Errorf("expected SYMBOL:price, got %q", pair)
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", sym, err)
		}
		if price <= 0 {
			return nil, fmt.Errorf("price for %s must be > 0", sym)
		}
		if _, dup := result[sym]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", sym)
		}
		// Round to cents; reference prices finer than a cent aren't
		// representable.
		result[sym] = int64(price*100 + 0.5)
	}
	return result, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
