package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Bot struct {
	Token             string `json:"token" yaml:"token"`
	AdminID           int64  `json:"admin_id" yaml:"admin_id"`
	AdminContact      string `json:"admin_contact" yaml:"admin_contact"`
	RestrictGroups    bool   `json:"restrict_groups" yaml:"restrict_groups"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	HandleTimeoutSec  int    `json:"handle_timeout_sec" yaml:"handle_timeout_sec"`
	MaxInFlight       int    `json:"max_in_flight" yaml:"max_in_flight"`
	BroadcastWorkers  int    `json:"broadcast_workers" yaml:"broadcast_workers"`
	// BroadcastTimeoutSec bounds one admin broadcast independently of the
	// update that started it.
	BroadcastTimeoutSec int `json:"broadcast_timeout_sec" yaml:"broadcast_timeout_sec"`
}

type Simulator struct {
	StartingCash  float64 `json:"starting_cash" yaml:"starting_cash"`
	OrderNotional float64 `json:"order_notional" yaml:"order_notional"`
}

type Display struct {
	IDRRate       float64  `json:"idr_rate" yaml:"idr_rate"`
	MarketSymbols []string `json:"market_symbols" yaml:"market_symbols"`
}

type CoinMarketCap struct {
	Enabled               bool   `json:"enabled" yaml:"enabled"`
	APIKey                string `json:"api_key" yaml:"api_key"`
	Endpoint              string `json:"endpoint" yaml:"endpoint"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	Burst                 int    `json:"burst" yaml:"burst"`
	MaxItemsPerRequest    int    `json:"max_items_per_request" yaml:"max_items_per_request"`
	MaxConcurrency        int    `json:"max_concurrency" yaml:"max_concurrency"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheMaxItems         int    `json:"cache_max_items" yaml:"cache_max_items"`
}

type Alternative struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	MaxConcurrency int    `json:"max_concurrency" yaml:"max_concurrency"`
	// ListingsTTLSeconds caches the coin catalogue used to resolve symbols.
	// 0 keeps to the built-in slug table.
	ListingsTTLSeconds int `json:"listings_ttl_sec" yaml:"listings_ttl_sec"`
	CacheTTLSeconds    int `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheMaxItems      int `json:"cache_max_items" yaml:"cache_max_items"`
}

type SyariahSaham struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

type DexScreener struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Chain    string `json:"chain" yaml:"chain"`
}

type Logging struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

type Config struct {
	Bot           Bot           `json:"bot" yaml:"bot"`
	Simulator     Simulator     `json:"simulator" yaml:"simulator"`
	Display       Display       `json:"display" yaml:"display"`
	CoinMarketCap CoinMarketCap `json:"coinmarketcap" yaml:"coinmarketcap"`
	Alternative   Alternative   `json:"alternative" yaml:"alternative"`
	SyariahSaham  SyariahSaham  `json:"syariahsaham" yaml:"syariahsaham"`
	DexScreener   DexScreener   `json:"dexscreener" yaml:"dexscreener"`
	Logging       Logging       `json:"logging" yaml:"logging"`
}

func Default() Config {
	return Config{
		Bot: Bot{
			AdminContact:        "@admin",
			RequestTimeoutSec:   10,
			HandleTimeoutSec:    30,
			MaxInFlight:         64,
			BroadcastWorkers:    8,
			BroadcastTimeoutSec: 600,
		},
		Simulator: Simulator{StartingCash: 10000, OrderNotional: 1000},
		Display: Display{
			IDRRate:       16000,
			MarketSymbols: []string{"BTC", "ETH", "SOL", "BNB", "XRP"},
		},
		CoinMarketCap: CoinMarketCap{
			Enabled:              true,
			Endpoint:             "https://pro-api.coinmarketcap.com",
			MaxRequestsPerMinute: 30,
			Burst:                5,
			MaxItemsPerRequest:   100,
			MaxConcurrency:       2,
			CacheTTLSeconds:      30,
			CacheMaxItems:        5000,
		},
		Alternative: Alternative{
			Enabled:            true,
			Endpoint:           "https://api.alternative.me",
			MaxConcurrency:     4,
			ListingsTTLSeconds: 3600,
			CacheTTLSeconds:    30,
			CacheMaxItems:      1000,
		},
		SyariahSaham: SyariahSaham{Enabled: true, Endpoint: "https://api.saham-syariah.id"},
		DexScreener:  DexScreener{Enabled: true, Endpoint: "https://api.dexscreener.com", Chain: "solana"},
		Logging:      Logging{Level: "info"},
	}
}

// Load reads config from path, JSON or YAML by extension. If path is empty,
// config.json or config.yaml in the working directory is used when present.
// Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate reports settings the bot cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required (TELEGRAM_BOT_TOKEN)"))
	}
	if c.Bot.RequestTimeoutSec <= 0 {
		errs = append(errs, errors.New("bot.request_timeout_sec must be positive"))
	}
	if c.Simulator.StartingCash < 0 {
		errs = append(errs, errors.New("simulator.starting_cash must not be negative"))
	}
	if c.Simulator.OrderNotional <= 0 {
		errs = append(errs, errors.New("simulator.order_notional must be positive"))
	}
	if c.Display.IDRRate <= 0 {
		errs = append(errs, errors.New("display.idr_rate must be positive"))
	}
	if c.CoinMarketCap.Enabled && c.CoinMarketCap.APIKey == "" {
		errs = append(errs, errors.New("coinmarketcap.enabled=true but CMC_API_KEY not set"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		var x int64
		fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			cfg.Bot.AdminID = x
		}
	}
	if v := os.Getenv("ADMIN_CONTACT"); v != "" {
		cfg.Bot.AdminContact = v
	}
	if v := os.Getenv("RESTRICT_GROUPS"); v != "" {
		if b, ok := parseBool(v); ok {
			cfg.Bot.RestrictGroups = b
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Bot.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("IDR_RATE"); v != "" {
		var x float64
		fmt.Sscanf(v, "%g", &x)
		if x > 0 {
			cfg.Display.IDRRate = x
		}
	}
	if v := os.Getenv("MARKET_SYMBOLS"); v != "" {
		cfg.Display.MarketSymbols = splitCSV(v)
	}
	if v := os.Getenv("STARTING_CASH"); v != "" {
		var x float64
		fmt.Sscanf(v, "%g", &x)
		if x > 0 {
			cfg.Simulator.StartingCash = x
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		if b, ok := parseBool(v); ok {
			cfg.Logging.Development = b
		}
	}

	if v := os.Getenv("CMC_API_KEY"); v != "" {
		cfg.CoinMarketCap.APIKey = v
	}
	if v := os.Getenv("CMC_ENABLED"); v != "" {
		if b, ok := parseBool(v); ok {
			cfg.CoinMarketCap.Enabled = b
		}
	}
	if v := os.Getenv("CMC_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.CoinMarketCap.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("CMC_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.CoinMarketCap.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("CMC_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.CoinMarketCap.Burst = x
		}
	}
	if v := os.Getenv("CMC_CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.CoinMarketCap.CacheTTLSeconds = x
		}
	}

	if v := os.Getenv("DEXSCREENER_CHAIN"); v != "" {
		cfg.DexScreener.Chain = v
	}
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
