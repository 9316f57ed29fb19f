package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketChart/internal/chart"
	"MarketChart/internal/session"
)

// DefaultTickers is the allow-list served when none is configured.
var DefaultTickers = []string{"AAPL", "MSFT", "TSLA", "AMZN", "GOOG", "META", "NVDA", "NFLX"}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		LogLevel        string        `yaml:"log_level"` // "dev" or "prod"
	} `yaml:"server"`
	Market struct {
		Timezone     string        `yaml:"timezone"`
		Open         string        `yaml:"open"`
		Close        string        `yaml:"close"`
		BucketWidth  time.Duration `yaml:"bucket_width"`
		MinBars      int           `yaml:"min_bars"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		Tickers      []string      `yaml:"tickers"`
	} `yaml:"market"`
	DataSource struct {
		Provider string `yaml:"provider"` // "yahoo", "vstrader", "mock"
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and config from a YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("MARKET_TIMEZONE"); v != "" {
		cfg.Market.Timezone = v
	}
	if v := os.Getenv("SUPPORTED_TICKERS"); v != "" {
		cfg.Market.Tickers = splitList(v)
	}
	if v := os.Getenv("MIN_BARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.MinBars = n
		}
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Market.FetchTimeout = d
		}
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		cfg.Schedule.DigestCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "prod"
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = session.DefaultTimezone
	}
	if cfg.Market.Open == "" {
		cfg.Market.Open = session.DefaultOpen
	}
	if cfg.Market.Close == "" {
		cfg.Market.Close = session.DefaultClose
	}
	if cfg.Market.BucketWidth == 0 {
		cfg.Market.BucketWidth = chart.DefaultBucket
	}
	if cfg.Market.MinBars == 0 {
		cfg.Market.MinBars = chart.DefaultMinBars
	}
	if cfg.Market.FetchTimeout == 0 {
		cfg.Market.FetchTimeout = 15 * time.Second
	}
	if len(cfg.Market.Tickers) == 0 {
		cfg.Market.Tickers = append([]string(nil), DefaultTickers...)
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "vstrader"
		}
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 10 16 * * 1-5"
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if _, err := c.Hours(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for vstrader")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Market.BucketWidth <= 0 || c.Market.BucketWidth > 24*time.Hour {
		return fmt.Errorf("market.bucket_width must be within (0, 24h]")
	}
	if c.Market.MinBars < 1 {
		return fmt.Errorf("market.min_bars must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Hours builds the trading-hours policy.
func (c *Config) Hours() (session.Hours, error) {
	h, err := session.NewHours(c.Market.Timezone, c.Market.Open, c.Market.Close)
	if err != nil {
		return session.Hours{}, fmt.Errorf("market hours: %w", err)
	}
	return h, nil
}

// ChartOptions returns the immutable engine configuration.
func (c *Config) ChartOptions() (chart.Options, error) {
	h, err := c.Hours()
	if err != nil {
		return chart.Options{}, err
	}
	return chart.Options{
		Hours:        h,
		Tickers:      append([]string(nil), c.Market.Tickers...),
		BucketWidth:  c.Market.BucketWidth,
		MinBars:      c.Market.MinBars,
		FetchTimeout: c.Market.FetchTimeout,
	}, nil
}

// TelegramEnabled reports whether digests and commands go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
