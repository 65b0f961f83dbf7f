package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Proxy modes
const (
	ProxyAsk = "ask"
	ProxyOn  = "on"
	ProxyOff = "off"
)

// Config application configuration
type Config struct {
	// API
	BaseURL        string        `env:"API_BASE_URL" envDefault:"https://zero-api.kaisar.io/"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0s"` // 0 disables the client timeout

	// Accounts
	AccountsFile string `env:"ACCOUNTS_FILE" envDefault:"data.txt"`
	ProxyMode    string `env:"PROXY_MODE" envDefault:"ask"` // "ask", "on" or "off"

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/zeronode.db"`

	// Scheduler
	PingInterval     time.Duration `env:"PING_INTERVAL" envDefault:"1m"`
	DailyInterval    time.Duration `env:"DAILY_INTERVAL" envDefault:"24h"`
	MiningRetries    int           `env:"MINING_RETRIES" envDefault:"3"`
	MiningRetryDelay time.Duration `env:"MINING_RETRY_DELAY" envDefault:"5s"`

	// Telegram notifications (optional)
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// Reports
	ReportSchedule    string        `env:"REPORT_SCHEDULE" envDefault:"@every 1h"`
	ActivityRetention time.Duration `env:"ACTIVITY_RETENTION" envDefault:"168h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// TelegramEnabled returns true if Telegram notifications are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that struct tags cannot express
func (c *Config) Validate() error {
	switch c.ProxyMode {
	case ProxyAsk, ProxyOn, ProxyOff:
	default:
		return fmt.Errorf("PROXY_MODE must be one of ask, on, off, got %q", c.ProxyMode)
	}

	if c.PingInterval <= 0 {
		return fmt.Errorf("PING_INTERVAL must be positive, got %s", c.PingInterval)
	}
	if c.DailyInterval <= 0 {
		return fmt.Errorf("DAILY_INTERVAL must be positive, got %s", c.DailyInterval)
	}
	if c.MiningRetries < 0 {
		return fmt.Errorf("MINING_RETRIES must not be negative, got %d", c.MiningRetries)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}

	return nil
}
