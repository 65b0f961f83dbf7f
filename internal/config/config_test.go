package config

import (
	"os"
	"testing"
	"time"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PingInterval != time.Minute {
		t.Errorf("PingInterval = %s, want 1m", cfg.PingInterval)
	}
	if cfg.DailyInterval != 24*time.Hour {
		t.Errorf("DailyInterval = %s, want 24h", cfg.DailyInterval)
	}
	if cfg.MiningRetries != 3 {
		t.Errorf("MiningRetries = %d, want 3", cfg.MiningRetries)
	}
	if cfg.MiningRetryDelay != 5*time.Second {
		t.Errorf("MiningRetryDelay = %s, want 5s", cfg.MiningRetryDelay)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("RequestTimeout = %s, want 0", cfg.RequestTimeout)
	}
	if cfg.ProxyMode != ProxyAsk {
		t.Errorf("ProxyMode = %q, want %q", cfg.ProxyMode, ProxyAsk)
	}
	if cfg.AccountsFile != "data.txt" {
		t.Errorf("AccountsFile = %q, want data.txt", cfg.AccountsFile)
	}
	if cfg.TelegramEnabled() {
		t.Error("TelegramEnabled() = true without token")
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PING_INTERVAL", "30s")
	t.Setenv("PROXY_MODE", "on")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %s, want 30s", cfg.PingInterval)
	}
	if cfg.ProxyMode != ProxyOn {
		t.Errorf("ProxyMode = %q, want on", cfg.ProxyMode)
	}
	if !cfg.TelegramEnabled() {
		t.Error("TelegramEnabled() = false with token and chat id")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad proxy mode", func(c *Config) { c.ProxyMode = "maybe" }, true},
		{"zero ping interval", func(c *Config) { c.PingInterval = 0 }, true},
		{"zero daily interval", func(c *Config) { c.DailyInterval = 0 }, true},
		{"negative retries", func(c *Config) { c.MiningRetries = -1 }, true},
		{"zero retries", func(c *Config) { c.MiningRetries = 0 }, false},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ProxyMode:     ProxyAsk,
				PingInterval:  time.Minute,
				DailyInterval: 24 * time.Hour,
				MiningRetries: 3,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
