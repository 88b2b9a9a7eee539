package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Deriv.AppID != "1089" || cfg.Deriv.CandleCount != 120 {
		t.Errorf("deriv defaults = %+v", cfg.Deriv)
	}
	if cfg.Quota.FreeDailyLimit != 5 {
		t.Errorf("free limit = %d, want 5", cfg.Quota.FreeDailyLimit)
	}
	if cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %s", cfg.Redis.CacheTTL)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("expected bot_token validation error, got %v", err)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: from-file
  admin_ids: [1, 2]
deriv:
  candle_count: 200
  fetch_timeout: 5s
quota:
  free_daily_limit: 0
schedule:
  admin_report_cron: "0 30 8 * * *"
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_IDS", "10, 20,abc,")
	t.Setenv("LOG_TRACING_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	if !reflect.DeepEqual(cfg.Telegram.AdminIDs, []int64{10, 20}) {
		t.Errorf("admin ids = %v", cfg.Telegram.AdminIDs)
	}
	if cfg.Deriv.CandleCount != 200 || cfg.Deriv.FetchTimeout != 5*time.Second {
		t.Errorf("deriv = %+v", cfg.Deriv)
	}
	if cfg.Quota.FreeDailyLimit != 0 {
		t.Errorf("explicit zero limit overwritten: %d", cfg.Quota.FreeDailyLimit)
	}
	if cfg.Schedule.VIPSweepCron != "0 5 0 * * *" {
		t.Errorf("unset cron lost its default: %q", cfg.Schedule.VIPSweepCron)
	}
	if !cfg.Log.TracingEnabled {
		t.Error("tracing env override ignored")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !cfg.IsAdmin(20) || cfg.IsAdmin(1) {
		t.Error("IsAdmin should follow the env override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"few candles", func(c *Config) { c.Deriv.CandleCount = 30 }, "candle_count"},
		{"negative limit", func(c *Config) { c.Quota.FreeDailyLimit = -1 }, "free_daily_limit"},
		{"bad cron", func(c *Config) { c.Schedule.VIPSweepCron = "every day" }, "vip_sweep_cron"},
		{"negative retries", func(c *Config) { c.Deriv.MaxRetries = -1 }, "max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Telegram.BotToken = "x"
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestParseAdminIDs(t *testing.T) {
	if got := ParseAdminIDs(""); got != nil {
		t.Errorf("empty = %v", got)
	}
	if got := ParseAdminIDs("7,-3, 8"); !reflect.DeepEqual(got, []int64{7, 8}) {
		t.Errorf("got %v", got)
	}
}
