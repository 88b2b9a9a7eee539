package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/calculator"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken     string  `yaml:"bot_token"`
		AdminIDs     []int64 `yaml:"admin_ids"`
		OwnerContact string  `yaml:"owner_contact"`
	} `yaml:"telegram"`
	Deriv struct {
		URL          string        `yaml:"url"`
		AppID        string        `yaml:"app_id"`
		CandleCount  int           `yaml:"candle_count"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		MaxRetries   int           `yaml:"max_retries"`
	} `yaml:"deriv"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Quota struct {
		FreeDailyLimit int `yaml:"free_daily_limit"`
	} `yaml:"quota"`
	Schedule struct {
		VIPSweepCron    string `yaml:"vip_sweep_cron"`
		AdminReportCron string `yaml:"admin_report_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level          string `yaml:"level"`
		Format         string `yaml:"format"`
		TracingEnabled bool   `yaml:"tracing_enabled"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Telegram.OwnerContact = "@X_Akash_Owner"
	cfg.Deriv.URL = "wss://ws.derivws.com/websockets/v3"
	cfg.Deriv.AppID = "1089"
	cfg.Deriv.CandleCount = 120
	cfg.Deriv.FetchTimeout = 15 * time.Second
	cfg.Deriv.MaxRetries = 2
	cfg.Redis.CacheTTL = 30 * time.Second
	cfg.Database.SQLitePath = "data/signal_sentinel.db"
	cfg.Quota.FreeDailyLimit = 5
	cfg.Schedule.VIPSweepCron = "0 5 0 * * *"
	cfg.Schedule.AdminReportCron = "0 0 9 * * *"
	cfg.Metrics.Addr = ":9090"
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "json"
	return cfg
}

// Path returns $CONFIG_PATH or the default config location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		cfg.Telegram.AdminIDs = ParseAdminIDs(v)
	}
	if v := os.Getenv("OWNER_CONTACT"); v != "" {
		cfg.Telegram.OwnerContact = v
	}
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		cfg.Deriv.AppID = v
	}
	if v := os.Getenv("DERIV_URL"); v != "" {
		cfg.Deriv.URL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.TracingEnabled = b
		}
	}
	if v := os.Getenv("FREE_DAILY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.FreeDailyLimit = n
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	return cfg, nil
}

// ParseAdminIDs parses a comma separated id list, skipping malformed entries.
func ParseAdminIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsAdmin reports whether userID is listed in telegram.admin_ids.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Deriv.CandleCount < calculator.MinCandles {
		return fmt.Errorf("deriv.candle_count must be at least %d", calculator.MinCandles)
	}
	if c.Deriv.FetchTimeout <= 0 {
		return fmt.Errorf("deriv.fetch_timeout must be positive")
	}
	if c.Deriv.MaxRetries < 0 {
		return fmt.Errorf("deriv.max_retries must not be negative")
	}
	if c.Quota.FreeDailyLimit < 0 {
		return fmt.Errorf("quota.free_daily_limit must not be negative")
	}
	if _, err := cronParser.Parse(c.Schedule.VIPSweepCron); err != nil {
		return fmt.Errorf("schedule.vip_sweep_cron: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.AdminReportCron); err != nil {
		return fmt.Errorf("schedule.admin_report_cron: %w", err)
	}
	return nil
}
