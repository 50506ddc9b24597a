package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/calculator"
	"StockAdvisor/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider          string  `yaml:"provider"` // yahoo, rest, csv, mock
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		CSVDir            string  `yaml:"csv_dir"`
		WindowYears       int     `yaml:"window_years"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Indicators calculator.Params   `yaml:"indicators"`
	Signal     strategy.Thresholds `yaml:"signal"`
	Telegram   struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		// AllowedChats may issue bot commands in addition to ChatID.
		AllowedChats []string `yaml:"allowed_chats"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron  string   `yaml:"scan_cron"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Chart struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"chart"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads .env if present, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
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

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_CSV_DIR"); v != "" {
		c.DataSource.CSVDir = v
	}
	if v := os.Getenv("WINDOW_YEARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DataSource.WindowYears = n
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("TELEGRAM_ALLOWED_CHATS"); v != "" {
		c.Telegram.AllowedChats = splitList(v)
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Schedule.Watchlist = splitList(v)
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.WindowYears == 0 {
		c.DataSource.WindowYears = 5
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}

	def := calculator.DefaultParams()
	p := &c.Indicators
	for _, f := range []struct {
		v   *int
		def int
	}{
		{&p.RSIPeriod, def.RSIPeriod},
		{&p.ATRPeriod, def.ATRPeriod},
		{&p.MACDFast, def.MACDFast},
		{&p.MACDSlow, def.MACDSlow},
		{&p.MACDSignal, def.MACDSignal},
		{&p.StochPeriod, def.StochPeriod},
		{&p.StochSmooth, def.StochSmooth},
	} {
		if *f.v == 0 {
			*f.v = f.def
		}
	}

	if c.Signal.Oversold == 0 && c.Signal.Overbought == 0 {
		c.Signal = strategy.DefaultThresholds()
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 22 * * 1-5"
	}
	for i, s := range c.Schedule.Watchlist {
		c.Schedule.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stock_advisor.db"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = 1000
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 400
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var err error
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			err = multierr.Append(err, fmt.Errorf("data_source.base_url is required for the rest provider"))
		}
	case "csv":
		if c.DataSource.CSVDir == "" {
			err = multierr.Append(err, fmt.Errorf("data_source.csv_dir is required for the csv provider"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("data_source.provider %q is not one of yahoo, rest, csv, mock", c.DataSource.Provider))
	}
	if c.DataSource.WindowYears < 1 || c.DataSource.WindowYears > advisor.MaxWindowYears {
		err = multierr.Append(err, fmt.Errorf("data_source.window_years must be between 1 and %d", advisor.MaxWindowYears))
	}
	err = multierr.Append(err, c.Indicators.Validate())
	err = multierr.Append(err, c.Signal.Validate())
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("chart.width and chart.height must be positive"))
	}
	return err
}

// TelegramEnabled reports whether both bot token and chat id are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
