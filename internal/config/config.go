package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "5s" or "100ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Game struct {
		BettingWindow Duration `yaml:"betting_window"`
		TickInterval  Duration `yaml:"tick_interval"`
		RoundDelay    Duration `yaml:"round_delay"`
		GrowthRate    float64  `yaml:"growth_rate"`
		HouseEdge     float64  `yaml:"house_edge"`
		MinBetUSD     float64  `yaml:"min_bet_usd"`
		MaxBetUSD     float64  `yaml:"max_bet_usd"`
		StartingBTC   float64  `yaml:"starting_btc"`
		StartingETH   float64  `yaml:"starting_eth"`
	} `yaml:"game"`
	Price struct {
		BaseURL  string   `yaml:"base_url"`
		CacheTTL Duration `yaml:"cache_ttl"`
		UseMock  bool     `yaml:"use_mock"`
	} `yaml:"price"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailySummaryCron string `yaml:"daily_summary_cron"`
		PruneCron        string `yaml:"prune_cron"`
		RetentionDays    int    `yaml:"retention_days"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	// Environment variable overrides
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Price.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("HOUSE_EDGE"); v != "" {
		var edge float64
		if _, err := fmt.Sscanf(v, "%f", &edge); err == nil {
			cfg.Game.HouseEdge = edge
		}
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Game.BettingWindow == 0 {
		cfg.Game.BettingWindow = Duration(5 * time.Second)
	}
	if cfg.Game.TickInterval == 0 {
		cfg.Game.TickInterval = Duration(100 * time.Millisecond)
	}
	if cfg.Game.RoundDelay == 0 {
		cfg.Game.RoundDelay = Duration(5 * time.Second)
	}
	if cfg.Game.GrowthRate == 0 {
		cfg.Game.GrowthRate = 0.05
	}
	if cfg.Game.HouseEdge == 0 {
		cfg.Game.HouseEdge = 0.01
	}
	if cfg.Game.MinBetUSD == 0 {
		cfg.Game.MinBetUSD = 1
	}
	if cfg.Game.MaxBetUSD == 0 {
		cfg.Game.MaxBetUSD = 10000
	}
	if cfg.Game.StartingBTC == 0 {
		cfg.Game.StartingBTC = 0.05
	}
	if cfg.Game.StartingETH == 0 {
		cfg.Game.StartingETH = 0.1
	}
	if cfg.Price.BaseURL == "" {
		cfg.Price.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Price.CacheTTL == 0 {
		cfg.Price.CacheTTL = Duration(10 * time.Second)
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/crash_game.db"
	}
	if cfg.Schedule.DailySummaryCron == "" {
		cfg.Schedule.DailySummaryCron = "0 0 0 * * *"
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 30 3 * * *"
	}
	if cfg.Schedule.RetentionDays == 0 {
		cfg.Schedule.RetentionDays = 30
	}

	return cfg, nil
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive")
	}
	if c.Game.GrowthRate <= 0 {
		return fmt.Errorf("game.growth_rate must be positive")
	}
	if c.Game.HouseEdge < 0 || c.Game.HouseEdge >= 1 {
		return fmt.Errorf("game.house_edge must be in [0, 1)")
	}
	if c.Game.MinBetUSD <= 0 || c.Game.MaxBetUSD < c.Game.MinBetUSD {
		return fmt.Errorf("game bet limits must satisfy 0 < min <= max")
	}
	if c.Game.StartingBTC < 0 || c.Game.StartingETH < 0 {
		return fmt.Errorf("starting balances must be non-negative")
	}
	if c.Price.BaseURL == "" && !c.Price.UseMock {
		return fmt.Errorf("price.base_url is required unless price.use_mock is set")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
