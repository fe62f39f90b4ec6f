package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Broker struct {
		ID       string `yaml:"id"`
		Password string `yaml:"password"`
		CertPath string `yaml:"cert_path"`
		CertPass string `yaml:"cert_pass"`
		RootURL  string `yaml:"root_url"` // override for testing against a stub
	} `yaml:"broker"`
	Reports struct {
		Dir   string   `yaml:"dir"`
		Names []string `yaml:"names"`
	} `yaml:"reports"`
	Alert struct {
		Player    string `yaml:"player"`
		SoundFile string `yaml:"sound_file"`
	} `yaml:"alert"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Redis struct {
		Addr     string `yaml:"addr"` // empty disables the tail cache
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables the journal
	} `yaml:"database"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
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
	if v := os.Getenv("FUBON_ID"); v != "" {
		cfg.Broker.ID = v
	}
	if v := os.Getenv("FUBON_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}
	if v := os.Getenv("FUBON_CERT_PATH"); v != "" {
		cfg.Broker.CertPath = v
	}
	if v := os.Getenv("FUBON_CERT_PASS"); v != "" {
		cfg.Broker.CertPass = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		cfg.Reports.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Defaults
	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = "data/reports"
	}
	if len(cfg.Reports.Names) == 0 {
		cfg.Reports.Names = []string{"big_volume.csv"}
	}
	if cfg.Alert.Player == "" {
		cfg.Alert.Player = "mpg123"
	}
	if cfg.Alert.SoundFile == "" {
		cfg.Alert.SoundFile = "assets/alert.mp3"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Broker.ID == "" {
		return fmt.Errorf("broker.id is required")
	}
	if c.Broker.Password == "" {
		return fmt.Errorf("broker.password is required")
	}
	if c.Broker.CertPath == "" {
		return fmt.Errorf("broker.cert_path is required")
	}
	if _, err := os.Stat(c.Broker.CertPath); err != nil {
		return fmt.Errorf("broker.cert_path: %w", err)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
