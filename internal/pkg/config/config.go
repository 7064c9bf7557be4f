package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vodeneev/tennispbp/internal/scraper"
	"github.com/Vodeneev/tennispbp/internal/tennis/resolver"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

// Storage drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Service  ServiceConfig   `yaml:"service"`
	Postgres PostgresConfig  `yaml:"postgres"`
	Storage  StorageConfig   `yaml:"storage"`
	Redis    RedisConfig     `yaml:"redis"`
	Scraper  ScraperConfig   `yaml:"scraper"`
	Markup   segment.Dialect `yaml:"markup"`
	Resolver resolver.Config `yaml:"resolver"`
	Momentum MomentumConfig  `yaml:"momentum"`
	Health   HealthConfig    `yaml:"health"`
	Logging  LoggingConfig   `yaml:"logging"`
	Telegram TelegramConfig  `yaml:"telegram"`
}

type ServiceConfig struct {
	Interval     time.Duration `yaml:"interval"`
	CycleTimeout time.Duration `yaml:"cycle_timeout"`
	Workers      int           `yaml:"workers"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"` // "postgres", "sqlite" or "none"
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type ScraperConfig struct {
	scraper.Config `yaml:",inline"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	Matches        []MatchSource `yaml:"matches"`
}

// MatchSource locates every page a match analysis needs.
type MatchSource struct {
	ID         string    `yaml:"id"`
	HomePlayer string    `yaml:"home_player"`
	AwayPlayer string    `yaml:"away_player"`
	StartTime  time.Time `yaml:"start_time"`
	PageURL    string    `yaml:"page_url"`
	// SummaryURL holds the set totals; PageURL is used when empty.
	SummaryURL  string `yaml:"summary_url"`
	MomentumURL string `yaml:"momentum_url"`
}

type MomentumConfig struct {
	CalculatedFallback bool `yaml:"calculated_fallback"`
	UseSVG             bool `yaml:"use_svg"`
}

type HealthConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
}

type TelegramConfig struct {
	BotToken     string        `yaml:"bot_token"`
	ChatID       int64         `yaml:"chat_id"`
	MinInterval  time.Duration `yaml:"min_interval"`
	AlertOnIssue bool          `yaml:"alert_on_issue"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Interval <= 0 {
		c.Service.Interval = 5 * time.Minute
	}
	if c.Service.CycleTimeout <= 0 {
		c.Service.CycleTimeout = 2 * time.Minute
	}
	if c.Service.Workers <= 0 {
		c.Service.Workers = 4
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverNone
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "pbp.db"
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = 30 * time.Second
	}
	if c.Scraper.CacheTTL <= 0 {
		c.Scraper.CacheTTL = 30 * time.Minute
	}
	c.Markup = c.Markup.WithDefaults()
	if c.Resolver.TiebreakGame <= 0 {
		c.Resolver.TiebreakGame = resolver.DefaultConfig().TiebreakGame
	}
	if c.Resolver.TiebreakAt <= 0 {
		c.Resolver.TiebreakAt = resolver.DefaultConfig().TiebreakAt
	}
	if c.Health.ReadHeaderTimeout <= 0 {
		c.Health.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Telegram.MinInterval <= 0 {
		c.Telegram.MinInterval = 3 * time.Second
	}
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.Redis.Password = pw
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverNone, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres DSN is required for the postgres storage driver (set postgres.dsn or POSTGRES_DSN)")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Scraper.Matches))
	for i, m := range c.Scraper.Matches {
		if m.PageURL == "" {
			return fmt.Errorf("scraper.matches[%d]: page_url is required", i)
		}
		id := m.Key()
		if seen[id] {
			return fmt.Errorf("scraper.matches[%d]: duplicate match %q", i, id)
		}
		seen[id] = true
	}
	return nil
}
