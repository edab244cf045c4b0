package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shane-ufo/fruit-merge-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig         `yaml:"server"`
	Redis       RedisConfig          `yaml:"redis"`
	Postgres    PostgresConfig       `yaml:"postgres"`
	Kafka       KafkaConfig          `yaml:"kafka"`
	Flush       FlushConfig          `yaml:"flush"`
	Presence    PresenceConfig       `yaml:"presence"`
	Leaderboard LeaderboardConfig    `yaml:"leaderboard"`
	Telegram    TelegramConfig       `yaml:"telegram"`
	Admin       AdminConfig          `yaml:"admin"`
	Packages    []domain.StarPackage `yaml:"star_packages"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"group_id"`
	Enabled      bool          `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// FlushConfig holds persistence flush worker configuration
type FlushConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	Enabled   bool          `yaml:"enabled"`
}

// PresenceConfig holds presence tracker configuration
type PresenceConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LeaderboardConfig holds capacities and read limits for the boards
type LeaderboardConfig struct {
	GlobalCapacity  int           `yaml:"global_capacity"`
	WeeklyCapacity  int           `yaml:"weekly_capacity"`
	AllTimeCapacity int           `yaml:"alltime_capacity"`
	DefaultLimit    int           `yaml:"default_limit"`
	MaxLimit        int           `yaml:"max_limit"`
	FriendsLimit    int           `yaml:"friends_limit"`
	RolloverCheck   time.Duration `yaml:"rollover_check"`
	HistoryWeeks    int           `yaml:"history_weeks"`
}

// Capacity returns the trim capacity for a board.
func (c *LeaderboardConfig) Capacity(board domain.Board) int {
	switch {
	case board == domain.BoardGlobal:
		return c.GlobalCapacity
	case board == domain.BoardAllTime:
		return c.AllTimeCapacity
	case board.IsWeekly():
		return c.WeeklyCapacity
	default:
		return c.DefaultLimit
	}
}

// TelegramConfig holds bot credentials and chat wiring
type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	WebAppURL   string `yaml:"web_app_url"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Enabled     bool   `yaml:"enabled"`
}

// AdminConfig holds the shared-secret gate for the admin API
type AdminConfig struct {
	Password string `yaml:"password"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 50
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 5
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "game-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "fruit-merge-backend"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	// Flush defaults
	if c.Flush.Interval == 0 {
		c.Flush.Interval = 30 * time.Second
	}
	if c.Flush.BatchSize == 0 {
		c.Flush.BatchSize = 1000
	}

	// Presence defaults
	if c.Presence.TTL == 0 {
		c.Presence.TTL = domain.PresenceTTL
	}
	if c.Presence.SweepInterval == 0 {
		c.Presence.SweepInterval = 60 * time.Second
	}

	// Leaderboard defaults
	if c.Leaderboard.GlobalCapacity == 0 {
		c.Leaderboard.GlobalCapacity = 500
	}
	if c.Leaderboard.WeeklyCapacity == 0 {
		c.Leaderboard.WeeklyCapacity = 100
	}
	if c.Leaderboard.AllTimeCapacity == 0 {
		c.Leaderboard.AllTimeCapacity = 100
	}
	if c.Leaderboard.DefaultLimit == 0 {
		c.Leaderboard.DefaultLimit = 100
	}
	if c.Leaderboard.MaxLimit == 0 {
		c.Leaderboard.MaxLimit = 500
	}
	if c.Leaderboard.FriendsLimit == 0 {
		c.Leaderboard.FriendsLimit = 50
	}
	if c.Leaderboard.RolloverCheck == 0 {
		c.Leaderboard.RolloverCheck = 1 * time.Hour
	}
	if c.Leaderboard.HistoryWeeks == 0 {
		c.Leaderboard.HistoryWeeks = 12
	}

	// Star package catalog defaults
	if len(c.Packages) == 0 {
		c.Packages = DefaultPackages()
	}
}

// DefaultPackages is the built-in star package catalog.
func DefaultPackages() []domain.StarPackage {
	return []domain.StarPackage{
		{ID: "stars_100", Title: "100 Stars", Stars: 100, Bonus: 0, Price: 100},
		{ID: "stars_500", Title: "500 Stars", Stars: 500, Bonus: 50, Price: 500},
		{ID: "stars_1000", Title: "1000 Stars", Stars: 1000, Bonus: 150, Price: 1000},
		{ID: "stars_2500", Title: "2500 Stars", Stars: 2500, Bonus: 500, Price: 2500},
	}
}

// FindPackage looks up a star package by id.
func (c *Config) FindPackage(id string) (domain.StarPackage, bool) {
	for _, p := range c.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return domain.StarPackage{}, false
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Flush.Enabled = true
	return cfg
}
