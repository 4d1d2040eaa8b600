// Package config loads pipeline configuration.
//
// Sources, lowest to highest precedence:
//
//  1. Default values
//  2. An optional YAML file
//  3. Environment variables prefixed with TFL_ (e.g. TFL_BARS_KIND=dollar)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces environment variables.
const EnvPrefix = "TFL"

// Config represents the complete application configuration
type Config struct {
	Bars    BarsConfig    `yaml:"bars" envconfig:"BARS"`
	Labels  LabelsConfig  `yaml:"labels" envconfig:"LABELS"`
	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Kafka   KafkaConfig   `yaml:"kafka" envconfig:"KAFKA"`
	Feed    FeedConfig    `yaml:"feed" envconfig:"FEED"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Columns Columns       `yaml:"columns" envconfig:"COLUMNS"`
}

// BarsConfig selects the bar sampling method.
// Threshold is the volume or dollar threshold, the trade count for tick bars,
// or the interval in milliseconds for time bars.
type BarsConfig struct {
	Kind      string  `yaml:"kind" envconfig:"KIND" validate:"oneof=tick time volume dollar"`
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0"`
	SessionMs int64   `yaml:"session_ms" envconfig:"SESSION_MS" validate:"gte=0"` // 0 disables session splits
}

// LabelsConfig configures triple-barrier labeling.
// A zero ProfitTake or StopLoss disables that barrier.
type LabelsConfig struct {
	ProfitTake      float64 `yaml:"profit_take" envconfig:"PROFIT_TAKE" validate:"gte=0"`
	StopLoss        float64 `yaml:"stop_loss" envconfig:"STOP_LOSS" validate:"gte=0"`
	MinReturn       float64 `yaml:"min_return" envconfig:"MIN_RETURN" validate:"gte=0"`
	UseVerticalSign bool    `yaml:"use_vertical_sign" envconfig:"USE_VERTICAL_SIGN"`
	TieBreak        string  `yaml:"tie_break" envconfig:"TIE_BREAK" validate:"oneof=stop_loss profit_take"`
	HorizonBars     int     `yaml:"horizon_bars" envconfig:"HORIZON_BARS" validate:"gte=0"`

	// HorizonMs overrides HorizonBars when set.
	HorizonMs int64 `yaml:"horizon_ms" envconfig:"HORIZON_MS" validate:"gte=0"`

	// Width is the barrier width when VolSpan is 0.
	Width         float64 `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	VolSpan       int     `yaml:"vol_span" envconfig:"VOL_SPAN" validate:"gte=0"`
	VolLookbackMs int64   `yaml:"vol_lookback_ms" envconfig:"VOL_LOOKBACK_MS" validate:"gt=0"`

	// CUSUMThreshold filters seed bars; 0 seeds every bar.
	CUSUMThreshold float64 `yaml:"cusum_threshold" envconfig:"CUSUM_THRESHOLD" validate:"gte=0"`

	// Workers bounds labeling parallelism; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Backend       string `yaml:"backend" envconfig:"BACKEND" validate:"oneof=memory postgres"`
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN" validate:"required_if=Backend postgres"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN" validate:"required_if=Backend postgres"`
}

// KafkaConfig configures publishing of bars and labels.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled" envconfig:"ENABLED"`
	Brokers  []string `yaml:"brokers" envconfig:"BROKERS" validate:"required_if=Enabled true"`
	Topic    string   `yaml:"topic" envconfig:"TOPIC" validate:"required"`
	ClientID string   `yaml:"client_id" envconfig:"CLIENT_ID"`
}

// FeedConfig configures live trade ingestion. An empty endpoint disables it.
type FeedConfig struct {
	Endpoint      string        `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	Symbols       []string      `yaml:"symbols" envconfig:"SYMBOLS"`
	FlushSize     int           `yaml:"flush_size" envconfig:"FLUSH_SIZE" validate:"gt=0"`
	FlushInterval time.Duration `yaml:"flush_interval" envconfig:"FLUSH_INTERVAL" validate:"gt=0"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr             string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ScheduleInterval time.Duration `yaml:"schedule_interval" envconfig:"SCHEDULE_INTERVAL" validate:"gte=0"` // 0 disables scheduled runs
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// OutputConfig controls dataset exports.
type OutputConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=parquet csv json"`
}

// Columns names the source columns of trade and bar datasets.
type Columns struct {
	Timestamp string `yaml:"timestamp" envconfig:"TIMESTAMP" validate:"required"`
	Symbol    string `yaml:"symbol" envconfig:"SYMBOL" validate:"required"`
	Price     string `yaml:"price" envconfig:"PRICE" validate:"required"`
	Size      string `yaml:"size" envconfig:"SIZE" validate:"required"`
	Open      string `yaml:"open" envconfig:"OPEN" validate:"required"`
	High      string `yaml:"high" envconfig:"HIGH" validate:"required"`
	Low       string `yaml:"low" envconfig:"LOW" validate:"required"`
	Close     string `yaml:"close" envconfig:"CLOSE" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bars: BarsConfig{
			Kind:      "dollar",
			Threshold: 1_000_000,
			SessionMs: 24 * 60 * 60 * 1000,
		},
		Labels: LabelsConfig{
			ProfitTake:    1,
			StopLoss:      1,
			TieBreak:      "stop_loss",
			HorizonBars:   20,
			Width:         0.01,
			VolSpan:       100,
			VolLookbackMs: 24 * 60 * 60 * 1000,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Kafka: KafkaConfig{
			Topic:    "tick-features",
			ClientID: "tick-feature-lab",
		},
		Feed: FeedConfig{
			FlushSize:     500,
			FlushInterval: 5 * time.Second,
		},
		Server: ServerConfig{
			Addr:             ":8080",
			ScheduleInterval: time.Minute,
			ShutdownTimeout:  15 * time.Second,
		},
		Output: OutputConfig{
			Dir:    "output",
			Format: "parquet",
		},
		Columns: DefaultColumns(),
	}
}

// DefaultColumns returns the conventional column names.
func DefaultColumns() Columns {
	return Columns{
		Timestamp: "timestamp",
		Symbol:    "symbol",
		Price:     "price",
		Size:      "size",
		Open:      "open",
		High:      "high",
		Low:       "low",
		Close:     "close",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the fields present in the YAML file onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// LoadEnvFile copies KEY=VALUE lines from path into the environment.
// A missing file is ignored and variables already set win.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
