package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Hyperflow HyperflowConfig `yaml:"hyperflow"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Feed      FeedConfig      `yaml:"feed"`
	Source    SourceConfig    `yaml:"source"`
	Books     BooksConfig     `yaml:"books"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type HyperflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Namespace       string `yaml:"namespace"`
	Dashboard       string `yaml:"dashboard"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// FeedConfig holds the shared pipeline policy: publish cadence, the
// subscription lifetime in ticks, and the pauses around resubscription and
// restart.
type FeedConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	SessionTicks     int           `yaml:"session_ticks"`
	ResubscribePause time.Duration `yaml:"resubscribe_pause"`
	RestartBackoff   time.Duration `yaml:"restart_backoff"`
}

type SourceConfig struct {
	Hyperliquid HyperliquidConfig `yaml:"hyperliquid"`
}

type HyperliquidConfig struct {
	APIURL         string               `yaml:"api_url"`
	WSURL          string               `yaml:"ws_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	KeepAlive      time.Duration        `yaml:"keep_alive"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type BooksConfig struct {
	Coins []string `yaml:"coins"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Feed: FeedConfig{
			TickInterval:     800 * time.Millisecond,
			SessionTicks:     100000,
			ResubscribePause: 2 * time.Second,
			RestartBackoff:   5 * time.Second,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override CloudWatch settings from environment variables if available
	if config.Metrics.CloudWatch.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Metrics.CloudWatch.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Metrics.CloudWatch.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Metrics.CloudWatch.Region = strings.TrimSpace(v)
		}
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Hyperflow.Name == "" {
		return fmt.Errorf("hyperflow.name is required")
	}

	if cfg.Hyperflow.Version == "" {
		return fmt.Errorf("hyperflow.version is required")
	}

	if cfg.Feed.TickInterval <= 0 {
		return fmt.Errorf("feed.tick_interval must be greater than 0")
	}
	if cfg.Feed.SessionTicks <= 0 {
		return fmt.Errorf("feed.session_ticks must be greater than 0")
	}
	if cfg.Feed.ResubscribePause <= 0 {
		return fmt.Errorf("feed.resubscribe_pause must be greater than 0")
	}
	if cfg.Feed.RestartBackoff <= 0 {
		return fmt.Errorf("feed.restart_backoff must be greater than 0")
	}

	hl := cfg.Source.Hyperliquid
	if hl.APIURL == "" {
		return fmt.Errorf("source.hyperliquid.api_url is required")
	}
	if hl.WSURL == "" {
		return fmt.Errorf("source.hyperliquid.ws_url is required")
	}
	if hl.Timeout <= 0 {
		return fmt.Errorf("source.hyperliquid.timeout must be greater than 0")
	}
	if hl.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("source.hyperliquid.rate_limit.requests_per_second must be greater than 0")
	}
	if hl.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("source.hyperliquid.rate_limit.burst_size must be greater than 0")
	}

	for _, coin := range cfg.Books.Coins {
		if strings.TrimSpace(coin) == "" {
			return fmt.Errorf("books.coins must not contain empty symbols")
		}
	}

	return nil
}
