package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// device API speed is sent as km/h x 10, and the server accepts 0 - 60
const deviceMaxSpeedKmh = 6.0

type Config struct {
	Environment string `toml:"-"`

	Host                  string   `toml:"host"`
	Port                  int      `toml:"port"`
	PrometheusMetricsHost string   `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string   `toml:"prometheus_metrics_port"`
	AllowedOrigins        []string `toml:"allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// device api
	DeviceApiURL           string `toml:"device_api_url"`
	DeviceRequestTimeoutMs int    `toml:"device_request_timeout_ms"`
	RequestMaxAttempts     int    `toml:"request_max_attempts"`
	RequestRetryDelayMs    int    `toml:"request_retry_delay_ms"`
	HistoryCacheTTLSeconds int    `toml:"history_cache_ttl_seconds"`

	// polling
	PollIntervalMs       int `toml:"poll_interval_ms"`
	ReconnectBaseDelayMs int `toml:"reconnect_base_delay_ms"`
	ReconnectMaxDelayMs  int `toml:"reconnect_max_delay_ms"`

	// pad
	MinSpeed   float64 `toml:"min_speed"`
	MaxSpeed   float64 `toml:"max_speed"`
	StartSpeed float64 `toml:"start_speed"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file, picks the env table, and applies env var overrides
// (PAD_API_URL) and defaults
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in %s", env, path)
	}

	cfg.Environment = strings.ToLower(env)
	if apiURL := os.Getenv("PAD_API_URL"); apiURL != "" {
		cfg.DeviceApiURL = apiURL
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.DeviceApiURL == "" {
		c.DeviceApiURL = "http://localhost:5678/api"
	}
	c.DeviceApiURL = strings.TrimRight(c.DeviceApiURL, "/")
	if c.DeviceRequestTimeoutMs == 0 {
		c.DeviceRequestTimeoutMs = 5000
	}
	if c.RequestMaxAttempts == 0 {
		c.RequestMaxAttempts = 3
	}
	if c.RequestRetryDelayMs == 0 {
		c.RequestRetryDelayMs = 250
	}
	if c.HistoryCacheTTLSeconds == 0 {
		c.HistoryCacheTTLSeconds = 60
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 1000
	}
	if c.ReconnectBaseDelayMs == 0 {
		c.ReconnectBaseDelayMs = 5000
	}
	if c.ReconnectMaxDelayMs == 0 {
		c.ReconnectMaxDelayMs = 30000
	}
	if c.MaxSpeed == 0 {
		c.MaxSpeed = deviceMaxSpeedKmh
	}
	if c.StartSpeed == 0 {
		c.StartSpeed = 2.0
	}
}

func (c *Config) Validate() error {
	var err error
	if c.RequestMaxAttempts < 1 {
		err = multierr.Append(err, errors.New("request_max_attempts must be at least 1"))
	}
	if c.PollIntervalMs < 1 {
		err = multierr.Append(err, errors.New("poll_interval_ms must be positive"))
	}
	if c.ReconnectBaseDelayMs < 1 || c.ReconnectMaxDelayMs < c.ReconnectBaseDelayMs {
		err = multierr.Append(err, errors.New("reconnect delays must be positive and max >= base"))
	}
	if c.MinSpeed < 0 || c.MaxSpeed > deviceMaxSpeedKmh || c.MinSpeed >= c.MaxSpeed {
		err = multierr.Append(err, fmt.Errorf("speed range [%.1f, %.1f] must be within [0, %.1f]", c.MinSpeed, c.MaxSpeed, deviceMaxSpeedKmh))
	}
	if c.StartSpeed < c.MinSpeed || c.StartSpeed > c.MaxSpeed {
		err = multierr.Append(err, fmt.Errorf("start_speed %.1f outside of speed range", c.StartSpeed))
	}
	return err
}

func (c *Config) DeviceRequestTimeout() time.Duration {
	return time.Duration(c.DeviceRequestTimeoutMs) * time.Millisecond
}

func (c *Config) RequestRetryDelay() time.Duration {
	return time.Duration(c.RequestRetryDelayMs) * time.Millisecond
}

func (c *Config) HistoryCacheTTL() time.Duration {
	return time.Duration(c.HistoryCacheTTLSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) ReconnectBaseDelay() time.Duration {
	return time.Duration(c.ReconnectBaseDelayMs) * time.Millisecond
}

func (c *Config) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.ReconnectMaxDelayMs) * time.Millisecond
}
