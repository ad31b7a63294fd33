// Package config loads the audio device client and emulator configuration.
//
// Values are resolved in order: built-in defaults, then the YAML file (when one
// is given), then STELLAR_AUDIO_* environment variables. The result is
// validated before it is returned.
//
// Usage:
//
//	cfg, err := config.Load("configs/audio.yaml")
//	client := api.NewClient(cfg.Endpoint.BaseURL())
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Channel  ChannelConfig  `yaml:"channel"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EndpointConfig locates the audio service. URL wins when set; otherwise the
// base is built from Scheme, Host and Port.
type EndpointConfig struct {
	URL    string `yaml:"url"`
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
}

// ChannelConfig configures the live update channel.
type ChannelConfig struct {
	Path       string        `yaml:"path"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ServerConfig configures the development emulator.
type ServerConfig struct {
	Listen   string        `yaml:"listen"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			Scheme: "http",
			Host:   "localhost",
			Port:   3000,
		},
		Channel: ChannelConfig{
			Path:       "/audio/ws",
			RetryDelay: 5 * time.Second,
		},
		Server: ServerConfig{
			Listen:   ":3000",
			Debounce: 50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies STELLAR_AUDIO_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("STELLAR_AUDIO_ENDPOINT_URL"); v != "" {
		cfg.Endpoint.URL = v
	}
	if v := os.Getenv("STELLAR_AUDIO_ENDPOINT_HOST"); v != "" {
		cfg.Endpoint.Host = v
	}
	if v := os.Getenv("STELLAR_AUDIO_ENDPOINT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STELLAR_AUDIO_ENDPOINT_PORT: %w", err)
		}
		cfg.Endpoint.Port = port
	}
	if v := os.Getenv("STELLAR_AUDIO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Endpoint.URL != "" {
		u, err := url.Parse(c.Endpoint.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "endpoint.url must be an absolute URL with scheme and host")
		}
	} else {
		if c.Endpoint.Host == "" {
			errs = append(errs, "endpoint.host is required when endpoint.url is empty")
		}
		if c.Endpoint.Port < 1 || c.Endpoint.Port > 65535 {
			errs = append(errs, "endpoint.port must be between 1 and 65535")
		}
		if c.Endpoint.Scheme != "http" && c.Endpoint.Scheme != "https" {
			errs = append(errs, "endpoint.scheme must be http or https")
		}
	}

	if !strings.HasPrefix(c.Channel.Path, "/") {
		errs = append(errs, "channel.path must start with /")
	}
	if c.Channel.RetryDelay <= 0 {
		errs = append(errs, "channel.retry_delay must be positive")
	}
	if c.Server.Debounce < 0 {
		errs = append(errs, "server.debounce must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a zerolog level", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LogLevel returns the parsed logging level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// BaseURL returns the endpoint base every relative request path is joined to.
func (e EndpointConfig) BaseURL() string {
	if e.URL != "" {
		return strings.TrimRight(e.URL, "/")
	}
	return e.Scheme + "://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// WebSocketURL returns the ws:// or wss:// URL for path on the endpoint.
func (e EndpointConfig) WebSocketURL(path string) string {
	base := e.BaseURL()
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
