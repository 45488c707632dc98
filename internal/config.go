package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	API           APIConfig           `mapstructure:"api"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Preferences   PreferencesConfig   `mapstructure:"preferences"`
	Retry         RetryConfig         `mapstructure:"retry"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// APIConfig locates the HRMS backend the portal talks to.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig configures the local client-state database. Driver "sqlite"
// is the default; "postgres" is for shared deployments.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Source string `mapstructure:"source"`
}

type PreferencesConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

type RetryConfig struct {
	MaxRetries uint          `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

const (
	DefaultPreferencesCacheTTL = 5 * time.Minute
	DefaultSaveDebounce        = 500 * time.Millisecond
	DefaultRetryMax            = 2
	DefaultRetryBaseDelay      = time.Second
)

func (c *Config) ApplyDefaults() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Source == "" {
		c.Storage.Source = "portal_state.db"
	}
	if c.Preferences.CacheTTL <= 0 {
		c.Preferences.CacheTTL = DefaultPreferencesCacheTTL
	}
	if c.Preferences.SaveDebounce <= 0 {
		c.Preferences.SaveDebounce = DefaultSaveDebounce
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = DefaultRetryMax
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = DefaultRetryBaseDelay
	}
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds a Config from environment variables for container
// deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		API: APIConfig{
			BaseURL: getEnv("HRMS_API_BASE_URL", ""),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "sqlite"),
			Source: getEnv("STORAGE_SOURCE", "portal_state.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
	if c.Driver != "memory" && c.Source == "" {
		return errors.New("storage source is required")
	}
	return nil
}

func (c *StorageConfig) GetDSN() string {
	return c.Source
}
