// Package config loads YAML configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/freight-scorecard/backend/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. SCORECARD_SERVER_PORT.
const EnvPrefix = "SCORECARD"

// Data source kinds.
const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

// AppConfig is the root configuration.
type AppConfig struct {
	Server  ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Storage StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Data    DataConfig     `yaml:"data" envconfig:"DATA"`
	Logging logging.Config `yaml:"logging" envconfig:"LOGGING"`
	Metrics MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int           `yaml:"port" validate:"min=1,max=65535"`
	BindAddress          string        `yaml:"bind_address" envconfig:"BIND_ADDRESS"`
	EnableCORS           bool          `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	AllowOrigins         []string      `yaml:"allow_origins" envconfig:"ALLOW_ORIGINS"`
	ReadTimeout          time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gte=0"`
	WriteTimeout         time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gte=0"`
	IdleTimeout          time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout      time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gte=0"`
	BodyLimit            string        `yaml:"body_limit" envconfig:"BODY_LIMIT"`
	EnableRequestLogging bool          `yaml:"enable_request_logging" envconfig:"ENABLE_REQUEST_LOGGING"`
}

// StorageConfig contains upload storage settings.
type StorageConfig struct {
	DataDirectory    string `yaml:"data_directory" envconfig:"DATA_DIRECTORY" validate:"required"`
	UploadsDirectory string `yaml:"uploads_directory" envconfig:"UPLOADS_DIRECTORY" validate:"required"`
}

// DataConfig selects where datasets are loaded from. CSV paths may be local
// files or http(s) URLs.
type DataConfig struct {
	Source         string        `yaml:"source" validate:"oneof=csv sql"`
	CarriersPath   string        `yaml:"carriers_path" envconfig:"CARRIERS_PATH" validate:"required_if=Source csv"`
	QuotesPath     string        `yaml:"quotes_path" envconfig:"QUOTES_PATH" validate:"required_if=Source csv"`
	DeliveriesPath string        `yaml:"deliveries_path" envconfig:"DELIVERIES_PATH" validate:"required_if=Source csv"`
	Driver         string        `yaml:"driver" validate:"omitempty,oneof=duckdb sqlite"`
	DSN            string        `yaml:"dsn" validate:"required_if=Source sql"`
	LoadTimeout    time.Duration `yaml:"load_timeout" envconfig:"LOAD_TIMEOUT" validate:"gte=0"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" validate:"gte=0"`
	LoadOnStartup  bool          `yaml:"load_on_startup" envconfig:"LOAD_ON_STARTUP"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"omitempty,startswith=/"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 8089,
			BindAddress:          "0.0.0.0",
			EnableCORS:           true,
			AllowOrigins:         []string{"*"},
			ReadTimeout:          30 * time.Second,
			WriteTimeout:         30 * time.Second,
			IdleTimeout:          120 * time.Second,
			ShutdownTimeout:      10 * time.Second,
			BodyLimit:            "64M",
			EnableRequestLogging: true,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
		},
		Data: DataConfig{
			Source:         SourceCSV,
			CarriersPath:   "./data/raw/Carriers.csv",
			QuotesPath:     "./data/raw/QUOTESvsACTUAL.csv",
			DeliveriesPath: "./data/raw/deliveries.csv",
			LoadTimeout:    2 * time.Minute,
			HTTPTimeout:    30 * time.Second,
			LoadOnStartup:  true,
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadConfig reads configPath, writing the defaults there first if it does
// not exist. Environment overrides are applied after the file, then relative
// paths are resolved against the file's directory and the result validated.
func LoadConfig(configPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg.finish(filepath.Dir(configPath))
}

// FromEnv returns the defaults with environment overrides applied. Relative
// paths stay relative to the working directory.
func FromEnv() (*AppConfig, error) {
	return DefaultConfig().finish("")
}

func (c *AppConfig) finish(baseDir string) (*AppConfig, error) {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if baseDir != "" {
		c.resolvePaths(baseDir)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# Carrier scorecard configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, out...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks field constraints and reports every violation at once.
func (c *AppConfig) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		if c.Data.Source == SourceSQL && c.Data.Driver == "" {
			return errors.New("config validation failed: Data.Driver is required for sql sources")
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "AppConfig."), fe.Tag()))
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// resolvePaths makes relative local paths relative to baseDir.
func (c *AppConfig) resolvePaths(baseDir string) {
	resolve := func(p *string) {
		if *p == "" || filepath.IsAbs(*p) || isURL(*p) {
			return
		}
		*p = filepath.Join(baseDir, *p)
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadsDirectory)
	resolve(&c.Data.CarriersPath)
	resolve(&c.Data.QuotesPath)
	resolve(&c.Data.DeliveriesPath)
	if c.Data.Driver == "sqlite" || c.Data.Driver == "duckdb" {
		if c.Data.DSN != "" && c.Data.DSN != ":memory:" && !strings.Contains(c.Data.DSN, "?") {
			resolve(&c.Data.DSN)
		}
	}
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates the data and upload directories.
func (c *AppConfig) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.DataDirectory, c.Storage.UploadsDirectory} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
