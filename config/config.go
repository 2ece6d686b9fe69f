package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load,
// e.g. GRADESTATS_SERVER_PORT.
const EnvPrefix = "GRADESTATS"

// DefaultFile is read when no config file is named explicitly
const DefaultFile = "gradestats.yaml"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Redis   RedisConfig   `yaml:"redis" envconfig:"REDIS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit       RateLimit     `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimit limits analysis requests with one limiter shared by all clients
type RateLimit struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// RedisConfig configures where generated reports are kept for download
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled" envconfig:"ENABLED"`
	Addr      string        `yaml:"addr" envconfig:"ADDR" validate:"required_if=Enabled true"`
	Password  string        `yaml:"password" envconfig:"PASSWORD"`
	DB        int           `yaml:"db" envconfig:"DB" validate:"min=0,max=15"`
	ReportTTL time.Duration `yaml:"report_ttl" envconfig:"REPORT_TTL"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  10 << 20,
			RateLimit:       RateLimit{Enabled: true, RPS: 2, Burst: 10},
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			ReportTTL: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/gradestats.log",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file, then
// environment variables (a .env file in the working directory is loaded
// first). An empty path means DefaultFile, which may be absent.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		slog.Debug("config file loaded", slog.String("path", path))
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Redis.ReportTTL <= 0 {
		return fmt.Errorf("report TTL must be positive")
	}
	return nil
}

// Address returns the listen address for the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}
