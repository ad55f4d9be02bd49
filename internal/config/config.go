// Package config loads application configuration from a YAML file and
// LABOPS_-prefixed environment variables. Configuration is read once at
// startup and never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "LABOPS_"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Chat     ChatConfig     `koanf:"chat"`
	Notify   NotifyConfig   `koanf:"notify"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// DatabaseConfig contains record-store connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	MigrationsPath  string        `koanf:"migrations_path"`
}

// ChatConfig contains chat service client settings.
type ChatConfig struct {
	APIURL    string        `koanf:"api_url" validate:"required,url"`
	BotToken  string        `koanf:"bot_token"`
	DryRun    bool          `koanf:"dry_run"`
	Timeout   time.Duration `koanf:"timeout"`
	PostRate  float64       `koanf:"post_rate"`
	PageSize  int           `koanf:"page_size"`
	CacheSize int           `koanf:"cache_size"`
}

// NotifyConfig names the delivery destinations per notification class.
type NotifyConfig struct {
	BaseURL   string      `koanf:"base_url" validate:"required,url"`
	Surgery   Destination `koanf:"surgery"`
	Shikigami Destination `koanf:"shikigami"`
}

// Destination configures one notification class.
type Destination struct {
	Channel   string `koanf:"channel"`
	Manager   string `koanf:"manager"`
	ManagerDM bool   `koanf:"manager_dm"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
			MigrationsPath:  "migrations",
		},
		Chat: ChatConfig{
			APIURL:    "https://slack.com/api",
			Timeout:   10 * time.Second,
			PostRate:  1.0,
			PageSize:  1000,
			CacheSize: 256,
		},
		Notify: NotifyConfig{
			Surgery:   Destination{ManagerDM: true},
			Shikigami: Destination{ManagerDM: true},
		},
	}
}

// Load reads configuration from the given YAML file (optional) and the
// environment, validates it and returns the result. Environment variables
// use the LABOPS_ prefix with "__" as the section separator, e.g.
// LABOPS_DATABASE__URL or LABOPS_NOTIFY__SURGERY__CHANNEL.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func envToKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
