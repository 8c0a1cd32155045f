// Package config holds the server configuration resolved by viper from
// flags, environment variables and config.yaml.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineMongo  = "mongo"
	EngineMemory = "memory"
)

type HTTPConfig struct {
	Port               string        `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"readTimeout"`
	WriteTimeout       time.Duration `mapstructure:"writeTimeout"`
	RequestTimeout     time.Duration `mapstructure:"requestTimeout"`
	CORSAllowedOrigins []string      `mapstructure:"corsAllowedOrigins"`
	CORSAllowedHeaders []string      `mapstructure:"corsAllowedHeaders"`
}

// Addr is the listen address of the HTTP server.
func (c HTTPConfig) Addr() string {
	return "0.0.0.0:" + c.Port
}

type DatastoreConfig struct {
	Engine         string        `mapstructure:"engine"`
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	// MaxConnectRetries bounds the retries of the initial ping.
	MaxConnectRetries uint64 `mapstructure:"maxConnectRetries"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			RequestTimeout:     5 * time.Second,
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedHeaders: []string{"*"},
		},
		Datastore: DatastoreConfig{
			Engine:            EngineMongo,
			Database:          "projectboard",
			ConnectTimeout:    10 * time.Second,
			MaxConnectRetries: 5,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load unmarshals the settings of v over the defaults and verifies them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Verify() error {
	var errs []error

	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("'http.port' must be set"))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("'http.requestTimeout' must be positive"))
	}

	switch c.Datastore.Engine {
	case EngineMongo:
		if c.Datastore.URI == "" {
			errs = append(errs, errors.New("'datastore.uri' must be set when 'datastore.engine' is mongo"))
		}
		if c.Datastore.Database == "" {
			errs = append(errs, errors.New("'datastore.database' must be set when 'datastore.engine' is mongo"))
		}
	case EngineMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown datastore engine %q", c.Datastore.Engine))
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
