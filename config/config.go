// Package config holds the docbind runtime configuration: which store
// driver to open and how to log.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverJSON   = "json"
	DriverMongo  = "mongo"
)

// Drivers lists the accepted store drivers.
var Drivers = []string{DriverMemory, DriverJSON, DriverMongo}

// Config is the root configuration.
type Config struct {
	Store Store `yaml:"store" mapstructure:"store"`
	Log   Log   `yaml:"log" mapstructure:"log"`
}

// Store selects and addresses the backing store.
type Store struct {
	// Driver is one of Drivers.
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the data file of the json driver.
	Path string `yaml:"path" mapstructure:"path"`
	// URI and Database address the mongo driver.
	URI      string `yaml:"uri" mapstructure:"uri"`
	Database string `yaml:"database" mapstructure:"database"`
}

// Log configures the zap logger.
type Log struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// Default returns a configuration using the json driver on ./docbind.json.
func Default() Config {
	return Config{
		Store: Store{
			Driver:   DriverJSON,
			Path:     "docbind.json",
			Database: "docbind",
		},
		Log: Log{Level: "info"},
	}
}

// LoadFile reads a YAML configuration file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverJSON:
		if c.Store.Path == "" {
			return errors.New("config: store.path is required for the json driver")
		}
	case DriverMongo:
		if c.Store.URI == "" {
			return errors.New("config: store.uri is required for the mongo driver")
		}
		if c.Store.Database == "" {
			return errors.New("config: store.database is required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q (want one of %s)",
			c.Store.Driver, strings.Join(Drivers, ", "))
	}
	if _, err := zapcore.ParseLevel(c.levelName()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) levelName() string {
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}

// NewLogger builds the zap logger described by Log. Verbose selects the
// development configuration at debug level.
func (c Config) NewLogger() (*zap.Logger, error) {
	var zc zap.Config
	if c.Log.Verbose {
		zc = zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{"stderr"}
	} else {
		zc = zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(c.levelName())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
