// Package config provides configuration loading and validation for the
// chronotable command line tool.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/chronotable/chronotable/pkg/persist"
	"github.com/chronotable/chronotable/pkg/table"
)

// Sentinel validation errors.
var (
	ErrMissingKeyField  = errors.New("key field must not be empty")
	ErrInvalidCodec     = errors.New("unknown store codec")
	ErrInvalidLoose     = errors.New("unknown query mode")
	ErrInvalidLogLevel  = errors.New("unknown logging level")
	ErrInvalidLogFormat = errors.New("unknown logging format")
)

// Default configuration values.
const (
	defaultKeyField  = "id"
	defaultTimeField = "polledTime"
	defaultDirectory = "."
	defaultCodec     = "lz4"
)

// Config holds all configuration for the chronotable tool.
type Config struct {
	Table   TableConfig   `mapstructure:"table"`
	Store   StoreConfig   `mapstructure:"store"`
	Query   QueryConfig   `mapstructure:"query"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TableConfig identifies the table and how records map onto it.
type TableConfig struct {
	Name      string `mapstructure:"name"`
	KeyField  string `mapstructure:"key_field"`
	TimeField string `mapstructure:"time_field"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Directory string `mapstructure:"directory"`
	Codec     string `mapstructure:"codec"`
}

// QueryConfig holds the default point-in-time query behavior.
type QueryConfig struct {
	// At is the default query timestamp in msec; 0 means "now".
	At int64 `mapstructure:"at"`

	// Loose is one of "earlier", "exact", "later".
	Loose string `mapstructure:"loose"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/chronotable")
	}

	viperCfg.SetEnvPrefix("CHRONOTABLE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// ParseLoose maps the configured query mode onto its table constant.
func (q QueryConfig) ParseLoose() (table.Loose, error) {
	switch q.Loose {
	case "earlier":
		return table.PreferEarlier, nil
	case "exact":
		return table.Exact, nil
	case "later":
		return table.PreferLater, nil
	default:
		return table.Exact, fmt.Errorf("%w: %q", ErrInvalidLoose, q.Loose)
	}
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("table.name", "")
	viperCfg.SetDefault("table.key_field", defaultKeyField)
	viperCfg.SetDefault("table.time_field", defaultTimeField)

	viperCfg.SetDefault("store.directory", defaultDirectory)
	viperCfg.SetDefault("store.codec", defaultCodec)

	viperCfg.SetDefault("query.at", 0)
	viperCfg.SetDefault("query.loose", "later")

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
	viperCfg.SetDefault("logging.output", "stderr")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Table.KeyField == "" {
		return ErrMissingKeyField
	}

	_, codecErr := persist.ByName(config.Store.Codec)
	if codecErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, config.Store.Codec)
	}

	_, looseErr := config.Query.ParseLoose()
	if looseErr != nil {
		return looseErr
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
