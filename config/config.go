package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type StoreDriver string

const (
	StoreDriverMongo  StoreDriver = "mongo"  // Document database (default)
	StoreDriverSQLite StoreDriver = "sqlite" // Embedded single-file store
)

var (
	ErrUnknownDriver    = errors.New("unknown store driver")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

type (
	Config struct {
		Store
		Mongo
		SQLite
		Log
	}

	Store struct {
		Driver StoreDriver
	}
	Mongo struct {
		URI            string
		Database       string
		ConnectTimeout time.Duration // Bounds connect + ping at startup
	}
	SQLite struct {
		Path string
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // console or json
		Output string // stderr, stdout or a file path
	}
)

// NewConfig reads settings from LIBRARY_* environment variables and, when
// configFile is non-empty, from that file. Environment wins over the file.
func NewConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LIBRARY")
	v.AutomaticEnv()

	v.SetDefault("store_driver", string(StoreDriverMongo))
	v.SetDefault("mongo_uri", DefaultMongoURI)
	v.SetDefault("mongo_database", DefaultMongoDatabase)
	v.SetDefault("mongo_connect_timeout", DefaultMongoConnectTimeout)
	v.SetDefault("sqlite_path", DefaultSQLitePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Store: Store{
			Driver: StoreDriver(v.GetString("STORE_DRIVER")),
		},
		Mongo: Mongo{
			URI:            v.GetString("MONGO_URI"),
			Database:       v.GetString("MONGO_DATABASE"),
			ConnectTimeout: v.GetDuration("MONGO_CONNECT_TIMEOUT"),
		},
		SQLite: SQLite{
			Path: v.GetString("SQLITE_PATH"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}
	// An unparsable or non-positive timeout would make every connect fail.
	if cfg.Mongo.ConnectTimeout <= 0 {
		cfg.Mongo.ConnectTimeout = DefaultMongoConnectTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo, StoreDriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.Log.Format)
	}
	return nil
}
