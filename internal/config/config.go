// Package config loads the service configuration from defaults, an optional
// config file, a .env file and MEMBERGRAPH_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	logging "github.com/hanpama/membergraph/internal/logging"
	otel "github.com/hanpama/membergraph/internal/otel"
	store "github.com/hanpama/membergraph/internal/store"
	validation "github.com/hanpama/membergraph/internal/validation"
)

// EnvPrefix prefixes every environment variable read, e.g.
// MEMBERGRAPH_SERVER_ADDR for server.addr.
const EnvPrefix = "MEMBERGRAPH"

type Config struct {
	Server   Server         `mapstructure:"server"`
	GraphQL  GraphQL        `mapstructure:"graphql"`
	Database store.Config   `mapstructure:"database"`
	Otel     otel.Config    `mapstructure:"otel"`
	Log      logging.Config `mapstructure:"log"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	Path            string        `mapstructure:"path"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Pretty          bool          `mapstructure:"pretty"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORS            []string      `mapstructure:"cors"`
}

type GraphQL struct {
	MaxDepth      int  `mapstructure:"max_depth"`
	Introspection bool `mapstructure:"introspection"`
	// Parallelism caps concurrently running resolvers per request; 0 leaves
	// it unbounded.
	Parallelism int `mapstructure:"parallelism"`
}

// New returns a viper instance carrying the defaults and environment
// binding. Callers may bind command-line flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/graphql")
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.pretty", false)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors", []string{})

	v.SetDefault("graphql.max_depth", validation.DefaultMaxDepth)
	v.SetDefault("graphql.introspection", true)
	v.SetDefault("graphql.parallelism", 0)

	v.SetDefault("database.dialect", store.DialectSQLite)
	v.SetDefault("database.dsn", "file:membergraph.db?_foreign_keys=on")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))
	v.SetDefault("database.cache_ttl", 10*time.Minute)

	v.SetDefault("otel.exporter", otel.ExporterNone)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service_name", "membergraph")
	v.SetDefault("otel.sample_rate", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	return v
}

// Load reads file (if not empty) and the env files into v and decodes the
// result. Missing env files are skipped; a missing config file is an error.
// Variables already set in the process environment win over env files.
func Load(v *viper.Viper, file string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: must not be empty"))
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path: must start with '/', got %q", c.Server.Path))
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout: must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes: must not be negative"))
	}
	if c.GraphQL.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("graphql.max_depth: must be at least 1, got %d", c.GraphQL.MaxDepth))
	}
	if c.GraphQL.Parallelism < 0 {
		errs = append(errs, errors.New("graphql.parallelism: must not be negative"))
	}
	errs = append(errs, c.Database.Validate(), c.Otel.Validate(), c.Log.Validate())
	return errors.Join(errs...)
}
