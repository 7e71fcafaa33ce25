// Package logging builds the process logger and logs request activity
// published on the eventbus.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the level, format and destination of log output.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives JSON logs in addition to stderr. It is
	// rotated once it reaches MaxSizeMB.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case "", FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log.format: unsupported format %q", c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	return nil
}

// New builds a logger writing to stderr and, if configured, to a rotated
// file. The returned closer releases the file.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), nil, err
	}
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		level, _ = zerolog.ParseLevel(strings.ToLower(cfg.Level))
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	w := out
	if cfg.Format != FormatJSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rot := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = zerolog.MultiLevelWriter(w, rot)
		closer = rot
	}
	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
