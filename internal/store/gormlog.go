package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// gormLogger routes gorm's logging through zerolog. Statements are logged at
// sqlLevel; slow statements at warn; failures other than a missing record at
// error.
type gormLogger struct {
	log      zerolog.Logger
	sqlLevel zerolog.Level
}

func newGormLogger(log zerolog.Logger, sqlLevel zerolog.Level) gormlogger.Interface {
	return &gormLogger{log: log.With().Str("component", "store").Logger(), sqlLevel: sqlLevel}
}

func (l *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *gormLogger) logger(ctx context.Context) *zerolog.Logger {
	if ctxLog := zerolog.Ctx(ctx); ctxLog.GetLevel() != zerolog.Disabled {
		return ctxLog
	}
	return &l.log
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).Info().Msgf(msg, args...)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).Warn().Msgf(msg, args...)
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger(ctx).Error().Msgf(msg, args...)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	log := l.logger(ctx)
	elapsed := time.Since(begin)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = log.Error().Err(err)
	case elapsed > slowQuery:
		ev = log.Warn().Bool("slow", true)
	default:
		ev = log.WithLevel(l.sqlLevel)
	}
	if ev == nil {
		return
	}
	sql, rows := fc()
	ev.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("sql")
}
