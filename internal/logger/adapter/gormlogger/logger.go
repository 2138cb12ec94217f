// Package gormlogger adapts the zerolog global logger to gorm's logger interface.
package gormlogger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

// Logger implements gorm's logger.Interface on top of zerolog.
type Logger struct {
	// SlowThreshold marks queries taking longer as warnings.
	SlowThreshold time.Duration
	// SkipRecordNotFound suppresses gorm.ErrRecordNotFound, which handlers
	// translate to 404 anyway.
	SkipRecordNotFound bool
}

// New creates a gorm logger with sensible defaults.
func New() *Logger {
	return &Logger{
		SlowThreshold:      200 * time.Millisecond,
		SkipRecordNotFound: true,
	}
}

// LogMode implements logger.Interface. Level filtering is done by zerolog,
// so the adapter is returned unchanged.
func (l *Logger) LogMode(_ gormlog.LogLevel) gormlog.Interface {
	return l
}

// Info implements logger.Interface.
func (l *Logger) Info(_ context.Context, msg string, args ...interface{}) {
	log.Info().Msgf(msg, args...)
}

// Warn implements logger.Interface.
func (l *Logger) Warn(_ context.Context, msg string, args ...interface{}) {
	log.Warn().Msgf(msg, args...)
}

// Error implements logger.Interface.
func (l *Logger) Error(_ context.Context, msg string, args ...interface{}) {
	log.Error().Msgf(msg, args...)
}

// Trace implements logger.Interface and logs finished SQL statements.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && (!l.SkipRecordNotFound || !errors.Is(err, gorm.ErrRecordNotFound)):
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold:
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	default:
		log.Trace().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
