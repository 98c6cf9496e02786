package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormLogger 将 gorm 日志输出到 zap
type GormLogger struct {
	Logger *zap.Logger
	Config gormLogger.Config
}

func NewGormLogger(log *zap.Logger, cfg gormLogger.Config) *GormLogger {
	return &GormLogger{Logger: log.With(zap.String("agg_type", "gorm")), Config: cfg}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Info {
		l.Logger.Info(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Warn {
		l.Logger.Warn(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Error {
		l.Logger.Error(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Config.LogLevel >= gormLogger.Error && (!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.Logger.Error(err.Error(),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)

	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.Logger.Warn(fmt.Sprintf("SLOW SQL >= %v", l.Config.SlowThreshold),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)

	case l.Config.LogLevel == gormLogger.Info:
		sql, rows := fc()
		l.Logger.Debug("sql log",
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		)
	}
}
