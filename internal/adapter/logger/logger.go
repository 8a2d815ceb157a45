package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter implements ports.LoggerPort on top of zap. Production gets
// the JSON config, everything else the human-readable development one.
type LoggerAdapter struct {
	logger *zap.Logger
}

func NewLoggerAdapter(env string) *LoggerAdapter {
	var logger *zap.Logger
	var err error

	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		logger = zap.NewNop()
	}

	return &LoggerAdapter{
		logger: logger,
	}
}

func toFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

func (l *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, toFields(fields)...)
}

func (l *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, toFields(fields)...)
}

func (l *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, toFields(fields)...)
}

func (l *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, toFields(fields)...)
}

func (l *LoggerAdapter) Sync() {
	_ = l.logger.Sync()
}
