package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "counseling_scheduler"

// NewLogger создаёт логгер: JSON в production, цветная консоль в остальных окружениях.
// Неизвестный level оставляет уровень по умолчанию для окружения.
func NewLogger(env, level string) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.InitialFields = map[string]interface{}{"service": serviceName}
	}

	if parsed, err := zap.ParseAtomicLevel(level); err == nil && level != "" {
		config.Level = parsed
	}
	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger.With(zap.String("env", env))
}
