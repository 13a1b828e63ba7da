package app

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName попадает в каждую запись лога
const ServiceName = "office_scheduler"

func loggerConfig(env string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]interface{}{
		"service": ServiceName,
		"env":     env,
	}

	return config
}

func NewLogger(env string) *zap.Logger {
	logger, err := loggerConfig(env).Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}

// SyncLogger сбрасывает буферы логгера перед выходом.
// stdout-терминал не поддерживает fsync (EINVAL, ENOTTY), это не ошибка.
func SyncLogger(logger *zap.Logger) {
	err := logger.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return
	}
	fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
}
