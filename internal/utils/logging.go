package utils

import (
	"go.uber.org/zap"
)

// NewLogger returns a production zap logger, or a development one when env is "dev".
func NewLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	return logger
}
