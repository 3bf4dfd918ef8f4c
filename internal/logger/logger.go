// Package logger holds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
)

var log = zap.NewNop()

// Init builds the global logger. Development mode gets the console encoder,
// anything else gets production JSON output.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "development" || env == "" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the global logger.
func L() *zap.Logger {
	return log
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = log.Sync()
}
