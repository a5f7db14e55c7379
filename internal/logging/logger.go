// Package logging provides the process-wide structured logger. It
// mirrors the teacher's logger package: a package-level
// *zap.SugaredLogger initialized to a safe no-op so packages can log
// before Initialize runs (e.g. during tests or package init), and a
// thin set of forwarding helpers so call sites don't need to import
// zap directly.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. jsonOutput selects structured
// JSON (for machine consumption, e.g. piped into a log aggregator)
// versus a minimal human-readable console encoder.
func Initialize(jsonOutput bool) error {
	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = cfg.Build()
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.TimeKey = ""
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderCfg),
				zapcore.AddSync(os.Stderr),
				zap.InfoLevel,
			),
		)
	}
	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Infow(msg string, kv ...interface{})  { Logger.Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { Logger.Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { Logger.Errorw(msg, kv...) }
func Debugw(msg string, kv ...interface{}) { Logger.Debugw(msg, kv...) }
