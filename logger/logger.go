// Package logger holds the process-wide structured logger.
package logger

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global logger instance
var Logger *zap.SugaredLogger

func init() {
	// No-op until Initialize so packages never see a nil logger
	Logger = zap.NewNop().Sugar()
}

// Initialize replaces the global logger. JSON output uses the production
// encoder, otherwise a colored console encoder is used. level is a zap level
// name such as "debug" or "warn"; empty means info.
func Initialize(jsonOutput bool, level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return errors.WithHint(errors.Wrapf(err, "log level %q", level), "use debug, info, warn or error")
		}
		lvl = parsed
	}

	var config zap.Config
	if jsonOutput {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return errors.Wrap(err, "building logger")
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Named returns a child of the global logger for a component
func Named(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
