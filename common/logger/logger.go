// Package logger provides the process-wide structured logger.
package logger

import (
	"os"

	"github.com/Laisky/zap"
)

// Logger is the process-wide structured logger. Replaced by Init once
// configuration (log level, format) is known; safe to use before Init
// since it defaults to a sane production config.
var Logger *zap.Logger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Logger = l
}

// Init rebuilds Logger at the requested level. Call once during startup
// after tunables are parsed.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	l, err := cfg.Build()
	if err != nil {
		// fall back to the default logger rather than crash the process
		// over a logging misconfiguration.
		Logger.Error("failed to build logger from config, keeping default", zap.Error(err))
		return
	}
	Logger = l
}

// SysLog writes an info-level message tagged as a system/startup event.
func SysLog(msg string) {
	Logger.Info(msg)
}

// SysError writes an error-level message tagged as a system/startup event.
func SysError(msg string) {
	Logger.Error(msg)
}

// FatalExit logs msg at fatal level and terminates the process. Defined
// separately from zap's own Fatal so call sites stay mockable in tests.
func FatalExit(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
	os.Exit(1)
}
