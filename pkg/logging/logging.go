// Package logging builds the zap loggers used across gmpaudit.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "GMPAUDIT_LOG_LEVEL"

// New builds a logger writing to stderr. Unknown levels fall back to info and
// unknown formats to json.
func New(level, format string) (*zap.Logger, error) {
	return build(level, format, []string{"stderr"})
}

// NewFile builds a logger writing to path, for the interactive shell where
// stderr belongs to the terminal.
func NewFile(level, format, path string) (*zap.Logger, error) {
	return build(level, format, []string{path})
}

func build(level, format string, outputs []string) (*zap.Logger, error) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := FormatJSON
	if format == FormatConsole {
		encoding = FormatConsole
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// Must returns l, or a no-op logger when err is set.
func Must(l *zap.Logger, err error) *zap.Logger {
	if err != nil || l == nil {
		return zap.NewNop()
	}
	return l
}
