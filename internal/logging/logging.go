package logging

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Logger defines the logging interface used by the application.
// This abstracts the underlying logging library (hclog).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// Named creates a sublogger with a name component.
	Named(name string) Logger
	// With adds key-value pairs to the logger's context.
	With(args ...interface{}) Logger
}

// Ensure hclogWrapper implements Logger.
var _ Logger = (*hclogWrapper)(nil)

// hclogWrapper adapts hclog.Logger to the Logger interface.
type hclogWrapper struct {
	logger hclog.Logger
}

func (w *hclogWrapper) Debug(msg string, args ...interface{}) {
	w.logger.Debug(msg, args...)
}

func (w *hclogWrapper) Info(msg string, args ...interface{}) {
	w.logger.Info(msg, args...)
}

func (w *hclogWrapper) Warn(msg string, args ...interface{}) {
	w.logger.Warn(msg, args...)
}

func (w *hclogWrapper) Error(msg string, args ...interface{}) {
	w.logger.Error(msg, args...)
}

func (w *hclogWrapper) Named(name string) Logger {
	return &hclogWrapper{logger: w.logger.Named(name)}
}

func (w *hclogWrapper) With(args ...interface{}) Logger {
	return &hclogWrapper{logger: w.logger.With(args...)}
}

// appLogger is the global logger instance for the application,
// initialized by InitializeLogger.
var appLogger Logger

// InitializeLogger creates the application's logger from the configured
// level ("DEBUG", "INFO", "WARN", "ERROR") and format ("text" or "json").
// It should be called early in the application startup.
func InitializeLogger(logLevel, logFormat string) {
	level := hclog.LevelFromString(logLevel)
	if level == hclog.NoLevel {
		// Config validation should prevent this, but be safe.
		level = hclog.Info
	}

	hclogger := hclog.New(&hclog.LoggerOptions{
		Name:       "repowatch",
		Level:      level,
		Output:     os.Stderr,
		JSONFormat: strings.ToLower(logFormat) == "json",
	})

	appLogger = &hclogWrapper{logger: hclogger}

	appLogger.Info("Logger initialized", "level", level.String(), "format", logFormat)
}

// Get returns the initialized application logger interface.
// Returns a fallback logger if InitializeLogger has not been called.
func Get() Logger {
	if appLogger == nil {
		fallbackHclogger := hclog.New(&hclog.LoggerOptions{
			Name:  "repowatch-fallback",
			Level: hclog.Warn,
		})
		fallbackLogger := &hclogWrapper{logger: fallbackHclogger}
		fallbackLogger.Error("Get() called before InitializeLogger!")
		return fallbackLogger
	}
	return appLogger
}

// NewNop returns a logger that discards all output. Intended for tests.
func NewNop() Logger {
	return &hclogWrapper{logger: hclog.NewNullLogger()}
}
