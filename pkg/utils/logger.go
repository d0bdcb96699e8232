package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel maps a config string to a LogLevel, defaulting to info
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger interface defines the logging contract
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogFormat represents the log output format
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// ParseLogFormat maps a config string to a LogFormat
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return LogFormatJSON
	}
	return LogFormatText
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level       LogLevel
	Format      LogFormat
	Output      io.Writer
	FilePath    string
	EnableColor bool
}

// DefaultLoggerConfig returns a default logger configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:       LogLevelInfo,
		Format:      LogFormatText,
		Output:      os.Stderr,
		EnableColor: true,
	}
}

// RebrandLogger is the main logger implementation
type RebrandLogger struct {
	zl   zerolog.Logger
	file *os.File
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config *LoggerConfig) (*RebrandLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if config.Format == LogFormatText {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !config.EnableColor,
			TimeFormat: "15:04:05",
		}
	}

	logger := &RebrandLogger{}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.file = file
		// The file always receives JSON lines.
		out = zerolog.MultiLevelWriter(out, file)
	}

	logger.zl = zerolog.New(out).Level(config.Level.zerolog()).With().Timestamp().Logger()
	return logger, nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *RebrandLogger {
	return &RebrandLogger{zl: zerolog.Nop()}
}

// Debug logs a debug message
func (l *RebrandLogger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Msgf(msg, args...)
}

// Info logs an info message
func (l *RebrandLogger) Info(msg string, args ...interface{}) {
	l.zl.Info().Msgf(msg, args...)
}

// Warn logs a warning message
func (l *RebrandLogger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Msgf(msg, args...)
}

// Error logs an error message
func (l *RebrandLogger) Error(msg string, args ...interface{}) {
	l.zl.Error().Msgf(msg, args...)
}

// WithField returns a logger with an additional field
func (l *RebrandLogger) WithField(key string, value interface{}) Logger {
	return &RebrandLogger{zl: l.zl.With().Interface(key, value).Logger(), file: l.file}
}

// WithFields returns a logger with additional fields
func (l *RebrandLogger) WithFields(fields map[string]interface{}) Logger {
	return &RebrandLogger{zl: l.zl.With().Fields(fields).Logger(), file: l.file}
}

// Close closes the logger and any open files
func (l *RebrandLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global logger instance
var globalLogger Logger

// SetGlobalLogger installs an already built logger as the global one
func SetGlobalLogger(logger Logger) {
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() Logger {
	if globalLogger == nil {
		logger, _ := NewLogger(DefaultLoggerConfig())
		globalLogger = logger
	}
	return globalLogger
}
