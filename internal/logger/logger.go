package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

type loggerKey struct{}

// ParseLevel maps a LOG_LEVEL name onto a level, defaulting to info
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	}
	return LogLevelInfo
}

// ZerologLevel converts to the zerolog level
func (l LogLevel) ZerologLevel() zerolog.Level {
	switch l {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelTrace:
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// New creates a logger writing JSON lines to w
func New(w io.Writer, level LogLevel) zerolog.Logger {
	return zerolog.New(w).Level(level.ZerologLevel()).With().Timestamp().Logger()
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() zerolog.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()

// SetDefault replaces the logger used when a context carries none, and the
// zerolog global logger packages log through directly
func SetDefault(l zerolog.Logger) {
	DefaultLogger = l
	zlog.Logger = l
}

// WithLogger stores a request-scoped logger in ctx
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Ctx returns the logger stored in ctx, or the default logger
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return &l
		}
	}
	l := DefaultLogger
	return &l
}
