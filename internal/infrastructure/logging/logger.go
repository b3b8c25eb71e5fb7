package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output string // stdout, stderr
}

// Logger wraps slog.Logger with rfxcom2mqtt-specific functionality.
//
// The level is held in a shared slog.LevelVar so SetLevel takes effect for
// every derived logger immediately. A Stream can be attached to mirror
// records to live subscribers (the admin WebSocket).
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a new Logger with the specified options.
func New(opts Options, version string) *Logger {
	return NewWithStream(opts, version, nil)
}

// NewWithStream creates a Logger that also mirrors records to stream.
// A nil stream behaves like New.
func NewWithStream(opts Options, version string, stream *Stream) *Logger {
	var output io.Writer
	switch strings.ToLower(opts.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		handler = slog.NewTextHandler(output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(output, handlerOpts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "rfxcom2mqtt"),
		slog.String("version", version),
	})

	if stream != nil {
		handler = newStreamHandler(handler, stream)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// ParseLevel converts a string log level to slog.Level.
// Defaults to info if unrecognised.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the active log level for this logger and all loggers
// derived from it via With. Unknown levels fall back to info.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

// Level returns the active level as its configuration string.
func (l *Logger) Level() string {
	switch l.level.Level() {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

// With returns a new Logger with additional default attributes.
// The returned logger shares the level variable with its parent.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// Default creates a default logger for use before configuration is loaded.
func Default() *Logger {
	return New(Options{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
