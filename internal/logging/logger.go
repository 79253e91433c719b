// Package logging provides structured logging for the CLI and library layers.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rescale/box-browse/internal/events"
)

// Logger wraps zerolog with an optional event bus mirror.
type Logger struct {
	zlog      zerolog.Logger
	component string
	eventBus  *events.EventBus
	output    io.Writer
}

// NewLogger creates a logger for the named component. Stdout carries
// listing output, so logs go to stderr. Warnings and errors are mirrored
// to eventBus as LogEvents when it is non-nil.
func NewLogger(component string, eventBus *events.EventBus) *Logger {
	return NewWithWriter(component, eventBus, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(component string, eventBus *events.EventBus, w io.Writer) *Logger {
	l := &Logger{
		component: component,
		eventBus:  eventBus,
		output:    w,
	}
	l.zlog = l.build(w)
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli", nil)
}

func (l *Logger) build(w io.Writer) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if l.component != "" {
		ctx = ctx.Str("component", l.component)
	}
	zl := ctx.Logger()
	if l.eventBus != nil {
		zl = zl.Hook(busHook{bus: l.eventBus, component: l.component})
	}
	return zl
}

// Component returns a child logger for another component sharing the
// same output and bus.
func (l *Logger) Component(name string) *Logger {
	if l.output == io.Discard {
		return Nop()
	}
	return NewWithWriter(name, l.eventBus, l.output)
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Fatal returns a fatal level event.
func (l *Logger) Fatal() *zerolog.Event {
	return l.zlog.Fatal()
}

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// SetOutput changes the output writer for the logger.
// This is useful for redirecting logs through progress bars.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.zlog = l.build(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	})
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// busHook mirrors warnings and errors onto the event bus.
type busHook struct {
	bus       *events.EventBus
	component string
}

func (h busHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch {
	case level >= zerolog.ErrorLevel:
		h.bus.PublishLog(events.ErrorLevel, h.component, msg)
	case level == zerolog.WarnLevel:
		h.bus.PublishLog(events.WarnLevel, h.component, msg)
	}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
