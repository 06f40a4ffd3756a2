package csm

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes human-readable lines through zerolog. The prefix is
// attached as the component field.
type DefaultLogger struct {
	debug atomic.Bool
	zlog  zerolog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerTo(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}, prefix, debug)
}

// NewLoggerTo logs to w without console formatting when w is not a
// zerolog.ConsoleWriter.
func NewLoggerTo(w io.Writer, prefix string, debug bool) *DefaultLogger {
	ctx := zerolog.New(w).With().Timestamp()
	if prefix != "" {
		ctx = ctx.Str("component", prefix)
	}
	l := &DefaultLogger{zlog: ctx.Logger()}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool { return l.debug.Load() }

func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.debug.Load() {
		return
	}
	l.zlog.Debug().Msgf(format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.zlog.Info().Msgf(format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.zlog.Warn().Msgf(format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.zlog.Error().Msgf(format, args...)
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
