package cdrs

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured logging sink the driver writes through — the
// transport on a read/write failure or dropped event, the connection
// manager on a failed connection attempt, the session on multi-node
// rotation. The codec and load balancers do not log. Key-value pairs are passed as alternating
// key/value arguments, e.g. Debug("connection opened", "addr", addr).
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

// NewLogger returns a Logger backed by zerolog, writing to the given
// writer (os.Stderr if nil) at the given minimum level.
func NewLogger(w *os.File, level zerolog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &zerologLogger{l: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (z *zerologLogger) log(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

func (z *zerologLogger) Debug(msg string, kv ...any) { z.log(z.l.Debug(), msg, kv) }
func (z *zerologLogger) Info(msg string, kv ...any)  { z.log(z.l.Info(), msg, kv) }
func (z *zerologLogger) Warn(msg string, kv ...any)  { z.log(z.l.Warn(), msg, kv) }
func (z *zerologLogger) Error(msg string, kv ...any) { z.log(z.l.Error(), msg, kv) }

// nopLogger discards everything; it is the default when a Config omits a
// Logger so the driver never needs a nil check at every call site.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger is the shared no-op Logger instance.
var NopLogger Logger = nopLogger{}
