// Package zlog wraps github.com/rs/zerolog behind a small event vocabulary
// specific to capture groups, so the capture path never imports zerolog
// directly and logging stays strictly opt-in. The zero value is a no-op,
// mirroring the teacher's own DebugLogger, which is always safe to call
// even when debug output is disabled.
package zlog

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger records capture-path events. The zero value discards everything.
type Logger struct {
	zl     zerolog.Logger
	active bool
}

// New builds a Logger writing structured JSON lines to w.
func New(w io.Writer) Logger {
	return Logger{zl: zerolog.New(w).With().Timestamp().Logger(), active: true}
}

// Nop returns the no-op Logger. Equivalent to the zero value; provided for
// call sites that prefer an explicit constructor over a bare literal.
func Nop() Logger { return Logger{} }

// Capture logs the outcome of one group capture attempt.
func (l Logger) Capture(group string, state string, lower, upper any) {
	if !l.active {
		return
	}
	l.zl.Debug().
		Str("group", group).
		Str("state", state).
		Interface("lower", lower).
		Interface("upper", upper).
		Msg("capture")
}

// Aborted logs a group-level or direct abort.
func (l Logger) Aborted(group string, upper any) {
	if !l.active {
		return
	}
	l.zl.Info().Str("group", group).Interface("upper", upper).Msg("abort")
}

// Dropped logs a capacity-bound eviction on a captor's queue.
func (l Logger) Dropped(group string, stream string, total int64) {
	if !l.active {
		return
	}
	l.zl.Warn().Str("group", group).Str("stream", stream).Int64("dropped_total", total).Msg("capacity eviction")
}
