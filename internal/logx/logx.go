// Package logx wraps zerolog with the structured fields cellar's engine
// and CLI emit for environment and transaction lifecycle events.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how a Logger is constructed.
type Config struct {
	Level  string // debug, info, warn, error, disabled
	Pretty bool   // console-writer formatting for interactive use
	Output io.Writer
}

// Logger is a component-scoped structured logger for the store.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger from cfg. A zero Config yields an info-level,
// non-pretty logger writing to stderr.
func New(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "disabled":
		level = zerolog.Disabled
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	z := zerolog.New(out).Level(level).With().Timestamp().Str("component", "cellar").Logger()
	return &Logger{z: z}
}

// Noop returns a Logger that discards everything. Used when an Env is
// opened without an explicit logger.
func Noop() *Logger {
	return New(Config{Level: "disabled"})
}

// WithEnv scopes the logger to a named environment.
func (l *Logger) WithEnv(label string) *Logger {
	return &Logger{z: l.z.With().Str("env", label).Logger()}
}

// EnvOpened logs a successful Env.Open.
func (l *Logger) EnvOpened(path string, pageSize uint32, maxReaders uint) {
	l.z.Info().Str("path", path).Uint32("page_size", pageSize).Uint("max_readers", maxReaders).Msg("environment opened")
}

// EnvClosed logs Env.Close.
func (l *Logger) EnvClosed(path string) {
	l.z.Info().Str("path", path).Msg("environment closed")
}

// TxnCommitted logs a successful write transaction commit.
func (l *Logger) TxnCommitted(txnID uint64, dirtyPages int, retiredPages int, elapsed time.Duration) {
	l.z.Debug().
		Uint64("txn_id", txnID).
		Int("dirty_pages", dirtyPages).
		Int("retired_pages", retiredPages).
		Dur("elapsed", elapsed).
		Msg("transaction committed")
}

// TxnAborted logs a transaction abort.
func (l *Logger) TxnAborted(txnID uint64, reason string) {
	l.z.Warn().Uint64("txn_id", txnID).Str("reason", reason).Msg("transaction aborted")
}

// GCReclaimed logs how many pages the GC engine pulled out of FreeDBI
// during a single allocation request.
func (l *Logger) GCReclaimed(txnID uint64, count int, detent uint64) {
	l.z.Debug().Uint64("txn_id", txnID).Int("pages", count).Uint64("detent", detent).Msg("gc reclaimed pages")
}

// ReaderStale warns when a reader slot is far behind the current txnid,
// which keeps the GC detent from advancing.
func (l *Logger) ReaderStale(slot int, txnID uint64, lag uint64) {
	l.z.Warn().Int("slot", slot).Uint64("txn_id", txnID).Uint64("lag", lag).Msg("reader holding back gc reclamation")
}

// Error logs an operational error with context.
func (l *Logger) Error(op string, err error) {
	l.z.Error().Str("op", op).Err(err).Msg("operation failed")
}

// Zerolog exposes the underlying logger for callers that need full
// control over a log line's fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.z
}
