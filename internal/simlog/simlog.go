// Package simlog is the diagnostic tracing channel: a thin log/slog
// wrapper gated by a compile-time verbosity level. Trace paths perform
// extra allocations that would themselves need accounting, so timing
// runs require verbosity 0: at Verbosity 0 every Tracef call with a
// level of 1 or more is a single branch and nothing else — no
// allocation, no formatting, no slog call. Info and Error always log.
package simlog

import (
	"log/slog"
	"os"

	"golang.org/x/time/rate"
)

// Verbosity is the compile-time trace level. 0 disables every trace
// call in this package down to a single branch; raise it only for
// local debugging, never for a timing-sensitive run.
const Verbosity = 0

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// traceLimiter caps diagnostic trace throughput once Verbosity is
// raised above 0: a thousand-thread run with tracing on would
// otherwise drown stderr in per-release log lines. Disabled entirely
// at Verbosity 0, since the level check above returns before this is
// ever consulted.
var traceLimiter = rate.NewLimiter(rate.Limit(200), 400)

// Tracef logs a diagnostic message with key/value attrs when Verbosity
// is at or above the given level; a no-op branch otherwise. Once enabled,
// throughput is capped by traceLimiter rather than left unbounded.
func Tracef(level int, msg string, args ...any) {
	if Verbosity < level {
		return
	}
	if !traceLimiter.Allow() {
		return
	}
	logger.Debug(msg, args...)
}

// Info logs an always-on informational message (startup/shutdown
// milestones), independent of Verbosity.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Error logs an always-on error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}
