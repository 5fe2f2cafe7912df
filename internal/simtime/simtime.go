// Package simtime provides absolute/relative high-resolution time with
// sleep-until semantics for the worker scheduling core. Canonical form
// is enforced on every constructed value: 0 <= Nanos < 1e9.
package simtime

import (
	"context"
	"time"
)

const nanosPerSecond = int64(time.Second)

// AbsoluteTime is a point in time expressed as seconds + nanoseconds
// since an arbitrary epoch (wall-clock, via time.Now()).
type AbsoluteTime struct {
	Sec   int64
	Nanos int32
}

// RelativeTime is a signed duration expressed the same way. Division
// and subtraction may produce a negative Sec; downstream callers clamp
// to zero where the domain requires non-negative durations.
type RelativeTime struct {
	Sec   int64
	Nanos int32
}

func canonicalize(sec int64, nanos int64) (int64, int32) {
	sec += nanos / nanosPerSecond
	nanos %= nanosPerSecond
	if nanos < 0 {
		nanos += nanosPerSecond
		sec--
	}
	return sec, int32(nanos)
}

// NewRelativeTime builds a canonical RelativeTime from a possibly
// out-of-range nanosecond component, e.g. RelativeTime(1, 1_500_000_000)
// canonicalizes to RelativeTime{Sec: 2, Nanos: 500_000_000}.
func NewRelativeTime(sec int64, nanos int64) RelativeTime {
	s, n := canonicalize(sec, nanos)
	return RelativeTime{Sec: s, Nanos: n}
}

// NewAbsoluteTime builds a canonical AbsoluteTime.
func NewAbsoluteTime(sec int64, nanos int64) AbsoluteTime {
	s, n := canonicalize(sec, nanos)
	return AbsoluteTime{Sec: s, Nanos: n}
}

// Canonical re-normalizes a RelativeTime (idempotent on already-canonical values).
func (r RelativeTime) Canonical() RelativeTime {
	return NewRelativeTime(r.Sec, int64(r.Nanos))
}

// Duration converts a RelativeTime to a time.Duration.
func (r RelativeTime) Duration() time.Duration {
	return time.Duration(r.Sec)*time.Second + time.Duration(r.Nanos)
}

// FromDuration builds a canonical RelativeTime from a time.Duration.
func FromDuration(d time.Duration) RelativeTime {
	return NewRelativeTime(0, int64(d))
}

// Clamp returns r, or zero if r is negative.
func (r RelativeTime) Clamp() RelativeTime {
	if r.Sec < 0 || (r.Sec == 0 && r.Nanos < 0) {
		return RelativeTime{}
	}
	return r
}

// Now returns the current wall-clock time as an AbsoluteTime.
func Now() AbsoluteTime {
	now := time.Now()
	return NewAbsoluteTime(now.Unix(), int64(now.Nanosecond()))
}

// Add returns a + r.
func Add(a AbsoluteTime, r RelativeTime) AbsoluteTime {
	return NewAbsoluteTime(a.Sec+r.Sec, int64(a.Nanos)+int64(r.Nanos))
}

// Sub returns a - b as a RelativeTime, possibly negative.
func Sub(a, b AbsoluteTime) RelativeTime {
	return NewRelativeTime(a.Sec-b.Sec, int64(a.Nanos)-int64(b.Nanos))
}

// Before reports whether a occurs strictly before b.
func (a AbsoluteTime) Before(b AbsoluteTime) bool {
	if a.Sec != b.Sec {
		return a.Sec < b.Sec
	}
	return a.Nanos < b.Nanos
}

// After reports whether a occurs strictly after b.
func (a AbsoluteTime) After(b AbsoluteTime) bool {
	return b.Before(a)
}

// AtLeast reports whether a occurs at or after b.
func (a AbsoluteTime) AtLeast(b AbsoluteTime) bool {
	return !a.Before(b)
}

// SleepUntil blocks until target has passed, re-entering the sleep
// whenever the host undershoots (a scheduler wake-up that lands before
// target, or an interrupted sleep, are both swallowed silently — there
// is no asynchronous cancellation in this model other than ctx).
// Returns the AbsoluteTime actually observed on wake, and false if ctx
// was cancelled first.
func SleepUntil(ctx context.Context, target AbsoluteTime) (AbsoluteTime, bool) {
	for {
		now := Now()
		if now.AtLeast(target) {
			return now, true
		}
		remaining := Sub(target, now).Clamp()
		if remaining.Duration() <= 0 {
			return Now(), true
		}
		timer := time.NewTimer(remaining.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return Now(), false
		case <-timer.C:
		}
	}
}
