// Package ledger implements the lifespan/memory-kind accounting model:
// a flat 2-D counter matrix indexed by (LifeSpan, MemoryKind), tracked
// separately for allocation and garbage events, per worker thread, and
// folded into a global accumulator at shutdown.
package ledger

import "sync"

// LifeSpan is a categorical label for the expected residence time of an
// accounted allocation. The ordinal value is the matrix row index.
type LifeSpan int

const (
	// Ephemeral allocations live less than 5µs, within one activation.
	Ephemeral LifeSpan = iota
	// TransientShort allocations live no longer than customer think-time (~2min).
	TransientShort
	// TransientIntermediate allocations live no longer than sale processing (~5min).
	TransientIntermediate
	// TransientLingering allocations live no longer than the save-for-later window (~30min).
	TransientLingering
	// NearlyForever allocations live for the simulation's lifetime.
	NearlyForever

	// NumLifeSpans is the row count of the ledger matrix.
	NumLifeSpans
)

func (s LifeSpan) String() string {
	switch s {
	case Ephemeral:
		return "Ephemeral"
	case TransientShort:
		return "TransientShort"
	case TransientIntermediate:
		return "TransientIntermediate"
	case TransientLingering:
		return "TransientLingering"
	case NearlyForever:
		return "NearlyForever"
	default:
		return "Unknown"
	}
}

// MemoryKind categorizes what an accounted allocation actually is.
type MemoryKind int

const (
	PlainObject MemoryKind = iota
	ObjectReference
	ObjectRSB
	ArrayObject
	ArrayReference
	ArrayRSB

	// NumMemoryKinds is the column count of the ledger matrix.
	NumMemoryKinds
)

func (k MemoryKind) String() string {
	switch k {
	case PlainObject:
		return "PlainObject"
	case ObjectReference:
		return "ObjectReference"
	case ObjectRSB:
		return "ObjectRSB"
	case ArrayObject:
		return "ArrayObject"
	case ArrayReference:
		return "ArrayReference"
	case ArrayRSB:
		return "ArrayRSB"
	default:
		return "Unknown"
	}
}

// Polarity is the sign applied when accumulating a ledger entry.
type Polarity int

const (
	Expand Polarity = 1
	Shrink Polarity = -1
)

// Matrix is one half (alloc or garbage) of a ledger: a branch-free,
// signed 64-bit counter per (LifeSpan, MemoryKind) cell.
type Matrix [NumLifeSpans][NumMemoryKinds]int64

// Accumulate applies count, signed by pol, to the (span, kind) cell.
func (m *Matrix) Accumulate(span LifeSpan, kind MemoryKind, pol Polarity, count int64) {
	m[span][kind] += int64(pol) * count
}

// Add folds src into m cell by cell.
func (m *Matrix) Add(src Matrix) {
	for s := LifeSpan(0); s < NumLifeSpans; s++ {
		for k := MemoryKind(0); k < NumMemoryKinds; k++ {
			m[s][k] += src[s][k]
		}
	}
}

// Total sums every cell in the matrix.
func (m Matrix) Total() int64 {
	var total int64
	for s := LifeSpan(0); s < NumLifeSpans; s++ {
		for k := MemoryKind(0); k < NumMemoryKinds; k++ {
			total += m[s][k]
		}
	}
	return total
}

// Log is a pair of ledgers — one for construction events, one for
// release events — owned by a single worker thread (or, for the
// global accumulator, guarded by mu and folded into under lock).
type Log struct {
	mu      sync.Mutex
	Alloc   Matrix
	Garbage Matrix
}

// NewLog returns an empty thread-local ledger pair. The mutex is only
// exercised when a Log is used as a global fold target; thread-local
// logs are single-owner and never contend on it.
func NewLog() *Log {
	return &Log{}
}

// AccumulateAlloc records a construction event for count slots/bytes of
// kind at span.
func (l *Log) AccumulateAlloc(span LifeSpan, kind MemoryKind, pol Polarity, count int64) {
	l.Alloc.Accumulate(span, kind, pol, count)
}

// AccumulateGarbage records a release event symmetric to AccumulateAlloc.
func (l *Log) AccumulateGarbage(span LifeSpan, kind MemoryKind, pol Polarity, count int64) {
	l.Garbage.Accumulate(span, kind, pol, count)
}

// ChangeLifeSpan debits from with Shrink and credits to with Expand, on
// both the alloc and garbage ledgers, for an object's constituent
// counts of kind, exactly as the accounting protocol's changeLifeSpan
// operation is defined. Leaves the sum across all lifespans invariant
// on each ledger independently.
func (l *Log) ChangeLifeSpan(from, to LifeSpan, kind MemoryKind, count int64) {
	l.Alloc.Accumulate(from, kind, Shrink, count)
	l.Alloc.Accumulate(to, kind, Expand, count)
	l.Garbage.Accumulate(from, kind, Shrink, count)
	l.Garbage.Accumulate(to, kind, Expand, count)
}

// PromoteAlloc is the narrower, alloc-ledger-only half of
// ChangeLifeSpan: it relabels an outstanding allocation from one
// lifespan to another without touching the garbage ledger. Entity
// constructors use this — not the full ChangeLifeSpan — to promote a
// freshly-Ephemeral object to its eventual lifespan exactly once
// during construction: the object is still alive and has not been
// garbage-collected, so nothing should be credited to the garbage
// ledger at promotion time. Its eventual real destruction later calls
// AccumulateGarbage(to, kind, Expand, count) directly, which is what
// satisfies "every construction pairs with exactly one
// garbage-accounting call... at the same LifeSpan used at destruction
// time." ChangeLifeSpan itself remains available unmodified for
// callers that need the full, symmetric two-ledger operation.
func (l *Log) PromoteAlloc(from, to LifeSpan, kind MemoryKind, count int64) {
	l.Alloc.Accumulate(from, kind, Shrink, count)
	l.Alloc.Accumulate(to, kind, Expand, count)
}

// FoldInto accumulates l's ledgers into dst under dst's mutex, the way
// a terminating worker thread folds its thread-local ledger into the
// shared global accumulator.
func (l *Log) FoldInto(dst *Log) {
	dst.mu.Lock()
	defer dst.mu.Unlock()
	dst.Alloc.Add(l.Alloc)
	dst.Garbage.Add(l.Garbage)
}

// Snapshot returns a copy of the current alloc/garbage matrices, safe
// to call on a global Log concurrently with FoldInto.
func (l *Log) Snapshot() (alloc, garbage Matrix) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Alloc, l.Garbage
}

// LiveMemory returns alloc-garbage for the (span, kind) cell, the net
// live memory conservation identity from the ledger invariants.
func LiveMemory(alloc, garbage Matrix, span LifeSpan, kind MemoryKind) int64 {
	return alloc[span][kind] - garbage[span][kind]
}
