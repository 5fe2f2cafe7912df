// Package arraylet implements ArrayletOfLong: a dense ordered sequence
// of 64-bit integers used purely as a throughput-neutral indirection to
// vary GC/allocator fragmentation. Below MaxArrayLength it is a single
// flat slice; above it, it degrades into fixed-size segments ("an
// arraylet of arraylets"), stressing the same fragmented-array
// allocation pattern the original design intends. Callers never see
// the difference in observable behavior — only in allocation shape.
package arraylet

// Array is a dense ordered sequence of int64, optionally capped and
// segmented at maxLen. maxLen == 0 means unlimited (a single segment).
type Array struct {
	maxLen   int
	length   int
	segments [][]int64
}

// New returns an empty Array. maxLen caps the size of each backing
// segment; 0 means unlimited (a single contiguous slice).
func New(maxLen int) *Array {
	if maxLen < 0 {
		maxLen = 0
	}
	return &Array{maxLen: maxLen}
}

func (a *Array) segmentSize() int {
	if a.maxLen <= 0 {
		return -1 // unlimited: one growing segment
	}
	return a.maxLen
}

// Len returns the number of elements currently stored.
func (a *Array) Len() int { return a.length }

// Append adds v to the end of the sequence, allocating a new segment
// once the current tail segment reaches maxLen.
func (a *Array) Append(v int64) {
	segSize := a.segmentSize()
	if segSize < 0 {
		if len(a.segments) == 0 {
			a.segments = append(a.segments, nil)
		}
		a.segments[0] = append(a.segments[0], v)
		a.length++
		return
	}
	if len(a.segments) == 0 || len(a.segments[len(a.segments)-1]) >= segSize {
		a.segments = append(a.segments, make([]int64, 0, segSize))
	}
	last := len(a.segments) - 1
	a.segments[last] = append(a.segments[last], v)
	a.length++
}

// Get returns the element at index i.
func (a *Array) Get(i int) int64 {
	segSize := a.segmentSize()
	if segSize < 0 {
		return a.segments[0][i]
	}
	return a.segments[i/segSize][i%segSize]
}

// Set overwrites the element at index i.
func (a *Array) Set(i int, v int64) {
	segSize := a.segmentSize()
	if segSize < 0 {
		a.segments[0][i] = v
		return
	}
	a.segments[i/segSize][i%segSize] = v
}

// SegmentCount reports how many backing segments are currently
// allocated, observable only for allocation-shape diagnostics.
func (a *Array) SegmentCount() int { return len(a.segments) }

// NewFilled returns an Array of length n with every slot set to zero.
func NewFilled(maxLen, n int) *Array {
	a := New(maxLen)
	for i := 0; i < n; i++ {
		a.Append(0)
	}
	return a
}
