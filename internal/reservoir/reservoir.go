// Package reservoir implements the fixed-capacity response-time sample
// ring used to compute percentile latencies. Once saturated, new
// samples overwrite the oldest slot, biasing the window toward recent
// activity, while the true min/max across every insert ever made are
// tracked separately and spliced back into the sorted view so extremes
// survive being overwritten.
package reservoir

import (
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/go-catalogsim/catalogsim/internal/arraylet"
)

// Reservoir is a ring buffer of microsecond latency samples, backed by
// an arraylet.Array rather than a bare []int64 so MaxArrayLength has
// the same fragmentation effect on the reservoir's storage as it does
// on every other fan-out container in the simulation.
type Reservoir struct {
	mu       sync.Mutex
	capacity int
	samples  *arraylet.Array
	count    int // number of valid slots filled so far (caps at capacity)
	next     int // rotating overwrite index once count == capacity

	haveSample bool
	minLogged  int64
	maxLogged  int64
}

// New returns an empty reservoir with the given capacity, backed by an
// unsegmented arraylet (maxArrayLength 0). Capacity 0 is valid: Insert
// is then a no-op beyond extreme tracking, and every percentile
// reports "*". Use NewWithSegmentCap to vary the backing segmentation.
func New(capacity int) *Reservoir {
	return NewWithSegmentCap(capacity, 0)
}

// NewWithSegmentCap is like New but caps each backing arraylet segment
// at maxArrayLength (0 means unlimited), matching the MaxArrayLength
// config option.
func NewWithSegmentCap(capacity, maxArrayLength int) *Reservoir {
	if capacity < 0 {
		capacity = 0
	}
	return &Reservoir{capacity: capacity, samples: arraylet.NewFilled(maxArrayLength, capacity)}
}

// Insert records a latency sample in microseconds. Negative values —
// which can occur when a host sleep undershoots its target wake time —
// are clamped to zero before insertion; this is expected, not silent
// data corruption, so it is documented here rather than logged.
func (r *Reservoir) Insert(latencyUs int64) {
	if latencyUs < 0 {
		latencyUs = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.haveSample || latencyUs < r.minLogged {
		r.minLogged = latencyUs
	}
	if !r.haveSample || latencyUs > r.maxLogged {
		r.maxLogged = latencyUs
	}
	r.haveSample = true

	if r.capacity == 0 {
		return
	}
	if r.count < r.capacity {
		r.samples.Set(r.count, latencyUs)
		r.count++
		return
	}
	r.samples.Set(r.next, latencyUs)
	r.next = (r.next + 1) % r.capacity
}

// Percentiles is the set of reported response-time percentiles. Each
// field holds a formatted value, or "*" when the sample count has not
// yet reached that percentile's reporting threshold.
type Percentiles struct {
	P50     string
	P95     string
	P99     string
	P999    string
	P9999   string
	P99999  string
	P100    string
}

type percentileSpec struct {
	p         float64
	threshold int
}

var specs = struct {
	p50, p95, p99, p999, p9999, p99999, p100 percentileSpec
}{
	p50:    {p: 50, threshold: 2},
	p95:    {p: 95, threshold: 100},
	p99:    {p: 99, threshold: 100},
	p999:   {p: 99.9, threshold: 1000},
	p9999:  {p: 99.99, threshold: 10000},
	p99999: {p: 99.999, threshold: 100000},
	p100:   {p: 100, threshold: 1},
}

// Percentiles sorts the currently-filled prefix, forces position 0 to
// the tracked minimum and the last position to the tracked maximum —
// preserving true extremes through overwrite — then reports each
// percentile only when the sample count meets its threshold.
func (r *Reservoir) Percentiles() Percentiles {
	r.mu.Lock()
	n := r.count
	sorted := make([]int64, n)
	for i := 0; i < n; i++ {
		sorted[i] = r.samples.Get(i)
	}
	minLogged, maxLogged := r.minLogged, r.maxLogged
	r.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if n > 0 {
		sorted[0] = minLogged
		sorted[n-1] = maxLogged
	}

	pick := func(spec percentileSpec) string {
		if n < spec.threshold {
			return "*"
		}
		idx := int(math.Floor(spec.p / 100.0 * float64(n)))
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		return strconv.FormatInt(sorted[idx], 10)
	}

	return Percentiles{
		P50:    pick(specs.p50),
		P95:    pick(specs.p95),
		P99:    pick(specs.p99),
		P999:   pick(specs.p999),
		P9999:  pick(specs.p9999),
		P99999: pick(specs.p99999),
		P100:   pick(specs.p100),
	}
}

// Min returns the true minimum ever inserted, and whether any sample
// has been inserted yet.
func (r *Reservoir) Min() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minLogged, r.haveSample
}

// Max returns the true maximum ever inserted, and whether any sample
// has been inserted yet.
func (r *Reservoir) Max() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxLogged, r.haveSample
}
