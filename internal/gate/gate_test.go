package gate_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-catalogsim/catalogsim/internal/gate"
)

func TestReadersOverlap(t *testing.T) {
	g := gate.New()
	var concurrent int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Read(func() {
				n := atomic.AddInt32(&concurrent, 1)
				for {
					cur := atomic.LoadInt32(&maxConcurrent)
					if n <= cur || atomic.CompareAndSwapInt32(&maxConcurrent, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&concurrent, -1)
			})
		}()
	}
	wg.Wait()
	assert.Greater(t, maxConcurrent, int32(1), "expected readers to overlap")
}

func TestWriterExclusiveAgainstReaders(t *testing.T) {
	g := gate.New()
	var readers, writers int32
	violated := false
	var mu sync.Mutex
	var wg sync.WaitGroup

	check := func() {
		r, w := atomic.LoadInt32(&readers), atomic.LoadInt32(&writers)
		if (r > 0 && w > 0) || w > 1 {
			mu.Lock()
			violated = true
			mu.Unlock()
		}
	}

	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Read(func() {
				atomic.AddInt32(&readers, 1)
				check()
				time.Sleep(time.Millisecond)
				check()
				atomic.AddInt32(&readers, -1)
			})
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Write(func() {
				atomic.AddInt32(&writers, 1)
				check()
				time.Sleep(time.Millisecond)
				check()
				atomic.AddInt32(&writers, -1)
			})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, violated, "reader/writer exclusion invariant was violated")
}

func TestWriterPriorityCompletesUnderReaderLoad(t *testing.T) {
	g := gate.New()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				g.Read(func() { time.Sleep(time.Millisecond) })
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		g.Write(func() { time.Sleep(time.Millisecond) })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer starved under reader load")
	}
	close(stop)
	wg.Wait()

	rs, ws := g.ReaderStats(), g.WriterStats()
	assert.GreaterOrEqual(t, rs.TotalWait, int64(0))
	assert.GreaterOrEqual(t, ws.TotalWait, int64(0))
	assert.GreaterOrEqual(t, ws.Count, int64(1))
}

func TestValueReturnAndPanicStillReleases(t *testing.T) {
	g := gate.New()

	v := gate.ReadValue(g, func() int { return 42 })
	require.Equal(t, 42, v)

	func() {
		defer func() { recover() }()
		g.Read(func() { panic("boom") })
	}()

	r, w := g.ActiveCounts()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, w)

	// gate must still be usable after a panic inside fn.
	gate.WriteValue(g, func() struct{} { return struct{}{} })
}
