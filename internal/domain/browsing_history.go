package domain

import (
	"sync"
	"sync/atomic"

	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

// BrowsingHistory records that a Customer viewed a Product and saved it
// for later, with an expiration deadline. It is reachable from exactly
// one shard's doubly linked list and exactly one Customer's sflq until
// retirement, which removes it from both.
type BrowsingHistory struct {
	Customer   *Customer
	Product    *Product
	Expiration simtime.AbsoluteTime

	shard *HistoryShard
	next  *BrowsingHistory
	prev  *BrowsingHistory

	// released guards Release against being accounted twice when an
	// expiry pull and a concurrent customer-death drain both reach the
	// same entry: PullIfExpired unlinks h from its shard without
	// touching the owning customer's sflq, so RetireOne/PrepareForDemise
	// can still find and release the same h from another goroutine.
	released atomic.Bool
}

// NewBrowsingHistory constructs a BrowsingHistory, accounting its
// construction on log: born Ephemeral, promoted once to
// TransientLingering — the save-for-later residence window.
func NewBrowsingHistory(customer *Customer, product *Product, expiration simtime.AbsoluteTime, log *ledger.Log) *BrowsingHistory {
	log.AccumulateAlloc(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ObjectReference, ledger.Expand, 3) // customer, product, shard

	log.PromoteAlloc(ledger.Ephemeral, ledger.TransientLingering, ledger.PlainObject, 1)
	log.PromoteAlloc(ledger.Ephemeral, ledger.TransientLingering, ledger.ObjectReference, 3)

	return &BrowsingHistory{Customer: customer, Product: product, Expiration: expiration}
}

// Release accounts this BrowsingHistory's garbage at TransientLingering,
// the lifespan it was promoted to at construction. Safe to call more
// than once — by expiry, by sale, by customer death, or by explicit
// dequeue, any of which can race with another — but only the call that
// wins the retirement race actually accounts garbage.
func (h *BrowsingHistory) Release(log *ledger.Log) {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	log.AccumulateGarbage(ledger.TransientLingering, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateGarbage(ledger.TransientLingering, ledger.ObjectReference, ledger.Expand, 3)
}

// HistoryShard is one independently-locked shard of the browsing-history
// expiration queue: a doubly linked FIFO list keyed by expiration order.
// Because every entry shares the same residence duration, insertion
// order equals expiration order, so PullIfExpired is O(1) on the head.
type HistoryShard struct {
	mu    sync.Mutex
	head  *BrowsingHistory
	tail  *BrowsingHistory
	count int
}

// NewHistoryShard returns an empty shard.
func NewHistoryShard() *HistoryShard { return &HistoryShard{} }

// Enqueue appends h at the tail under the shard lock.
func (s *HistoryShard) Enqueue(h *BrowsingHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(h)
}

func (s *HistoryShard) enqueueLocked(h *BrowsingHistory) {
	h.shard = s
	h.prev = s.tail
	h.next = nil
	if s.tail != nil {
		s.tail.next = h
	} else {
		s.head = h
	}
	s.tail = h
	s.count++
}

// Dequeue unlinks an arbitrary entry from the shard, as required when a
// customer dies while still holding outstanding entries.
func (s *HistoryShard) Dequeue(h *BrowsingHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dequeueLocked(h)
}

func (s *HistoryShard) dequeueLocked(h *BrowsingHistory) {
	if h.shard != s {
		return
	}
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		s.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	} else {
		s.tail = h.prev
	}
	h.next = nil
	h.prev = nil
	h.shard = nil
	s.count--
}

// PullIfExpired returns and unlinks the head entry if its expiration is
// at or before now; otherwise it returns (nil, false) without blocking
// on anything but the shard lock.
func (s *HistoryShard) PullIfExpired(now simtime.AbsoluteTime) (*BrowsingHistory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head == nil {
		return nil, false
	}
	if s.head.Expiration.After(now) {
		return nil, false
	}
	h := s.head
	s.dequeueLocked(h)
	return h, true
}

// Count returns the number of entries currently linked in the shard.
func (s *HistoryShard) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// PullAll unlinks and returns every entry currently in the shard,
// regardless of expiration, for use during shutdown teardown.
func (s *HistoryShard) PullAll() []*BrowsingHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*BrowsingHistory, 0, s.count)
	for h := s.head; h != nil; {
		next := h.next
		out = append(out, h)
		h = next
	}
	s.head, s.tail, s.count = nil, nil, 0
	return out
}

// HistoryQueue is the N-shard browsing-history expiration queue. Each
// CustomerThread is affiliated with a single shard, chosen at
// construction, to spread contention.
type HistoryQueue struct {
	shards []*HistoryShard
}

// NewHistoryQueue returns a queue of n independently-locked shards.
func NewHistoryQueue(n int) *HistoryQueue {
	if n < 1 {
		n = 1
	}
	q := &HistoryQueue{shards: make([]*HistoryShard, n)}
	for i := range q.shards {
		q.shards[i] = NewHistoryShard()
	}
	return q
}

// ShardCount returns the number of shards in the queue.
func (q *HistoryQueue) ShardCount() int { return len(q.shards) }

// Shard returns the shard affiliated with worker index i (i mod N).
func (q *HistoryQueue) Shard(i int) *HistoryShard {
	return q.shards[i%len(q.shards)]
}

// DrainAll unlinks every entry remaining in every shard, retires it
// from its owning customer's sflq, and releases it, for use once every
// worker has terminated. A customer whose sflq already emptied during
// its own teardown leaves RetireOne a no-op, and Release's once-only
// guard makes it safe for this to race with or follow that teardown in
// either order.
func (q *HistoryQueue) DrainAll(log *ledger.Log) {
	for _, shard := range q.shards {
		for _, h := range shard.PullAll() {
			h.Customer.RetireOne(h)
			h.Release(log)
		}
	}
}
