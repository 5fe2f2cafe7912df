package domain

import (
	"sync"

	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

// SalesTransaction records a completed purchase: a Customer bought a
// Product, with an optional reviewer-info blob for post-sale review
// text. Born Ephemeral, promoted once to TransientIntermediate — the
// sale-processing residence window — and retired by whichever worker
// dequeues it from its SalesShard.
type SalesTransaction struct {
	Customer     *Customer
	Product      *Product
	ReviewerInfo string

	next *SalesTransaction
}

// NewSalesTransaction constructs a SalesTransaction and accounts its
// construction on log.
func NewSalesTransaction(customer *Customer, product *Product, reviewerInfo string, log *ledger.Log) *SalesTransaction {
	log.AccumulateAlloc(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ObjectReference, ledger.Expand, 2) // customer, product
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ObjectRSB, ledger.Expand, int64(len(reviewerInfo)))

	log.PromoteAlloc(ledger.Ephemeral, ledger.TransientIntermediate, ledger.PlainObject, 1)
	log.PromoteAlloc(ledger.Ephemeral, ledger.TransientIntermediate, ledger.ObjectReference, 2)
	log.PromoteAlloc(ledger.Ephemeral, ledger.TransientIntermediate, ledger.ObjectRSB, int64(len(reviewerInfo)))

	return &SalesTransaction{Customer: customer, Product: product, ReviewerInfo: reviewerInfo}
}

// Release accounts this SalesTransaction's garbage at
// TransientIntermediate, the lifespan it was promoted to at
// construction.
func (t *SalesTransaction) Release(log *ledger.Log) {
	log.AccumulateGarbage(ledger.TransientIntermediate, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateGarbage(ledger.TransientIntermediate, ledger.ObjectReference, ledger.Expand, 2)
	log.AccumulateGarbage(ledger.TransientIntermediate, ledger.ObjectRSB, ledger.Expand, int64(len(t.ReviewerInfo)))
}

// SalesShard is one independently-locked shard of the sales-processing
// queue: a singly linked FIFO list. Sale processing is consume-once —
// nothing needs to unlink an arbitrary mid-list entry — so a singly
// linked list with O(1) enqueue/dequeue suffices, unlike HistoryShard.
type SalesShard struct {
	mu    sync.Mutex
	head  *SalesTransaction
	tail  *SalesTransaction
	count int
}

// NewSalesShard returns an empty shard.
func NewSalesShard() *SalesShard { return &SalesShard{} }

// Enqueue appends t at the tail under the shard lock.
func (s *SalesShard) Enqueue(t *SalesTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.next = nil
	if s.tail != nil {
		s.tail.next = t
	} else {
		s.head = t
	}
	s.tail = t
	s.count++
}

// Dequeue removes and returns the head transaction, or (nil, false) if
// the shard is empty.
func (s *SalesShard) Dequeue() (*SalesTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head == nil {
		return nil, false
	}
	t := s.head
	s.head = t.next
	if s.head == nil {
		s.tail = nil
	}
	t.next = nil
	s.count--
	return t, true
}

// Count returns the number of transactions currently queued.
func (s *SalesShard) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// SalesQueue is the N-shard sales-processing queue, mirroring
// HistoryQueue's affiliation-by-index model.
type SalesQueue struct {
	shards []*SalesShard
}

// NewSalesQueue returns a queue of n independently-locked shards.
func NewSalesQueue(n int) *SalesQueue {
	if n < 1 {
		n = 1
	}
	q := &SalesQueue{shards: make([]*SalesShard, n)}
	for i := range q.shards {
		q.shards[i] = NewSalesShard()
	}
	return q
}

// ShardCount returns the number of shards in the queue.
func (q *SalesQueue) ShardCount() int { return len(q.shards) }

// Shard returns the shard affiliated with worker index i (i mod N).
func (q *SalesQueue) Shard(i int) *SalesShard {
	return q.shards[i%len(q.shards)]
}

// DrainAll dequeues and releases every transaction remaining in every
// shard, for use once every worker has terminated and no more sales
// will be drained by a ServerThread's normal release loop.
func (q *SalesQueue) DrainAll(log *ledger.Log) {
	for _, shard := range q.shards {
		for {
			t, ok := shard.Dequeue()
			if !ok {
				break
			}
			t.Release(log)
		}
	}
}
