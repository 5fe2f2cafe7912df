package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

func TestCustomerReleaseBalancesLiveMemory(t *testing.T) {
	log := ledger.NewLog()
	c := domain.NewCustomer(1, "ambercedar", 42, log)
	require.NotNil(t, c)
	assert.False(t, c.Deceased())

	alloc, garbage := log.Snapshot()
	assert.Greater(t, ledger.LiveMemory(alloc, garbage, ledger.NearlyForever, ledger.PlainObject), int64(0))

	c.Release(log)
	alloc, garbage = log.Snapshot()
	assert.Equal(t, int64(0), ledger.LiveMemory(alloc, garbage, ledger.NearlyForever, ledger.PlainObject))
}

func TestHistoryShardPullIfExpiredBoundary(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "basilcedar", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	now := simtime.NewAbsoluteTime(1000, 0)
	h := domain.NewBrowsingHistory(customer, product, now, log)
	shard.Enqueue(h)

	justBefore := simtime.NewAbsoluteTime(999, 999_999_999)
	_, ok := shard.PullIfExpired(justBefore)
	assert.False(t, ok, "must not pull when head expiration strictly exceeds now")

	pulled, ok := shard.PullIfExpired(now)
	require.True(t, ok)
	assert.Same(t, h, pulled)
	assert.Equal(t, 0, shard.Count())
}

func TestHistoryShardFIFOOrder(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "cedardew", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	var histories []*domain.BrowsingHistory
	for i := 0; i < 3; i++ {
		h := domain.NewBrowsingHistory(customer, product, simtime.NewAbsoluteTime(int64(i), 0), log)
		shard.Enqueue(h)
		histories = append(histories, h)
	}

	for i := 0; i < 3; i++ {
		pulled, ok := shard.PullIfExpired(simtime.NewAbsoluteTime(10, 0))
		require.True(t, ok)
		assert.Same(t, histories[i], pulled)
	}
	_, ok := shard.PullIfExpired(simtime.NewAbsoluteTime(10, 0))
	assert.False(t, ok)
}

func TestSalesShardFIFOOrder(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "elmfir", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewSalesShard()

	t1 := domain.NewSalesTransaction(customer, product, "", log)
	t2 := domain.NewSalesTransaction(customer, product, "great buy", log)
	shard.Enqueue(t1)
	shard.Enqueue(t2)

	got1, ok := shard.Dequeue()
	require.True(t, ok)
	assert.Same(t, t1, got1)

	got2, ok := shard.Dequeue()
	require.True(t, ok)
	assert.Same(t, t2, got2)

	_, ok = shard.Dequeue()
	assert.False(t, ok)
}

func TestCustomerAddRetireRoundTrip(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "firgorse", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	h := domain.NewBrowsingHistory(customer, product, simtime.NewAbsoluteTime(1, 0), log)
	shard.Enqueue(h)
	added := customer.Add(h, log)
	assert.Equal(t, 0, added)

	snap := customer.SnapshotProducts(ledger.TransientShort, log)
	require.Len(t, snap, 1)
	assert.Same(t, product, snap[0])

	customer.RetireOne(h)
	snap = customer.SnapshotProducts(ledger.TransientShort, log)
	assert.Empty(t, snap)
}

func TestCustomerAddGrowsBufferOnOverflow(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "hazelivy", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	var total int
	for i := 0; i < 9; i++ {
		h := domain.NewBrowsingHistory(customer, product, simtime.NewAbsoluteTime(int64(i), 0), log)
		shard.Enqueue(h)
		total += customer.Add(h, log)
	}
	assert.Greater(t, total, 0, "buffer should have resized at least once across 9 inserts into an 8-slot buffer")

	snap := customer.SnapshotProducts(ledger.TransientShort, log)
	assert.Len(t, snap, 9)
}

func TestCustomerAddWhileDeceasedUnlinksImmediately(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "junipkin", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	h := domain.NewBrowsingHistory(customer, product, simtime.NewAbsoluteTime(1, 0), log)
	shard.Enqueue(h)
	customer.PrepareForDemise(log)

	added := customer.Add(h, log)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, shard.Count(), "deceased customer's Add must unlink h from its shard rather than buffer it")
}

func TestPrepareForDemiseIsMonotonicAndDrainsSFLQ(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "kalelemon", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	shard := domain.NewHistoryShard()

	h := domain.NewBrowsingHistory(customer, product, simtime.NewAbsoluteTime(1, 0), log)
	shard.Enqueue(h)
	customer.Add(h, log)

	require.False(t, customer.Deceased())
	customer.PrepareForDemise(log)
	assert.True(t, customer.Deceased())
	assert.Equal(t, 0, shard.Count())

	snap := customer.SnapshotProducts(ledger.TransientShort, log)
	assert.Empty(t, snap)

	// Monotonic: a second call must not panic or un-set deceased.
	customer.PrepareForDemise(log)
	assert.True(t, customer.Deceased())
}

func TestProductReleaseBalancesLiveMemory(t *testing.T) {
	log := ledger.NewLog()
	p := domain.NewProduct(1, "gizmo", "a fine gizmo", []string{"a", "b"}, log)
	alloc, garbage := log.Snapshot()
	assert.Greater(t, ledger.LiveMemory(alloc, garbage, ledger.NearlyForever, ledger.ObjectRSB), int64(0))

	p.Release(log)
	alloc, garbage = log.Snapshot()
	assert.Equal(t, int64(0), ledger.LiveMemory(alloc, garbage, ledger.NearlyForever, ledger.ObjectRSB))
}

func TestSalesTransactionReleaseBalancesLiveMemory(t *testing.T) {
	log := ledger.NewLog()
	customer := domain.NewCustomer(1, "mintnettle", 1, log)
	product := domain.NewProduct(1, "widget", "a widget", nil, log)
	txn := domain.NewSalesTransaction(customer, product, "loved it", log)

	alloc, garbage := log.Snapshot()
	assert.Greater(t, ledger.LiveMemory(alloc, garbage, ledger.TransientIntermediate, ledger.ObjectRSB), int64(0))

	txn.Release(log)
	alloc, garbage = log.Snapshot()
	assert.Equal(t, int64(0), ledger.LiveMemory(alloc, garbage, ledger.TransientIntermediate, ledger.ObjectRSB))
}

func TestHistoryQueueAffiliationWrapsRoundRobin(t *testing.T) {
	q := domain.NewHistoryQueue(3)
	require.Equal(t, 3, q.ShardCount())
	assert.Same(t, q.Shard(0), q.Shard(3))
	assert.NotSame(t, q.Shard(0), q.Shard(1))
}

func TestSalesQueueAffiliationWrapsRoundRobin(t *testing.T) {
	q := domain.NewSalesQueue(2)
	require.Equal(t, 2, q.ShardCount())
	assert.Same(t, q.Shard(0), q.Shard(2))
}

// sanity check that time.Now-based construction compiles cleanly against
// simtime's AbsoluteTime without an import cycle; not asserting real time.
func TestSimtimeNowIsUsable(t *testing.T) {
	now := simtime.Now()
	later := simtime.Add(now, simtime.FromDuration(time.Second))
	assert.True(t, later.After(now))
}
