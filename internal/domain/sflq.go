package domain

import "github.com/go-catalogsim/catalogsim/internal/ledger"

// Add inserts h into the customer's save-for-later circular buffer.
// If the customer is already deceased, h is immediately unlinked from
// its shard and its garbage accounted instead of being buffered — a
// dying customer never accumulates new save-for-later state. Otherwise,
// if the buffer is full, its capacity doubles; the displaced old
// backing array is garbage-accounted at NearlyForever, matching the
// lifespan it was promoted to when first allocated.
//
// Returns the number of new capacity slots added by a resize (0 if no
// resize occurred).
func (c *Customer) Add(h *BrowsingHistory, log *ledger.Log) int {
	if c.Deceased() {
		if h.shard != nil {
			h.shard.Dequeue(h)
		}
		h.Release(log)
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	if c.sflqCount == len(c.sflqBuf) {
		oldCap := len(c.sflqBuf)
		newCap := oldCap * 2
		resized := make([]*BrowsingHistory, newCap)
		for i := 0; i < c.sflqCount; i++ {
			resized[i] = c.sflqBuf[(c.sflqHead+i)%oldCap]
		}
		log.AccumulateAlloc(ledger.Ephemeral, ledger.ArrayReference, ledger.Expand, int64(newCap))
		log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.ArrayReference, int64(newCap))
		log.AccumulateGarbage(ledger.NearlyForever, ledger.ArrayReference, ledger.Expand, int64(oldCap))

		c.sflqBuf = resized
		c.sflqHead = 0
		added = newCap - oldCap
	}

	idx := (c.sflqHead + c.sflqCount) % len(c.sflqBuf)
	c.sflqBuf[idx] = h
	c.sflqCount++
	return added
}

// RetireOne removes h from the customer's save-for-later buffer,
// preserving the FIFO order of the remaining entries. It does not
// account h's own garbage or unlink it from its shard — callers that
// already hold h (an expired pull, a completed sale) do that
// themselves; RetireOne only maintains sflq bookkeeping.
func (c *Customer) RetireOne(h *BrowsingHistory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cap := len(c.sflqBuf)
	found := -1
	for i := 0; i < c.sflqCount; i++ {
		if c.sflqBuf[(c.sflqHead+i)%cap] == h {
			found = i
			break
		}
	}
	if found == -1 {
		return
	}

	// Rewrite the logical order compactly from index 0, skipping found,
	// then reset head to 0 so the buffer stays contiguous.
	remaining := make([]*BrowsingHistory, 0, c.sflqCount-1)
	for i := 0; i < c.sflqCount; i++ {
		if i == found {
			continue
		}
		remaining = append(remaining, c.sflqBuf[(c.sflqHead+i)%cap])
	}
	for i := range c.sflqBuf {
		c.sflqBuf[i] = nil
	}
	copy(c.sflqBuf, remaining)
	c.sflqHead = 0
	c.sflqCount = len(remaining)
}

// SnapshotProducts allocates a fresh slice of every product currently
// saved for later, in FIFO order, accounted directly at lifespan (no
// promotion — it is allocated at its final lifespan from birth). The
// caller owns matching this with an AccumulateGarbage call at the same
// lifespan once the snapshot is discarded.
func (c *Customer) SnapshotProducts(lifespan ledger.LifeSpan, log *ledger.Log) []*Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	cap := len(c.sflqBuf)
	out := make([]*Product, c.sflqCount)
	for i := 0; i < c.sflqCount; i++ {
		out[i] = c.sflqBuf[(c.sflqHead+i)%cap].Product
	}
	log.AccumulateAlloc(lifespan, ledger.ArrayReference, ledger.Expand, int64(c.sflqCount))
	return out
}

// PrepareForDemise marks the customer deceased and drains its sflq:
// every remaining entry is unlinked from its shard and its garbage
// accounted at TransientLingering, then the buffer itself is
// garbage-accounted at NearlyForever. Returns the buffer's capacity at
// time of death.
func (c *Customer) PrepareForDemise(log *ledger.Log) int {
	c.deceased.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()

	cap := len(c.sflqBuf)
	for i := 0; i < c.sflqCount; i++ {
		h := c.sflqBuf[(c.sflqHead+i)%cap]
		if h == nil {
			continue
		}
		if h.shard != nil {
			h.shard.Dequeue(h)
		}
		h.Release(log)
		c.sflqBuf[(c.sflqHead+i)%cap] = nil
	}
	c.sflqCount = 0
	c.sflqHead = 0

	log.AccumulateGarbage(ledger.NearlyForever, ledger.ArrayReference, ledger.Expand, int64(cap))
	return cap
}
