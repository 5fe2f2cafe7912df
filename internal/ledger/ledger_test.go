package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

func TestAccumulateAndTotal(t *testing.T) {
	var m ledger.Matrix
	m.Accumulate(ledger.TransientShort, ledger.ObjectReference, ledger.Expand, 3)
	m.Accumulate(ledger.TransientShort, ledger.ObjectReference, ledger.Shrink, 1)

	assert.Equal(t, int64(2), m[ledger.TransientShort][ledger.ObjectReference])
	assert.Equal(t, int64(2), m.Total())
}

func TestChangeLifeSpanPreservesTotal(t *testing.T) {
	log := ledger.NewLog()
	log.AccumulateAlloc(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 5)
	log.AccumulateGarbage(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 0)

	before := log.Alloc.Total()
	log.ChangeLifeSpan(ledger.Ephemeral, ledger.NearlyForever, ledger.PlainObject, 5)
	after := log.Alloc.Total()

	require.Equal(t, before, after)
	assert.Equal(t, int64(0), log.Alloc[ledger.Ephemeral][ledger.PlainObject])
	assert.Equal(t, int64(5), log.Alloc[ledger.NearlyForever][ledger.PlainObject])
}

func TestChangeLifeSpanRoundTrip(t *testing.T) {
	log := ledger.NewLog()
	log.AccumulateAlloc(ledger.TransientShort, ledger.ArrayRSB, ledger.Expand, 12)

	log.ChangeLifeSpan(ledger.TransientShort, ledger.TransientLingering, ledger.ArrayRSB, 12)
	log.ChangeLifeSpan(ledger.TransientLingering, ledger.TransientShort, ledger.ArrayRSB, 12)

	assert.Equal(t, int64(12), log.Alloc[ledger.TransientShort][ledger.ArrayRSB])
	assert.Equal(t, int64(0), log.Alloc[ledger.TransientLingering][ledger.ArrayRSB])
}

func TestFoldIntoAccumulatesAcrossThreads(t *testing.T) {
	global := ledger.NewLog()

	threadA := ledger.NewLog()
	threadA.AccumulateAlloc(ledger.TransientIntermediate, ledger.ObjectRSB, ledger.Expand, 10)
	threadA.AccumulateGarbage(ledger.TransientIntermediate, ledger.ObjectRSB, ledger.Expand, 4)

	threadB := ledger.NewLog()
	threadB.AccumulateAlloc(ledger.TransientIntermediate, ledger.ObjectRSB, ledger.Expand, 7)
	threadB.AccumulateGarbage(ledger.TransientIntermediate, ledger.ObjectRSB, ledger.Expand, 7)

	threadA.FoldInto(global)
	threadB.FoldInto(global)

	alloc, garbage := global.Snapshot()
	assert.Equal(t, int64(17), alloc[ledger.TransientIntermediate][ledger.ObjectRSB])
	assert.Equal(t, int64(11), garbage[ledger.TransientIntermediate][ledger.ObjectRSB])
	assert.Equal(t, int64(6), ledger.LiveMemory(alloc, garbage, ledger.TransientIntermediate, ledger.ObjectRSB))
}

func TestLifeSpanAndMemoryKindStrings(t *testing.T) {
	assert.Equal(t, "Ephemeral", ledger.Ephemeral.String())
	assert.Equal(t, "NearlyForever", ledger.NearlyForever.String())
	assert.Equal(t, "ArrayRSB", ledger.ArrayRSB.String())
	assert.Equal(t, 5, int(ledger.NumLifeSpans))
	assert.Equal(t, 6, int(ledger.NumMemoryKinds))
}
