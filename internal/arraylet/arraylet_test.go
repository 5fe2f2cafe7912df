package arraylet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-catalogsim/catalogsim/internal/arraylet"
)

func TestUnlimitedIsOneSegment(t *testing.T) {
	a := arraylet.New(0)
	for i := int64(0); i < 100; i++ {
		a.Append(i)
	}
	assert.Equal(t, 100, a.Len())
	assert.Equal(t, 1, a.SegmentCount())
	assert.Equal(t, int64(42), a.Get(42))
}

func TestCappedSplitsIntoSegments(t *testing.T) {
	a := arraylet.New(10)
	for i := int64(0); i < 25; i++ {
		a.Append(i)
	}
	assert.Equal(t, 25, a.Len())
	assert.Equal(t, 3, a.SegmentCount())
	for i := int64(0); i < 25; i++ {
		assert.Equal(t, i, a.Get(int(i)))
	}
}

func TestSetOverwrites(t *testing.T) {
	a := arraylet.New(4)
	for i := int64(0); i < 10; i++ {
		a.Append(i)
	}
	a.Set(7, 999)
	assert.Equal(t, int64(999), a.Get(7))
}
