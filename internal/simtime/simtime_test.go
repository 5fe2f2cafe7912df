package simtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

func TestRelativeTimeCanonicalizesOverflow(t *testing.T) {
	got := simtime.NewRelativeTime(1, 1_500_000_000)
	want := simtime.NewRelativeTime(2, 500_000_000)
	assert.Equal(t, want, got)
	assert.True(t, got.Nanos >= 0 && got.Nanos < 1_000_000_000)
}

func TestRelativeTimeCanonicalizesNegativeNanos(t *testing.T) {
	got := simtime.NewRelativeTime(2, -500_000_000)
	assert.Equal(t, int64(1), got.Sec)
	assert.Equal(t, int32(500_000_000), got.Nanos)
}

func TestSubCanProduceNegative(t *testing.T) {
	a := simtime.NewAbsoluteTime(10, 0)
	b := simtime.NewAbsoluteTime(12, 0)
	r := simtime.Sub(a, b)
	assert.True(t, r.Sec < 0)
	assert.Equal(t, simtime.RelativeTime{}, r.Clamp())
}

func TestAddIsCanonical(t *testing.T) {
	a := simtime.NewAbsoluteTime(5, 800_000_000)
	r := simtime.NewRelativeTime(0, 300_000_000)
	got := simtime.Add(a, r)
	assert.Equal(t, int64(6), got.Sec)
	assert.Equal(t, int32(100_000_000), got.Nanos)
}

func TestSleepUntilReturnsOnceTargetPassed(t *testing.T) {
	target := simtime.Add(simtime.Now(), simtime.FromDuration(20*time.Millisecond))
	now, ok := simtime.SleepUntil(context.Background(), target)
	assert.True(t, ok)
	assert.True(t, now.AtLeast(target))
}

func TestSleepUntilHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	target := simtime.Add(simtime.Now(), simtime.FromDuration(time.Hour))
	_, ok := simtime.SleepUntil(ctx, target)
	assert.False(t, ok)
}
