package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAttentionSequenceMatchesPreservedBehavior pins the exact, non-clean
// rotation sequence: starting from value 0, the post-decrement-and-maybe-reset
// idiom produces 3, 2, 1, 0 repeating, not an ascending 0, 1, 2, 3.
func TestAttentionSequenceMatchesPreservedBehavior(t *testing.T) {
	var a attentionCounter
	want := []int{3, 2, 1, 0, 3, 2, 1, 0, 3, 2}
	for i, w := range want {
		assert.Equal(t, w, a.next(), "call %d", i)
	}
}
