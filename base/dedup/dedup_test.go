package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeen(t *testing.T) {
	s := New(16, time.Minute)

	assert.False(t, s.Seen("0xabc"))
	assert.True(t, s.Seen("0xabc"))
	assert.True(t, s.Contains("0xabc"))
	assert.False(t, s.Contains("0xdef"))
}

func TestCapacityEviction(t *testing.T) {
	s := New(3, time.Minute)

	for i := 0; i < 4; i++ {
		s.Seen(fmt.Sprintf("0x%d", i))
	}

	assert.Equal(t, 3, s.Len())
	// oldest evicted first
	assert.False(t, s.Contains("0x0"))
	assert.True(t, s.Contains("0x3"))
}

func TestAgeEviction(t *testing.T) {
	s := New(16, time.Minute)
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	s.Seen("old")
	now = now.Add(2 * time.Minute)
	s.Seen("new")

	assert.False(t, s.Contains("old"))
	assert.True(t, s.Contains("new"))
}
