package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialDurations(t *testing.T) {
	b := NewExponential(time.Second, 0)

	durations := []time.Duration{}
	for i := 0; i < 3; i++ {
		durations = append(durations, b.NextDuration)
		b.count++
		b.LastDuration = b.NextDuration
		b.NextDuration = b.getNextDuration()
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, durations)
	assert.True(t, durations[0] < durations[1] && durations[1] < durations[2])
}

func TestIncrementDurations(t *testing.T) {
	b := NewIncrement(time.Second, 500*time.Millisecond, 0)

	durations := []time.Duration{}
	for i := 0; i < 3; i++ {
		durations = append(durations, b.NextDuration)
		b.count++
		b.LastDuration = b.NextDuration
		b.NextDuration = b.getNextDuration()
	}

	assert.Equal(t, []time.Duration{
		time.Second,
		1500 * time.Millisecond,
		2 * time.Second,
	}, durations)
}

func TestLimitCapsDuration(t *testing.T) {
	b := NewExponential(time.Second, 3*time.Second)
	for i := 0; i < 5; i++ {
		b.count++
		b.LastDuration = b.NextDuration
		b.NextDuration = b.getNextDuration()
	}
	assert.Equal(t, 3*time.Second, b.NextDuration)
}

func TestResetRestartsSchedule(t *testing.T) {
	b := NewExponential(time.Second, 0)
	b.count = 3
	b.NextDuration = b.getNextDuration()
	assert.Equal(t, 8*time.Second, b.NextDuration)

	b.Reset()
	assert.Equal(t, time.Second, b.NextDuration)
}
