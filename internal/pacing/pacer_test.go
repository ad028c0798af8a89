package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetweenStaysInRange(t *testing.T) {
	p := NewWith(7, nil)
	r := Range(100*time.Millisecond, 300*time.Millisecond)

	for i := 0; i < 500; i++ {
		d := p.Between(r)
		assert.GreaterOrEqual(t, d, r.Min)
		assert.LessOrEqual(t, d, r.Max)
	}
}

func TestBetweenDegenerateRange(t *testing.T) {
	p := NewWith(1, nil)

	assert.Equal(t, time.Second, p.Between(Range(time.Second, time.Second)))
	assert.Equal(t, time.Second, p.Between(Range(time.Second, 0)))
}

func TestIntRange(t *testing.T) {
	p := NewWith(3, nil)
	seen := map[int]bool{}

	for i := 0; i < 1000; i++ {
		n := p.IntRange(15, 25)
		require.GreaterOrEqual(t, n, 15)
		require.LessOrEqual(t, n, 25)
		seen[n] = true
	}

	assert.Len(t, seen, 11)
}

func TestHumanUsesInjectedSleep(t *testing.T) {
	var slept []time.Duration
	p := NewWith(9, func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	require.NoError(t, p.Human(context.Background(), Range(time.Second, 2*time.Second)))
	require.Len(t, slept, 1)
	assert.GreaterOrEqual(t, slept[0], time.Second)
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
