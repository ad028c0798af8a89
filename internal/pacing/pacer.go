package pacing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"challenge-replayer/internal/entity"
)

type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer draws randomized delays and sleeps them, honouring ctx.
type Pacer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep SleepFunc
}

func New() *Pacer {
	return &Pacer{
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		sleep: Sleep,
	}
}

// NewWith builds a deterministic pacer; a nil sleep records nothing and
// returns immediately unless ctx is done.
func NewWith(seed uint64, sleep SleepFunc) *Pacer {
	if sleep == nil {
		sleep = func(ctx context.Context, _ time.Duration) error {
			return ctx.Err()
		}
	}

	return &Pacer{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		sleep: sleep,
	}
}

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Between returns a uniform duration in [r.Min, r.Max].
func (p *Pacer) Between(r entity.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return r.Min + time.Duration(p.rng.Int64N(int64(r.Max-r.Min)+1))
}

func (p *Pacer) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rng.Float64()
}

// IntRange returns a uniform int in [lo, hi].
func (p *Pacer) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return lo + p.rng.IntN(hi-lo+1)
}

func (p *Pacer) Pause(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// Human sleeps a random duration drawn from r.
func (p *Pacer) Human(ctx context.Context, r entity.DelayRange) error {
	return p.sleep(ctx, p.Between(r))
}

func Range(min, max time.Duration) entity.DelayRange {
	return entity.DelayRange{Min: min, Max: max}
}
