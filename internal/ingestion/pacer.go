package ingestion

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Default pause range between upstream requests.
const (
	DefaultPauseMin = 30 * time.Second
	DefaultPauseMax = 60 * time.Second
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the real Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
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

// Pacer inserts a random pause in [min, max] between upstream phases.
type Pacer struct {
	min   time.Duration
	max   time.Duration
	sleep Sleeper

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPacer creates a pacer. A nil sleeper uses ContextSleep; a nil rand
// source is seeded from the clock.
func NewPacer(min, max time.Duration, sleep Sleeper, rnd *rand.Rand) *Pacer {
	if max < min {
		max = min
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pacer{min: min, max: max, sleep: sleep, rnd: rnd}
}

// Next returns the next pause duration.
func (p *Pacer) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	span := int64(p.max - p.min)
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.rnd.Int63n(span+1))
}

// Pause sleeps for the next pause duration.
func (p *Pacer) Pause(ctx context.Context) (time.Duration, error) {
	d := p.Next()
	return d, p.sleep(ctx, d)
}
