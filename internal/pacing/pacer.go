// Package pacing spaces out calls to external services.
package pacing

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between successive Wait calls.
// Safe for concurrent use; callers sharing a Pacer are serialized.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// New returns a Pacer with the given minimum interval.
func New(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the interval since the previous Wait has elapsed,
// or the context is done. A nil Pacer never waits.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.interval - time.Since(p.last); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	p.last = time.Now()
	return nil
}
