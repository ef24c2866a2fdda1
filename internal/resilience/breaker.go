package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// Breaker stops calling a failing dependency after Threshold consecutive
// failures and lets one probe through after Cooldown.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a breaker. Non-positive values default to 5 failures
// and 30s.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// SetClock replaces the time source.
func (b *Breaker) SetClock(now func() time.Time) { b.now = now }

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && b.now().Sub(b.openedAt) < b.cooldown
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.cooldown || b.probing {
		return ErrCircuitOpen
	}
	b.probing = true
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wasProbe := b.probing
	b.probing = false
	if err == nil {
		if b.failures >= b.threshold {
			zap.L().Info("resilience: circuit closed", zap.String("breaker", b.name))
		}
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold && (wasProbe || b.failures == b.threshold) {
		b.openedAt = b.now()
		zap.L().Warn("resilience: circuit opened",
			zap.String("breaker", b.name),
			zap.Int("failures", b.failures),
			zap.Error(err),
		)
	}
}

// Execute runs fn unless the breaker is open. Only errors for which
// countsAsFailure returns true trip the breaker; nil counts every error.
func Execute[T any](ctx context.Context, b *Breaker, countsAsFailure func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn(ctx)
	}
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	if err != nil && countsAsFailure != nil && !countsAsFailure(err) {
		b.record(nil)
	} else {
		b.record(err)
	}
	return val, err
}
