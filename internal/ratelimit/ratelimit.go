// Package ratelimit enforces per-device sliding-window ceilings on scans and
// reports. Timestamps are persisted in the kv store so limits survive
// restarts.
package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/kv"
)

// Kind identifies a rate-limited action.
type Kind string

const (
	KindScan   Kind = "scan"
	KindReport Kind = "report"
)

// Rule is a ceiling of Limit actions per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules returns 20 scans per hour and 5 reports per day.
func DefaultRules() map[Kind]Rule {
	return map[Kind]Rule{
		KindScan:   {Limit: 20, Window: time.Hour},
		KindReport: {Limit: 5, Window: 24 * time.Hour},
	}
}

func storageKey(k Kind) string {
	return "reail_rate_" + string(k) + "_v1"
}

// Limiter checks and records actions against its rules.
type Limiter struct {
	kv    kv.Store
	rules map[Kind]Rule
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRule overrides the rule for one kind. A non-positive limit disables
// limiting for that kind.
func WithRule(k Kind, r Rule) Option {
	return func(l *Limiter) { l.rules[k] = r }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter over st using DefaultRules.
func New(st kv.Store, opts ...Option) *Limiter {
	l := &Limiter{
		kv:    st,
		rules: DefaultRules(),
		now:   time.Now,
		log:   zap.L().With(zap.String("component", "ratelimit")),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// CanPerform reports whether another action of kind fits in the window.
// It never writes; expired timestamps are only dropped by Record. Read
// failures fail open.
func (l *Limiter) CanPerform(ctx context.Context, kind Kind) bool {
	return l.Remaining(ctx, kind) > 0
}

// Remaining returns how many more actions of kind fit in the current window.
// Kinds without a rule report a large constant.
func (l *Limiter) Remaining(ctx context.Context, kind Kind) int {
	rule, ok := l.rules[kind]
	if !ok || rule.Limit <= 0 {
		return int(^uint(0) >> 1)
	}
	raw, found, err := l.kv.Get(ctx, storageKey(kind))
	if err != nil {
		l.log.Warn("ratelimit: read failed, allowing action", zap.String("kind", string(kind)), zap.Error(err))
		return rule.Limit
	}
	live := prune(decode(raw, found), l.now().Add(-rule.Window))
	if n := rule.Limit - len(live); n > 0 {
		return n
	}
	return 0
}

// Record prunes expired timestamps, appends now and persists the list.
func (l *Limiter) Record(ctx context.Context, kind Kind) error {
	rule, ok := l.rules[kind]
	if !ok || rule.Limit <= 0 {
		return nil
	}
	now := l.now()
	cutoff := now.Add(-rule.Window)
	err := l.kv.Update(ctx, storageKey(kind), func(old []byte, found bool) ([]byte, error) {
		live := prune(decode(old, found), cutoff)
		live = append(live, now.UnixMilli())
		return json.Marshal(live)
	})
	return eris.Wrapf(err, "ratelimit: record %s", kind)
}

// RetryAfter returns how long until the oldest live action of kind expires,
// or zero when an action is allowed now.
func (l *Limiter) RetryAfter(ctx context.Context, kind Kind) time.Duration {
	rule, ok := l.rules[kind]
	if !ok || rule.Limit <= 0 {
		return 0
	}
	raw, found, err := l.kv.Get(ctx, storageKey(kind))
	if err != nil {
		return 0
	}
	now := l.now()
	live := prune(decode(raw, found), now.Add(-rule.Window))
	if len(live) < rule.Limit {
		return 0
	}
	oldest := live[len(live)-rule.Limit]
	wait := time.UnixMilli(oldest).Add(rule.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func decode(raw []byte, found bool) []int64 {
	if !found || len(raw) == 0 {
		return nil
	}
	var ts []int64
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil
	}
	return ts
}

// prune keeps timestamps strictly after cutoff.
func prune(ts []int64, cutoff time.Time) []int64 {
	c := cutoff.UnixMilli()
	out := make([]int64, 0, len(ts)+1)
	for _, t := range ts {
		if t > c {
			out = append(out, t)
		}
	}
	return out
}
