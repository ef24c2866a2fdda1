// Package netstate reports whether the backend looks reachable. The result
// only feeds status text; scans never consult it.
package netstate

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultProbeURL = "https://api.reail.app/health"
	DefaultTimeout  = 3 * time.Second
	DefaultInterval = 30 * time.Second
)

// Prober issues a HEAD request to a health URL. Any HTTP response counts as
// online; only transport failures count as offline.
type Prober struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewProber creates a prober for url. A nil client uses http.DefaultClient
// and a non-positive timeout uses DefaultTimeout.
func NewProber(url string, client *http.Client, timeout time.Duration) *Prober {
	if url == "" {
		url = DefaultProbeURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{url: url, client: client, timeout: timeout}
}

// Online probes once.
func (p *Prober) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		zap.L().Debug("netstate: bad probe url", zap.String("url", p.url), zap.Error(err))
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Debug("netstate: probe failed", zap.String("url", p.url), zap.Error(err))
		return false
	}
	resp.Body.Close() //nolint:errcheck
	return true
}

// Watcher re-probes on an interval and keeps the last answer. It starts out
// online until the first probe says otherwise.
type Watcher struct {
	prober   *Prober
	interval time.Duration
	online   atomic.Bool
	checked  atomic.Int64
}

// NewWatcher creates a watcher around p.
func NewWatcher(p *Prober, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	w := &Watcher{prober: p, interval: interval}
	w.online.Store(true)
	return w
}

// Online returns the last observed state.
func (w *Watcher) Online() bool { return w.online.Load() }

// CheckedAt returns when the last probe finished, or the zero time.
func (w *Watcher) CheckedAt() time.Time {
	ms := w.checked.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Check probes now and records the result.
func (w *Watcher) Check(ctx context.Context) bool {
	up := w.prober.Online(ctx)
	if prev := w.online.Swap(up); prev != up {
		zap.L().Info("netstate: connectivity changed", zap.Bool("online", up))
	}
	w.checked.Store(time.Now().UnixMilli())
	return up
}

// Run probes immediately and then every interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "netstate"))
	log.Debug("starting connectivity watcher", zap.Duration("interval", w.interval))

	w.Check(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("connectivity watcher stopped")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
