package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/alertsync"
	"github.com/sells-group/reail-cli/internal/config"
	"github.com/sells-group/reail-cli/internal/deeplink"
	"github.com/sells-group/reail-cli/internal/identity"
	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/ratelimit"
	"github.com/sells-group/reail-cli/internal/report"
	"github.com/sells-group/reail-cli/internal/resilience"
	"github.com/sells-group/reail-cli/internal/retention"
	"github.com/sells-group/reail-cli/internal/scan"
	"github.com/sells-group/reail-cli/internal/settings"
	"github.com/sells-group/reail-cli/internal/store"
	anthropicpkg "github.com/sells-group/reail-cli/pkg/anthropic"
	"github.com/sells-group/reail-cli/pkg/reailapi"
)

// appEnv holds the stores, clients and services the commands share.
type appEnv struct {
	KV        kv.Store
	DeviceID  string
	Settings  *settings.CachedProvider
	History   *store.History
	Cache     *store.ResultCache
	Alerts    *store.Alerts
	Watchlist *store.Watchlist
	Limiter   *ratelimit.Limiter
	API       reailapi.Client
	Scanner   *scan.Orchestrator
	Sync      *alertsync.Syncer
	Reporter  *report.Reporter
	Links     deeplink.Links
	AIEnabled bool
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.KV != nil {
		_ = e.KV.Close()
	}
}

// initApp opens the store and wires every service from cfg. Callers should
// defer env.Close().
func initApp(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	deviceID, err := identity.DeviceID(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init device id")
	}

	env := &appEnv{
		KV:        st,
		DeviceID:  deviceID,
		Settings:  settings.NewCachedProvider(settings.NewStore(st), time.Duration(c.Settings.RefreshSecs)*time.Second),
		History:   store.NewHistory(st, store.WithMaxEntries(c.History.MaxEntries)),
		Cache:     store.NewResultCache(st, store.WithMaxEntries(c.Cache.MaxEntries)),
		Alerts:    store.NewAlerts(st, store.WithMaxEntries(c.Alerts.MaxEntries)),
		Watchlist: store.NewWatchlist(st, store.WithMaxEntries(c.Watchlist.MaxEntries)),
		Limiter: ratelimit.New(st,
			ratelimit.WithRule(ratelimit.KindScan, ratelimit.Rule{Limit: c.Limits.ScansPerHour, Window: time.Hour}),
			ratelimit.WithRule(ratelimit.KindReport, ratelimit.Rule{Limit: c.Limits.ReportsPerDay, Window: 24 * time.Hour}),
		),
		Links: deeplink.Links{Scheme: c.Links.Scheme, WebBaseURL: c.Links.WebBaseURL},
	}

	env.API = reailapi.NewClient(deviceID,
		reailapi.WithBaseURL(c.API.BaseURL),
		reailapi.WithTimeout(c.API.Timeout()),
		reailapi.WithRateLimit(c.API.RequestsPerSec),
		reailapi.WithRetry(resilience.WithRetries(c.API.Retries)),
		reailapi.WithBreaker(resilience.NewBreaker("reailapi", 5, 30*time.Second)),
	)

	deps := scan.Deps{
		Limiter:       env.Limiter,
		History:       env.History,
		Cache:         env.Cache,
		Settings:      env.Settings,
		RemoteTimeout: c.API.Timeout(),
	}
	if c.Scan.UseAI && c.Anthropic.Key != "" {
		deps.AI = scan.NewAIEngine(anthropicpkg.NewClient(c.Anthropic.Key), scan.AIConfig{
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		})
		env.AIEnabled = true
	}
	if c.Scan.UseRemote {
		deps.Backend = env.API
	}
	if c.Scan.UseMock {
		deps.Mock = scan.NewMockGenerator(nil)
	}
	env.Scanner = scan.New(deps)
	env.Sync = alertsync.New(env.API, env.Alerts, env.Watchlist)
	env.Reporter = report.New(env.API, env.Limiter)

	if n, err := retention.Apply(ctx, env.Settings, env.History); err != nil {
		zap.L().Warn("retention on start failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("retention on start", zap.Int("removed", n))
	}

	return env, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (kv.Store, error) {
	opts := kv.Options{Driver: sc.Driver, Path: sc.Path, DatabaseURL: sc.DatabaseURL}
	if sc.MaxConns > 0 || sc.MinConns > 0 {
		opts.Pool = &kv.PoolConfig{MaxConns: sc.MaxConns, MinConns: sc.MinConns}
	}
	st, err := kv.Open(ctx, opts)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
