// Package scan runs a scan request through the available analysis sources
// (AI engine, remote API, local mock), normalizes the outcome and records it
// locally.
package scan

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/normalize"
	"github.com/sells-group/reail-cli/internal/ratelimit"
	"github.com/sells-group/reail-cli/internal/settings"
	"github.com/sells-group/reail-cli/pkg/reailapi"
)

var (
	// ErrEmptyInput is returned when neither a url nor a media reference is given.
	ErrEmptyInput = eris.New("scan: url or media reference required")
	// ErrRateLimited is returned when the hourly scan ceiling is reached.
	ErrRateLimited = eris.New("scan: rate limit reached")
	// ErrExhausted is returned when every analysis source is disabled or failed.
	ErrExhausted = eris.New("scan: no analysis source produced a result")
	// ErrNotFound is returned by Lookup for an unknown id.
	ErrNotFound = eris.New("scan: result not found")
)

const (
	// DefaultRemoteTimeout bounds the direct remote API fallback.
	DefaultRemoteTimeout = 15 * time.Second
	// DefaultSyncTimeout bounds the canonical id sync, retries included.
	DefaultSyncTimeout = 5 * time.Second
)

// Backend is the part of the remote API the orchestrator uses.
type Backend interface {
	ScanURL(ctx context.Context, rawURL string, advanced bool) (*reailapi.ScanResponse, error)
	ScanMedia(ctx context.Context, mediaRef string, advanced bool) (*reailapi.ScanResponse, error)
	GetResult(ctx context.Context, scanID string) (*reailapi.ScanResponse, error)
	SubmitScan(ctx context.Context, req reailapi.SubmitRequest) (string, error)
}

// Limiter gates scans.
type Limiter interface {
	CanPerform(ctx context.Context, kind ratelimit.Kind) bool
	Record(ctx context.Context, kind ratelimit.Kind) error
}

// HistoryRecorder stores history entries.
type HistoryRecorder interface {
	Record(ctx context.Context, e model.HistoryEntry, privacy bool) ([]model.HistoryEntry, error)
}

// ResultCache stores full results by id.
type ResultCache interface {
	Put(ctx context.Context, id string, r *model.ScanResult) error
	Get(ctx context.Context, id string) (*model.ScanResult, bool)
}

// Deps wires an Orchestrator. AI, Backend and Mock are each optional; a nil
// source is skipped. Limiter, History and Cache are optional too.
type Deps struct {
	AI       Analyzer
	Backend  Backend
	Mock     *MockGenerator
	Limiter  Limiter
	History  HistoryRecorder
	Cache    ResultCache
	Settings settings.Provider

	RemoteTimeout time.Duration
	SyncTimeout   time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Options are per-request knobs.
type Options struct {
	// Advanced requests the deeper analysis. Nil falls back to the
	// advancedScan setting.
	Advanced *bool
}

// Orchestrator produces one canonical result per scan request.
type Orchestrator struct {
	deps Deps
	log  *zap.Logger
}

// New creates an Orchestrator. A nil Settings provider uses the defaults.
func New(deps Deps) *Orchestrator {
	if deps.Settings == nil {
		deps.Settings = settings.Static(model.DefaultSettings())
	}
	if deps.RemoteTimeout <= 0 {
		deps.RemoteTimeout = DefaultRemoteTimeout
	}
	if deps.SyncTimeout <= 0 {
		deps.SyncTimeout = DefaultSyncTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = normalize.NewScanID
	}
	return &Orchestrator{deps: deps, log: zap.L().With(zap.String("component", "scan"))}
}

// ScanURL analyzes a link.
func (o *Orchestrator) ScanURL(ctx context.Context, rawURL string, opts Options) (*model.ScanResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyInput
	}
	return o.run(ctx, normalize.Origin{URL: rawURL}, opts)
}

// ScanMedia analyzes a screenshot or other media reference.
func (o *Orchestrator) ScanMedia(ctx context.Context, mediaRef string, opts Options) (*model.ScanResult, error) {
	mediaRef = strings.TrimSpace(mediaRef)
	if mediaRef == "" {
		return nil, ErrEmptyInput
	}
	return o.run(ctx, normalize.Origin{MediaRef: mediaRef}, opts)
}

func (o *Orchestrator) run(ctx context.Context, origin normalize.Origin, opts Options) (*model.ScanResult, error) {
	if lim := o.deps.Limiter; lim != nil {
		if !lim.CanPerform(ctx, ratelimit.KindScan) {
			return nil, ErrRateLimited
		}
		if err := lim.Record(ctx, ratelimit.KindScan); err != nil {
			o.log.Warn("scan: record rate limit attempt", zap.Error(err))
		}
	}

	st := o.deps.Settings.Settings(ctx)
	advanced := st.AdvancedScan
	if opts.Advanced != nil {
		advanced = *opts.Advanced
	}

	result, source, err := o.analyze(ctx, origin, advanced, st)
	if err != nil {
		return nil, err
	}

	o.persist(ctx, &result, st)
	o.log.Info("scan complete",
		zap.String("scan_id", result.ID),
		zap.String("source", source),
		zap.String("badge", string(result.Badge)),
		zap.Int("score", result.Score),
	)
	return &result, nil
}

// analyze tries the AI engine, then the remote API (only when no AI engine
// is configured), then the mock generator.
func (o *Orchestrator) analyze(ctx context.Context, origin normalize.Origin, advanced bool, st model.Settings) (model.ScanResult, string, error) {
	if o.deps.AI != nil {
		src, err := o.analyzeAI(ctx, origin, advanced)
		if err == nil {
			r := normalize.Normalize(src, origin, o.deps.Now(), o.deps.NewID)
			if !origin.IsMedia() {
				o.syncCanonicalID(ctx, &r, st.PrivacyMode)
			}
			return r, normalize.Name(src), nil
		}
		o.log.Warn("scan: ai engine failed, falling back", zap.Error(err))
	} else if o.deps.Backend != nil {
		src, err := o.analyzeRemote(ctx, origin, advanced)
		if err == nil {
			return normalize.Normalize(src, origin, o.deps.Now(), o.deps.NewID), normalize.Name(src), nil
		}
		o.log.Warn("scan: remote api failed, falling back", zap.Error(err))
	}

	if o.deps.Mock != nil {
		src := o.deps.Mock.Generate()
		return normalize.Normalize(src, origin, o.deps.Now(), o.deps.NewID), normalize.Name(src), nil
	}
	return model.ScanResult{}, "", ErrExhausted
}

func (o *Orchestrator) analyzeAI(ctx context.Context, origin normalize.Origin, advanced bool) (normalize.AISource, error) {
	if origin.IsMedia() {
		return o.deps.AI.AnalyzeMedia(ctx, origin.MediaRef, advanced)
	}
	return o.deps.AI.AnalyzeURL(ctx, origin.URL, advanced)
}

func (o *Orchestrator) analyzeRemote(ctx context.Context, origin normalize.Origin, advanced bool) (normalize.RemoteSource, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deps.RemoteTimeout)
	defer cancel()

	var (
		resp *reailapi.ScanResponse
		err  error
	)
	if origin.IsMedia() {
		resp, err = o.deps.Backend.ScanMedia(ctx, origin.MediaRef, advanced)
	} else {
		resp, err = o.deps.Backend.ScanURL(ctx, origin.URL, advanced)
	}
	if err != nil {
		return normalize.RemoteSource{}, err
	}
	return RemoteSource(resp), nil
}

// syncCanonicalID registers an AI result with the backend and adopts the
// server-issued id. Failures keep the local id.
func (o *Orchestrator) syncCanonicalID(ctx context.Context, r *model.ScanResult, privacy bool) {
	if o.deps.Backend == nil {
		return
	}
	req := reailapi.SubmitRequest{
		URL:        r.URL,
		Score:      r.Score,
		Badge:      r.Badge,
		EntityType: model.EntityDomain,
		EntityKey:  r.Domain,
	}
	if !privacy {
		req.Reasons = r.Reasons
		req.Title = r.Title
	}
	ctx, cancel := context.WithTimeout(ctx, o.deps.SyncTimeout)
	defer cancel()
	id, err := o.deps.Backend.SubmitScan(ctx, req)
	if err != nil {
		o.log.Debug("scan: canonical id sync failed", zap.String("scan_id", r.ID), zap.Error(err))
		return
	}
	if id != "" {
		r.ID = id
	}
}

// persist records r in history and the cache according to st. With history
// disabled nothing is written; in privacy mode the cached copy carries no
// url or title. Errors are logged only.
func (o *Orchestrator) persist(ctx context.Context, r *model.ScanResult, st model.Settings) {
	if !st.SaveHistory {
		return
	}
	if o.deps.History != nil {
		if _, err := o.deps.History.Record(ctx, model.HistoryEntryFromResult(r), st.PrivacyMode); err != nil {
			o.log.Warn("scan: record history", zap.String("scan_id", r.ID), zap.Error(err))
		}
	}
	if o.deps.Cache != nil && r.ID != "" {
		cached := *r
		if st.PrivacyMode {
			cached.URL = ""
			cached.Title = ""
		}
		if err := o.deps.Cache.Put(ctx, r.ID, &cached); err != nil {
			o.log.Warn("scan: cache result", zap.String("scan_id", r.ID), zap.Error(err))
		}
	}
}

// Lookup returns the result for id from the local cache or, failing that,
// the backend. Remote hits are cached.
func (o *Orchestrator) Lookup(ctx context.Context, id string) (*model.ScanResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	if o.deps.Cache != nil {
		if r, ok := o.deps.Cache.Get(ctx, id); ok {
			return r, nil
		}
	}
	if o.deps.Backend == nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, o.deps.RemoteTimeout)
	defer cancel()
	resp, err := o.deps.Backend.GetResult(ctx, id)
	if err != nil {
		if eris.Is(err, reailapi.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "scan: lookup %s", id)
	}
	if resp.ID == "" {
		resp.ID = id
	}

	origin := normalize.Origin{URL: resp.URL}
	if origin.URL == "" {
		origin.MediaRef = "scan:" + id
	}
	r := normalize.Normalize(RemoteSource(resp), origin, o.deps.Now(), o.deps.NewID)
	if o.deps.Cache != nil {
		if err := o.deps.Cache.Put(ctx, r.ID, &r); err != nil {
			o.log.Debug("scan: cache looked-up result", zap.String("scan_id", r.ID), zap.Error(err))
		}
	}
	return &r, nil
}

// RemoteSource converts a backend response into a normalizer source.
func RemoteSource(resp *reailapi.ScanResponse) normalize.RemoteSource {
	return normalize.RemoteSource{
		ID:        resp.ID,
		Badge:     resp.Badge,
		Score:     resp.Score,
		Reasons:   resp.Reasons,
		Domain:    resp.Domain,
		Title:     resp.Title,
		Thumbnail: resp.Thumbnail,
		Timestamp: resp.Timestamp,
	}
}
