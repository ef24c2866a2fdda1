package store

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

// History is the capped, de-duplicated scan history list.
type History struct {
	kv   kv.Store
	opts options
}

// NewHistory creates a history store on st.
func NewHistory(st kv.Store, opts ...Option) *History {
	return &History{kv: st, opts: newOptions(DefaultHistoryMax, opts)}
}

// Load returns the stored entries, newest first. Unreadable data yields an
// empty list.
func (h *History) Load(ctx context.Context) []model.HistoryEntry {
	return loadList[model.HistoryEntry](ctx, h.kv, KeyHistory)
}

// Save replaces the whole list.
func (h *History) Save(ctx context.Context, entries []model.HistoryEntry) error {
	return saveList(ctx, h.kv, KeyHistory, entries, h.opts.max)
}

// Filter returns the entries matching f.
func (h *History) Filter(ctx context.Context, f model.FilterType) []model.HistoryEntry {
	all := h.Load(ctx)
	out := make([]model.HistoryEntry, 0, len(all))
	for _, e := range all {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Record inserts e at the head of the list, replacing any entry with the same
// scan id. With privacy set, url, title and reasons are dropped before the
// entry is written.
func (h *History) Record(ctx context.Context, e model.HistoryEntry, privacy bool) ([]model.HistoryEntry, error) {
	e = h.sanitize(e)
	if privacy {
		e = e.Redact()
	}

	return updateList(ctx, h.kv, KeyHistory, h.opts.max, func(cur []model.HistoryEntry) []model.HistoryEntry {
		next := make([]model.HistoryEntry, 0, len(cur)+1)
		next = append(next, e)
		for _, old := range cur {
			if e.ScanID != "" && old.ScanID == e.ScanID {
				continue
			}
			next = append(next, old)
		}
		return next
	})
}

// PurgeOlderThan drops entries created more than days ago. Entries with an
// unparseable createdAt are dropped too. days <= 0 is a no-op.
func (h *History) PurgeOlderThan(ctx context.Context, days int) ([]model.HistoryEntry, error) {
	if days <= 0 {
		return h.Load(ctx), nil
	}
	cutoff := h.opts.now().Add(-time.Duration(days) * 24 * time.Hour)

	return updateList(ctx, h.kv, KeyHistory, h.opts.max, func(cur []model.HistoryEntry) []model.HistoryEntry {
		kept := make([]model.HistoryEntry, 0, len(cur))
		for _, e := range cur {
			t, ok := e.Created()
			if ok && !t.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		return kept
	})
}

// ApplyRetention purges according to the auto-delete setting.
func (h *History) ApplyRetention(ctx context.Context, policy model.AutoDelete) (int, error) {
	days := policy.Days()
	if days == 0 {
		return 0, nil
	}
	before := len(h.Load(ctx))
	kept, err := h.PurgeOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	return before - len(kept), nil
}

// Clear removes the whole list.
func (h *History) Clear(ctx context.Context) error {
	return eris.Wrap(h.kv.Delete(ctx, KeyHistory), "store: clear history")
}

func (h *History) sanitize(e model.HistoryEntry) model.HistoryEntry {
	if !e.Badge.Valid() {
		e.Badge = model.BadgeUnverified
	}
	e.Score = model.ClampScore(float64(e.Score))
	if e.Domain == "" {
		e.Domain = SafeDomain(e.URL)
	} else {
		e.Domain = SafeDomain(e.Domain)
	}
	if e.CreatedAt == "" {
		e.CreatedAt = h.opts.now().UTC().Format(time.RFC3339Nano)
	}
	return e
}

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// SafeDomain returns the hostname of a URL, or the leading path segment of a
// domain-like string, or "unknown".
func SafeDomain(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "unknown"
	}
	if u, err := url.Parse(input); err == nil && u.Scheme != "" && u.Hostname() != "" {
		return u.Hostname()
	}
	rest := schemePrefix.ReplaceAllString(input, "")
	if host := strings.SplitN(rest, "/", 2)[0]; host != "" {
		return host
	}
	return "unknown"
}
