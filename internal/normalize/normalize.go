// Package normalize maps the raw result shapes produced by the mock
// generator, the AI engine and the remote scan API into one canonical
// model.ScanResult.
package normalize

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/reail-cli/internal/model"
)

// MediaTitle is the title given to media scans that carry none.
const MediaTitle = "Uploaded screenshot"

// Source is one of MockSource, AISource or RemoteSource.
type Source interface {
	sourceName() string
}

// MockSource is the output of the local generator.
type MockSource struct {
	Badge   model.Badge
	Score   int
	Reasons model.Reasons
}

// AISource is the structured analysis returned by the AI engine.
type AISource struct {
	Badge   string        `json:"badge"`
	Score   float64       `json:"score"`
	Reasons model.Reasons `json:"reasons"`
	Domain  string        `json:"domain"`
	Title   string        `json:"title"`
}

// RemoteSource is a scan response from the backend API.
type RemoteSource struct {
	ID        string
	Badge     string
	Score     float64
	Reasons   model.Reasons
	Domain    string
	Title     string
	Thumbnail string
	Timestamp int64
}

func (MockSource) sourceName() string   { return "mock" }
func (AISource) sourceName() string     { return "ai" }
func (RemoteSource) sourceName() string { return "remote" }

// Name returns "mock", "ai" or "remote".
func Name(s Source) string { return s.sourceName() }

// Origin is what was scanned: exactly one of URL or MediaRef is set.
type Origin struct {
	URL      string
	MediaRef string
}

// IsMedia reports whether the origin is a media reference.
func (o Origin) IsMedia() bool { return o.URL == "" && o.MediaRef != "" }

// NewScanID returns a fresh locally assigned scan id.
func NewScanID() string { return "scan_" + uuid.NewString() }

// Normalize builds the canonical result for src scanned from origin. now
// stamps results whose source carries no timestamp; newID assigns ids to
// results whose source carries none (nil uses NewScanID).
func Normalize(src Source, origin Origin, now time.Time, newID func() string) model.ScanResult {
	if newID == nil {
		newID = NewScanID
	}

	var (
		id, title, srcDomain, thumb string
		badge                       model.Badge
		score                       int
		reasons                     model.Reasons
		ts                          int64
	)

	switch s := src.(type) {
	case MockSource:
		badge, score, reasons = s.Badge, model.ClampScore(float64(s.Score)), s.Reasons
	case AISource:
		badge, score, reasons = model.Badge(s.Badge), model.ClampScore(s.Score), s.Reasons
		srcDomain, title = s.Domain, s.Title
	case RemoteSource:
		badge, score, reasons = model.Badge(s.Badge), model.ClampScore(s.Score), s.Reasons
		id, srcDomain, title, thumb, ts = s.ID, s.Domain, s.Title, s.Thumbnail, s.Timestamp
	}

	if b, ok := model.ParseBadge(string(badge)); ok {
		badge = b
	} else {
		badge = model.BadgeForScore(score)
	}
	if id == "" {
		id = newID()
	}
	if ts <= 0 {
		ts = now.UnixMilli()
	}

	r := model.ScanResult{
		ID:        id,
		Badge:     badge,
		Score:     score,
		Reasons:   reasons.Normalize(),
		Timestamp: ts,
		Thumbnail: thumb,
	}

	if origin.IsMedia() {
		r.MediaReference = origin.MediaRef
		r.Domain = model.ScreenshotDomain
		r.Platform = model.PlatformOther
		r.Title = strings.TrimSpace(title)
		if _, mock := src.(MockSource); mock || r.Title == "" {
			r.Title = MediaTitle
		}
		return r
	}

	r.URL = origin.URL
	r.Domain = ExtractDomain(origin.URL)
	if r.Domain == "" {
		r.Domain = strings.TrimPrefix(strings.TrimSpace(srcDomain), "www.")
	}
	if r.Domain == "" {
		r.Domain = "unknown"
	}
	r.Platform = DetectPlatform(origin.URL)
	r.Title = strings.TrimSpace(title)
	if _, mock := src.(MockSource); mock {
		r.Title = "Content from " + r.Domain
	}
	return r
}

// ExtractDomain returns the hostname of raw without a leading "www.".
// Scheme-less input is treated as https. It returns "" when no host can be
// found.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	candidate := raw
	if !strings.HasPrefix(strings.ToLower(candidate), "http") {
		candidate = "https://" + candidate
	}
	if u, err := url.Parse(candidate); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	rest := raw
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	host, _, _ := strings.Cut(rest, "/")
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// platformRules are checked in order; the first substring hit wins.
var platformRules = []struct {
	needles  []string
	platform model.Platform
}{
	{[]string{"tiktok"}, model.PlatformTikTok},
	{[]string{"instagram", "ig.com"}, model.PlatformInstagram},
	{[]string{"facebook", "fb."}, model.PlatformFacebook},
	{[]string{"youtube", "youtu.be"}, model.PlatformYouTube},
	{[]string{"shop", "store", "amazon", "ebay", "buy"}, model.PlatformShop},
	{[]string{"news", "article", "bbc", "cnn"}, model.PlatformNews},
}

// DetectPlatform classifies a URL by case-insensitive substring match.
func DetectPlatform(raw string) model.Platform {
	lower := strings.ToLower(raw)
	for _, rule := range platformRules {
		for _, n := range rule.needles {
			if strings.Contains(lower, n) {
				return rule.platform
			}
		}
	}
	return model.PlatformOther
}
