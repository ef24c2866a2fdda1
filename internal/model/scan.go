package model

import (
	"strings"
	"time"
)

// Badge is the coarse trust classification of a scan result.
type Badge string

const (
	BadgeVerified   Badge = "VERIFIED"
	BadgeUnverified Badge = "UNVERIFIED"
	BadgeHighRisk   Badge = "HIGH_RISK"
)

// Valid reports whether b is one of the three known badges.
func (b Badge) Valid() bool {
	switch b {
	case BadgeVerified, BadgeUnverified, BadgeHighRisk:
		return true
	}
	return false
}

// ParseBadge parses a badge name case-insensitively. Dashes and spaces are
// accepted in place of the underscore ("high-risk").
func ParseBadge(s string) (Badge, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	b := Badge(s)
	return b, b.Valid()
}

// BadgeForScore returns the badge implied by a 0-100 score.
func BadgeForScore(score int) Badge {
	switch {
	case score >= 80:
		return BadgeVerified
	case score >= 50:
		return BadgeUnverified
	default:
		return BadgeHighRisk
	}
}

// ClampScore rounds into the inclusive [0,100] range.
func ClampScore(score float64) int {
	if score != score { // NaN
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score + 0.5)
}

// Platform classifies where a scanned link points.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformNews      Platform = "news"
	PlatformShop      Platform = "shop"
	PlatformOther     Platform = "other"
)

// ScreenshotDomain is the display label used for media scans.
const ScreenshotDomain = "Screenshot"

// ScanResult is the canonical outcome of one scan. It is immutable once
// produced; re-scanning yields a new result with a new ID.
type ScanResult struct {
	ID             string   `json:"id" yaml:"id"`
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
	MediaReference string   `json:"mediaReference,omitempty" yaml:"media_reference,omitempty"`
	Domain         string   `json:"domain" yaml:"domain"`
	Platform       Platform `json:"platform" yaml:"platform"`
	Badge          Badge    `json:"badge" yaml:"badge"`
	Score          int      `json:"score" yaml:"score"`
	Reasons        Reasons  `json:"reasons" yaml:"reasons"`
	Timestamp      int64    `json:"timestamp" yaml:"timestamp"` // epoch ms
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	Thumbnail      string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
}

// IsMedia reports whether the result came from a media scan.
func (r *ScanResult) IsMedia() bool {
	return r.URL == "" && r.MediaReference != ""
}

// CreatedAt converts the epoch-millisecond timestamp to a time.Time.
func (r *ScanResult) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}
