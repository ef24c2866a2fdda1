package model

import "time"

// HistoryEntry is a possibly-redacted projection of a ScanResult for list
// display.
type HistoryEntry struct {
	ScanID    string  `json:"scanId,omitempty" yaml:"scan_id,omitempty"`
	Badge     Badge   `json:"badge" yaml:"badge"`
	Score     int     `json:"score" yaml:"score"`
	Domain    string  `json:"domain" yaml:"domain"`
	Title     string  `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string  `json:"url,omitempty" yaml:"url,omitempty"`
	CreatedAt string  `json:"createdAt" yaml:"created_at"` // RFC 3339
	Reasons   Reasons `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Redact strips the fields privacy mode never stores.
func (e HistoryEntry) Redact() HistoryEntry {
	e.URL = ""
	e.Title = ""
	e.Reasons = nil
	return e
}

// Created parses CreatedAt. ok is false for a missing or malformed value.
func (e HistoryEntry) Created() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, e.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HistoryEntryFromResult projects a result into a history entry.
func HistoryEntryFromResult(r *ScanResult) HistoryEntry {
	return HistoryEntry{
		ScanID:    r.ID,
		Badge:     r.Badge,
		Score:     r.Score,
		Domain:    r.Domain,
		Title:     r.Title,
		URL:       r.URL,
		CreatedAt: r.CreatedAt().Format(time.RFC3339Nano),
		Reasons:   r.Reasons,
	}
}

// FilterType selects history entries by badge.
type FilterType string

const (
	FilterAll        FilterType = "all"
	FilterVerified   FilterType = "verified"
	FilterUnverified FilterType = "unverified"
	FilterHighRisk   FilterType = "high_risk"
)

// Matches reports whether the entry passes the filter. Unknown filters match
// everything.
func (f FilterType) Matches(e HistoryEntry) bool {
	switch f {
	case FilterVerified:
		return e.Badge == BadgeVerified
	case FilterUnverified:
		return e.Badge == BadgeUnverified
	case FilterHighRisk:
		return e.Badge == BadgeHighRisk
	default:
		return true
	}
}
