// Package report submits scam reports for scan results.
package report

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/ratelimit"
	"github.com/sells-group/reail-cli/pkg/reailapi"
)

var (
	// ErrMissingScanID is returned when no scan id is given.
	ErrMissingScanID = eris.New("report: scan id required")
	// ErrRateLimited is returned when the daily report ceiling is reached.
	ErrRateLimited = eris.New("report: rate limit reached")
)

// Categories a report may be filed under.
const (
	CategoryScam           = "scam"
	CategoryPhishing       = "phishing"
	CategoryImpersonation  = "impersonation"
	CategoryFakeProduct    = "fake_product"
	CategoryMisinformation = "misinformation"
	CategoryOther          = "other"
)

var knownCategories = map[string]bool{
	CategoryScam:           true,
	CategoryPhishing:       true,
	CategoryImpersonation:  true,
	CategoryFakeProduct:    true,
	CategoryMisinformation: true,
	CategoryOther:          true,
}

// Remote posts reports to the backend.
type Remote interface {
	ReportScan(ctx context.Context, req reailapi.ReportRequest) error
}

// Limiter gates reports.
type Limiter interface {
	CanPerform(ctx context.Context, kind ratelimit.Kind) bool
	Record(ctx context.Context, kind ratelimit.Kind) error
}

// Request is one scam report.
type Request struct {
	ScanID   string
	Category string
	Reason   string
	Notes    string
}

// Receipt is the outcome of a report.
type Receipt struct {
	ScanID    string `json:"scanId"`
	Category  string `json:"category"`
	Submitted bool   `json:"submitted"`
}

// Reporter files reports, subject to the report rate limit.
type Reporter struct {
	remote  Remote
	limiter Limiter
	log     *zap.Logger
}

// New creates a Reporter. Either collaborator may be nil.
func New(remote Remote, limiter Limiter) *Reporter {
	return &Reporter{remote: remote, limiter: limiter, log: zap.L().With(zap.String("component", "report"))}
}

// NormalizeCategory lowercases c and maps unknown or empty values to "other".
func NormalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	c = strings.ReplaceAll(c, "-", "_")
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}

// Report files req. The attempt counts against the limit even when the
// backend is unreachable; Submitted tells whether the backend accepted it.
func (r *Reporter) Report(ctx context.Context, req Request) (Receipt, error) {
	req.ScanID = strings.TrimSpace(req.ScanID)
	if req.ScanID == "" {
		return Receipt{}, ErrMissingScanID
	}
	rec := Receipt{ScanID: req.ScanID, Category: NormalizeCategory(req.Category)}

	if r.limiter != nil {
		if !r.limiter.CanPerform(ctx, ratelimit.KindReport) {
			return Receipt{}, ErrRateLimited
		}
		if err := r.limiter.Record(ctx, ratelimit.KindReport); err != nil {
			r.log.Warn("report: record rate limit attempt", zap.Error(err))
		}
	}

	if r.remote == nil {
		return rec, nil
	}
	err := r.remote.ReportScan(ctx, reailapi.ReportRequest{
		ScanID:   rec.ScanID,
		Category: rec.Category,
		Reason:   strings.TrimSpace(req.Reason),
		Notes:    strings.TrimSpace(req.Notes),
	})
	if err != nil {
		r.log.Warn("report: submit failed", zap.String("scan_id", rec.ScanID), zap.Error(err))
		return rec, nil
	}
	rec.Submitted = true
	return rec, nil
}
