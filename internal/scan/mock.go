package scan

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/normalize"
)

// MockGenerator synthesizes a plausible result without any I/O. It is the
// last fallback and cannot fail.
type MockGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockGenerator returns a generator drawing from rng. A nil rng is seeded
// from the clock.
func NewMockGenerator(rng *rand.Rand) *MockGenerator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &MockGenerator{rng: rng}
}

// Generate picks a badge (60% verified, 35% unverified, 5% high risk), a
// score inside that badge's band, and the canned reasons for the badge.
func (g *MockGenerator) Generate() normalize.MockSource {
	g.mu.Lock()
	p := g.rng.Float64()
	var (
		badge model.Badge
		score int
	)
	switch {
	case p < 0.60:
		badge, score = model.BadgeVerified, 80+g.rng.IntN(21)
	case p < 0.95:
		badge, score = model.BadgeUnverified, 50+g.rng.IntN(30)
	default:
		badge, score = model.BadgeHighRisk, g.rng.IntN(50)
	}
	g.mu.Unlock()

	return normalize.MockSource{Badge: badge, Score: score, Reasons: cannedReasons(badge)}
}

type cannedText struct {
	verified, unverified, highRisk string
}

type cannedList struct {
	verified, unverified, highRisk []string
}

type cannedCategory struct {
	summary    cannedText
	details    cannedList
	suggestion string
}

var canned = map[model.ReasonKey]cannedCategory{
	model.ReasonMediaIntegrity: {
		summary: cannedText{"No editing artifacts detected", "Some inconsistencies in media metadata", "Multiple editing artifacts found"},
		details: cannedList{
			[]string{"Frame consistency verified", "Audio track matches video", "No splicing detected"},
			[]string{"Minor metadata inconsistencies", "Unable to verify original source", "Compression artifacts present"},
			[]string{"Frame rate inconsistencies detected", "Possible AI-generated elements", "Metadata shows multiple edits"},
		},
		suggestion: "Look for the original source with higher quality media.",
	},
	model.ReasonDuplicateMedia: {
		summary: cannedText{"Content appears to be original", "Partial matches found in media databases", "Similar content found from different sources"},
		details: cannedList{
			[]string{"No duplicates found in reverse image search", "First appearance matches claimed date"},
			[]string{"Similar images exist but context differs", "Unable to confirm original creator"},
			[]string{"Same video posted by 5+ different accounts", "Original upload date conflicts with claims", "Used in known misinformation campaigns"},
		},
		suggestion: "Search for the media on multiple platforms to find the original.",
	},
	model.ReasonClaims: {
		summary: cannedText{"Claims align with verified sources", "Claims cannot be independently verified", "Claims contradict established facts"},
		details: cannedList{
			[]string{"Statements match official records", "Quotes verified against source", "Timeline is consistent"},
			[]string{"No official sources confirm claims", "Mixed signals from reliable sources"},
			[]string{"Key claims debunked by fact-checkers", "Statistics are fabricated or misleading", "Quotes taken out of context"},
		},
		suggestion: "Cross-reference claims with official sources and fact-checking sites.",
	},
	model.ReasonAccount: {
		summary: cannedText{"Account has established credibility", "Account history is limited", "Account shows suspicious patterns"},
		details: cannedList{
			[]string{"Account age: 3+ years", "Consistent posting history", "Verified by platform"},
			[]string{"Account age: under 1 year", "Limited engagement history", "No verification badge"},
			[]string{"Account created recently", "Unusual posting frequency", "Bot-like behavior detected"},
		},
		suggestion: "Check the account's posting history and follower authenticity.",
	},
	model.ReasonLinkSafety: {
		summary: cannedText{"Link is safe and secure", "Link safety could not be fully verified", "Link shows security concerns"},
		details: cannedList{
			[]string{"HTTPS enabled", "Domain is reputable", "No malware detected"},
			[]string{"Domain is relatively new", "Limited security history", "Some tracking parameters present"},
			[]string{"Suspicious redirects detected", "Domain flagged in security databases", "Possible phishing attempt"},
		},
		suggestion: "Use a URL scanner to check for malware before clicking.",
	},
	model.ReasonPatterns: {
		summary: cannedText{"No concerning patterns detected", "Limited community data available", "Multiple user reports received"},
		details: cannedList{
			[]string{"No user reports", "Content follows platform guidelines", "Engagement appears organic"},
			[]string{"Few user reports exist", "Pattern analysis inconclusive"},
			[]string{"Flagged by multiple users", "Similar to known scam patterns", "Engagement appears artificial"},
		},
		suggestion: "Check community forums for reports about this content.",
	},
}

func cannedReasons(b model.Badge) model.Reasons {
	out := make(model.Reasons, len(canned))
	for k, c := range canned {
		var summary string
		var details []string
		switch b {
		case model.BadgeVerified:
			summary, details = c.summary.verified, c.details.verified
		case model.BadgeHighRisk:
			summary, details = c.summary.highRisk, c.details.highRisk
		default:
			summary, details = c.summary.unverified, c.details.unverified
		}
		out[k] = model.ReasonDetail{
			Title:      model.ReasonTitle(k),
			Summary:    summary,
			Details:    append([]string(nil), details...),
			Suggestion: c.suggestion,
		}
	}
	return out
}
