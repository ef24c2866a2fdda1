package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/reail-cli/internal/model"
)

var now = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func fixedID() string { return "scan_fixed" }

func TestNormalize_AIURL(t *testing.T) {
	src := AISource{
		Badge:  "VERIFIED",
		Score:  91.6,
		Domain: "YouTube",
		Title:  "  Launch video ",
		Reasons: model.Reasons{
			model.ReasonLinkSafety: {Summary: "safe"},
		},
	}
	r := Normalize(src, Origin{URL: "https://www.youtube.com/watch?v=x"}, now, fixedID)

	assert.Equal(t, "scan_fixed", r.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=x", r.URL)
	assert.Empty(t, r.MediaReference)
	assert.Equal(t, "youtube.com", r.Domain)
	assert.Equal(t, model.PlatformYouTube, r.Platform)
	assert.Equal(t, model.BadgeVerified, r.Badge)
	assert.Equal(t, 92, r.Score)
	assert.Equal(t, "Launch video", r.Title)
	assert.Equal(t, now.UnixMilli(), r.Timestamp)
	assert.Len(t, r.Reasons, len(model.ReasonKeys))
	assert.Equal(t, "safe", r.Reasons[model.ReasonLinkSafety].Summary)
	assert.Equal(t, "Link Safety", r.Reasons[model.ReasonLinkSafety].Title)
}

func TestNormalize_InvalidBadgeDerivedFromScore(t *testing.T) {
	tests := []struct {
		badge string
		score float64
		want  model.Badge
	}{
		{"", 85, model.BadgeVerified},
		{"SUSPICIOUS", 55, model.BadgeUnverified},
		{"???", 12, model.BadgeHighRisk},
		{"high-risk", 95, model.BadgeHighRisk},
	}
	for _, tt := range tests {
		r := Normalize(AISource{Badge: tt.badge, Score: tt.score}, Origin{URL: "x.com"}, now, fixedID)
		assert.Equal(t, tt.want, r.Badge, "badge %q score %v", tt.badge, tt.score)
	}
}

func TestNormalize_ScoreClamped(t *testing.T) {
	for _, s := range []float64{-5, 140, math.NaN(), math.Inf(1)} {
		r := Normalize(RemoteSource{ID: "r", Score: s}, Origin{URL: "x.com"}, now, fixedID)
		assert.GreaterOrEqual(t, r.Score, 0)
		assert.LessOrEqual(t, r.Score, 100)
		assert.True(t, r.Badge.Valid())
	}
}

func TestNormalize_RemoteKeepsIDAndTimestamp(t *testing.T) {
	r := Normalize(RemoteSource{
		ID:        "srv_42",
		Badge:     "UNVERIFIED",
		Score:     64,
		Title:     "Listing",
		Thumbnail: "https://cdn/x.png",
		Timestamp: 1700000000000,
	}, Origin{URL: "https://shop.example.com/item"}, now, fixedID)

	assert.Equal(t, "srv_42", r.ID)
	assert.Equal(t, int64(1700000000000), r.Timestamp)
	assert.Equal(t, "shop.example.com", r.Domain)
	assert.Equal(t, model.PlatformShop, r.Platform)
	assert.Equal(t, "https://cdn/x.png", r.Thumbnail)
}

func TestNormalize_MockURLTitle(t *testing.T) {
	r := Normalize(MockSource{Badge: model.BadgeHighRisk, Score: 20}, Origin{URL: "www.tiktok.com/@scam"}, now, nil)
	assert.Equal(t, "Content from tiktok.com", r.Title)
	assert.Equal(t, model.PlatformTikTok, r.Platform)
	assert.Contains(t, r.ID, "scan_")
}

func TestNormalize_Media(t *testing.T) {
	for _, src := range []Source{
		MockSource{Badge: model.BadgeVerified, Score: 90},
		AISource{Badge: "VERIFIED", Score: 90, Domain: "instagram.com"},
		AISource{Badge: "VERIFIED", Score: 90, Title: "Screenshot of a post"},
		RemoteSource{ID: "m1", Badge: "VERIFIED", Score: 90},
	} {
		r := Normalize(src, Origin{MediaRef: "file:///tmp/shot.png"}, now, fixedID)
		assert.Equal(t, model.ScreenshotDomain, r.Domain, Name(src))
		assert.Equal(t, model.PlatformOther, r.Platform, Name(src))
		assert.Equal(t, "file:///tmp/shot.png", r.MediaReference)
		assert.Empty(t, r.URL)
		assert.NotEmpty(t, r.Title)
	}

	r := Normalize(AISource{Badge: "VERIFIED", Score: 90, Title: "Screenshot of a post"}, Origin{MediaRef: "m"}, now, fixedID)
	assert.Equal(t, "Screenshot of a post", r.Title)
	r = Normalize(MockSource{Badge: model.BadgeVerified, Score: 90}, Origin{MediaRef: "m"}, now, fixedID)
	assert.Equal(t, MediaTitle, r.Title)
}

func TestNormalize_DomainFallsBackToSource(t *testing.T) {
	r := Normalize(AISource{Score: 70, Domain: "www.example.net"}, Origin{URL: "https:///nohost"}, now, fixedID)
	assert.Equal(t, "example.net", r.Domain)

	r = Normalize(AISource{Score: 70}, Origin{URL: "https:///nohost"}, now, fixedID)
	assert.Equal(t, "unknown", r.Domain)
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.Example.com/a?b=c": "example.com",
		"example.com/path":              "example.com",
		"www.bbc.co.uk":                 "bbc.co.uk",
		"http://localhost:8080/x":       "localhost",
		"":                              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractDomain(in), in)
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := map[string]model.Platform{
		"https://vm.tiktok.com/abc":           model.PlatformTikTok,
		"https://www.instagram.com/p/1":       model.PlatformInstagram,
		"https://m.facebook.com/story":        model.PlatformFacebook,
		"https://fb.watch/xyz":                model.PlatformFacebook,
		"https://youtu.be/abc":                model.PlatformYouTube,
		"https://www.amazon.com/dp/1":         model.PlatformShop,
		"https://buy-now-cheap.biz":           model.PlatformShop,
		"https://www.cnn.com/2026/01/01/x":    model.PlatformNews,
		"https://blog.example.com/article/1":  model.PlatformNews,
		"https://example.org":                 model.PlatformOther,
		"HTTPS://WWW.TIKTOK.COM/@SHOUTY":      model.PlatformTikTok,
	}
	for in, want := range tests {
		assert.Equal(t, want, DetectPlatform(in), in)
	}
}
