package scan

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/reail-cli/internal/model"
)

func TestMockGenerator_ScoresMatchBadgeBands(t *testing.T) {
	g := NewMockGenerator(rand.New(rand.NewPCG(1, 2)))
	counts := map[model.Badge]int{}

	for range 2000 {
		src := g.Generate()
		counts[src.Badge]++
		switch src.Badge {
		case model.BadgeVerified:
			assert.GreaterOrEqual(t, src.Score, 80)
			assert.LessOrEqual(t, src.Score, 100)
		case model.BadgeUnverified:
			assert.GreaterOrEqual(t, src.Score, 50)
			assert.LessOrEqual(t, src.Score, 79)
		case model.BadgeHighRisk:
			assert.GreaterOrEqual(t, src.Score, 0)
			assert.LessOrEqual(t, src.Score, 49)
		default:
			t.Fatalf("unexpected badge %q", src.Badge)
		}
		assert.Len(t, src.Reasons, len(model.ReasonKeys))
	}

	// 60/35/5 with generous slack.
	assert.InDelta(t, 1200, counts[model.BadgeVerified], 150)
	assert.InDelta(t, 700, counts[model.BadgeUnverified], 150)
	assert.Greater(t, counts[model.BadgeHighRisk], 20)
}

func TestMockGenerator_DeterministicWithSeed(t *testing.T) {
	a := NewMockGenerator(rand.New(rand.NewPCG(7, 7)))
	b := NewMockGenerator(rand.New(rand.NewPCG(7, 7)))
	for range 20 {
		x, y := a.Generate(), b.Generate()
		assert.Equal(t, x.Badge, y.Badge)
		assert.Equal(t, x.Score, y.Score)
	}
}

func TestCannedReasons_TextFollowsBadge(t *testing.T) {
	r := cannedReasons(model.BadgeHighRisk)
	assert.Equal(t, "Link shows security concerns", r[model.ReasonLinkSafety].Summary)
	assert.Equal(t, "Link Safety", r[model.ReasonLinkSafety].Title)

	r = cannedReasons(model.BadgeVerified)
	assert.Equal(t, "Content appears to be original", r[model.ReasonDuplicateMedia].Summary)
	assert.NotEmpty(t, r[model.ReasonDuplicateMedia].Suggestion)
}

func TestNewMockGenerator_NilRand(t *testing.T) {
	src := NewMockGenerator(nil).Generate()
	assert.True(t, src.Badge.Valid())
}
