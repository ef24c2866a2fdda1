package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/pkg/anthropic"
)

const analysisJSON = `{"badge":"UNVERIFIED","score":63,"domain":"deals.example","title":"Flash sale",` +
	`"reasons":{"E":{"title":"Link Safety","summary":"Domain is 3 weeks old","details":["Registered recently"]}}}`

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

func TestAIEngine_AnalyzeURL(t *testing.T) {
	client := new(mockAIClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-test" &&
			req.MaxTokens == 2048 &&
			len(req.System) == 1 && req.System[0].CacheControl != nil &&
			len(req.Messages) == 1 &&
			strings.Contains(req.Messages[0].Content, "https://deals.example/x") &&
			len(req.Messages[0].Images) == 0
	})).Return(textResponse("Here you go:\n```json\n"+analysisJSON+"\n```"), nil)

	e := NewAIEngine(client, AIConfig{Model: "claude-test"})
	out, err := e.AnalyzeURL(context.Background(), "https://deals.example/x", false)
	require.NoError(t, err)
	assert.Equal(t, "UNVERIFIED", out.Badge)
	assert.InDelta(t, 63, out.Score, 0.001)
	assert.Equal(t, "Flash sale", out.Title)
	assert.Equal(t, "Domain is 3 weeks old", out.Reasons[model.ReasonLinkSafety].Summary)
	client.AssertExpectations(t)
}

func TestAIEngine_AdvancedPromptIsLonger(t *testing.T) {
	var prompts []string
	client := new(mockAIClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompts = append(prompts, args.Get(1).(anthropic.MessageRequest).Messages[0].Content)
	}).Return(textResponse(analysisJSON), nil)

	e := NewAIEngine(client, AIConfig{Model: "m"})
	_, err := e.AnalyzeURL(context.Background(), "https://a.example", false)
	require.NoError(t, err)
	_, err = e.AnalyzeURL(context.Background(), "https://a.example", true)
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.True(t, strings.HasPrefix(prompts[1], prompts[0]))
	assert.Greater(t, len(prompts[1]), len(prompts[0]))
}

func TestAIEngine_AnalyzeMediaAttachesImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	client := new(mockAIClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		imgs := req.Messages[0].Images
		return len(imgs) == 1 && imgs[0].MediaType == "image/png" && imgs[0].Data != ""
	})).Return(textResponse(analysisJSON), nil)

	e := NewAIEngine(client, AIConfig{Model: "m"})
	_, err := e.AnalyzeMedia(context.Background(), "file://"+path, false)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestAIEngine_AnalyzeMediaUnreadableFallsBackToText(t *testing.T) {
	client := new(mockAIClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		msg := req.Messages[0]
		return len(msg.Images) == 0 && strings.HasSuffix(msg.Content, mediaUnreadableNote)
	})).Return(textResponse(analysisJSON), nil)

	e := NewAIEngine(client, AIConfig{Model: "m"})
	e.readFile = func(string) ([]byte, error) { return nil, os.ErrNotExist }
	_, err := e.AnalyzeMedia(context.Background(), "/nope.png", false)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestAIEngine_DataURI(t *testing.T) {
	e := NewAIEngine(new(mockAIClient), AIConfig{})
	img, err := e.loadImage("data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)
	assert.Equal(t, "AAAA", img.Data)

	_, err = e.loadImage("data:text/plain,hello")
	assert.Error(t, err)
}

func TestAIEngine_ClientError(t *testing.T) {
	client := new(mockAIClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := NewAIEngine(client, AIConfig{}).AnalyzeURL(context.Background(), "https://a.example", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestParseAnalysis(t *testing.T) {
	_, err := parseAnalysis("I cannot help with that.")
	assert.Error(t, err)

	_, err = parseAnalysis("{not json}")
	assert.Error(t, err)

	_, err = parseAnalysis(`{"domain":"x.com"}`)
	assert.Error(t, err)

	out, err := parseAnalysis(`{"badge":"HIGH_RISK","score":12.6}`)
	require.NoError(t, err)
	assert.Equal(t, "HIGH_RISK", out.Badge)
}
