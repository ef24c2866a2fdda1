package scan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/normalize"
	"github.com/sells-group/reail-cli/pkg/anthropic"
)

// Analyzer is the AI analysis engine.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string, advanced bool) (normalize.AISource, error)
	AnalyzeMedia(ctx context.Context, mediaRef string, advanced bool) (normalize.AISource, error)
}

// AIConfig selects the model used by AIEngine.
type AIConfig struct {
	Model     string
	MaxTokens int64
}

// AIEngine implements Analyzer on the Anthropic messages API.
type AIEngine struct {
	client   anthropic.Client
	cfg      AIConfig
	readFile func(string) ([]byte, error)
	log      *zap.Logger
}

// NewAIEngine creates an engine using client.
func NewAIEngine(client anthropic.Client, cfg AIConfig) *AIEngine {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &AIEngine{
		client:   client,
		cfg:      cfg,
		readFile: os.ReadFile,
		log:      zap.L().With(zap.String("component", "ai_engine")),
	}
}

// AnalyzeURL asks the model to assess a link.
func (e *AIEngine) AnalyzeURL(ctx context.Context, rawURL string, advanced bool) (normalize.AISource, error) {
	prompt := fmt.Sprintf(urlPromptTemplate, rawURL)
	if advanced {
		prompt += urlPromptAdvanced
	}
	return e.analyze(ctx, "url", anthropic.Message{Role: "user", Content: prompt})
}

// AnalyzeMedia asks the model to assess a screenshot. mediaRef may be a
// file path, a file:// URI or a data: URI; when the image cannot be read the
// request is sent as text only.
func (e *AIEngine) AnalyzeMedia(ctx context.Context, mediaRef string, advanced bool) (normalize.AISource, error) {
	msg := anthropic.Message{Role: "user", Content: mediaPrompt}
	if img, err := e.loadImage(mediaRef); err == nil {
		msg.Images = []anthropic.Image{img}
	} else {
		e.log.Debug("ai: image unreadable, sending text only", zap.String("media_ref", mediaRef), zap.Error(err))
		msg.Content += mediaUnreadableNote
	}
	if advanced {
		msg.Content += urlPromptAdvanced
	}
	return e.analyze(ctx, "media", msg)
}

func (e *AIEngine) analyze(ctx context.Context, kind string, msg anthropic.Message) (normalize.AISource, error) {
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:  []anthropic.Message{msg},
	})
	if err != nil {
		return normalize.AISource{}, eris.Wrapf(err, "scan: ai %s analysis", kind)
	}
	resp.Usage.LogCost(e.cfg.Model, kind)

	out, err := parseAnalysis(resp.Text())
	if err != nil {
		return normalize.AISource{}, eris.Wrapf(err, "scan: ai %s analysis", kind)
	}
	e.log.Debug("ai: analysis complete",
		zap.String("kind", kind),
		zap.String("badge", out.Badge),
		zap.Float64("score", out.Score),
	)
	return out, nil
}

// parseAnalysis extracts the JSON object from the model's reply, tolerating
// code fences or prose around it.
func parseAnalysis(text string) (normalize.AISource, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return normalize.AISource{}, eris.New("scan: no JSON object in model reply")
	}
	var out normalize.AISource
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return normalize.AISource{}, eris.Wrap(err, "scan: decode model reply")
	}
	if out.Badge == "" && len(out.Reasons) == 0 {
		return normalize.AISource{}, eris.New("scan: model reply has no analysis")
	}
	return out, nil
}

func (e *AIEngine) loadImage(ref string) (anthropic.Image, error) {
	if rest, ok := strings.CutPrefix(ref, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return anthropic.Image{}, eris.New("scan: unsupported data URI")
		}
		return anthropic.Image{MediaType: strings.TrimSuffix(meta, ";base64"), Data: data}, nil
	}

	path := strings.TrimPrefix(ref, "file://")
	raw, err := e.readFile(path)
	if err != nil {
		return anthropic.Image{}, eris.Wrapf(err, "scan: read media %s", path)
	}
	mediaType := http.DetectContentType(raw)
	if !strings.HasPrefix(mediaType, "image/") {
		return anthropic.Image{}, eris.Errorf("scan: media %s is %s, not an image", path, mediaType)
	}
	return anthropic.Image{MediaType: mediaType, Data: base64.StdEncoding.EncodeToString(raw)}, nil
}
