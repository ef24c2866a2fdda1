// Package httpapi is the local HTTP bridge: it serves result pages for the
// web fallback link, runs scans and resolves incoming links.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/deeplink"
	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/scan"
)

// Scanner runs and looks up scans.
type Scanner interface {
	ScanURL(ctx context.Context, rawURL string, opts scan.Options) (*model.ScanResult, error)
	ScanMedia(ctx context.Context, mediaRef string, opts scan.Options) (*model.ScanResult, error)
	Lookup(ctx context.Context, id string) (*model.ScanResult, error)
}

// HistoryReader lists history entries.
type HistoryReader interface {
	Filter(ctx context.Context, f model.FilterType) []model.HistoryEntry
}

// Connectivity reports the last known backend reachability.
type Connectivity interface {
	Online() bool
}

// Deps wires a Server. Network may be nil.
type Deps struct {
	Scanner        Scanner
	History        HistoryReader
	Links          deeplink.Links
	Network        Connectivity
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server holds the handlers.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	if deps.Links.Scheme == "" || deps.Links.WebBaseURL == "" {
		deps.Links = deeplink.Default
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}
	return &Server{deps: deps}
}

// Routes returns the router with middleware applied.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(s.deps.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Device-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/r/{scanId}", s.resultByPath)
	r.Get("/result", s.resultByQuery)
	r.Post("/scan", s.scan)
	r.Get("/resolve", s.resolve)
	r.Get("/history", s.history)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.deps.Network != nil {
		body["online"] = s.deps.Network.Online()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) resultByPath(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, chi.URLParam(r, "scanId"))
}

func (s *Server) resultByQuery(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.URL.Query().Get("scanId"))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "scanId is required")
		return
	}
	res, err := s.deps.Scanner.Lookup(r.Context(), id)
	if err != nil {
		if eris.Is(err, scan.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		zap.L().Error("httpapi: lookup failed", zap.String("scan_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":     res,
		"appLink":    s.deps.Links.ResultLink(res.ID, model.LanguageEnglish),
		"webLink":    s.deps.Links.WebResultURL(res.ID),
		"badgeColor": badgeColor(res.Badge),
	})
}

type scanRequest struct {
	URL            string `json:"url"`
	MediaReference string `json:"mediaReference"`
	AdvancedScan   *bool  `json:"advancedScan"`
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := scan.Options{Advanced: req.AdvancedScan}
	var (
		res *model.ScanResult
		err error
	)
	if req.URL != "" {
		res, err = s.deps.Scanner.ScanURL(r.Context(), req.URL, opts)
	} else {
		res, err = s.deps.Scanner.ScanMedia(r.Context(), req.MediaReference, opts)
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case eris.Is(err, scan.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "url or mediaReference is required")
	case eris.Is(err, scan.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "scan limit reached, try again later")
	default:
		zap.L().Error("httpapi: scan failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "scan failed, please retry")
	}
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Links.Resolve(r.URL.Query().Get("raw")))
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	f := model.FilterType(r.URL.Query().Get("filter"))
	if f == "" {
		f = model.FilterAll
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.deps.History.Filter(r.Context(), f)})
}

func badgeColor(b model.Badge) string {
	switch b {
	case model.BadgeVerified:
		return "green"
	case model.BadgeHighRisk:
		return "red"
	default:
		return "amber"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("httpapi: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
