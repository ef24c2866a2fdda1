// Package reailapi is the HTTP client for the REAiL backend: remote scans,
// canonical scan ids, alerts, the watchlist and scam reports.
package reailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/resilience"
)

const (
	// DefaultBaseURL is the production backend.
	DefaultBaseURL = "https://api.reail.app"
	// DeviceHeader carries the device id on every request.
	DeviceHeader = "X-Device-Id"
	// DefaultTimeout bounds each call.
	DefaultTimeout = 15 * time.Second
)

// ErrNotFound is returned when the backend has no record for the request.
var ErrNotFound = eris.New("reailapi: not found")

// Client defines the backend operations.
type Client interface {
	ScanURL(ctx context.Context, rawURL string, advanced bool) (*ScanResponse, error)
	ScanMedia(ctx context.Context, mediaRef string, advanced bool) (*ScanResponse, error)
	GetResult(ctx context.Context, scanID string) (*ScanResponse, error)
	SubmitScan(ctx context.Context, req SubmitRequest) (string, error)

	ListAlerts(ctx context.Context) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllAlertsRead(ctx context.Context) error

	ListWatchlist(ctx context.Context) ([]model.WatchItem, error)
	AddWatch(ctx context.Context, entityType model.EntityType, entityKey string) (*model.WatchItem, error)
	ToggleWatch(ctx context.Context, id string, enabled bool) error
	RemoveWatch(ctx context.Context, id string) error

	ReportScan(ctx context.Context, req ReportRequest) error
}

// ScanResponse is the backend's scan shape.
type ScanResponse struct {
	ID            string        `json:"id"`
	URL           string        `json:"url,omitempty"`
	Badge         string        `json:"badge"`
	Score         float64       `json:"score"`
	Domain        string        `json:"domain,omitempty"`
	Title         string        `json:"title,omitempty"`
	Thumbnail     string        `json:"thumbnail,omitempty"`
	Reasons       model.Reasons `json:"reasons,omitempty"`
	Timestamp     int64         `json:"timestamp,omitempty"`
	DisclaimerKey string        `json:"disclaimerKey,omitempty"`
}

// SubmitRequest registers a locally produced result to obtain a canonical
// cross-device id. Reasons and Title are left empty in privacy mode.
type SubmitRequest struct {
	URL        string           `json:"url"`
	Score      int              `json:"score"`
	Badge      model.Badge      `json:"badge,omitempty"`
	Reasons    model.Reasons    `json:"reasons,omitempty"`
	Title      string           `json:"title,omitempty"`
	EntityType model.EntityType `json:"entityType"`
	EntityKey  string           `json:"entityKey"`
}

// ReportRequest flags a scan as a scam.
type ReportRequest struct {
	ScanID   string `json:"scanId"`
	Category string `json:"category"`
	Reason   string `json:"reason,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reailapi: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces requests to rps per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

// WithBreaker routes calls through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) { c.breaker = b }
}

type httpClient struct {
	baseURL  string
	deviceID string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	breaker  *resilience.Breaker
}

// NewClient creates a backend client identifying itself with deviceID.
func NewClient(deviceID string, opts ...Option) Client {
	c := &httpClient{
		baseURL:  DefaultBaseURL,
		deviceID: deviceID,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.WithRetries(2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ScanURL(ctx context.Context, rawURL string, advanced bool) (*ScanResponse, error) {
	var resp ScanResponse
	body := map[string]any{"url": rawURL, "advancedScan": advanced}
	if err := c.doJSON(ctx, "scan_url", http.MethodPost, "/scan/url", body, &resp); err != nil {
		return nil, eris.Wrap(err, "reailapi: scan url")
	}
	return &resp, nil
}

func (c *httpClient) ScanMedia(ctx context.Context, mediaRef string, advanced bool) (*ScanResponse, error) {
	payload, contentType, err := mediaForm(mediaRef, advanced)
	if err != nil {
		return nil, eris.Wrap(err, "reailapi: scan media")
	}
	var resp ScanResponse
	err = c.call(ctx, "scan_media", func(ctx context.Context) error {
		return c.send(ctx, http.MethodPost, "/scan/media", contentType, bytes.NewReader(payload), &resp)
	})
	if err != nil {
		return nil, eris.Wrap(err, "reailapi: scan media")
	}
	return &resp, nil
}

func (c *httpClient) GetResult(ctx context.Context, scanID string) (*ScanResponse, error) {
	if scanID == "" {
		return nil, ErrNotFound
	}
	var resp ScanResponse
	path := "/scan/result?scanId=" + url.QueryEscape(scanID)
	if err := c.doJSON(ctx, "get_result", http.MethodGet, path, nil, &resp); err != nil {
		return nil, eris.Wrapf(err, "reailapi: get result %s", scanID)
	}
	return &resp, nil
}

func (c *httpClient) SubmitScan(ctx context.Context, req SubmitRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, "submit_scan", http.MethodPost, "/scan/url", req, &resp); err != nil {
		return "", eris.Wrap(err, "reailapi: submit scan")
	}
	return resp.ID, nil
}

func (c *httpClient) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	var resp struct {
		Alerts []model.Alert `json:"alerts"`
	}
	if err := c.doJSON(ctx, "list_alerts", http.MethodGet, "/alerts", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "reailapi: list alerts")
	}
	return resp.Alerts, nil
}

func (c *httpClient) MarkAlertRead(ctx context.Context, id string) error {
	err := c.doJSON(ctx, "mark_alert_read", http.MethodPost, "/alerts/read", map[string]string{"id": id}, nil)
	return eris.Wrapf(err, "reailapi: mark alert %s read", id)
}

func (c *httpClient) MarkAllAlertsRead(ctx context.Context) error {
	err := c.doJSON(ctx, "mark_all_alerts_read", http.MethodPost, "/alerts/read-all", struct{}{}, nil)
	return eris.Wrap(err, "reailapi: mark all alerts read")
}

func (c *httpClient) ListWatchlist(ctx context.Context) ([]model.WatchItem, error) {
	var resp struct {
		Items []model.WatchItem `json:"items"`
	}
	if err := c.doJSON(ctx, "list_watchlist", http.MethodGet, "/watchlist", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "reailapi: list watchlist")
	}
	return resp.Items, nil
}

func (c *httpClient) AddWatch(ctx context.Context, entityType model.EntityType, entityKey string) (*model.WatchItem, error) {
	var resp struct {
		Item model.WatchItem `json:"item"`
	}
	body := map[string]string{"type": string(entityType), "key": entityKey}
	if err := c.doJSON(ctx, "add_watch", http.MethodPost, "/watchlist/add", body, &resp); err != nil {
		return nil, eris.Wrap(err, "reailapi: add watch")
	}
	return &resp.Item, nil
}

func (c *httpClient) ToggleWatch(ctx context.Context, id string, enabled bool) error {
	body := map[string]any{"id": id, "enabled": enabled}
	return eris.Wrapf(c.doJSON(ctx, "toggle_watch", http.MethodPost, "/watchlist/toggle", body, nil), "reailapi: toggle watch %s", id)
}

func (c *httpClient) RemoveWatch(ctx context.Context, id string) error {
	body := map[string]string{"id": id}
	return eris.Wrapf(c.doJSON(ctx, "remove_watch", http.MethodPost, "/watchlist/remove", body, nil), "reailapi: remove watch %s", id)
}

func (c *httpClient) ReportScan(ctx context.Context, req ReportRequest) error {
	return eris.Wrapf(c.doJSON(ctx, "report_scan", http.MethodPost, "/report", req, nil), "reailapi: report scan %s", req.ScanID)
}

// --- internal helpers ---

// call applies the breaker, retry policy, pacing and per-attempt timeout.
func (c *httpClient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(op)
	}
	_, err := resilience.Execute(ctx, c.breaker, countsAgainstBackend, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, resilience.Do(ctx, retry, func(ctx context.Context) error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return eris.Wrap(err, "reailapi: rate limit wait")
				}
			}
			ctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return fn(ctx)
		})
	})
	return err
}

// countsAgainstBackend excludes client errors (4xx other than 408/429) so
// that a missing result does not trip the breaker.
func countsAgainstBackend(err error) bool {
	var apiErr *APIError
	if eris.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return !eris.Is(err, ErrNotFound)
}

func (c *httpClient) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "reailapi: marshal request")
		}
	}
	return c.call(ctx, op, func(ctx context.Context) error {
		var r io.Reader
		contentType := ""
		if payload != nil {
			r = bytes.NewReader(payload)
			contentType = "application/json"
		}
		return c.send(ctx, method, path, contentType, r, out)
	})
}

func (c *httpClient) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "reailapi: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DeviceHeader, c.deviceID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "reailapi: http request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "reailapi: read response"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "reailapi: decode response")
	}
	return nil
}

// mediaForm builds the multipart body for /scan/media. A readable local file
// is attached as "file"; other references are sent as "mediaRef".
func mediaForm(mediaRef string, advanced bool) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("advancedScan", strconv.FormatBool(advanced)); err != nil {
		return nil, "", eris.Wrap(err, "reailapi: write form")
	}

	path := strings.TrimPrefix(mediaRef, "file://")
	if data, err := os.ReadFile(path); err == nil {
		part, err := w.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return nil, "", eris.Wrap(err, "reailapi: create form file")
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", eris.Wrap(err, "reailapi: write form file")
		}
	} else if err := w.WriteField("mediaRef", mediaRef); err != nil {
		return nil, "", eris.Wrap(err, "reailapi: write form")
	}

	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "reailapi: close form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
