// Package deeplink turns incoming links, router paths and shared text into
// navigation intents, and builds the links the app hands out.
package deeplink

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/reail-cli/internal/model"
)

const (
	DefaultScheme     = "reailscan"
	DefaultWebBaseURL = "https://reail.app"
)

// Links holds the custom scheme and the web fallback origin.
type Links struct {
	Scheme     string
	WebBaseURL string
}

// Default uses the production scheme and web origin.
var Default = Links{Scheme: DefaultScheme, WebBaseURL: DefaultWebBaseURL}

// Resolve resolves raw with the default links.
func Resolve(raw string) model.RouteIntent { return Default.Resolve(raw) }

var httpURL = regexp.MustCompile(`(?i)https?://[^\s]+`)

// ExtractFirstHTTPURL returns the first http(s) URL found anywhere in text.
func ExtractFirstHTTPURL(text string) (string, bool) {
	m := httpURL.FindString(text)
	return m, m != ""
}

// Resolve maps raw to a route. An explicit result id wins over an embedded
// http(s) URL, which wins over a scan?url= link; anything else goes home.
func (l Links) Resolve(raw string) model.RouteIntent {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.RouteIntent{Type: model.RouteHome}
	}

	for _, tok := range strings.Fields(raw) {
		if id, ok := l.resultID(tok); ok {
			return model.RouteIntent{Type: model.RouteResult, ScanID: id}
		}
	}
	if u, ok := ExtractFirstHTTPURL(raw); ok {
		return model.RouteIntent{Type: model.RouteScan, URL: u}
	}
	for _, tok := range strings.Fields(raw) {
		if u, ok := l.scanURL(tok); ok {
			return model.RouteIntent{Type: model.RouteScan, URL: u}
		}
	}
	return model.RouteIntent{Type: model.RouteHome}
}

// resultID recognizes
//
//	scheme://result?scanId=<id>   scheme://result/<id>
//	/result/<id>  /r/<id>  /scan/<id>  result/<id>
//	any app path or app link carrying scanId=<id>
//
// and the same paths under the web origin. Links to other web hosts never
// resolve to a result.
func (l Links) resultID(tok string) (string, bool) {
	u, err := url.Parse(tok)
	if err != nil {
		return "", false
	}

	var path string
	switch scheme := strings.ToLower(u.Scheme); {
	case scheme == "":
		path = u.Path
	case scheme == strings.ToLower(l.Scheme):
		path = "/" + u.Host + u.Path
	case (scheme == "http" || scheme == "https") && l.isWebHost(u.Host):
		path = u.Path
	default:
		return "", false
	}

	if id := strings.TrimSpace(u.Query().Get("scanId")); id != "" {
		return id, true
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || strings.TrimSpace(segs[1]) == "" {
		return "", false
	}
	head, id := strings.ToLower(segs[0]), strings.TrimSpace(segs[1])
	switch head {
	case "result":
		return id, true
	case "r":
		// Bare "r/<id>" is too ambiguous to claim.
		if u.Scheme == "" && !strings.HasPrefix(tok, "/") {
			return "", false
		}
		return id, true
	case "scan":
		if u.Query().Has("url") {
			return "", false
		}
		return id, true
	}
	return "", false
}

// scanURL recognizes scheme://scan?url=<u> and /scan?url=<u>.
func (l Links) scanURL(tok string) (string, bool) {
	u, err := url.Parse(tok)
	if err != nil {
		return "", false
	}
	var head string
	switch strings.ToLower(u.Scheme) {
	case "":
		head = strings.Trim(u.Path, "/")
	case strings.ToLower(l.Scheme):
		head = u.Host
	default:
		return "", false
	}
	if !strings.EqualFold(head, "scan") {
		return "", false
	}
	target := strings.TrimSpace(u.Query().Get("url"))
	return target, target != ""
}

func (l Links) isWebHost(host string) bool {
	base, err := url.Parse(l.WebBaseURL)
	if err != nil || base.Host == "" {
		return false
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == strings.TrimPrefix(strings.ToLower(base.Host), "www.")
}

// ResultLink builds the app link opening a result.
func (l Links) ResultLink(scanID string, lang model.Language) string {
	return l.Scheme + "://result?scanId=" + url.QueryEscape(scanID) + "&lang=" + url.QueryEscape(string(langOrDefault(lang)))
}

// ScanLink builds the app link that starts a scan of target.
func (l Links) ScanLink(target string, lang model.Language) string {
	return l.Scheme + "://scan?url=" + url.QueryEscape(target) + "&lang=" + url.QueryEscape(string(langOrDefault(lang)))
}

// WebResultURL builds the web fallback link for a result.
func (l Links) WebResultURL(scanID string) string {
	return strings.TrimRight(l.WebBaseURL, "/") + "/r/" + url.PathEscape(scanID)
}

func langOrDefault(lang model.Language) model.Language {
	if lang == "" {
		return model.LanguageEnglish
	}
	return lang
}
