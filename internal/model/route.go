package model

// RouteType is the kind of navigation intent a raw link resolves to.
type RouteType string

const (
	RouteResult RouteType = "result"
	RouteScan   RouteType = "scan"
	RouteHome   RouteType = "home"
)

// RouteIntent is the outcome of resolving an incoming link or shared text.
type RouteIntent struct {
	Type   RouteType `json:"type"`
	ScanID string    `json:"scanId,omitempty"`
	URL    string    `json:"url,omitempty"`
}
