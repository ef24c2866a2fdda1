package model

// EntityType identifies what a watch item or alert is about.
type EntityType string

const (
	EntityDomain  EntityType = "domain"
	EntityVendor  EntityType = "vendor"
	EntityCreator EntityType = "creator"
	EntityLink    EntityType = "link"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityDomain, EntityVendor, EntityCreator, EntityLink:
		return true
	}
	return false
}

// Alert is a notification about a watched entity.
type Alert struct {
	ID         string      `json:"id" yaml:"id"`
	CreatedAt  string      `json:"createdAt" yaml:"created_at"`
	EntityType EntityType  `json:"entityType" yaml:"entity_type"`
	EntityKey  string      `json:"entityKey" yaml:"entity_key"`
	ScanID     string      `json:"scanId,omitempty" yaml:"scan_id,omitempty"`
	Badge      Badge       `json:"badge" yaml:"badge"`
	Score      int         `json:"score" yaml:"score"`
	Message    string      `json:"message" yaml:"message"`
	TopReasons []TopReason `json:"topReasons,omitempty" yaml:"top_reasons,omitempty"`
	ReadAt     *string     `json:"readAt" yaml:"read_at"`
}

// IsRead reports whether the alert has been read.
func (a Alert) IsRead() bool {
	return a.ReadAt != nil && *a.ReadAt != ""
}

// WatchItem is a user-registered entity tracked for alerts.
type WatchItem struct {
	ID            string     `json:"id" yaml:"id"`
	EntityType    EntityType `json:"entityType" yaml:"entity_type"`
	EntityKey     string     `json:"entityKey" yaml:"entity_key"`
	AlertsEnabled bool       `json:"alertsEnabled" yaml:"alerts_enabled"`
	CreatedAt     string     `json:"createdAt" yaml:"created_at"`
}
