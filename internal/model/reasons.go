package model

// ReasonKey is one of the six fixed analysis categories.
type ReasonKey string

const (
	ReasonMediaIntegrity ReasonKey = "A"
	ReasonDuplicateMedia ReasonKey = "B"
	ReasonClaims         ReasonKey = "C"
	ReasonAccount        ReasonKey = "D"
	ReasonLinkSafety     ReasonKey = "E"
	ReasonPatterns       ReasonKey = "F"
)

// ReasonKeys lists the categories in display order.
var ReasonKeys = []ReasonKey{
	ReasonMediaIntegrity,
	ReasonDuplicateMedia,
	ReasonClaims,
	ReasonAccount,
	ReasonLinkSafety,
	ReasonPatterns,
}

// ReasonDetail is the finding for a single category.
type ReasonDetail struct {
	Title      string   `json:"title" yaml:"title"`
	Summary    string   `json:"summary" yaml:"summary"`
	Details    []string `json:"details" yaml:"details"`
	Suggestion string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Reasons maps each category to its finding.
type Reasons map[ReasonKey]ReasonDetail

var reasonTitles = map[ReasonKey]string{
	ReasonMediaIntegrity: "Media Integrity",
	ReasonDuplicateMedia: "Duplicate / Re-used Media",
	ReasonClaims:         "Claims vs Public Signals",
	ReasonAccount:        "Account Signals",
	ReasonLinkSafety:     "Link Safety",
	ReasonPatterns:       "Patterns / Reports",
}

// ReasonTitle returns the display title of a category.
func ReasonTitle(k ReasonKey) string {
	return reasonTitles[k]
}

// DefaultReason is the placeholder shown for a category the source omitted.
func DefaultReason(k ReasonKey) ReasonDetail {
	return ReasonDetail{
		Title:   reasonTitles[k],
		Summary: "No data available for this category",
		Details: []string{"This signal was not evaluated for this scan"},
	}
}

// Normalize returns a copy with every category present. Missing categories
// get the placeholder; an empty title is filled from the category name.
func (r Reasons) Normalize() Reasons {
	out := make(Reasons, len(ReasonKeys))
	for _, k := range ReasonKeys {
		d, ok := r[k]
		if !ok {
			out[k] = DefaultReason(k)
			continue
		}
		if d.Title == "" {
			d.Title = reasonTitles[k]
		}
		if d.Details == nil {
			d.Details = []string{}
		} else {
			d.Details = append([]string(nil), d.Details...)
		}
		out[k] = d
	}
	return out
}

// TopReason is a short category summary carried on alerts.
type TopReason struct {
	Key     ReasonKey `json:"key" yaml:"key"`
	Summary string    `json:"summary" yaml:"summary"`
}
