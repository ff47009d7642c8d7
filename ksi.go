package frmr

// KsiItem is a normalized Key Security Indicator.
type KsiItem struct {
	ID               string      `json:"id"`
	Title            string      `json:"title,omitempty"`
	Description      string      `json:"description,omitempty"`
	Category         string      `json:"category,omitempty"`
	Status           string      `json:"status,omitempty"`
	SourceRef        []string    `json:"sourceRef,omitempty"`
	Requirements     []string    `json:"requirements,omitempty"`
	ControlMapping   []string    `json:"controlMapping,omitempty"`
	EvidenceExamples []string    `json:"evidenceExamples,omitempty"`
	References       []Reference `json:"references,omitempty"`
	DocPath          string      `json:"docPath"`
	Statement        string      `json:"statement,omitempty"`
	Theme            string      `json:"theme,omitempty"`
	Impact           *Impact     `json:"impact,omitempty"`
}

// Reference points from a KSI item to a related source.
type Reference struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Impact records the impact levels a KSI item applies to.
type Impact struct {
	Low      bool `json:"low"`
	Moderate bool `json:"moderate"`
	High     bool `json:"high"`
}

// Applies reports whether the impact applies to the named level.
func (i *Impact) Applies(level ImpactLevel) bool {
	if i == nil {
		return false
	}
	switch level {
	case ImpactLow:
		return i.Low
	case ImpactModerate:
		return i.Moderate
	case ImpactHigh:
		return i.High
	}
	return false
}

// ImpactLevel names a FedRAMP impact level.
type ImpactLevel string

// ImpactLevel constants.
const (
	ImpactLow      ImpactLevel = "low"
	ImpactModerate ImpactLevel = "moderate"
	ImpactHigh     ImpactLevel = "high"
)

// KsiFilter represents a filter for listing KSI items. Zero values match
// everything.
type KsiFilter struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Status   string `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// KsiPage is one page of a KSI listing.
type KsiPage struct {
	Total int        `json:"total"`
	Items []*KsiItem `json:"items"`
}
