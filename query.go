package frmr

import "time"

// DocumentDetail is a document's metadata with its raw JSON text.
type DocumentDetail struct {
	Meta    DocumentMeta    `json:"meta"`
	RawJSON string          `json:"raw_json"`
	Summary DocumentSummary `json:"summary"`
}

// ThemeSummary aggregates the indicators of one KSI theme.
type ThemeSummary struct {
	Theme           string          `json:"theme"`
	ThemeName       string          `json:"themeName"`
	IndicatorCount  int             `json:"indicatorCount"`
	Indicators      []*KsiItem      `json:"indicators"`
	ImpactBreakdown ImpactBreakdown `json:"impactBreakdown"`
	RelatedControls []string        `json:"relatedControls"`
	RelatedDocs     []*RelatedDoc   `json:"relatedDocs"`
}

// ImpactBreakdown counts indicators per impact level.
type ImpactBreakdown struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
}

// RelatedDoc is a markdown document related to a query.
type RelatedDoc struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
}

// EvidenceChecklistItem lists the evidence examples of one KSI item.
type EvidenceChecklistItem struct {
	KsiID            string   `json:"ksiId"`
	KsiTitle         string   `json:"ksiTitle"`
	Theme            string   `json:"theme"`
	EvidenceExamples []string `json:"evidenceExamples"`
}

// EvidenceChecklist is the evidence needed for a set of KSI items.
type EvidenceChecklist struct {
	Total       int                      `json:"total"`
	Items       []*EvidenceChecklistItem `json:"items"`
	AllEvidence []string                 `json:"allEvidence"`
}

// EvidenceFilter selects KSI items for evidence listings. Zero values
// match everything.
type EvidenceFilter struct {
	Theme          string
	ID             string
	ExcludeRetired bool
}

// EvidenceExampleItem joins a KSI item with its catalog entry.
type EvidenceExampleItem struct {
	KsiID        string      `json:"ksiId"`
	KsiName      string      `json:"ksiName"`
	KsiStatement string      `json:"ksiStatement,omitempty"`
	Theme        string      `json:"theme"`
	Impact       *Impact     `json:"impact,omitempty"`
	Evidence     []*Evidence `json:"evidence"`
	Retired      *Retirement `json:"retired,omitempty"`
}

// EvidenceExamples is the evidence catalog view for a set of KSI items.
type EvidenceExamples struct {
	Disclaimer string                 `json:"disclaimer"`
	Total      int                    `json:"total"`
	Items      []*EvidenceExampleItem `json:"items"`
	Themes     []string               `json:"themes"`
}

// ControlRequirement is a control mapping enriched with its KSI item.
type ControlRequirement struct {
	SourceID     string       `json:"sourceId"`
	Source       DocumentType `json:"source"`
	Control      string       `json:"control"`
	Enhancements []string     `json:"enhancements"`
	Path         string       `json:"path"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Theme        string       `json:"theme,omitempty"`
}

// ControlRequirements lists the requirements mapped to one control.
type ControlRequirements struct {
	Control      string                `json:"control"`
	Total        int                   `json:"total"`
	Requirements []*ControlRequirement `json:"requirements"`
}

// Definition is a term from the definitions document.
type Definition struct {
	ID         string   `json:"id"`
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Alts       []string `json:"alts,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// DefinitionResult is one page of definition search results.
type DefinitionResult struct {
	Total       int           `json:"total"`
	Definitions []*Definition `json:"definitions"`
}

// Requirement is any requirement, indicator or definition found by id.
type Requirement struct {
	ID               string       `json:"id"`
	Source           DocumentType `json:"source"`
	DocumentPath     string       `json:"documentPath"`
	DocumentTitle    string       `json:"documentTitle"`
	Title            string       `json:"title,omitempty"`
	Statement        string       `json:"statement,omitempty"`
	Description      string       `json:"description,omitempty"`
	Theme            string       `json:"theme,omitempty"`
	Impact           *Impact      `json:"impact,omitempty"`
	ControlMapping   []string     `json:"controlMapping,omitempty"`
	EvidenceExamples []string     `json:"evidenceExamples,omitempty"`
	Raw              any          `json:"raw,omitempty"`
}

// ControlMatch is a markdown line mentioning a control.
type ControlMatch struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// SourceType distinguishes significant change guidance sources.
type SourceType string

// SourceType constants.
const (
	SourceMarkdown SourceType = "markdown"
	SourceFRMR     SourceType = "FRMR"
)

// GuidanceSource is a document discussing significant change. Markdown
// sources carry the context lines of their first mention; FRMR sources
// carry the ids of matching items.
type GuidanceSource struct {
	Type       SourceType   `json:"type"`
	Path       string       `json:"path"`
	Lines      *[2]int      `json:"lines,omitempty"`
	References []string     `json:"references,omitempty"`
	DocType    DocumentType `json:"docType,omitempty"`
}

// Guidance lists significant change sources.
type Guidance struct {
	Sources []*GuidanceSource `json:"sources"`
}

// BuildSummary reports the outcome of an index build.
type BuildSummary struct {
	BuildID       string    `json:"buildId"`
	Revision      string    `json:"revision,omitempty"`
	IndexedAt     time.Time `json:"indexedAt"`
	Documents     int       `json:"documents"`
	KsiItems      int       `json:"ksiItems"`
	Mappings      int       `json:"controlMappings"`
	MarkdownFiles int       `json:"markdownFiles"`
	Errors        int       `json:"errors"`
	Cached        bool      `json:"cached"`
}
