package tools

import (
	"context"

	"github.com/fwojciec/frmr"
)

// Index is the query surface the tools are served from.
type Index interface {
	Documents() ([]frmr.DocumentMeta, error)
	DocumentDetail(typ frmr.DocumentType, path string) (*frmr.DocumentDetail, error)
	Versions() ([]frmr.VersionInfo, error)

	ListKSI(filter frmr.KsiFilter) (*frmr.KsiPage, error)
	GetKSI(id string) (*frmr.KsiItem, error)
	FilterByImpact(level frmr.ImpactLevel, offset, limit int) (*frmr.KsiPage, error)
	ThemeSummary(ctx context.Context, theme string) (*frmr.ThemeSummary, error)
	EvidenceChecklist(theme, id string) (*frmr.EvidenceChecklist, error)
	EvidenceExamples(filter frmr.EvidenceFilter) (*frmr.EvidenceExamples, error)

	ListControls(filter frmr.ControlFilter) ([]*frmr.ControlMapping, error)
	ControlRequirements(control string) (*frmr.ControlRequirements, error)
	ControlCoverage() (*frmr.ControlCoverage, error)

	SearchMarkdown(ctx context.Context, q string, offset, limit int) (*frmr.MarkdownSearchResult, error)
	ReadMarkdown(path string) (*frmr.MarkdownDoc, error)
	SearchDefinitions(term string, limit int) (*frmr.DefinitionResult, error)
	RequirementByID(id string) (*frmr.Requirement, error)

	Diff(leftPath, rightPath, idKey string) (*frmr.DiffResult, error)
	GrepControls(control string, withEnhancements bool) ([]frmr.ControlMatch, error)
	SignificantChangeGuidance(limit int) (*frmr.Guidance, error)

	Health(ctx context.Context) (*frmr.Health, error)
	Refresh(ctx context.Context) (*frmr.UpdateResult, error)
}

type noArgs struct{}

type documentArgs struct {
	Type string `json:"type" validate:"omitempty,oneof=KSI MAS VDR SCN FRD ADS CCM FSI ICP PVA RSC SCG UCM unknown" desc:"FRMR document type code"`
	Path string `json:"path" validate:"required" desc:"Virtual path of the document, as listed by list_frmr_documents"`
}

type listKSIArgs struct {
	ID       string `json:"id" desc:"Substring of the KSI id"`
	Text     string `json:"text" desc:"Text to find in the title, statement or description"`
	Category string `json:"category" desc:"KSI theme code such as IAM"`
	Status   string `json:"status"`
	Limit    int    `json:"limit" validate:"min=1,max=200" default:"100"`
	Offset   int    `json:"offset" validate:"min=0" default:"0"`
}

type idArgs struct {
	ID string `json:"id" validate:"required" desc:"Item identifier such as KSI-IAM-MFA"`
}

type impactArgs struct {
	Impact string `json:"impact" validate:"required,oneof=low moderate high" desc:"FIPS 199 impact level"`
	Limit  int    `json:"limit" validate:"min=1,max=200" default:"100"`
	Offset int    `json:"offset" validate:"min=0" default:"0"`
}

type themeArgs struct {
	Theme string `json:"theme" validate:"required,oneof=AFR CED CMT CNA IAM INR MLA PIY RPL SVC TPR" desc:"KSI theme code"`
}

type checklistArgs struct {
	Theme string `json:"theme" desc:"Filter by KSI theme such as IAM"`
	ID    string `json:"id" desc:"Restrict to one KSI item"`
}

type evidenceArgs struct {
	Theme          string `json:"theme" desc:"Filter by KSI theme such as IAM"`
	ID             string `json:"id" desc:"Restrict to one KSI item"`
	IncludeRetired bool   `json:"includeRetired" default:"true" desc:"Include retired KSI items"`
}

type listControlsArgs struct {
	Family  string `json:"family" desc:"Control family such as AC"`
	Control string `json:"control" desc:"Control identifier prefix such as AC-2"`
	Source  string `json:"source" validate:"omitempty,oneof=KSI MAS VDR SCN FRD ADS CCM FSI ICP PVA RSC SCG UCM unknown"`
}

type controlArgs struct {
	Control string `json:"control" validate:"required" desc:"NIST control identifier such as AC-2"`
}

type searchMarkdownArgs struct {
	Query  string `json:"query" validate:"required" desc:"Search terms; every term must match"`
	Limit  int    `json:"limit" validate:"min=1,max=100" default:"20"`
	Offset int    `json:"offset" validate:"min=0" default:"0"`
}

type pathArgs struct {
	Path string `json:"path" validate:"required" desc:"Corpus-relative path of a markdown file"`
}

type definitionArgs struct {
	Term  string `json:"term" validate:"required" desc:"Text to find in terms, definitions and alternate names"`
	Limit int    `json:"limit" validate:"min=1,max=100" default:"20"`
}

type diffArgs struct {
	LeftPath  string `json:"left_path" validate:"required"`
	RightPath string `json:"right_path" validate:"required"`
	IDKey     string `json:"id_key" desc:"Item field that identifies items; detected when empty"`
}

type grepArgs struct {
	Control          string `json:"control" validate:"required" desc:"NIST control identifier such as SC-7"`
	WithEnhancements bool   `json:"with_enhancements" default:"true" desc:"Also match enhancements such as SC-7(5)"`
}

type guidanceArgs struct {
	Limit int `json:"limit" validate:"min=1,max=100" default:"50"`
}

type searchToolsArgs struct {
	Query    string `json:"query" default:"" desc:"Search by name, keyword or description; empty browses all tools"`
	Category string `json:"category" validate:"omitempty,oneof=Discovery KSI Controls Search Analysis System"`
	Limit    int    `json:"limit" validate:"min=1,max=22" default:"5"`
}

// New returns a registry serving every tool from idx.
func New(idx Index) *Registry {
	r := NewRegistry()

	// Discovery
	Register(r, frmr.Tool{
		Name:        "list_frmr_documents",
		Description: "List available FRMR documents and metadata. Starting point for exploring FedRAMP datasets.",
		Category:    CategoryDiscovery,
		Keywords:    []string{"frmr", "documents", "list", "browse", "discover", "metadata", "datasets", "json"},
	}, func(ctx context.Context, _ noArgs) (any, error) {
		docs, err := idx.Documents()
		if err != nil {
			return nil, err
		}
		return map[string]any{"documents": docs}, nil
	})

	Register(r, frmr.Tool{
		Name:        "get_frmr_document",
		Description: "Retrieve a FRMR document with metadata, raw JSON, and summary. Use list_frmr_documents to find virtual paths.",
		Category:    CategoryDiscovery,
		Keywords:    []string{"frmr", "document", "get", "retrieve", "json", "raw", "ksi", "mas", "vdr", "frd"},
	}, func(ctx context.Context, args documentArgs) (any, error) {
		var typ frmr.DocumentType
		if args.Type != "" {
			typ = frmr.ParseDocumentType(args.Type)
		}
		return idx.DocumentDetail(typ, args.Path)
	})

	Register(r, frmr.Tool{
		Name:        "list_versions",
		Description: "List detected FRMR versions and metadata for comparison.",
		Category:    CategoryDiscovery,
		Keywords:    []string{"versions", "list", "history", "releases", "changelog", "compare"},
	}, func(ctx context.Context, _ noArgs) (any, error) {
		versions, err := idx.Versions()
		if err != nil {
			return nil, err
		}
		return map[string]any{"versions": versions}, nil
	})

	// KSI
	Register(r, frmr.Tool{
		Name:        "list_ksi",
		Description: "List and filter Key Security Indicators with text search, category, and status filters.",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "key security indicators", "list", "filter", "search", "indicators", "compliance"},
	}, func(ctx context.Context, args listKSIArgs) (any, error) {
		return idx.ListKSI(frmr.KsiFilter{
			ID:       args.ID,
			Text:     args.Text,
			Category: args.Category,
			Status:   args.Status,
			Offset:   args.Offset,
			Limit:    args.Limit,
		})
	})

	Register(r, frmr.Tool{
		Name:        "get_ksi",
		Description: "Retrieve a single KSI entry by its ID with full details.",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "get", "indicator", "detail", "item", "lookup"},
	}, func(ctx context.Context, args idArgs) (any, error) {
		item, err := idx.GetKSI(args.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"item": item}, nil
	})

	Register(r, frmr.Tool{
		Name:        "filter_by_impact",
		Description: "Filter KSI items by FIPS 199 impact level (low, moderate, high).",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "impact", "filter", "fips", "low", "moderate", "high", "categorization"},
	}, func(ctx context.Context, args impactArgs) (any, error) {
		return idx.FilterByImpact(frmr.ImpactLevel(args.Impact), args.Offset, args.Limit)
	})

	Register(r, frmr.Tool{
		Name:        "get_theme_summary",
		Description: "Get comprehensive guidance for a KSI theme with indicators, impact breakdown, and related controls.",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "theme", "summary", "guidance", "iam", "cna", "mla", "indicators", "controls"},
	}, func(ctx context.Context, args themeArgs) (any, error) {
		return idx.ThemeSummary(ctx, args.Theme)
	})

	Register(r, frmr.Tool{
		Name:        "get_evidence_checklist",
		Description: "Build an evidence checklist from the evidence examples listed on KSI items.",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "evidence", "checklist", "audit", "artifacts", "preparation"},
	}, func(ctx context.Context, args checklistArgs) (any, error) {
		return idx.EvidenceChecklist(args.Theme, args.ID)
	})

	Register(r, frmr.Tool{
		Name:        "get_evidence_examples",
		Description: "Get suggested evidence examples for KSI compliance with automation sources. These are community suggestions, not official FedRAMP guidance.",
		Category:    CategoryKSI,
		Keywords:    []string{"ksi", "evidence", "examples", "compliance", "automation", "audit", "artifacts", "collection"},
	}, func(ctx context.Context, args evidenceArgs) (any, error) {
		return idx.EvidenceExamples(frmr.EvidenceFilter{
			Theme:          args.Theme,
			ID:             args.ID,
			ExcludeRetired: !args.IncludeRetired,
		})
	})

	// Controls
	Register(r, frmr.Tool{
		Name:        "list_controls",
		Description: "Return flattened NIST control mappings across all FRMR sets.",
		Category:    CategoryControls,
		Keywords:    []string{"controls", "nist", "mapping", "list", "800-53", "control family", "ac", "sc", "ia"},
	}, func(ctx context.Context, args listControlsArgs) (any, error) {
		var source frmr.DocumentType
		if args.Source != "" {
			source = frmr.ParseDocumentType(args.Source)
		}
		mappings, err := idx.ListControls(frmr.ControlFilter{
			Source:  source,
			Family:  args.Family,
			Control: args.Control,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"mappings": mappings}, nil
	})

	Register(r, frmr.Tool{
		Name:        "get_control_requirements",
		Description: "Get all FedRAMP requirements mapped to a specific NIST control.",
		Category:    CategoryControls,
		Keywords:    []string{"control", "requirements", "nist", "mapping", "ksi", "frmr", "800-53"},
	}, func(ctx context.Context, args controlArgs) (any, error) {
		return idx.ControlRequirements(args.Control)
	})

	Register(r, frmr.Tool{
		Name:        "analyze_control_coverage",
		Description: "Analyze NIST control family coverage with FedRAMP requirement counts.",
		Category:    CategoryControls,
		Keywords:    []string{"control", "coverage", "analysis", "gap", "families", "dashboard", "report"},
	}, func(ctx context.Context, _ noArgs) (any, error) {
		return idx.ControlCoverage()
	})

	// Search
	Register(r, frmr.Tool{
		Name:        "search_markdown",
		Description: "Full-text search across FedRAMP markdown documentation and guidance.",
		Category:    CategorySearch,
		Keywords:    []string{"search", "markdown", "fulltext", "documentation", "guidance", "policies", "procedures"},
	}, func(ctx context.Context, args searchMarkdownArgs) (any, error) {
		return idx.SearchMarkdown(ctx, args.Query, args.Offset, args.Limit)
	})

	Register(r, frmr.Tool{
		Name:        "read_markdown",
		Description: "Read a FedRAMP markdown file and return its full contents.",
		Category:    CategorySearch,
		Keywords:    []string{"read", "markdown", "file", "content", "document", "guidance"},
	}, func(ctx context.Context, args pathArgs) (any, error) {
		doc, err := idx.ReadMarkdown(args.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"path":        doc.Path,
			"contentHash": doc.ContentHash,
			"content":     doc.Content,
		}, nil
	})

	Register(r, frmr.Tool{
		Name:        "search_definitions",
		Description: "Search FedRAMP definitions (FRD) by term with alternate terms.",
		Category:    CategorySearch,
		Keywords:    []string{"definitions", "search", "frd", "glossary", "terms", "acronyms", "vocabulary"},
	}, func(ctx context.Context, args definitionArgs) (any, error) {
		return idx.SearchDefinitions(args.Term, args.Limit)
	})

	Register(r, frmr.Tool{
		Name:        "get_requirement_by_id",
		Description: "Get any FedRAMP requirement by its ID across all document types.",
		Category:    CategorySearch,
		Keywords:    []string{"requirement", "id", "lookup", "ksi", "frd", "frr", "universal", "get"},
	}, func(ctx context.Context, args idArgs) (any, error) {
		return idx.RequirementByID(args.ID)
	})

	// Analysis
	Register(r, frmr.Tool{
		Name:        "diff_frmr",
		Description: "Compute a structured diff between two FRMR document versions.",
		Category:    CategoryAnalysis,
		Keywords:    []string{"diff", "compare", "versions", "changes", "added", "removed", "modified", "delta"},
	}, func(ctx context.Context, args diffArgs) (any, error) {
		return idx.Diff(args.LeftPath, args.RightPath, args.IDKey)
	})

	Register(r, frmr.Tool{
		Name:        "grep_controls_in_markdown",
		Description: "Search markdown files for NIST control identifier occurrences.",
		Category:    CategoryAnalysis,
		Keywords:    []string{"grep", "control", "markdown", "search", "references", "occurrences", "nist"},
	}, func(ctx context.Context, args grepArgs) (any, error) {
		matches, err := idx.GrepControls(args.Control, args.WithEnhancements)
		if err != nil {
			return nil, err
		}
		return map[string]any{"matches": matches}, nil
	})

	Register(r, frmr.Tool{
		Name:        "get_significant_change_guidance",
		Description: "Aggregate guidance related to FedRAMP Significant Change requirements.",
		Category:    CategoryAnalysis,
		Keywords:    []string{"significant change", "guidance", "notification", "assessment", "re-assessment", "scn"},
	}, func(ctx context.Context, args guidanceArgs) (any, error) {
		return idx.SignificantChangeGuidance(args.Limit)
	})

	// System
	Register(r, frmr.Tool{
		Name:        "health_check",
		Description: "Verify index status and report server health.",
		Category:    CategorySystem,
		Keywords:    []string{"health", "status", "diagnostics", "index", "server", "check"},
	}, func(ctx context.Context, _ noArgs) (any, error) {
		return idx.Health(ctx)
	})

	Register(r, frmr.Tool{
		Name:        "update_repository",
		Description: "Force update the cached FedRAMP docs repository from GitHub and rebuild the index when it changed.",
		Category:    CategorySystem,
		Keywords:    []string{"update", "repository", "refresh", "sync", "fetch", "github", "latest"},
	}, func(ctx context.Context, _ noArgs) (any, error) {
		return idx.Refresh(ctx)
	})

	Register(r, frmr.Tool{
		Name:        "search_tools",
		Description: "Search and discover available FedRAMP tools by keyword or category.",
		Category:    CategorySystem,
		Keywords:    []string{"search", "tools", "discover", "find", "help", "catalog", "list tools"},
	}, func(ctx context.Context, args searchToolsArgs) (any, error) {
		return SearchCatalog(r.Tools(), args.Query, args.Category, args.Limit), nil
	})

	return r
}
