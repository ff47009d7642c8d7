package index_test

import (
	"context"
	"testing"

	"github.com/fwojciec/frmr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ksiPath = "FRMR.KSI.key-security-indicators.json"
	masPath = "FRMR.MAS.minimum-assessment-scope.json"
	frdPath = "FRMR.FRD.definitions.json"
)

func TestService_Documents(t *testing.T) {
	t.Parallel()

	f := built(t)

	t.Run("lists metadata in path order", func(t *testing.T) {
		t.Parallel()

		docs, err := f.service.Documents()
		require.NoError(t, err)

		require.Len(t, docs, 3)
		assert.Equal(t, frdPath, docs[0].Path)
		assert.Equal(t, frmr.DocumentKSI, docs[1].Type)
		assert.Equal(t, "Key Security Indicators", docs[1].Title)
		assert.Equal(t, 3, docs[1].ItemCount)
		assert.Equal(t, masPath, docs[2].Path)
	})

	t.Run("returns detail with raw JSON", func(t *testing.T) {
		t.Parallel()

		detail, err := f.service.DocumentDetail(frmr.DocumentKSI, ksiPath)
		require.NoError(t, err)

		assert.Contains(t, detail.RawJSON, "KSI-IAM-MFA")
		assert.Equal(t, 3, detail.Summary.CountItems)
		assert.Equal(t, []string{"KSI", "info"}, detail.Summary.TopLevelKeys)
	})

	t.Run("rejects a type mismatch", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.DocumentDetail(frmr.DocumentMAS, ksiPath)

		assert.Equal(t, frmr.EBADREQUEST, frmr.ErrorCode(err))
	})

	t.Run("unknown path is not found", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.Document("FRMR.XYZ.missing.json")

		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
	})

	t.Run("lists versions", func(t *testing.T) {
		t.Parallel()

		versions, err := f.service.Versions()
		require.NoError(t, err)

		assert.Equal(t, frmr.VersionInfo{Type: frmr.DocumentKSI, Version: "25.11A", Published: "2025-11-14", Path: ksiPath}, versions[1])
	})
}

func TestService_KSI(t *testing.T) {
	t.Parallel()

	f := built(t)

	ids := func(items []*frmr.KsiItem) []string {
		var out []string
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter frmr.KsiFilter
		total  int
		want   []string
	}{
		{"all", frmr.KsiFilter{}, 3, []string{"KSI-IAM-MFA", "KSI-IAM-AAM", "KSI-SVC-VRI"}},
		{"by id", frmr.KsiFilter{ID: "KSI-SVC-VRI"}, 1, []string{"KSI-SVC-VRI"}},
		{"by text", frmr.KsiFilter{Text: "account"}, 1, []string{"KSI-IAM-AAM"}},
		{"by category", frmr.KsiFilter{Category: "iam"}, 2, []string{"KSI-IAM-MFA", "KSI-IAM-AAM"}},
		{"by status", frmr.KsiFilter{Status: "active"}, 1, []string{"KSI-IAM-AAM"}},
		{"paginated", frmr.KsiFilter{Offset: 1, Limit: 1}, 3, []string{"KSI-IAM-AAM"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page, err := f.service.ListKSI(tt.filter)
			require.NoError(t, err)

			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}

	t.Run("gets one item", func(t *testing.T) {
		t.Parallel()

		item, err := f.service.GetKSI("KSI-IAM-MFA")
		require.NoError(t, err)

		assert.Equal(t, "Phishing-Resistant MFA", item.Title)
		assert.Equal(t, "IAM", item.Category)
		assert.Equal(t, ksiPath, item.DocPath)
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.GetKSI("KSI-NOPE")

		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
	})

	t.Run("filters by impact", func(t *testing.T) {
		t.Parallel()

		low, err := f.service.FilterByImpact(frmr.ImpactLow, 0, 0)
		require.NoError(t, err)
		moderate, err := f.service.FilterByImpact(frmr.ImpactModerate, 0, 0)
		require.NoError(t, err)
		high, err := f.service.FilterByImpact(frmr.ImpactHigh, 0, 2)
		require.NoError(t, err)

		assert.Equal(t, []string{"KSI-IAM-MFA"}, ids(low.Items))
		assert.Equal(t, []string{"KSI-IAM-MFA", "KSI-IAM-AAM"}, ids(moderate.Items))
		assert.Equal(t, 3, high.Total)
		assert.Len(t, high.Items, 2)
	})

	t.Run("rejects an unknown impact level", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.FilterByImpact("extreme", 0, 0)

		assert.Equal(t, frmr.EBADREQUEST, frmr.ErrorCode(err))
	})

	t.Run("summarizes a theme", func(t *testing.T) {
		t.Parallel()

		summary, err := f.service.ThemeSummary(context.Background(), "iam")
		require.NoError(t, err)

		assert.Equal(t, "IAM", summary.Theme)
		assert.Equal(t, "Identity & Access Management", summary.ThemeName)
		assert.Equal(t, 2, summary.IndicatorCount)
		assert.Equal(t, frmr.ImpactBreakdown{Low: 1, Moderate: 2, High: 2}, summary.ImpactBreakdown)
		assert.Equal(t, []string{"AC-2", "IA-2(1)"}, summary.RelatedControls)
		assert.Empty(t, summary.RelatedDocs)
	})

	t.Run("collects an evidence checklist", func(t *testing.T) {
		t.Parallel()

		checklist, err := f.service.EvidenceChecklist("", "")
		require.NoError(t, err)

		assert.Equal(t, 2, checklist.Total)
		assert.Equal(t, []string{"Account lifecycle logs", "IdP policy report", "MFA configuration export"}, checklist.AllEvidence)

		svc, err := f.service.EvidenceChecklist("svc", "")
		require.NoError(t, err)
		assert.Zero(t, svc.Total)
		assert.NotNil(t, svc.Items)
	})
}

func TestService_EvidenceExamples(t *testing.T) {
	t.Parallel()

	f := built(t)
	f.service.Evidence = &frmr.EvidenceCatalog{
		Examples: map[string]*frmr.EvidenceExample{
			"KSI-IAM-MFA": {
				Name: "MFA",
				Evidence: []*frmr.Evidence{{
					Type:        "api",
					Description: "IdP MFA policy",
					Sources:     []*frmr.EvidenceSource{{Provider: "okta", API: "/api/v1/policies"}},
				}},
			},
			"KSI-IAM-AAM": {Name: "AAM", Retired: &frmr.Retirement{Reason: "merged"}},
		},
	}

	t.Run("joins items with the catalog", func(t *testing.T) {
		res, err := f.service.EvidenceExamples(frmr.EvidenceFilter{})
		require.NoError(t, err)

		assert.Equal(t, frmr.DefaultEvidenceDisclaimer, res.Disclaimer)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, []string{"IAM", "SVC"}, res.Themes)
		assert.Equal(t, "okta", res.Items[0].Evidence[0].Sources[0].Provider)
		assert.Empty(t, res.Items[2].Evidence)
	})

	t.Run("excludes retired items on request", func(t *testing.T) {
		res, err := f.service.EvidenceExamples(frmr.EvidenceFilter{ExcludeRetired: true})
		require.NoError(t, err)

		assert.Equal(t, 2, res.Total)
	})

	t.Run("filters by id case-insensitively", func(t *testing.T) {
		res, err := f.service.EvidenceExamples(frmr.EvidenceFilter{ID: "ksi-iam-mfa"})
		require.NoError(t, err)

		require.Equal(t, 1, res.Total)
		assert.Equal(t, "Phishing-Resistant MFA", res.Items[0].KsiName)
		assert.Equal(t, "Enforce phishing-resistant MFA per IA-2(1).", res.Items[0].KsiStatement)
	})
}

func TestService_Controls(t *testing.T) {
	t.Parallel()

	f := built(t)

	sources := func(mappings []*frmr.ControlMapping) []string {
		var out []string
		for _, m := range mappings {
			out = append(out, m.SourceID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter frmr.ControlFilter
		want   []string
	}{
		{"exact control", frmr.ControlFilter{Control: "ac-2"}, []string{"KSI-IAM-AAM", "FRR-MAS-01"}},
		{"stored control prefixes the filter", frmr.ControlFilter{Control: "AC-2.1"}, []string{"KSI-IAM-AAM", "FRR-MAS-01"}},
		{"filter prefixes the stored control", frmr.ControlFilter{Control: "AC"}, []string{"KSI-IAM-AAM", "FRR-MAS-01"}},
		{"family prefix", frmr.ControlFilter{Family: "s"}, []string{"KSI-SVC-VRI", "KSI-SVC-VRI"}},
		{"source", frmr.ControlFilter{Source: frmr.DocumentMAS}, []string{"FRR-MAS-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mappings, err := f.service.ListControls(tt.filter)
			require.NoError(t, err)

			assert.Equal(t, tt.want, sources(mappings))
		})
	}

	t.Run("enriches requirements with KSI details", func(t *testing.T) {
		t.Parallel()

		res, err := f.service.ControlRequirements("ac-2")
		require.NoError(t, err)

		assert.Equal(t, "AC-2", res.Control)
		require.Equal(t, 2, res.Total)
		assert.Equal(t, "Automating Account Management", res.Requirements[0].Title)
		assert.Equal(t, "IAM", res.Requirements[0].Theme)
		assert.Equal(t, frmr.DocumentMAS, res.Requirements[1].Source)
		assert.Empty(t, res.Requirements[1].Title)
	})

	t.Run("reports family coverage", func(t *testing.T) {
		t.Parallel()

		coverage, err := f.service.ControlCoverage()
		require.NoError(t, err)

		assert.Equal(t, 5, coverage.TotalMappings)
		assert.Equal(t, 4, coverage.DistinctControls)
		assert.Equal(t, 4, coverage.TotalFamilies)
		assert.Equal(t, &frmr.FamilyCoverage{
			Family:           "AC",
			DistinctControls: 1,
			MappingCount:     2,
			Controls:         []string{"AC-2"},
			Sources:          []frmr.DocumentType{frmr.DocumentKSI, frmr.DocumentMAS},
		}, coverage.Families[0])
		assert.Equal(t, "IA", coverage.Families[1].Family)
		assert.Equal(t, "SI", coverage.Families[3].Family)
	})
}

func TestService_Markdown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := built(t)

	t.Run("finds a two word phrase in one file", func(t *testing.T) {
		t.Parallel()

		res, err := f.service.SearchMarkdown(ctx, "continuous monitoring", 0, 0)
		require.NoError(t, err)

		require.Equal(t, 1, res.Total)
		hit := res.Hits[0]
		assert.Equal(t, "docs/continuous-monitoring.md", hit.Path)
		assert.Equal(t, 1, hit.Line)
		assert.Equal(t, "# Continuous Monitoring", hit.Snippet)
		assert.Positive(t, hit.Score)
	})

	t.Run("paginates hits", func(t *testing.T) {
		t.Parallel()

		res, err := f.service.SearchMarkdown(ctx, "providers", 1, 10)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Hits, 1)
	})

	t.Run("rejects an empty query", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.SearchMarkdown(ctx, "   ", 0, 0)

		assert.Equal(t, frmr.EBADREQUEST, frmr.ErrorCode(err))
	})

	t.Run("reads a file", func(t *testing.T) {
		t.Parallel()

		doc, err := f.service.ReadMarkdown("docs/continuous-monitoring.md")
		require.NoError(t, err)

		assert.Equal(t, corpus["docs/continuous-monitoring.md"], doc.Content)
		assert.Len(t, doc.ContentHash, 16)
	})

	t.Run("unknown file is not found", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.ReadMarkdown("docs/missing.md")

		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
	})

	t.Run("greps controls with enhancements", func(t *testing.T) {
		t.Parallel()

		matches, err := f.service.GrepControls("SC-7", true)
		require.NoError(t, err)

		require.Len(t, matches, 2)
		assert.Equal(t, "control: SC-7(5)", matches[0].Snippet)
		assert.Equal(t, "Boundary changes affecting SC-7 require review.", matches[1].Snippet)
	})

	t.Run("greps bare controls", func(t *testing.T) {
		t.Parallel()

		sc, err := f.service.GrepControls("SC-7", false)
		require.NoError(t, err)
		ac, err := f.service.GrepControls("AC-2", false)
		require.NoError(t, err)

		require.Len(t, sc, 1)
		assert.Equal(t, "docs/significant-change.md", sc[0].Path)
		assert.Equal(t, 12, sc[0].Line)
		assert.Empty(t, ac)
	})

	t.Run("interleaves significant change sources", func(t *testing.T) {
		t.Parallel()

		g, err := f.service.SignificantChangeGuidance(10)
		require.NoError(t, err)

		require.Len(t, g.Sources, 3)
		assert.Equal(t, &frmr.GuidanceSource{Type: frmr.SourceFRMR, Path: frdPath, References: []string{"FRD-SCN"}, DocType: frmr.DocumentFRD}, g.Sources[0])
		assert.Equal(t, &frmr.GuidanceSource{Type: frmr.SourceMarkdown, Path: "docs/significant-change.md", Lines: &[2]int{1, 4}}, g.Sources[1])
		assert.Equal(t, masPath, g.Sources[2].Path)
		assert.Equal(t, []string{"FRR-MAS-02"}, g.Sources[2].References)

		limited, err := f.service.SignificantChangeGuidance(2)
		require.NoError(t, err)
		assert.Len(t, limited.Sources, 2)
	})
}

func TestService_Requirements(t *testing.T) {
	t.Parallel()

	f := built(t)

	t.Run("finds a KSI item", func(t *testing.T) {
		t.Parallel()

		req, err := f.service.RequirementByID("ksi-iam-mfa")
		require.NoError(t, err)

		assert.Equal(t, "KSI-IAM-MFA", req.ID)
		assert.Equal(t, frmr.DocumentKSI, req.Source)
		assert.Equal(t, "Key Security Indicators", req.DocumentTitle)
		assert.Equal(t, []string{"IA-2(1)"}, req.ControlMapping)
	})

	t.Run("finds a keyed requirement", func(t *testing.T) {
		t.Parallel()

		req, err := f.service.RequirementByID("frr-mas-01")
		require.NoError(t, err)

		assert.Equal(t, "FRR-MAS-01", req.ID)
		assert.Equal(t, frmr.DocumentMAS, req.Source)
		assert.Equal(t, "Minimum Assessment Scope", req.DocumentTitle)
		assert.Equal(t, "Scope", req.Title)
		assert.NotNil(t, req.Raw)
	})

	t.Run("unknown id is not found with a hint", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.RequirementByID("NOPE-1")

		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
		assert.NotEmpty(t, frmr.ErrorHint(err))
	})

	t.Run("searches definitions", func(t *testing.T) {
		t.Parallel()

		tests := map[string][]string{
			"change":  {"FRD-SCN"},
			"major":   {"FRD-SCN"},
			"federal": {"FRD-ACV"},
			"":        {"FRD-ACV", "FRD-SCN"},
		}
		for term, want := range tests {
			res, err := f.service.SearchDefinitions(term, 0)
			require.NoError(t, err)

			var got []string
			for _, d := range res.Definitions {
				got = append(got, d.ID)
			}
			assert.Equal(t, want, got, term)
		}

		limited, err := f.service.SearchDefinitions("", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, limited.Total)
		assert.Len(t, limited.Definitions, 1)
	})
}

func TestService_Diff(t *testing.T) {
	t.Parallel()

	f := built(t)

	t.Run("self diff is empty", func(t *testing.T) {
		t.Parallel()

		res, err := f.service.Diff(ksiPath, ksiPath, "")
		require.NoError(t, err)

		assert.Equal(t, frmr.DiffSummary{}, res.Summary)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		t.Parallel()

		_, err := f.service.Diff(ksiPath, "FRMR.KSI.missing.json", "")

		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
	})
}
