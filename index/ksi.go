package index

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/frmr"
)

// themeNames are the display names of the KSI themes.
var themeNames = map[string]string{
	"AFR": "Authorization & FedRAMP Requirements",
	"CED": "Customer Environment & Data",
	"CMT": "Change Management & Testing",
	"CNA": "Cloud Native Architecture",
	"IAM": "Identity & Access Management",
	"INR": "Incident Response",
	"MLA": "Monitoring, Logging & Alerting",
	"PIY": "Privacy & PII",
	"RPL": "Resiliency & Planning",
	"SVC": "Service Configuration",
	"TPR": "Third Party Risk",
}

// ThemeName returns the display name of a KSI theme code, or the code
// itself when it is not a known theme.
func ThemeName(theme string) string {
	if name, ok := themeNames[strings.ToUpper(theme)]; ok {
		return name
	}
	return theme
}

// Themes returns the known KSI theme codes, sorted.
func Themes() []string {
	themes := make([]string, 0, len(themeNames))
	for t := range themeNames {
		themes = append(themes, t)
	}
	sort.Strings(themes)
	return themes
}

// ListKSI returns one page of the KSI items matching filter.
func (s *Service) ListKSI(filter frmr.KsiFilter) (*frmr.KsiPage, error) {
	return query(s, func(v *view) (*frmr.KsiPage, error) {
		var matched []*frmr.KsiItem
		for _, item := range v.state.KsiItems {
			if ksiMatches(item, filter) {
				matched = append(matched, item)
			}
		}
		return &frmr.KsiPage{Total: len(matched), Items: page(matched, filter.Offset, filter.Limit)}, nil
	})
}

func ksiMatches(item *frmr.KsiItem, f frmr.KsiFilter) bool {
	if f.ID != "" && item.ID != f.ID {
		return false
	}
	if f.Text != "" && !containsFold(item.Title, f.Text) && !containsFold(item.Description, f.Text) {
		return false
	}
	if f.Category != "" && !containsFold(item.Category, f.Category) {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	return true
}

// GetKSI returns the KSI item with the given id.
func (s *Service) GetKSI(id string) (*frmr.KsiItem, error) {
	return query(s, func(v *view) (*frmr.KsiItem, error) {
		for _, item := range v.state.KsiItems {
			if item.ID == id {
				return item, nil
			}
		}
		return nil, frmr.Errorf(frmr.ENOTFOUND, "KSI item not found for id %s", id)
	})
}

// FilterByImpact returns one page of the KSI items applicable to level.
func (s *Service) FilterByImpact(level frmr.ImpactLevel, offset, limit int) (*frmr.KsiPage, error) {
	switch level {
	case frmr.ImpactLow, frmr.ImpactModerate, frmr.ImpactHigh:
	default:
		return nil, frmr.Errorf(frmr.EBADREQUEST, "Unknown impact level %q; expected low, moderate or high.", level)
	}

	return query(s, func(v *view) (*frmr.KsiPage, error) {
		var matched []*frmr.KsiItem
		for _, item := range v.state.KsiItems {
			if item.Impact.Applies(level) {
				matched = append(matched, item)
			}
		}
		return &frmr.KsiPage{Total: len(matched), Items: page(matched, offset, limit)}, nil
	})
}

// relatedDocsLimit caps the markdown documents listed in a theme summary.
const relatedDocsLimit = 5

// ThemeSummary aggregates the indicators of a KSI theme with the NIST
// controls they reference and markdown documents that discuss the theme.
func (s *Service) ThemeSummary(ctx context.Context, theme string) (*frmr.ThemeSummary, error) {
	return query(s, func(v *view) (*frmr.ThemeSummary, error) {
		code := strings.ToUpper(theme)
		summary := &frmr.ThemeSummary{
			Theme:           code,
			ThemeName:       ThemeName(code),
			Indicators:      []*frmr.KsiItem{},
			RelatedControls: []string{},
			RelatedDocs:     []*frmr.RelatedDoc{},
		}

		controls := make(map[string]bool)
		for _, item := range v.state.KsiItems {
			if strings.ToUpper(item.Category) != code {
				continue
			}
			summary.Indicators = append(summary.Indicators, item)
			if item.Impact.Applies(frmr.ImpactLow) {
				summary.ImpactBreakdown.Low++
			}
			if item.Impact.Applies(frmr.ImpactModerate) {
				summary.ImpactBreakdown.Moderate++
			}
			if item.Impact.Applies(frmr.ImpactHigh) {
				summary.ImpactBreakdown.High++
			}
			for _, c := range item.ControlMapping {
				controls[c] = true
			}
		}
		summary.IndicatorCount = len(summary.Indicators)
		summary.RelatedControls = append(summary.RelatedControls, sortedSet(controls)...)

		seen := make(map[string]bool)
		for _, term := range []string{summary.ThemeName, code} {
			res, err := v.searchMarkdown(ctx, term, 0, relatedDocsLimit)
			if err != nil {
				continue
			}
			for _, hit := range res.Hits {
				if !seen[hit.Path] {
					seen[hit.Path] = true
					summary.RelatedDocs = append(summary.RelatedDocs, &frmr.RelatedDoc{Path: hit.Path, Snippet: hit.Snippet})
				}
			}
		}
		summary.RelatedDocs = page(summary.RelatedDocs, 0, relatedDocsLimit)

		return summary, nil
	})
}

// EvidenceChecklist collects the evidence examples of the KSI items that
// have any, optionally restricted to a theme or one item.
func (s *Service) EvidenceChecklist(theme, id string) (*frmr.EvidenceChecklist, error) {
	return query(s, func(v *view) (*frmr.EvidenceChecklist, error) {
		checklist := &frmr.EvidenceChecklist{Items: []*frmr.EvidenceChecklistItem{}, AllEvidence: []string{}}
		all := make(map[string]bool)

		for _, item := range v.state.KsiItems {
			if len(item.EvidenceExamples) == 0 {
				continue
			}
			if theme != "" && !strings.EqualFold(item.Category, theme) {
				continue
			}
			if id != "" && item.ID != id {
				continue
			}
			checklist.Items = append(checklist.Items, &frmr.EvidenceChecklistItem{
				KsiID:            item.ID,
				KsiTitle:         item.Title,
				Theme:            item.Category,
				EvidenceExamples: item.EvidenceExamples,
			})
			for _, e := range item.EvidenceExamples {
				all[e] = true
			}
		}

		checklist.Total = len(checklist.Items)
		checklist.AllEvidence = append(checklist.AllEvidence, sortedSet(all)...)
		return checklist, nil
	})
}

// EvidenceExamples joins the KSI items matching filter with the evidence
// catalog. Items without a catalog entry list no evidence.
func (s *Service) EvidenceExamples(filter frmr.EvidenceFilter) (*frmr.EvidenceExamples, error) {
	return query(s, func(v *view) (*frmr.EvidenceExamples, error) {
		catalog := s.Evidence
		res := &frmr.EvidenceExamples{
			Disclaimer: frmr.DefaultEvidenceDisclaimer,
			Items:      []*frmr.EvidenceExampleItem{},
			Themes:     []string{},
		}
		if catalog != nil && catalog.Disclaimer != "" {
			res.Disclaimer = catalog.Disclaimer
		}

		themes := make(map[string]bool)
		for _, ksi := range v.state.KsiItems {
			if filter.Theme != "" && !strings.EqualFold(ksi.Category, filter.Theme) {
				continue
			}
			if filter.ID != "" && !strings.EqualFold(ksi.ID, filter.ID) {
				continue
			}

			var example *frmr.EvidenceExample
			if catalog != nil {
				example = catalog.Examples[ksi.ID]
			}

			item := &frmr.EvidenceExampleItem{
				KsiID:        ksi.ID,
				KsiName:      firstNonEmpty(ksi.Title, exampleName(example), ksi.ID),
				KsiStatement: firstNonEmpty(ksi.Statement, ksi.Description),
				Theme:        firstNonEmpty(ksi.Category, ksi.Theme),
				Impact:       ksi.Impact,
				Evidence:     []*frmr.Evidence{},
			}
			if example != nil {
				if example.Evidence != nil {
					item.Evidence = example.Evidence
				}
				item.Retired = example.Retired
			}
			if filter.ExcludeRetired && item.Retired != nil {
				continue
			}

			res.Items = append(res.Items, item)
			if item.Theme != "" {
				themes[item.Theme] = true
			}
		}

		res.Total = len(res.Items)
		res.Themes = append(res.Themes, sortedSet(themes)...)
		return res, nil
	})
}

func exampleName(e *frmr.EvidenceExample) string {
	if e == nil {
		return ""
	}
	return e.Name
}
