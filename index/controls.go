package index

import (
	"sort"
	"strings"

	"github.com/fwojciec/frmr"
)

// ListControls returns the control mappings matching filter. The control
// filter matches in either direction: "AC-2" matches a stored "AC-2-1"
// and a stored "AC-2" matches "AC-2.1".
func (s *Service) ListControls(filter frmr.ControlFilter) ([]*frmr.ControlMapping, error) {
	return query(s, func(v *view) ([]*frmr.ControlMapping, error) {
		return v.controls(filter), nil
	})
}

func (v *view) controls(f frmr.ControlFilter) []*frmr.ControlMapping {
	mappings := []*frmr.ControlMapping{}
	for _, m := range v.state.ControlMappings {
		if controlMatches(m, f) {
			mappings = append(mappings, m)
		}
	}
	return mappings
}

func controlMatches(m *frmr.ControlMapping, f frmr.ControlFilter) bool {
	if f.Source != "" && m.Source != f.Source {
		return false
	}
	if f.Family != "" && !strings.HasPrefix(family(m.Control), strings.ToUpper(f.Family)) {
		return false
	}
	if f.Control != "" {
		want := strings.ToUpper(f.Control)
		got := strings.ToUpper(m.Control)
		if got != want && !strings.HasPrefix(got, want+"-") && !strings.HasPrefix(want, got) {
			return false
		}
	}
	return true
}

func family(control string) string {
	f, _, _ := strings.Cut(control, "-")
	return f
}

// ControlRequirements returns the requirements mapped to control, one per
// source item, enriched with KSI item details where the source is a KSI.
func (s *Service) ControlRequirements(control string) (*frmr.ControlRequirements, error) {
	return query(s, func(v *view) (*frmr.ControlRequirements, error) {
		ksi := make(map[string]*frmr.KsiItem, len(v.state.KsiItems))
		for _, item := range v.state.KsiItems {
			if _, ok := ksi[item.ID]; !ok {
				ksi[item.ID] = item
			}
		}

		res := &frmr.ControlRequirements{Control: strings.ToUpper(control), Requirements: []*frmr.ControlRequirement{}}
		seen := make(map[string]bool)
		for _, m := range v.controls(frmr.ControlFilter{Control: control}) {
			if seen[m.SourceID] {
				continue
			}
			seen[m.SourceID] = true

			req := &frmr.ControlRequirement{
				SourceID:     m.SourceID,
				Source:       m.Source,
				Control:      m.Control,
				Enhancements: m.ControlEnhancements,
				Path:         m.Path,
			}
			if item, ok := ksi[m.SourceID]; ok {
				req.Title = item.Title
				req.Description = item.Description
				req.Theme = item.Category
			}
			res.Requirements = append(res.Requirements, req)
		}
		res.Total = len(res.Requirements)
		return res, nil
	})
}

// ControlCoverage groups control mappings by family. Families are ordered
// by mapping count, most referenced first, then by name.
func (s *Service) ControlCoverage() (*frmr.ControlCoverage, error) {
	return query(s, func(v *view) (*frmr.ControlCoverage, error) {
		type acc struct {
			controls map[string]bool
			sources  map[string]bool
			mappings int
		}
		families := make(map[string]*acc)
		distinct := make(map[string]bool)

		for _, m := range v.state.ControlMappings {
			f := family(m.Control)
			a, ok := families[f]
			if !ok {
				a = &acc{controls: make(map[string]bool), sources: make(map[string]bool)}
				families[f] = a
			}
			a.controls[m.Control] = true
			a.sources[string(m.Source)] = true
			a.mappings++
			distinct[m.Control] = true
		}

		coverage := &frmr.ControlCoverage{
			TotalMappings:    len(v.state.ControlMappings),
			DistinctControls: len(distinct),
			Families:         []*frmr.FamilyCoverage{},
		}
		for f, a := range families {
			fc := &frmr.FamilyCoverage{
				Family:           f,
				DistinctControls: len(a.controls),
				MappingCount:     a.mappings,
				Controls:         sortedSet(a.controls),
			}
			for _, src := range sortedSet(a.sources) {
				fc.Sources = append(fc.Sources, frmr.DocumentType(src))
			}
			coverage.Families = append(coverage.Families, fc)
		}
		sort.Slice(coverage.Families, func(i, j int) bool {
			a, b := coverage.Families[i], coverage.Families[j]
			if a.MappingCount != b.MappingCount {
				return a.MappingCount > b.MappingCount
			}
			return a.Family < b.Family
		})
		coverage.TotalFamilies = len(coverage.Families)

		return coverage, nil
	})
}
