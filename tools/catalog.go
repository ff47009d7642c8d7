package tools

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/fwojciec/frmr"
)

// CatalogEntry is a tool returned by a catalog search.
type CatalogEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Parameters  []string `json:"parameters"`
	Score       float64  `json:"score"`
}

// CatalogResult is the result of a catalog search.
type CatalogResult struct {
	Total   int             `json:"total"`
	Results []*CatalogEntry `json:"results"`
}

// SearchCatalog ranks tools against query. A non-empty category keeps only
// tools in that category, compared case-insensitively. An empty query
// browses the tools in registration order; otherwise tools that score zero
// are dropped and the rest are ordered by descending score.
func SearchCatalog(tools []*frmr.Tool, query, category string, limit int) *CatalogResult {
	var entries []*CatalogEntry
	for _, t := range tools {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		entries = append(entries, &CatalogEntry{
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Keywords:    t.Keywords,
			Parameters:  parameters(t),
		})
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		terms := strings.Fields(q)
		scored := entries[:0]
		for _, e := range entries {
			e.Score = score(e, q, terms)
			if e.Score > 0 {
				scored = append(scored, e)
			}
		}
		entries = scored
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score > entries[j].Score
		})
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []*CatalogEntry{}
	}
	return &CatalogResult{Total: len(entries), Results: entries}
}

func score(e *CatalogEntry, q string, terms []string) float64 {
	var s float64
	name := strings.ToLower(e.Name)
	if name == q {
		s += 10
	} else if strings.Contains(name, q) {
		s += 5
	}
	for _, term := range terms {
		if strings.Contains(name, term) {
			s += 3
		}
	}

	for _, kw := range e.Keywords {
		kw = strings.ToLower(kw)
		if kw == q {
			s += 4
		} else if strings.Contains(kw, q) || strings.Contains(q, kw) {
			s += 2
		}
		for _, term := range terms {
			if kw == term {
				s += 3
			} else if strings.Contains(kw, term) {
				s += 1
			}
		}
	}

	desc := strings.ToLower(e.Description)
	if strings.Contains(desc, q) {
		s += 1
	}
	for _, term := range terms {
		if strings.Contains(desc, term) {
			s += 0.5
		}
	}
	return s
}

// parameters lists the argument names of t, sorted.
func parameters(t *frmr.Tool) []string {
	var s struct {
		Properties map[string]any `json:"properties"`
	}
	_ = json.Unmarshal(t.InputSchema, &s)
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
