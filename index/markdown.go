package index

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/extract"
	"github.com/fwojciec/frmr/markdown"
)

// SearchMarkdown returns one page of the markdown documents matching every
// term of q, best first, each with its first matching line. limit <= 0
// returns every hit.
func (s *Service) SearchMarkdown(ctx context.Context, q string, offset, limit int) (*frmr.MarkdownSearchResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, frmr.Errorf(frmr.EBADREQUEST, "Query must not be empty.")
	}
	return query(s, func(v *view) (*frmr.MarkdownSearchResult, error) {
		return v.searchMarkdown(ctx, q, offset, limit)
	})
}

func (v *view) searchMarkdown(ctx context.Context, q string, offset, limit int) (*frmr.MarkdownSearchResult, error) {
	results, err := v.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	hits := []*frmr.MarkdownHit{}
	for _, r := range results {
		doc, ok := v.state.MarkdownDocs[r.Path]
		if !ok {
			continue
		}
		line, snippet := markdown.FindLine(doc, q)
		hits = append(hits, &frmr.MarkdownHit{Path: doc.Path, Line: line, Snippet: snippet, Score: r.Score})
	}

	return &frmr.MarkdownSearchResult{Total: len(hits), Hits: page(hits, offset, limit)}, nil
}

// ReadMarkdown returns the markdown document at path.
func (s *Service) ReadMarkdown(path string) (*frmr.MarkdownDoc, error) {
	return query(s, func(v *view) (*frmr.MarkdownDoc, error) {
		doc, ok := v.state.MarkdownDocs[path]
		if !ok {
			return nil, frmr.Errorf(frmr.ENOTFOUND, "Markdown file not indexed: %s", path)
		}
		return doc, nil
	})
}

// GrepControls returns every markdown line mentioning control, in path
// order. Without enhancements, mentions like "AC-2(1)" do not match "AC-2".
func (s *Service) GrepControls(control string, withEnhancements bool) ([]frmr.ControlMatch, error) {
	if strings.TrimSpace(control) == "" {
		return nil, frmr.Errorf(frmr.EBADREQUEST, "Control must not be empty.")
	}
	return query(s, func(v *view) ([]frmr.ControlMatch, error) {
		matches := []frmr.ControlMatch{}
		for _, doc := range v.markdownDocs() {
			matches = append(matches, markdown.GrepControl(doc, control, withEnhancements)...)
		}
		return matches, nil
	})
}

// markdownDocs returns the markdown documents in path order.
func (v *view) markdownDocs() []*frmr.MarkdownDoc {
	paths := make([]string, 0, len(v.state.MarkdownDocs))
	for p := range v.state.MarkdownDocs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	docs := make([]*frmr.MarkdownDoc, len(paths))
	for i, p := range paths {
		docs[i] = v.state.MarkdownDocs[p]
	}
	return docs
}

var significantChangeRe = regexp.MustCompile(`(?i)significant change`)

// guidanceContext is the number of lines around a markdown mention.
const guidanceContext = 3

// SignificantChangeGuidance lists up to limit documents that mention
// significant change, alternating FRMR and markdown sources.
func (s *Service) SignificantChangeGuidance(limit int) (*frmr.Guidance, error) {
	if limit <= 0 {
		return nil, frmr.Errorf(frmr.EBADREQUEST, "Limit must be positive.")
	}
	return query(s, func(v *view) (*frmr.Guidance, error) {
		frmrSources := v.frmrGuidance(limit)
		mdSources := v.markdownGuidance(limit)

		sources := []*frmr.GuidanceSource{}
		for i, j := 0, 0; len(sources) < limit && (i < len(frmrSources) || j < len(mdSources)); {
			if i < len(frmrSources) {
				sources = append(sources, frmrSources[i])
				i++
			}
			if len(sources) >= limit {
				break
			}
			if j < len(mdSources) {
				sources = append(sources, mdSources[j])
				j++
			}
		}
		return &frmr.Guidance{Sources: sources}, nil
	})
}

func (v *view) markdownGuidance(limit int) []*frmr.GuidanceSource {
	var sources []*frmr.GuidanceSource
	for _, doc := range v.markdownDocs() {
		for i, line := range doc.Lines {
			if !significantChangeRe.MatchString(line) {
				continue
			}
			r := markdown.ContextRange(doc, i+1, guidanceContext)
			sources = append(sources, &frmr.GuidanceSource{Type: frmr.SourceMarkdown, Path: doc.Path, Lines: &r})
			break
		}
		if len(sources) >= limit {
			break
		}
	}
	return sources
}

func (v *view) frmrGuidance(limit int) []*frmr.GuidanceSource {
	var sources []*frmr.GuidanceSource
	for _, doc := range v.state.Documents {
		var refs []string
		for _, item := range extract.Items(doc) {
			if len(refs) >= limit {
				break
			}
			id := extract.ItemID(item, doc.IDKey)
			if id != "" && mentions(item, significantChangeRe) {
				refs = append(refs, id)
			}
		}
		if len(refs) > 0 {
			sources = append(sources, &frmr.GuidanceSource{
				Type:       frmr.SourceFRMR,
				Path:       doc.Path,
				References: refs,
				DocType:    doc.Type,
			})
		}
		if len(sources) >= limit {
			break
		}
	}
	return sources
}

// mentions reports whether any string within v matches re.
func mentions(v any, re *regexp.Regexp) bool {
	stack := []any{v}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := node.(type) {
		case string:
			if re.MatchString(n) {
				return true
			}
		case map[string]any:
			for _, child := range n {
				stack = append(stack, child)
			}
		case []any:
			stack = append(stack, n...)
		}
	}
	return false
}
