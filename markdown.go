package frmr

import "context"

// MarkdownDoc is a parsed markdown file from the corpus.
type MarkdownDoc struct {
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	ContentHash string    `json:"contentHash"`
	Headings    []Heading `json:"headings"`
	Lines       []string  `json:"-"`
}

// Heading is an ATX heading within a markdown document.
type Heading struct {
	Depth  int    `json:"depth"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
	Line   int    `json:"line"`
}

// Line returns the 1-indexed line n, or an empty string when out of range.
func (d *MarkdownDoc) Line(n int) string {
	if n < 1 || n > len(d.Lines) {
		return ""
	}
	return d.Lines[n-1]
}

// SearchHit is a ranked full-text match.
type SearchHit struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// SearchIndex is an immutable full-text index over markdown content.
type SearchIndex interface {
	// Search returns all documents matching every term of query, best
	// match first.
	Search(ctx context.Context, query string) ([]SearchHit, error)

	// Close releases resources held by the index.
	Close() error
}

// SearchIndexer builds search indexes.
type SearchIndexer interface {
	// Index builds a search index from path to content pairs.
	Index(ctx context.Context, content map[string]string) (SearchIndex, error)
}

// MarkdownHit is a markdown search result with its best matching line.
type MarkdownHit struct {
	Path    string  `json:"path"`
	Line    int     `json:"line"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// MarkdownSearchResult is one page of markdown search results.
type MarkdownSearchResult struct {
	Total int            `json:"total"`
	Hits  []*MarkdownHit `json:"hits"`
}
