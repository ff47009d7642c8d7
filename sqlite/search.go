package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fwojciec/frmr"
)

// Compile-time interface verification.
var (
	_ frmr.SearchIndexer = (*SearchIndexer)(nil)
	_ frmr.SearchIndex   = (*SearchIndex)(nil)
)

var termRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// SearchIndexer builds in-memory FTS5 search indexes.
type SearchIndexer struct{}

// NewSearchIndexer creates a new SearchIndexer.
func NewSearchIndexer() *SearchIndexer {
	return &SearchIndexer{}
}

// Index builds a search index over content, a map of path to text.
// Documents are inserted in path order so equal input yields an equal index.
func (s *SearchIndexer) Index(ctx context.Context, content map[string]string) (frmr.SearchIndex, error) {
	db := NewDB(":memory:")
	if err := db.Open(); err != nil {
		return nil, err
	}

	if err := insertAll(ctx, db, content); err != nil {
		db.Close()
		return nil, err
	}

	return &SearchIndex{db: db, size: len(content)}, nil
}

func insertAll(ctx context.Context, db *DB, content map[string]string) error {
	paths := make([]string, 0, len(content))
	for p := range content {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO markdown_fts (path, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, p, content[p]); err != nil {
			return fmt.Errorf("failed to index %s: %w", p, err)
		}
	}

	return tx.Commit()
}

// SearchIndex is an in-memory FTS5 index.
type SearchIndex struct {
	db   *DB
	size int
}

// Len returns the number of indexed documents.
func (idx *SearchIndex) Len() int {
	return idx.size
}

// Search returns documents containing every term of query, ranked by
// BM25. Terms are matched after Porter stemming, so "monitoring" matches
// "monitor". A query without terms matches nothing.
func (idx *SearchIndex) Search(ctx context.Context, query string) ([]frmr.SearchHit, error) {
	match := MatchExpression(query)
	if match == "" {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT path, bm25(markdown_fts)
		FROM markdown_fts
		WHERE markdown_fts MATCH ?
		ORDER BY bm25(markdown_fts), path
	`, match)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var hits []frmr.SearchHit
	for rows.Next() {
		var hit frmr.SearchHit
		var rank float64
		if err := rows.Scan(&hit.Path, &rank); err != nil {
			return nil, err
		}
		// bm25() is negative; larger scores are better matches.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Close releases the database.
func (idx *SearchIndex) Close() error {
	return idx.db.Close()
}

// MatchExpression converts free text into an FTS5 query that requires
// every term. Terms are quoted so punctuation and FTS operators in user
// input are never interpreted.
func MatchExpression(query string) string {
	terms := termRe.FindAllString(query, -1)
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " ")
}
