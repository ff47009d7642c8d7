package markdown

import (
	"regexp"
	"strings"

	"github.com/fwojciec/frmr"
)

const (
	fallbackSnippetLen = 200
	grepSnippetLen     = 240
)

// FindLine returns the first line of doc containing query,
// case-insensitively, with its trimmed text. When no line matches it
// returns line 1 truncated to 200 characters.
func FindLine(doc *frmr.MarkdownDoc, query string) (int, string) {
	needle := strings.ToLower(query)
	for i, line := range doc.Lines {
		if strings.Contains(strings.ToLower(line), needle) {
			return i + 1, strings.TrimSpace(line)
		}
	}
	return 1, truncate(doc.Line(1), fallbackSnippetLen)
}

// GrepControl returns the lines of doc that mention control. When
// withEnhancements is false, occurrences immediately followed by a
// parenthesized enhancement do not count.
func GrepControl(doc *frmr.MarkdownDoc, control string, withEnhancements bool) []frmr.ControlMatch {
	re := controlPattern(control, withEnhancements)
	var matches []frmr.ControlMatch
	for i, line := range doc.Lines {
		if matchesControl(re, line, withEnhancements) {
			matches = append(matches, frmr.ControlMatch{
				Path:    doc.Path,
				Line:    i + 1,
				Snippet: truncate(strings.TrimSpace(line), grepSnippetLen),
			})
		}
	}
	return matches
}

func controlPattern(control string, withEnhancements bool) *regexp.Regexp {
	escaped := regexp.QuoteMeta(control)
	if withEnhancements {
		return regexp.MustCompile(escaped + `(\([^)]+\))?`)
	}
	return regexp.MustCompile(escaped)
}

// matchesControl reports whether line contains a qualifying occurrence.
// RE2 has no lookahead, so bare matches are checked for a following "(".
func matchesControl(re *regexp.Regexp, line string, withEnhancements bool) bool {
	if withEnhancements {
		return re.MatchString(line)
	}
	for _, loc := range re.FindAllStringIndex(line, -1) {
		if loc[1] >= len(line) || line[loc[1]] != '(' {
			return true
		}
	}
	return false
}

// ContextRange returns the 1-based line range [n-radius, n+radius] clamped
// to the document.
func ContextRange(doc *frmr.MarkdownDoc, n, radius int) [2]int {
	return [2]int{clamp(n-radius, 1, len(doc.Lines)), clamp(n+radius, 1, len(doc.Lines))}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
