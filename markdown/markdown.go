// Package markdown parses markdown files of the corpus into frmr.MarkdownDoc
// values and prepares their content for full-text indexing.
package markdown

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/frmr"
)

var (
	lineBreakRe = regexp.MustCompile(`\r?\n`)
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	codeBlockRe = regexp.MustCompile("(?s)```.*?```")
)

// Parse builds a MarkdownDoc for the file at path.
func Parse(path, content string) *frmr.MarkdownDoc {
	lines := SplitLines(content)
	return &frmr.MarkdownDoc{
		Path:        path,
		Content:     content,
		ContentHash: Hash(content),
		Headings:    Headings(lines),
		Lines:       lines,
	}
}

// SplitLines splits content on LF or CRLF line breaks.
func SplitLines(content string) []string {
	return lineBreakRe.Split(content, -1)
}

// Headings returns the ATX headings (H1-H6) in lines with 1-based line
// numbers. Lines inside fenced code blocks are ignored. Anchors are
// URL-safe and deduplicated with numeric suffixes.
func Headings(lines []string) []frmr.Heading {
	var headings []frmr.Heading
	anchorCounts := make(map[string]int)
	inFence := false

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		match := headingRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		title := strings.TrimSpace(match[2])
		baseAnchor := generateAnchor(title)

		// Handle duplicates
		anchor := baseAnchor
		if count, exists := anchorCounts[baseAnchor]; exists {
			anchor = baseAnchor + "-" + strconv.Itoa(count)
			anchorCounts[baseAnchor]++
		} else {
			anchorCounts[baseAnchor] = 1
		}

		headings = append(headings, frmr.Heading{
			Depth:  len(match[1]),
			Title:  title,
			Anchor: anchor,
			Line:   i + 1,
		})
	}

	return headings
}

// StripCodeBlocks replaces fenced code blocks with a single space so code
// samples do not pollute the search index.
func StripCodeBlocks(content string) string {
	return codeBlockRe.ReplaceAllString(content, " ")
}

// Hash computes the xxHash of content and returns it as a hex string.
func Hash(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// generateAnchor creates a URL-safe anchor from a title.
func generateAnchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
