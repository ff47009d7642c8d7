package extract

import (
	"regexp"
	"strings"

	"github.com/fwojciec/frmr"
)

var (
	controlRe     = regexp.MustCompile(`\b[A-Za-z]{2}-\d{1,3}(?:\.[0-9A-Za-z]+|\([0-9A-Za-z]+\))*`)
	controlBaseRe = regexp.MustCompile(`^[A-Z]{2}-\d{1,3}`)
	suffixRe      = regexp.MustCompile(`^(?:\.[0-9A-Z]+|\([0-9A-Z]+\))*`)
	enhancementRe = regexp.MustCompile(`\.([0-9A-Z]+)|\(([0-9A-Z]+)\)`)
)

var (
	controlArrayFields = []string{"controls", "control_mappings", "nist_controls"}
	controlIDFields    = []string{"control_id", "controlId", "id", "control"}
	controlTextFields  = []string{"statement", "description", "requirements", "text", "control_mapping"}
)

// Control is a parsed control identifier.
type Control struct {
	Base         string
	Enhancements []string
}

// String returns the normalized form, e.g. "AC-2(1)".
func (c Control) String() string {
	return c.Base + strings.Join(c.Enhancements, "")
}

// ParseControl parses a control identifier such as "ac-2", "AC-2(1)" or
// "AC-2.1". Dotted and parenthesized enhancements both become "(TOKEN)".
// Only enhancements directly following the base are read.
func ParseControl(s string) (Control, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	base := controlBaseRe.FindString(s)
	if base == "" {
		return Control{}, false
	}
	if rest := s[len(base):]; rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return Control{}, false
	}

	c := Control{Base: base, Enhancements: []string{}}
	seen := make(map[string]bool)
	suffix := suffixRe.FindString(s[len(base):])
	for _, m := range enhancementRe.FindAllStringSubmatch(suffix, -1) {
		tok := m[1] + m[2]
		enh := "(" + tok + ")"
		if !seen[enh] {
			seen[enh] = true
			c.Enhancements = append(c.Enhancements, enh)
		}
	}
	return c, true
}

// NormalizeControl returns the normalized form of a control identifier,
// or s unchanged when it is not one. It is idempotent.
func NormalizeControl(s string) string {
	c, ok := ParseControl(s)
	if !ok {
		return s
	}
	return c.String()
}

// FindControlIDs returns the distinct control identifiers mentioned in
// text, uppercased, in order of first appearance.
func FindControlIDs(text string) []string {
	var ids []string
	for _, loc := range controlRe.FindAllStringIndex(text, -1) {
		// A match running into more word characters is not a control.
		if loc[1] < len(text) && isAlnum(text[loc[1]]) {
			continue
		}
		ids = append(ids, strings.ToUpper(text[loc[0]:loc[1]]))
	}
	return unique(ids)
}

// Controls returns the control identifiers referenced by item: entries of
// a structured controls array first, then identifiers found in its text
// fields.
func Controls(item frmr.Item) []string {
	var controls []string

	if v, ok := fieldCI(item, controlArrayFields...); ok {
		for _, m := range Members(v) {
			switch {
			case m.Object != nil:
				if id, ok := fieldCI(m.Object, controlIDFields...); ok {
					if s, ok := id.(string); ok && s != "" {
						controls = append(controls, strings.ToUpper(s))
					}
				} else if m.Key != "" {
					controls = append(controls, strings.ToUpper(m.Key))
				}
			case m.Text != "":
				controls = append(controls, strings.ToUpper(m.Text))
			}
		}
	}

	for _, field := range controlTextFields {
		v, ok := fieldCI(item, field)
		if !ok {
			continue
		}
		for _, text := range stringList(v) {
			controls = append(controls, FindControlIDs(text)...)
		}
	}

	return unique(controls)
}

// Mappings returns the control mappings of the items of doc.
func Mappings(doc *frmr.Document, items []frmr.Item) []*frmr.ControlMapping {
	var mappings []*frmr.ControlMapping
	for _, item := range items {
		sourceID := ItemID(item, doc.IDKey)
		if sourceID == "" {
			continue
		}
		for _, candidate := range Controls(item) {
			c, ok := ParseControl(candidate)
			if !ok {
				continue
			}
			mappings = append(mappings, &frmr.ControlMapping{
				Source:              doc.Type,
				SourceID:            sourceID,
				Control:             c.Base,
				ControlEnhancements: c.Enhancements,
				Path:                doc.Path,
			})
		}
	}
	return mappings
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// unique returns values without duplicates, or nil when values is empty.
func unique(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
