package extract

import (
	"strings"

	"github.com/fwojciec/frmr"
)

// KSIIndicators extracts indicators from a KSI document. Themes are read
// from raw["KSI"] when present, otherwise from raw itself. Each theme's
// "indicators" may be an array or an object keyed by indicator id; either
// way every indicator gets the theme injected.
func KSIIndicators(raw map[string]any) []Entry {
	section := raw
	if ksi, ok := raw["KSI"].(map[string]any); ok {
		section = ksi
	}

	var entries []Entry
	seen := make(map[string]bool)
	for _, themeID := range sortedKeys(section) {
		if isMetadataKey(themeID) {
			continue
		}
		theme, ok := section[themeID].(map[string]any)
		if !ok {
			continue
		}
		for _, m := range Members(theme["indicators"]) {
			if m.Object == nil {
				continue
			}
			item := copyItem(m.Object)
			if m.Key != "" {
				item = withID(m.Object, m.Key)
			}
			item["theme"] = themeID
			item["themeId"] = themeID
			if name, ok := theme["name"]; ok {
				item["themeName"] = name
			}
			if desc, ok := theme["description"]; ok {
				item["themeDescription"] = desc
			}
			if id, ok := item["id"].(string); ok && id != "" {
				if seen[id] {
					continue
				}
				seen[id] = true
			}
			entries = append(entries, Entry{Item: item, Category: themeID})
		}
	}
	return entries
}

// KsiItems projects the items of a KSI document onto KsiItem. Items
// without a string identifier are skipped.
func KsiItems(doc *frmr.Document, items []frmr.Item) []*frmr.KsiItem {
	var result []*frmr.KsiItem
	for _, item := range items {
		id := ItemID(item, doc.IDKey)
		if id == "" {
			continue
		}
		result = append(result, &frmr.KsiItem{
			ID:               id,
			Title:            firstString(item, "name", "title"),
			Description:      firstString(item, "statement", "description"),
			Category:         ksiCategory(item),
			Status:           stringField(item, "status"),
			SourceRef:        sourceRef(item),
			Requirements:     stringList(item["requirements"]),
			ControlMapping:   Controls(item),
			EvidenceExamples: stringList(item["evidence_examples"]),
			References:       references(item["references"]),
			DocPath:          doc.Path,
			Statement:        stringField(item, "statement"),
			Theme:            stringField(item, "theme"),
			Impact:           impact(item["impact"]),
		})
	}
	return result
}

func ksiCategory(item frmr.Item) string {
	if s := firstString(item, "theme", "category"); s != "" {
		return s
	}
	if cats, ok := item["categories"].([]any); ok {
		for _, c := range cats {
			if s, ok := c.(string); ok {
				return s
			}
		}
	}
	return ""
}

func sourceRef(item frmr.Item) []string {
	switch v := item["source_ref"].(type) {
	case string:
		return []string{v}
	case []any:
		return stringList(v)
	}
	if s := stringField(item, "source"); s != "" {
		return []string{s}
	}
	return nil
}

func references(v any) []frmr.Reference {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var refs []frmr.Reference
	for _, elem := range arr {
		ref, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, frmr.Reference{
			Type: firstString(ref, "type", "kind"),
			ID:   stringField(ref, "id"),
			Text: firstString(ref, "text", "description"),
		})
	}
	return refs
}

func impact(v any) *frmr.Impact {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &frmr.Impact{
		Low:      obj["low"] == true,
		Moderate: obj["moderate"] == true,
		High:     obj["high"] == true,
	}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringList coerces a string or an array of strings to a slice. It
// returns nil when nothing remains.
func stringList(v any) []string {
	switch v := v.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, elem := range v {
			if s, ok := elem.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// fieldCI returns the value of the first of names present in obj,
// ignoring case.
func fieldCI(obj map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			return v, true
		}
		for _, key := range sortedKeys(obj) {
			if strings.EqualFold(key, name) {
				return obj[key], true
			}
		}
	}
	return nil, false
}
