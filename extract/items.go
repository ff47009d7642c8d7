package extract

import (
	"regexp"
	"strings"

	"github.com/fwojciec/frmr"
)

var (
	itemArrayKeyRe = regexp.MustCompile(`(?i)^(items?|entries|records|controls|requirements?|indicators?|definitions?|rules?|mappings?|all)$`)
	idKeyRe        = regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:-[A-Z0-9]+)*$`)
)

// metadataKeys are never searched for items.
var metadataKeys = map[string]bool{
	"$schema":  true,
	"$id":      true,
	"info":     true,
	"metadata": true,
}

func isMetadataKey(key string) bool {
	return metadataKeys[strings.ToLower(key)]
}

// IsItemArrayKey reports whether key names an array of items.
func IsItemArrayKey(key string) bool {
	return itemArrayKeyRe.MatchString(key)
}

// IsIDKey reports whether key looks like a structured identifier: an
// uppercase token such as "ALPHA", or hyphen-joined tokens such as
// "KSI-IAM-MFA" or "FRR-MAS-01".
func IsIDKey(key string) bool {
	return idKeyRe.MatchString(key)
}

// isGroup reports whether the object under an identifier key is a group of
// items rather than an item. Hyphenated keys are always items; a single
// token such as "IAM" is a group when anything beneath it yields items.
func isGroup(key string, obj map[string]any) bool {
	return !strings.Contains(key, "-") && containsItems(obj)
}

// containsItems reports whether obj holds an item array with an object
// member or an object under an identifier key, at any depth.
func containsItems(obj map[string]any) bool {
	stack := []map[string]any{obj}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for key, v := range node {
			if isMetadataKey(key) {
				continue
			}
			switch v := v.(type) {
			case []any:
				if !IsItemArrayKey(key) {
					continue
				}
				for _, elem := range v {
					if _, ok := elem.(map[string]any); ok {
						return true
					}
				}
			case map[string]any:
				if IsIDKey(key) {
					return true
				}
				stack = append(stack, v)
			}
		}
	}
	return false
}

// Entry is an extracted item with the nearest enclosing key as its category.
type Entry struct {
	Item     frmr.Item
	Category string
}

type frame struct {
	node     map[string]any
	category string
}

// GenericEntries walks obj and collects its items. At every object it first
// takes the members of item arrays, then objects keyed by identifiers (with
// the key injected as "id"), then descends into the remaining objects.
// An identifier key whose object itself holds items is descended into as a
// category instead.
// Keys are visited in sorted order and an item is collected at most once
// per id.
func GenericEntries(obj map[string]any) []Entry {
	var entries []Entry
	seen := make(map[string]bool)

	collect := func(item frmr.Item, category string) {
		if id, ok := item["id"].(string); ok && id != "" {
			if seen[id] {
				return
			}
			seen[id] = true
		}
		entries = append(entries, Entry{Item: item, Category: category})
	}

	stack := []frame{{node: obj}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		keys := sortedKeys(f.node)
		var descend []frame
		for _, key := range keys {
			if isMetadataKey(key) {
				continue
			}
			arr, ok := f.node[key].([]any)
			if !ok || !IsItemArrayKey(key) {
				continue
			}
			for _, elem := range arr {
				if item, ok := elem.(map[string]any); ok {
					collect(copyItem(item), f.category)
				}
			}
		}
		for _, key := range keys {
			if isMetadataKey(key) {
				continue
			}
			child, ok := f.node[key].(map[string]any)
			if !ok {
				continue
			}
			if IsIDKey(key) && !isGroup(key, child) {
				collect(withID(child, key), f.category)
				continue
			}
			descend = append(descend, frame{node: child, category: key})
		}
		// Push in reverse so children pop in sorted order.
		for i := len(descend) - 1; i >= 0; i-- {
			stack = append(stack, descend[i])
		}
	}

	return entries
}

// Items returns the items of doc using the same rules that produced its
// ItemCount.
func Items(doc *frmr.Document) []frmr.Item {
	entries := Entries(doc)
	items := make([]frmr.Item, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}
	return items
}

// Entries returns the items of doc with their categories. KSI documents
// use indicator extraction and fall back to the generic walk.
func Entries(doc *frmr.Document) []Entry {
	obj, ok := doc.Raw.(map[string]any)
	if !ok {
		return nil
	}
	if doc.Type == frmr.DocumentKSI {
		if entries := KSIIndicators(obj); len(entries) > 0 {
			return entries
		}
	}
	return GenericEntries(obj)
}

// DetectIDKey returns the first of "id", "uid" and "name" present in at
// least one item, or an empty string.
func DetectIDKey(items []frmr.Item) string {
	for _, key := range []string{"id", "uid", "name"} {
		for _, item := range items {
			if _, ok := item[key]; ok {
				return key
			}
		}
	}
	return ""
}

// ItemID returns the string identifier of item under idKey, falling back
// to "id" and "uid".
func ItemID(item frmr.Item, idKey string) string {
	for _, key := range []string{idKey, "id", "uid"} {
		if key == "" {
			continue
		}
		if id, ok := item[key].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

func copyItem(obj map[string]any) frmr.Item {
	item := make(frmr.Item, len(obj)+1)
	for k, v := range obj {
		item[k] = v
	}
	return item
}

// withID copies obj and injects key as "id" unless obj carries a
// non-empty string id.
func withID(obj map[string]any, key string) frmr.Item {
	item := copyItem(obj)
	if id, ok := item["id"].(string); !ok || id == "" {
		item["id"] = key
	}
	return item
}
