// Package diff computes item-level structural differences between two
// FRMR documents, matching items by a stable identifier.
package diff

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/extract"
)

// IDKey resolves the identifier key for a diff: the explicit override,
// else the key both documents share, else either document's key, else
// "id".
func IDKey(override string, left, right *frmr.Document) string {
	switch {
	case override != "":
		return override
	case left.IDKey != "" && left.IDKey == right.IDKey:
		return left.IDKey
	case left.IDKey != "":
		return left.IDKey
	case right.IDKey != "":
		return right.IDKey
	}
	return "id"
}

// Documents diffs left against right. idKey overrides identifier key
// detection when non-empty. Returns EBADREQUEST when an explicit idKey
// matches no item in either document.
func Documents(left, right *frmr.Document, idKey string) (*frmr.DiffResult, error) {
	key := IDKey(idKey, left, right)

	leftItems := extract.Items(left)
	rightItems := extract.Items(right)

	leftIDs, leftMap := index(leftItems, key)
	rightIDs, rightMap := index(rightItems, key)

	if idKey != "" && len(leftItems)+len(rightItems) > 0 && len(leftIDs)+len(rightIDs) == 0 {
		return nil, frmr.Errorf(frmr.EBADREQUEST, "Identifier key %q matches no items in either document.", idKey)
	}

	res := &frmr.DiffResult{Changes: []*frmr.DiffChange{}}

	for _, id := range rightIDs {
		if _, ok := leftMap[id]; ok {
			continue
		}
		res.Changes = append(res.Changes, &frmr.DiffChange{
			Type:  frmr.ChangeAdded,
			ID:    id,
			Title: title(rightMap[id]),
		})
		res.Summary.Added++
	}

	for _, id := range leftIDs {
		l := leftMap[id]
		r, ok := rightMap[id]
		if !ok {
			res.Changes = append(res.Changes, &frmr.DiffChange{
				Type:  frmr.ChangeRemoved,
				ID:    id,
				Title: title(l),
			})
			res.Summary.Removed++
			continue
		}

		fields := ChangedFields(l, r, key)
		if len(fields) == 0 {
			continue
		}
		t := title(r)
		if t == "" {
			t = title(l)
		}
		res.Changes = append(res.Changes, &frmr.DiffChange{
			Type:   frmr.ChangeModified,
			ID:     id,
			Title:  t,
			Fields: fields,
		})
		res.Summary.Modified++
	}

	return res, nil
}

// ChangedFields returns the sorted names of fields, other than idKey,
// whose canonical JSON differs between left and right. A field present
// on one side only counts as changed.
func ChangedFields(left, right frmr.Item, idKey string) []string {
	keys := make(map[string]bool, len(left)+len(right))
	for k := range left {
		keys[k] = true
	}
	for k := range right {
		keys[k] = true
	}
	delete(keys, idKey)

	var changed []string
	for k := range keys {
		l, lok := left[k]
		r, rok := right[k]
		if lok != rok || !bytes.Equal(canonical(l), canonical(r)) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// index maps string identifiers to items, keeping the first occurrence
// and the document order. Items without a string identifier are skipped.
func index(items []frmr.Item, key string) ([]string, map[string]frmr.Item) {
	var ids []string
	m := make(map[string]frmr.Item, len(items))
	for _, item := range items {
		id, ok := item[key].(string)
		if !ok {
			continue
		}
		if _, dup := m[id]; dup {
			continue
		}
		ids = append(ids, id)
		m[id] = item
	}
	return ids, m
}

// canonical serializes v with object keys sorted. encoding/json sorts map
// keys on output.
func canonical(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func title(item frmr.Item) string {
	s, _ := item["title"].(string)
	return s
}
