package extract

import "sort"

// Shape classifies how a collection is encoded in a JSON document.
type Shape int

// Shape constants.
const (
	ShapeAbsent Shape = iota
	ShapeArray
	ShapeKeyed
)

// ShapeOf classifies v.
func ShapeOf(v any) Shape {
	switch v.(type) {
	case []any:
		return ShapeArray
	case map[string]any:
		return ShapeKeyed
	}
	return ShapeAbsent
}

// Member is one entry of a collection. Key is empty for array members.
// Exactly one of Object and Text is set.
type Member struct {
	Key    string
	Object map[string]any
	Text   string
}

var membersByShape = map[Shape]func(v any) []Member{
	ShapeAbsent: func(any) []Member { return nil },
	ShapeArray:  arrayMembers,
	ShapeKeyed:  keyedMembers,
}

// Members returns the object and string members of the collection v,
// whatever its shape. Other values are dropped.
func Members(v any) []Member {
	return membersByShape[ShapeOf(v)](v)
}

func arrayMembers(v any) []Member {
	var members []Member
	for _, elem := range v.([]any) {
		if m, ok := member("", elem); ok {
			members = append(members, m)
		}
	}
	return members
}

func keyedMembers(v any) []Member {
	obj := v.(map[string]any)
	var members []Member
	for _, key := range sortedKeys(obj) {
		if m, ok := member(key, obj[key]); ok {
			members = append(members, m)
		}
	}
	return members
}

func member(key string, v any) (Member, bool) {
	switch v := v.(type) {
	case map[string]any:
		return Member{Key: key, Object: v}, true
	case string:
		return Member{Key: key, Text: v}, true
	}
	return Member{}, false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
