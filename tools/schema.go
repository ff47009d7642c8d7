package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the JSON Schema of a tool's arguments object.
type Schema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties bool                 `json:"additionalProperties"`
}

// Property describes one argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *int     `json:"minimum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// schemaOf derives the schema of an arguments struct from its json,
// validate, default and desc tags.
func schemaOf(t reflect.Type) *Schema {
	s := &Schema{Type: "object", Properties: map[string]*Property{}}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := fieldName(f)
		if name == "" {
			continue
		}

		p := &Property{Type: jsonType(f.Type.Kind()), Description: f.Tag.Get("desc")}
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			key, param, _ := strings.Cut(rule, "=")
			switch key {
			case "required":
				s.Required = append(s.Required, name)
			case "oneof":
				p.Enum = strings.Fields(param)
			case "min", "gte":
				if p.Type == "integer" {
					p.Minimum = intPtr(param)
				}
			case "max", "lte":
				if p.Type == "integer" {
					p.Maximum = intPtr(param)
				}
			}
		}
		if def, ok := f.Tag.Lookup("default"); ok {
			p.Default = parseDefault(f.Type.Kind(), def)
		}
		s.Properties[name] = p
	}
	return s
}

func (s *Schema) raw() json.RawMessage {
	buf, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("tools: marshal schema: %v", err))
	}
	return buf
}

// applyDefaults sets every field of the struct v points to from its
// default tag.
func applyDefaults(v reflect.Value) {
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(def)
		case reflect.Int:
			n, _ := strconv.Atoi(def)
			f.SetInt(int64(n))
		case reflect.Bool:
			b, _ := strconv.ParseBool(def)
			f.SetBool(b)
		}
	}
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" || !f.IsExported() {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func jsonType(k reflect.Kind) string {
	switch k {
	case reflect.Int:
		return "integer"
	case reflect.Bool:
		return "boolean"
	default:
		return "string"
	}
}

func parseDefault(k reflect.Kind, s string) any {
	switch k {
	case reflect.Int:
		n, _ := strconv.Atoi(s)
		return n
	case reflect.Bool:
		b, _ := strconv.ParseBool(s)
		return b
	default:
		return s
	}
}

func intPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
