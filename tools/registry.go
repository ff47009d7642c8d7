// Package tools exposes index operations as named tools with validated JSON
// arguments.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fwojciec/frmr"
	"github.com/go-playground/validator/v10"
)

// Compile-time interface verification.
var _ frmr.ToolService = (*Registry)(nil)

// Tool categories.
const (
	CategoryDiscovery = "Discovery"
	CategoryKSI       = "KSI"
	CategoryControls  = "Controls"
	CategorySearch    = "Search"
	CategoryAnalysis  = "Analysis"
	CategorySystem    = "System"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
}

// handler decodes arguments and runs one tool.
type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry is an ordered set of tools.
type Registry struct {
	tools    []*frmr.Tool
	handlers map[string]handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]handler)}
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*frmr.Tool {
	return r.tools
}

// Tool returns the named tool.
func (r *Registry) Tool(name string) (*frmr.Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// CallTool validates args against the named tool and runs it.
func (r *Registry) CallTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, frmr.Errorf(frmr.ENOTFOUND, "Unknown tool: %s", name).
			WithHint("Use search_tools to discover available tools.")
	}
	return h(ctx, args)
}

// Register adds a tool whose arguments decode into A. Fields of A
// describe the input schema through their json, validate, default and desc
// tags. Registering a name twice panics.
func Register[A any](r *Registry, tool frmr.Tool, fn func(ctx context.Context, args A) (any, error)) {
	if _, ok := r.handlers[tool.Name]; ok {
		panic(fmt.Sprintf("tools: duplicate tool %q", tool.Name))
	}

	t := reflect.TypeFor[A]()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("tools: arguments of %q must be a struct", tool.Name))
	}
	tool.InputSchema = schemaOf(t).raw()

	r.tools = append(r.tools, &tool)
	r.handlers[tool.Name] = func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		applyDefaults(reflect.ValueOf(&args))
		if err := decode(raw, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

// decode unmarshals raw over the defaults already set in v and validates
// the result. Missing or null arguments decode as an empty object.
func decode(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, v); err != nil {
			return frmr.Errorf(frmr.EBADREQUEST, "Invalid arguments: %s", unmarshalMessage(err))
		}
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fieldMessage(fe)
			}
			return frmr.Errorf(frmr.EBADREQUEST, "Invalid arguments: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func unmarshalMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type.Kind()))
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// ErrorDetail is the wire form of a failed tool call.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorResult wraps err in the envelope returned to tool callers.
// Untyped errors are reported as IO_ERROR.
func ErrorResult(err error) map[string]*ErrorDetail {
	return map[string]*ErrorDetail{
		"error": {
			Code:    frmr.ErrorCode(err),
			Message: frmr.ErrorMessage(err),
			Hint:    frmr.ErrorHint(err),
		},
	}
}
