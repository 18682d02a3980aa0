// Package jsonschema assembles JSON Schema fragments. Builders are pure: they
// never validate anything and every call returns a fresh value.
//
// Schema is the schema value type of github.com/google/jsonschema-go, so a
// fragment built here can be resolved and used for validation directly.
package jsonschema

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	gjs "github.com/google/jsonschema-go/jsonschema"
)

// Schema is a JSON Schema document (draft 2020-12 vocabulary).
type Schema = gjs.Schema

// TriviallySucceed accepts every instance. It marshals as `true`.
func TriviallySucceed() *Schema { return &Schema{} }

// TriviallyFail rejects every instance. It marshals as `false`.
func TriviallyFail() *Schema { return &Schema{Not: &Schema{}} }

// Bool accepts JSON booleans.
func Bool() *Schema { return &Schema{Type: "boolean"} }

// Integer accepts integral numbers.
func Integer() *Schema { return &Schema{Type: "integer"} }

// Float accepts any number.
func Float() *Schema { return &Schema{Type: "number"} }

// StringType accepts any string.
func StringType() *Schema { return &Schema{Type: "string"} }

// Null accepts only null.
func Null() *Schema { return &Schema{Type: "null"} }

// PositiveInteger accepts integers > 0.
func PositiveInteger() *Schema {
	return Number(NumberOpts{Minimum: Ptr(0.0), ExclusiveMinimum: true, IntegerOnly: true})
}

// NonNegativeInteger accepts integers >= 0.
func NonNegativeInteger() *Schema {
	return Number(NumberOpts{Minimum: Ptr(0.0), IntegerOnly: true})
}

// NegativeInteger accepts integers < 0.
func NegativeInteger() *Schema {
	return Number(NumberOpts{Maximum: Ptr(0.0), ExclusiveMaximum: true, IntegerOnly: true})
}

// NonPositiveInteger accepts integers <= 0.
func NonPositiveInteger() *Schema {
	return Number(NumberOpts{Maximum: Ptr(0.0), IntegerOnly: true})
}

// StandardObject builds an object schema. Every key of required is listed in
// "required"; optional keys only contribute to "properties". additional is
// the schema for any other key; nil means additional keys are allowed.
func StandardObject(required, optional map[string]*Schema, additional *Schema) *Schema {
	out := &Schema{Type: "object"}
	n := len(required) + len(optional)
	if n > 0 {
		out.Properties = make(map[string]*Schema, n)
	}
	for _, k := range sortedKeys(required) {
		out.Properties[k] = required[k]
		out.Required = append(out.Required, k)
	}
	for _, k := range sortedKeys(optional) {
		out.Properties[k] = optional[k]
	}
	if additional == nil {
		additional = TriviallySucceed()
	}
	out.AdditionalProperties = additional
	return out
}

// Enum accepts exactly one of values.
func Enum(values ...any) *Schema {
	return &Schema{Enum: append([]any(nil), values...)}
}

// Const accepts exactly v.
func Const(v any) *Schema {
	c := v
	return &Schema{Const: &c}
}

// NumberOpts are the constraints of Number. Exclusive flags turn the
// corresponding bound into exclusiveMinimum/exclusiveMaximum.
type NumberOpts struct {
	Minimum          *float64
	Maximum          *float64
	IntegerOnly      bool
	MultipleOf       *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
}

// Number builds a numeric schema.
func Number(o NumberOpts) *Schema {
	out := &Schema{Type: "number"}
	if o.IntegerOnly {
		out.Type = "integer"
	}
	if o.Minimum != nil {
		if o.ExclusiveMinimum {
			out.ExclusiveMinimum = Ptr(*o.Minimum)
		} else {
			out.Minimum = Ptr(*o.Minimum)
		}
	}
	if o.Maximum != nil {
		if o.ExclusiveMaximum {
			out.ExclusiveMaximum = Ptr(*o.Maximum)
		} else {
			out.Maximum = Ptr(*o.Maximum)
		}
	}
	if o.MultipleOf != nil {
		out.MultipleOf = Ptr(*o.MultipleOf)
	}
	return out
}

// StringOpts are the constraints of String.
type StringOpts struct {
	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string
}

// String builds a string schema.
func String(o StringOpts) *Schema {
	out := &Schema{Type: "string", Pattern: o.Pattern, Format: o.Format}
	if o.MinLength != nil {
		out.MinLength = Ptr(*o.MinLength)
	}
	if o.MaxLength != nil {
		out.MaxLength = Ptr(*o.MaxLength)
	}
	return out
}

// RegularArray builds an array schema whose items all match elem. A nil
// bound is unconstrained.
func RegularArray(elem *Schema, minItems, maxItems *int, unique bool) *Schema {
	out := &Schema{Type: "array", Items: elem, UniqueItems: unique}
	if minItems != nil && *minItems > 0 {
		out.MinItems = Ptr(*minItems)
	}
	if maxItems != nil {
		out.MaxItems = Ptr(*maxItems)
	}
	return out
}

// OneOf requires exactly one sub-schema to match.
func OneOf(sub ...*Schema) *Schema { return &Schema{OneOf: append([]*Schema(nil), sub...)} }

// AnyOf requires at least one sub-schema to match.
func AnyOf(sub ...*Schema) *Schema { return &Schema{AnyOf: append([]*Schema(nil), sub...)} }

// AllOf requires every sub-schema to match.
func AllOf(sub ...*Schema) *Schema { return &Schema{AllOf: append([]*Schema(nil), sub...)} }

// Combinator is the signature shared by OneOf, AnyOf and AllOf.
type Combinator func(sub ...*Schema) *Schema

// Clone returns a deep copy of s, made by a JSON round trip so that callers
// may modify the result freely.
func Clone(s *Schema) (*Schema, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: clone: %w", err)
	}
	out := &Schema{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("jsonschema: clone: %w", err)
	}
	return out, nil
}

// FromJSON parses a schema document.
func FromJSON(b []byte) (*Schema, error) {
	out := &Schema{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("jsonschema: parse: %w", err)
	}
	return out, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
