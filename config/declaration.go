package config

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/property"
)

// TypeDeclaration is a serialisable description of a Type. Parent and nested
// property types are referenced by name.
type TypeDeclaration struct {
	Name       string                `json:"name" yaml:"name"`
	Parent     string                `json:"parent,omitempty" yaml:"parent,omitempty"`
	Strict     bool                  `json:"strict,omitempty" yaml:"strict,omitempty"`
	Additional *property.Declaration `json:"additional,omitempty" yaml:"additional,omitempty"`
	Rules      []RuleDeclaration     `json:"rules,omitempty" yaml:"rules,omitempty"`
	Fields     []FieldDeclaration    `json:"fields" yaml:"fields"`
}

// FieldDeclaration declares one field.
type FieldDeclaration struct {
	Field    string               `json:"field" yaml:"field"`
	Property property.Declaration `json:"property" yaml:"property"`
}

// RuleDeclaration is a CEL rule.
type RuleDeclaration struct {
	Expr    string `json:"expr" yaml:"expr"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Declaration describes the fields t declares itself; inherited fields are
// described by the parent. Special validation functions are not included.
func (t *Type) Declaration() TypeDeclaration {
	d := TypeDeclaration{Name: t.name, Fields: []FieldDeclaration{}}
	inherited := 0
	var parentRules int
	if t.parent != nil {
		d.Parent = t.parent.name
		inherited = len(t.parent.fields)
		parentRules = len(t.parent.rules)
	}
	for _, f := range t.fields[inherited:] {
		d.Fields = append(d.Fields, FieldDeclaration{Field: f.Name, Property: f.Property.Declaration()})
	}
	for _, r := range t.rules[parentRules:] {
		d.Rules = append(d.Rules, RuleDeclaration{Expr: r.Expr, Message: r.Message})
	}
	inheritedPolicy := t.parent != nil && t.parent.additional == t.additional
	switch {
	case inheritedPolicy:
	case t.strict:
		d.Strict = true
	default:
		if v := t.additional.Value(); !isAnything(v) {
			ad := v.Declaration()
			d.Additional = &ad
		}
	}
	return d
}

func isAnything(p property.Property) bool {
	raw, ok := p.(*property.RawProperty)
	return ok && jsonconf.EqualRawJSON(schemaRaw(raw), true)
}

func schemaRaw(p property.Property) any {
	b, err := gojson.Marshal(p.JSONSchema())
	if err != nil {
		return nil
	}
	raw, err := jsonconf.ParseJSONString(string(b))
	if err != nil {
		return nil
	}
	return raw
}

// FromDeclaration builds a Type from d. lookup resolves the parent and
// nested property types; it may be nil when d references none.
func FromDeclaration(d TypeDeclaration, lookup func(name string) (*Type, bool)) (*Type, error) {
	var parent *Type
	if d.Parent != "" {
		var ok bool
		if lookup != nil {
			parent, ok = lookup(d.Parent)
		}
		if !ok {
			return nil, jsonconf.NewSchemaError(d.Name, jsonconf.ErrBadDeclaration, fmt.Errorf("unknown parent type '%s'", d.Parent))
		}
	}
	var types property.TypeLookup
	if lookup != nil {
		types = func(name string) (property.Composite, bool) {
			t, ok := lookup(name)
			if !ok {
				return nil, false
			}
			return t, true
		}
	}

	b := Define(d.Name)
	if parent != nil {
		b = Extend(parent, d.Name)
	}
	for _, f := range d.Fields {
		p, err := property.FromDeclaration(f.Property, types)
		if err != nil {
			return nil, jsonconf.NewSchemaError(d.Name, jsonconf.ErrBadDeclaration, fmt.Errorf("field '%s': %w", f.Field, err))
		}
		b.Field(f.Field, p)
	}
	switch {
	case d.Strict:
		b.Strict()
	case d.Additional != nil:
		p, err := property.FromDeclaration(*d.Additional, types)
		if err != nil {
			return nil, jsonconf.NewSchemaError(d.Name, jsonconf.ErrBadDeclaration, fmt.Errorf("additional: %w", err))
		}
		b.AdditionalProperties(p)
	}
	for _, r := range d.Rules {
		b.Rule(r.Expr, r.Message)
	}
	return b.Build()
}

// Registry holds types built from declarations, by name.
type Registry struct {
	order []*Type
	types map[string]*Type
}

// BuildAll builds decls in order. Each declaration may reference types
// declared before it.
func BuildAll(decls []TypeDeclaration) (*Registry, error) {
	r := &Registry{types: map[string]*Type{}}
	for _, d := range decls {
		if _, dup := r.types[d.Name]; dup {
			return nil, jsonconf.NewSchemaError(d.Name, jsonconf.ErrBadDeclaration, fmt.Errorf("type '%s' declared twice", d.Name))
		}
		t, err := FromDeclaration(d, r.Lookup)
		if err != nil {
			return nil, err
		}
		r.types[d.Name] = t
		r.order = append(r.order, t)
	}
	return r, nil
}

// Lookup returns the type named name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns the types in declaration order.
func (r *Registry) Types() []*Type { return append([]*Type(nil), r.order...) }

// Last returns the last declared type, or nil.
func (r *Registry) Last() *Type {
	if len(r.order) == 0 {
		return nil
	}
	return r.order[len(r.order)-1]
}

// ParseDeclarations decodes type declarations from raw JSON: either a single
// declaration object or an array of them.
func ParseDeclarations(raw any) ([]TypeDeclaration, error) {
	b, err := jsonconf.MarshalJSON(raw, "")
	if err != nil {
		return nil, err
	}
	if jsonconf.IsRawJSONArray(raw) {
		var out []TypeDeclaration
		if err := gojson.Unmarshal(b, &out); err != nil {
			return nil, jsonconf.NewSchemaError("", jsonconf.ErrBadDeclaration, err)
		}
		return out, nil
	}
	var one TypeDeclaration
	if err := gojson.Unmarshal(b, &one); err != nil {
		return nil, jsonconf.NewSchemaError("", jsonconf.ErrBadDeclaration, err)
	}
	return []TypeDeclaration{one}, nil
}
