package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
	"github.com/reoring/jsonconf/property"
)

// Field pairs a declaring field name with its property.
type Field struct {
	Name     string
	Property property.Property
}

// Type is a registered configuration type: an ordered set of declared
// properties (inherited ones first), an additional-properties bucket and an
// optional whole-object check. A Type is immutable once built.
type Type struct {
	name       string
	parent     *Type
	fields     []Field
	byField    map[string]property.Property
	byName     map[string]property.Property
	additional *property.MapProperty
	strict     bool
	special    jsonconf.SpecialValidation
	rules      []*jsonconf.Rule
	validator  *jsonconf.Validator
}

// Builder declares a Type.
type Builder struct {
	name       string
	parent     *Type
	fields     []Field
	additional property.Property
	strict     bool
	special    jsonconf.SpecialValidation
	rules      []ruleSpec
}

type ruleSpec struct{ expr, message string }

// Define starts a new root type.
func Define(name string) *Builder { return &Builder{name: name} }

// Extend starts a subtype of parent. The subtype inherits every property,
// the additional-properties policy and the whole-object checks of parent.
func Extend(parent *Type, name string) *Builder { return &Builder{name: name, parent: parent} }

// Field declares a property. Unless the property was Named, its name is
// bound to fieldName.
func (b *Builder) Field(fieldName string, p property.Property) *Builder {
	b.fields = append(b.fields, Field{Name: fieldName, Property: p})
	return b
}

// Strict rejects every additional property.
func (b *Builder) Strict() *Builder { b.strict = true; b.additional = nil; return b }

// AdditionalProperties validates additional property values with p.
func (b *Builder) AdditionalProperties(p property.Property) *Builder {
	b.additional, b.strict = p, false
	return b
}

// SpecialValidation sets a check over the whole raw JSON object that runs
// after schema validation.
func (b *Builder) SpecialValidation(fn jsonconf.SpecialValidation) *Builder {
	b.special = fn
	return b
}

// Rule adds a CEL expression over `self` (the raw JSON object) that must
// evaluate to true.
func (b *Builder) Rule(expr, message string) *Builder {
	b.rules = append(b.rules, ruleSpec{expr: expr, message: message})
	return b
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Type {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Build validates the declaration and registers the type. Every failure is a
// *jsonconf.SchemaError.
func (b *Builder) Build() (*Type, error) {
	t := &Type{
		name:    b.name,
		parent:  b.parent,
		byField: map[string]property.Property{},
		byName:  map[string]property.Property{},
	}
	if b.parent != nil {
		for _, f := range b.parent.fields {
			t.add(f, f.Property.Name())
		}
		t.additional, t.strict = b.parent.additional, b.parent.strict
		t.rules = append(t.rules, b.parent.rules...)
	}

	// Names are bound last; a failed Build binds nothing.
	names := make([]string, len(b.fields))
	seen := map[property.Property]string{}
	for i, f := range b.fields {
		if f.Property == nil {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrBadDeclaration, fmt.Errorf("field '%s' has no property", f.Name))
		}
		if _, dup := t.byField[f.Name]; dup {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrDuplicateProperty, fmt.Errorf("field '%s' declared twice", f.Name))
		}
		if other, dup := seen[f.Property]; dup {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrDuplicateProperty, fmt.Errorf("fields '%s' and '%s' share one property", other, f.Name))
		}
		seen[f.Property] = f.Name
		name, err := property.NameFor(f.Property, f.Name)
		if err != nil {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrRebind, err)
		}
		if err := f.Property.Err(); err != nil {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrBadDeclaration, err)
		}
		if _, dup := t.byName[name]; dup {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrDuplicateProperty, fmt.Errorf("property name '%s' used twice", name))
		}
		names[i] = name
		t.add(f, name)
	}

	switch {
	case b.strict:
		t.strict = true
		t.additional = property.Map(property.Nothing())
	case b.additional != nil:
		if b.additional.IsOptional() {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrOptionalChild, errors.New("additional-properties validation cannot be optional"))
		}
		t.strict = false
		t.additional = property.Map(b.additional)
	case t.additional == nil:
		t.additional = property.Map(property.Anything())
	}
	if err := t.additional.Err(); err != nil {
		return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrBadDeclaration, err)
	}

	for _, r := range b.rules {
		compiled, err := jsonconf.CompileRule(r.expr, r.message)
		if err != nil {
			return nil, err
		}
		t.rules = append(t.rules, compiled)
	}
	t.special = chain(parentSpecial(b.parent), b.special)

	t.validator = jsonconf.NewValidator(t.name, t.buildSchema, jsonconf.Rules(t.special, t.rules...))
	if err := t.validator.Err(); err != nil {
		return nil, err
	}
	for i, f := range b.fields {
		if err := f.Property.BindName(names[i]); err != nil {
			return nil, jsonconf.NewSchemaError(b.name, jsonconf.ErrRebind, err)
		}
	}
	return t, nil
}

func parentSpecial(p *Type) jsonconf.SpecialValidation {
	if p == nil {
		return nil
	}
	return p.special
}

func chain(fns ...jsonconf.SpecialValidation) jsonconf.SpecialValidation {
	var live []jsonconf.SpecialValidation
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(raw any) error {
		for _, fn := range live {
			if err := fn(raw); err != nil {
				return err
			}
		}
		return nil
	}
}

func (t *Type) add(f Field, name string) {
	t.fields = append(t.fields, f)
	t.byField[f.Name] = f.Property
	t.byName[name] = f.Property
}

func (t *Type) buildSchema() *js.Schema {
	required := map[string]*js.Schema{}
	optional := map[string]*js.Schema{}
	for name, p := range t.byName {
		if p.IsOptional() {
			optional[name] = p.JSONSchema()
		} else {
			required[name] = p.JSONSchema()
		}
	}
	return js.StandardObject(required, optional, t.additional.Value().JSONSchema())
}

func (t *Type) Name() string { return t.name }

// Parent returns the type this one extends, or nil.
func (t *Type) Parent() *Type { return t.parent }

// IsA reports whether t is other or one of its subtypes.
func (t *Type) IsA(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Fields returns the declared fields, inherited ones first.
func (t *Type) Fields() []Field { return append([]Field(nil), t.fields...) }

// Properties returns the declared properties, inherited ones first.
func (t *Type) Properties() []property.Property {
	out := make([]property.Property, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Property
	}
	return out
}

// Property resolves name as a field name, then as a property name.
func (t *Type) Property(name string) (property.Property, bool) {
	if p, ok := t.byField[name]; ok {
		return p, true
	}
	p, ok := t.byName[name]
	return p, ok
}

// Strict reports whether additional properties are rejected.
func (t *Type) Strict() bool { return t.strict }

// AdditionalProperties returns the property validating overflow values.
func (t *Type) AdditionalProperties() property.Property { return t.additional.Value() }

// JSONSchema returns the cached object schema of the type.
func (t *Type) JSONSchema() *js.Schema { return t.validator.JSONSchema() }

// Validator returns the cached validator of the type.
func (t *Type) Validator() *jsonconf.Validator { return t.validator }

func (t *Type) ValidateRawJSON(raw any) error { return t.validator.ValidateRawJSON(raw) }

func (t *Type) IsValidRawJSON(raw any) bool { return t.validator.IsValidRawJSON(raw) }

func (t *Type) ValidateJSONString(s string) error { return t.validator.ValidateJSONString(s) }

func (t *Type) IsValidJSONString(s string) bool { return t.validator.IsValidJSONString(s) }

// New builds an instance from initial values keyed by field or property
// name. Unmatched keys go to the additional-properties bucket. Missing
// required properties fail with ErrNoValue, and the result must validate
// against the type.
func (t *Type) New(initial map[string]any) (*Configuration, error) {
	c := t.empty()
	for _, k := range jsonconf.SortedKeys(initial) {
		if err := c.Set(k, initial[k]); err != nil {
			return nil, err
		}
	}
	if err := c.checkRequired(); err != nil {
		return nil, err
	}
	if _, err := c.ToRawJSON(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New that panics on error.
func (t *Type) MustNew(initial map[string]any) *Configuration {
	c, err := t.New(initial)
	if err != nil {
		panic(err)
	}
	return c
}

// FromRawJSON validates raw against the type and builds an instance from it.
func (t *Type) FromRawJSON(raw any) (*Configuration, error) {
	norm, err := jsonconf.Normalize(raw)
	if err != nil {
		return nil, jsonconf.WithProperty(t.name, err)
	}
	if err := t.validator.ValidateRawJSON(norm); err != nil {
		return nil, err
	}
	obj := norm.(map[string]any)
	c := t.empty()
	for _, k := range jsonconf.SortedKeys(obj) {
		if p, ok := t.Property(k); ok {
			if err := property.SetFromRawJSON(p, c.slots, obj[k]); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.extra.Set(k, obj[k]); err != nil {
			return nil, err
		}
	}
	if err := c.checkRequired(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromJSONString parses s and builds an instance from it.
func (t *Type) FromJSONString(s string) (*Configuration, error) {
	raw, err := jsonconf.ParseJSONString(s)
	if err != nil {
		return nil, err
	}
	return t.FromRawJSON(raw)
}

// FromReader decodes one JSON document from r and builds an instance from it.
func (t *Type) FromReader(r io.Reader) (*Configuration, error) {
	raw, err := jsonconf.DecodeJSON(r)
	if err != nil {
		return nil, err
	}
	return t.FromRawJSON(raw)
}

// LoadFromJSONFile reads path and builds an instance from its content.
// Failures name the path.
func (t *Type) LoadFromJSONFile(path string) (*Configuration, error) {
	return t.load(path, jsonconf.DecodeJSON)
}

// LoadFromYAMLFile is LoadFromJSONFile for YAML documents.
func (t *Type) LoadFromYAMLFile(path string) (*Configuration, error) {
	return t.load(path, jsonconf.DecodeYAML)
}

func (t *Type) load(path string, decode func(io.Reader) (any, error)) (*Configuration, error) {
	raw, err := jsonconf.ReadFile(path, decode)
	if err != nil {
		return nil, err
	}
	c, err := t.FromRawJSON(raw)
	if err != nil {
		return nil, &jsonconf.SerialiseError{Op: "load", Path: path, Cause: err}
	}
	return c, nil
}

// Adopt implements property.Composite.
func (t *Type) Adopt(v any) (jsonconf.RawJSONer, bool) {
	c, ok := v.(*Configuration)
	if !ok || c == nil || !c.t.IsA(t) {
		return nil, false
	}
	return c, true
}

// Decode implements property.Composite.
func (t *Type) Decode(raw any) (jsonconf.RawJSONer, error) {
	c, err := t.FromRawJSON(raw)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (t *Type) empty() *Configuration {
	return &Configuration{t: t, slots: property.Slots{}, extra: t.additional.NewProxy()}
}
