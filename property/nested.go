package property

import (
	"fmt"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// Composite is a registered configuration type whose instances a Nested
// property can store.
type Composite interface {
	Name() string
	JSONSchema() *js.Schema
	// Adopt returns v when it is an instance of the type or of one of its
	// subtypes.
	Adopt(v any) (jsonconf.RawJSONer, bool)
	// Decode builds a new instance from a raw JSON object.
	Decode(raw any) (jsonconf.RawJSONer, error)
}

// NestedProperty stores an instance of a configuration type.
type NestedProperty struct {
	base
	t Composite
}

// Nested returns a property holding instances of t.
func Nested(t Composite) *NestedProperty {
	p := &NestedProperty{t: t}
	if t == nil {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("nil type"))
		p.init(KindNested, js.TriviallyFail)
		return p
	}
	p.init(KindNested, t.JSONSchema)
	return p
}

func (p *NestedProperty) Named(name string) *NestedProperty { p.explicit = name; return p }
func (p *NestedProperty) Optional() *NestedProperty        { p.optional = true; return p }
func (p *NestedProperty) Check(fn jsonconf.SpecialValidation) *NestedProperty {
	p.special = fn
	return p
}

// Type returns the configuration type.
func (p *NestedProperty) Type() Composite { return p.t }

// ValidateValue accepts an instance of the type (or a subtype), a raw JSON
// object or a JSON string encoding one.
func (p *NestedProperty) ValidateValue(v any) (any, error) {
	if inst, ok := p.t.Adopt(v); ok {
		return reverse(p, &p.base, inst)
	}
	if s, ok := v.(string); ok {
		raw, err := jsonconf.ParseJSONString(s)
		if err != nil {
			return nil, err
		}
		return p.ValueFromRawJSON(raw)
	}
	raw, err := jsonconf.Normalize(v)
	if err != nil {
		return nil, err
	}
	if !jsonconf.IsRawJSONObject(raw) {
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected %s or object, got %T", p.t.Name(), v))
	}
	return p.ValueFromRawJSON(raw)
}

func (p *NestedProperty) ValueAsRawJSON(stored any) (any, error) {
	inst, ok := stored.(jsonconf.RawJSONer)
	if !ok {
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected %s, got %T", p.t.Name(), stored))
	}
	return inst.ToRawJSON()
}

func (p *NestedProperty) ValueFromRawJSON(raw any) (any, error) {
	if err := p.validateRaw(raw); err != nil {
		return nil, err
	}
	return p.t.Decode(raw)
}

func (p *NestedProperty) Declaration() Declaration {
	d := p.declaration()
	if p.t != nil {
		d.Args = map[string]any{"type": p.t.Name()}
	}
	return d
}
