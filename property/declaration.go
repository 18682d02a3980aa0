package property

import (
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// Kind names a property constructor.
type Kind string

const (
	KindBool     Kind = "bool"
	KindNumber   Kind = "number"
	KindString   Kind = "string"
	KindConstant Kind = "constant"
	KindEnum     Kind = "enum"
	KindRaw      Kind = "raw"
	KindArray    Kind = "array"
	KindMap      Kind = "map"
	KindNested   Kind = "nested"
	KindOneOf    Kind = "oneOf"
	KindAnyOf    Kind = "anyOf"
	KindAllOf    Kind = "allOf"
)

// Declaration is a serialisable description of how a property was built.
// Elements holds sub-property declarations (array element, map value, union
// candidates). Special validation functions are not part of a declaration.
type Declaration struct {
	Kind     Kind           `json:"kind" yaml:"kind"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Optional bool           `json:"optional,omitempty" yaml:"optional,omitempty"`
	Args     map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Elements []Declaration  `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// TypeLookup resolves the configuration type referenced by a nested
// declaration.
type TypeLookup func(name string) (Composite, bool)

// FromDeclaration rebuilds a property from its declaration. lookup may be nil
// when d contains no nested properties.
func FromDeclaration(d Declaration, lookup TypeLookup) (Property, error) {
	p, err := fromDeclaration(d, lookup)
	if err != nil {
		return nil, jsonconf.NewSchemaError(d.Name, jsonconf.ErrBadDeclaration, err)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func fromDeclaration(d Declaration, lookup TypeLookup) (Property, error) {
	a := args(d.Args)
	switch d.Kind {
	case KindBool:
		p := Bool().Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindNumber:
		p := Number().Named(d.Name)
		if v, ok, err := a.float("minimum"); err != nil {
			return nil, err
		} else if ok {
			if a.bool("exclusiveMinimum") {
				p.ExclusiveMin(v)
			} else {
				p.Min(v)
			}
		}
		if v, ok, err := a.float("maximum"); err != nil {
			return nil, err
		} else if ok {
			if a.bool("exclusiveMaximum") {
				p.ExclusiveMax(v)
			} else {
				p.Max(v)
			}
		}
		if a.bool("integerOnly") {
			p.IntegerOnly()
		}
		if v, ok, err := a.float("multipleOf"); err != nil {
			return nil, err
		} else if ok {
			p.MultipleOf(v)
		}
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindString:
		p := String().Named(d.Name)
		if n, ok, err := a.int("minLength"); err != nil {
			return nil, err
		} else if ok {
			p.MinLength(n)
		}
		if n, ok, err := a.int("maxLength"); err != nil {
			return nil, err
		} else if ok {
			p.MaxLength(n)
		}
		if s, ok := a["pattern"].(string); ok {
			p.Pattern(s)
		}
		if s, ok := a["format"].(string); ok {
			p.Format(s)
		}
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindConstant:
		v, ok := a["value"]
		if !ok {
			return nil, fmt.Errorf("constant: missing 'value'")
		}
		p := Constant(v).Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindEnum:
		vs, ok := a["values"].([]any)
		if !ok {
			return nil, fmt.Errorf("enum: 'values' must be an array")
		}
		p := Enum(vs...).Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindTimestamp:
		p := Timestamp().Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindRaw:
		s := js.TriviallySucceed()
		if raw, ok := a["schema"]; ok {
			var err error
			if s, err = schemaFromRaw(raw); err != nil {
				return nil, fmt.Errorf("raw: %w", err)
			}
		}
		p := Raw(s).Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindArray:
		elem, err := single(d, lookup)
		if err != nil {
			return nil, err
		}
		p := Array(elem)
		if d.Name != "" {
			p.Named(d.Name)
		}
		if n, ok, err := a.int("minElements"); err != nil {
			return nil, err
		} else if ok {
			p.MinElements(n)
		}
		if n, ok, err := a.int("maxElements"); err != nil {
			return nil, err
		} else if ok {
			p.MaxElements(n)
		}
		if a.bool("unique") {
			p.Unique()
		}
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindMap:
		value, err := single(d, lookup)
		if err != nil {
			return nil, err
		}
		p := Map(value).Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindNested:
		name, _ := a["type"].(string)
		if lookup == nil {
			return nil, fmt.Errorf("nested: no type lookup for '%s'", name)
		}
		t, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("nested: unknown type '%s'", name)
		}
		p := Nested(t).Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	case KindOneOf, KindAnyOf, KindAllOf:
		cands := make([]Property, 0, len(d.Elements))
		for _, e := range d.Elements {
			c, err := fromDeclaration(e, lookup)
			if err != nil {
				return nil, err
			}
			cands = append(cands, c)
		}
		var p *OfProperty
		switch d.Kind {
		case KindOneOf:
			p = OneOf(cands...)
		case KindAnyOf:
			p = AnyOf(cands...)
		default:
			p = AllOf(cands...)
		}
		p.Named(d.Name)
		if d.Optional {
			p.Optional()
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown property kind '%s'", d.Kind)
}

func single(d Declaration, lookup TypeLookup) (Property, error) {
	if len(d.Elements) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one element declaration, got %d", d.Kind, len(d.Elements))
	}
	return fromDeclaration(d.Elements[0], lookup)
}

// args reads constructor arguments decoded from JSON or YAML, where numbers
// may arrive as any Go numeric kind.
type args map[string]any

func (a args) float(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok {
		return 0, false, nil
	}
	n, err := jsonconf.Normalize(v)
	if err != nil {
		return 0, false, err
	}
	f, ok := n.(float64)
	if !ok {
		return 0, false, fmt.Errorf("'%s' must be a number", key)
	}
	return f, true, nil
}

func (a args) int(key string) (int, bool, error) {
	f, ok, err := a.float(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, false, fmt.Errorf("'%s' must be an integer", key)
	}
	return int(f), true, nil
}

func (a args) bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

func schemaAsRaw(s *js.Schema) (any, error) {
	b, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	return jsonconf.ParseJSONString(string(b))
}

func schemaFromRaw(raw any) (*js.Schema, error) {
	b, err := jsonconf.MarshalJSON(raw, "")
	if err != nil {
		return nil, err
	}
	return js.FromJSON(b)
}
