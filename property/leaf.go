package property

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// leaf is the shared behaviour of properties whose stored value already is
// raw JSON.
type leaf struct{ base }

func (l *leaf) ValidateValue(v any) (any, error) {
	raw, err := jsonconf.Normalize(v)
	if err != nil {
		return nil, err
	}
	if err := l.validateRaw(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (l *leaf) ValueAsRawJSON(stored any) (any, error) { return jsonconf.DeepCopy(stored), nil }

func (l *leaf) ValueFromRawJSON(raw any) (any, error) { return l.ValidateValue(raw) }

// ---- Bool ----

// BoolProperty accepts true and false.
type BoolProperty struct{ leaf }

// Bool returns a boolean property.
func Bool() *BoolProperty {
	p := &BoolProperty{}
	p.init(KindBool, js.Bool)
	return p
}

func (p *BoolProperty) Named(name string) *BoolProperty { p.explicit = name; return p }
func (p *BoolProperty) Optional() *BoolProperty        { p.optional = true; return p }
func (p *BoolProperty) Check(fn jsonconf.SpecialValidation) *BoolProperty {
	p.special = fn
	return p
}

func (p *BoolProperty) Declaration() Declaration { return p.declaration() }

// ---- Number ----

// NumberProperty accepts JSON numbers, stored as float64.
type NumberProperty struct {
	leaf
	opts js.NumberOpts
}

// Number returns an unconstrained number property.
func Number() *NumberProperty {
	p := &NumberProperty{}
	p.init(KindNumber, func() *js.Schema { return js.Number(p.opts) })
	return p
}

func (p *NumberProperty) Named(name string) *NumberProperty { p.explicit = name; return p }
func (p *NumberProperty) Optional() *NumberProperty        { p.optional = true; return p }
func (p *NumberProperty) Check(fn jsonconf.SpecialValidation) *NumberProperty {
	p.special = fn
	return p
}

// Min sets an inclusive lower bound.
func (p *NumberProperty) Min(x float64) *NumberProperty {
	p.opts.Minimum, p.opts.ExclusiveMinimum = &x, false
	p.checkRange()
	return p
}

// Max sets an inclusive upper bound.
func (p *NumberProperty) Max(x float64) *NumberProperty {
	p.opts.Maximum, p.opts.ExclusiveMaximum = &x, false
	p.checkRange()
	return p
}

// ExclusiveMin sets an exclusive lower bound.
func (p *NumberProperty) ExclusiveMin(x float64) *NumberProperty {
	p.opts.Minimum, p.opts.ExclusiveMinimum = &x, true
	p.checkRange()
	return p
}

// ExclusiveMax sets an exclusive upper bound.
func (p *NumberProperty) ExclusiveMax(x float64) *NumberProperty {
	p.opts.Maximum, p.opts.ExclusiveMaximum = &x, true
	p.checkRange()
	return p
}

// IntegerOnly restricts values to integers.
func (p *NumberProperty) IntegerOnly() *NumberProperty { p.opts.IntegerOnly = true; return p }

// MultipleOf requires values to be a multiple of x (x > 0).
func (p *NumberProperty) MultipleOf(x float64) *NumberProperty {
	if x <= 0 {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("multipleOf must be positive, got %v", x))
		return p
	}
	p.opts.MultipleOf = &x
	return p
}

func (p *NumberProperty) checkRange() {
	lo, hi := p.opts.Minimum, p.opts.Maximum
	if lo == nil || hi == nil {
		return
	}
	exclusive := p.opts.ExclusiveMinimum || p.opts.ExclusiveMaximum
	if *lo > *hi || (exclusive && *lo == *hi) {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("empty range [%v, %v]", *lo, *hi))
	}
}

func (p *NumberProperty) Declaration() Declaration {
	d := p.declaration()
	args := map[string]any{}
	if p.opts.Minimum != nil {
		args["minimum"] = *p.opts.Minimum
		if p.opts.ExclusiveMinimum {
			args["exclusiveMinimum"] = true
		}
	}
	if p.opts.Maximum != nil {
		args["maximum"] = *p.opts.Maximum
		if p.opts.ExclusiveMaximum {
			args["exclusiveMaximum"] = true
		}
	}
	if p.opts.IntegerOnly {
		args["integerOnly"] = true
	}
	if p.opts.MultipleOf != nil {
		args["multipleOf"] = *p.opts.MultipleOf
	}
	if len(args) > 0 {
		d.Args = args
	}
	return d
}

// ---- String ----

// StringProperty accepts JSON strings.
type StringProperty struct {
	leaf
	opts js.StringOpts
}

// String returns an unconstrained string property.
func String() *StringProperty {
	p := &StringProperty{}
	p.init(KindString, func() *js.Schema { return js.String(p.opts) })
	return p
}

func (p *StringProperty) Named(name string) *StringProperty { p.explicit = name; return p }
func (p *StringProperty) Optional() *StringProperty        { p.optional = true; return p }
func (p *StringProperty) Check(fn jsonconf.SpecialValidation) *StringProperty {
	p.special = fn
	return p
}

// MinLength sets the minimum length in characters.
func (p *StringProperty) MinLength(n int) *StringProperty {
	if n < 0 {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("negative minLength %d", n))
		return p
	}
	p.opts.MinLength = &n
	p.checkLengths()
	return p
}

// MaxLength sets the maximum length in characters.
func (p *StringProperty) MaxLength(n int) *StringProperty {
	if n < 0 {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("negative maxLength %d", n))
		return p
	}
	p.opts.MaxLength = &n
	p.checkLengths()
	return p
}

// Pattern requires values to match the regular expression expr.
func (p *StringProperty) Pattern(expr string) *StringProperty {
	if _, err := regexp.Compile(expr); err != nil {
		p.fail(jsonconf.ErrBadDeclaration, err)
		return p
	}
	p.opts.Pattern = expr
	return p
}

// Format sets the JSON Schema format annotation (e.g. "email", "date-time").
func (p *StringProperty) Format(f string) *StringProperty { p.opts.Format = f; return p }

func (p *StringProperty) checkLengths() {
	if p.opts.MinLength != nil && p.opts.MaxLength != nil && *p.opts.MinLength > *p.opts.MaxLength {
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("minLength %d exceeds maxLength %d", *p.opts.MinLength, *p.opts.MaxLength))
	}
}

func (p *StringProperty) Declaration() Declaration {
	d := p.declaration()
	args := map[string]any{}
	if p.opts.MinLength != nil {
		args["minLength"] = *p.opts.MinLength
	}
	if p.opts.MaxLength != nil {
		args["maxLength"] = *p.opts.MaxLength
	}
	if p.opts.Pattern != "" {
		args["pattern"] = p.opts.Pattern
	}
	if p.opts.Format != "" {
		args["format"] = p.opts.Format
	}
	if len(args) > 0 {
		d.Args = args
	}
	return d
}

// ---- Constant ----

// ConstantProperty accepts exactly one value.
type ConstantProperty struct {
	leaf
	value any
}

// Constant returns a property that only accepts v.
func Constant(v any) *ConstantProperty {
	p := &ConstantProperty{}
	raw, err := jsonconf.Normalize(v)
	if err != nil {
		p.fail(jsonconf.ErrBadDeclaration, err)
	}
	p.value = raw
	p.init(KindConstant, func() *js.Schema { return js.Const(p.value) })
	return p
}

func (p *ConstantProperty) Named(name string) *ConstantProperty { p.explicit = name; return p }
func (p *ConstantProperty) Optional() *ConstantProperty        { p.optional = true; return p }

// Value returns the constant.
func (p *ConstantProperty) Value() any { return jsonconf.DeepCopy(p.value) }

func (p *ConstantProperty) Declaration() Declaration {
	d := p.declaration()
	d.Args = map[string]any{"value": jsonconf.DeepCopy(p.value)}
	return d
}

// ---- Enum ----

// EnumProperty accepts one of a fixed list of values.
type EnumProperty struct {
	leaf
	values []any
}

// Enum returns a property accepting any of values.
func Enum(values ...any) *EnumProperty {
	p := &EnumProperty{}
	if len(values) == 0 {
		p.fail(jsonconf.ErrBadDeclaration, errors.New("enum requires at least one value"))
	}
	for _, v := range values {
		raw, err := jsonconf.Normalize(v)
		if err != nil {
			p.fail(jsonconf.ErrBadDeclaration, err)
			continue
		}
		p.values = append(p.values, raw)
	}
	p.init(KindEnum, func() *js.Schema { return js.Enum(p.values...) })
	return p
}

func (p *EnumProperty) Named(name string) *EnumProperty { p.explicit = name; return p }
func (p *EnumProperty) Optional() *EnumProperty        { p.optional = true; return p }

// Values returns the accepted values in declaration order.
func (p *EnumProperty) Values() []any { return jsonconf.DeepCopy(p.values).([]any) }

func (p *EnumProperty) Declaration() Declaration {
	d := p.declaration()
	d.Args = map[string]any{"values": p.Values()}
	return d
}

// ---- Raw ----

// RawProperty accepts any raw JSON matching an externally supplied schema.
type RawProperty struct {
	leaf
	schema *js.Schema
}

// Raw returns a property validated by s. A nil schema accepts anything.
func Raw(s *js.Schema) *RawProperty {
	if s == nil {
		s = js.TriviallySucceed()
	}
	p := &RawProperty{schema: s}
	p.init(KindRaw, func() *js.Schema { return p.schema })
	return p
}

// Anything returns a raw property accepting every JSON value.
func Anything() *RawProperty { return Raw(nil) }

// Nothing returns a raw property rejecting every JSON value.
func Nothing() *RawProperty { return Raw(js.TriviallyFail()) }

func (p *RawProperty) Named(name string) *RawProperty { p.explicit = name; return p }
func (p *RawProperty) Optional() *RawProperty        { p.optional = true; return p }
func (p *RawProperty) Check(fn jsonconf.SpecialValidation) *RawProperty {
	p.special = fn
	return p
}

func (p *RawProperty) Declaration() Declaration {
	d := p.declaration()
	raw, err := schemaAsRaw(p.schema)
	if err != nil {
		raw = map[string]any{}
	}
	d.Args = map[string]any{"schema": raw}
	return d
}
