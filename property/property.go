package property

import (
	"errors"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// Property is a typed, named field declaration. A property is shared by every
// instance of the type that declares it; the values live in Slots owned by
// each instance.
//
// Builder methods (Named, Optional, Min, ...) must be called before the
// property is first used: the schema is derived once and then frozen.
type Property interface {
	// Name is the explicit name, or the name bound from the declaring field.
	Name() string
	IsOptional() bool
	// BindName binds the inferred name. It is a no-op when the property has
	// an explicit name or is already bound to name, and fails with
	// ErrRebind otherwise.
	BindName(name string) error
	JSONSchema() *js.Schema
	// ValidateValue validates v and returns the value to store, which may
	// differ from v (proxies, selections).
	ValidateValue(v any) (any, error)
	// ValueAsRawJSON converts a stored value to raw JSON.
	ValueAsRawJSON(stored any) (any, error)
	// ValueFromRawJSON validates raw JSON and returns the value to store.
	ValueFromRawJSON(raw any) (any, error)
	Declaration() Declaration
	// Err reports construction mistakes recorded by builder methods and
	// schema compilation failures.
	Err() error
}

// NameFor returns the name p would have after BindName(field) without binding
// it, or the ErrRebind error BindName would return.
func NameFor(p Property, field string) (string, error) {
	if n, ok := p.(interface{ nameFor(string) (string, error) }); ok {
		return n.nameFor(field)
	}
	if name := p.Name(); name != "" && name != field {
		return name, nil
	}
	return field, nil
}

// Slots is per-instance value storage keyed by property name.
type Slots map[string]any

// dereferencer is implemented by properties whose stored value wraps the
// value callers see.
type dereferencer interface {
	deref(stored any) any
}

// Get returns the current value of p in slots, Absent for an unset optional
// property, or ErrNoValue for an unset required one.
func Get(p Property, slots Slots) (any, error) {
	v, ok := slots[p.Name()]
	if !ok {
		if p.IsOptional() {
			return jsonconf.Absent, nil
		}
		return nil, jsonconf.NewValidationError(p.Name(), jsonconf.ErrNoValue, nil)
	}
	if d, ok := p.(dereferencer); ok {
		return d.deref(v), nil
	}
	return v, nil
}

// Stored returns the raw stored value of p, without dereferencing.
func Stored(p Property, slots Slots) (any, bool) {
	v, ok := slots[p.Name()]
	return v, ok
}

// Set validates v and stores the resulting value. Absent clears an optional
// property. Nothing is stored when validation fails.
func Set(p Property, slots Slots, v any) error {
	if jsonconf.IsAbsent(v) {
		if !p.IsOptional() {
			return jsonconf.NewValidationError(p.Name(), jsonconf.ErrNotOptional, nil)
		}
		delete(slots, p.Name())
		return nil
	}
	stored, err := p.ValidateValue(v)
	if err != nil {
		return jsonconf.WithProperty(p.Name(), err)
	}
	slots[p.Name()] = stored
	return nil
}

// GetAsRawJSON returns the raw JSON form of the current value. Absent passes
// through.
func GetAsRawJSON(p Property, slots Slots) (any, error) {
	v, ok := slots[p.Name()]
	if !ok {
		if p.IsOptional() {
			return jsonconf.Absent, nil
		}
		return nil, jsonconf.NewValidationError(p.Name(), jsonconf.ErrNoValue, nil)
	}
	raw, err := p.ValueAsRawJSON(v)
	if err != nil {
		return nil, jsonconf.WithProperty(p.Name(), err)
	}
	return raw, nil
}

// SetFromRawJSON validates raw JSON and stores the resulting value.
func SetFromRawJSON(p Property, slots Slots, raw any) error {
	if jsonconf.IsAbsent(raw) {
		return Set(p, slots, raw)
	}
	stored, err := p.ValueFromRawJSON(raw)
	if err != nil {
		return jsonconf.WithProperty(p.Name(), err)
	}
	slots[p.Name()] = stored
	return nil
}

// ValidateRawJSON validates raw against the schema of p.
func ValidateRawJSON(p Property, raw any) error {
	_, err := p.ValueFromRawJSON(raw)
	return err
}

// IsValidRawJSON is ValidateRawJSON reduced to a boolean.
func IsValidRawJSON(p Property, raw any) bool { return ValidateRawJSON(p, raw) == nil }

// ---- shared state ----

type base struct {
	kind     Kind
	explicit string
	bound    string
	optional bool
	special  jsonconf.SpecialValidation
	errs     []error
	v        *jsonconf.Validator
}

func (b *base) init(kind Kind, schema func() *js.Schema) {
	b.kind = kind
	b.v = jsonconf.NewValidator("", schema, func(raw any) error {
		if b.special == nil {
			return nil
		}
		return b.special(raw)
	})
}

func (b *base) Name() string {
	if b.explicit != "" {
		return b.explicit
	}
	return b.bound
}

func (b *base) IsOptional() bool { return b.optional }

func (b *base) BindName(name string) error {
	n, err := b.nameFor(name)
	if err != nil {
		return err
	}
	if b.explicit == "" {
		b.bound = n
	}
	return nil
}

func (b *base) nameFor(name string) (string, error) {
	if b.explicit != "" {
		return b.explicit, nil
	}
	if b.bound != "" && b.bound != name {
		return "", jsonconf.NewSchemaError(b.bound, jsonconf.ErrRebind, errors.New("cannot rebind to '"+name+"'"))
	}
	return name, nil
}

func (b *base) JSONSchema() *js.Schema { return b.v.JSONSchema() }

func (b *base) Err() error {
	errs := append([]error(nil), b.errs...)
	if err := b.v.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *base) fail(kind, cause error) {
	b.errs = append(b.errs, jsonconf.NewSchemaError(b.Name(), kind, cause))
}

// child records an error when a sub-property is unusable inside a container.
func (b *base) child(p Property) {
	if p == nil {
		b.fail(jsonconf.ErrBadDeclaration, errors.New("nil sub-property"))
		return
	}
	if p.IsOptional() {
		b.fail(jsonconf.ErrOptionalChild, errors.New("sub-property '"+p.Name()+"' is optional"))
	}
	if err := p.Err(); err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *base) validateRaw(raw any) error { return b.v.ValidateRawJSON(raw) }

func (b *base) declaration() Declaration {
	return Declaration{Kind: b.kind, Name: b.explicit, Optional: b.optional}
}

// reverse checks that stored converts back to raw JSON accepted by the
// property's own schema.
func reverse(p Property, b *base, stored any) (any, error) {
	raw, err := p.ValueAsRawJSON(stored)
	if err != nil {
		return nil, err
	}
	if err := b.validateRaw(raw); err != nil {
		return nil, err
	}
	return stored, nil
}
