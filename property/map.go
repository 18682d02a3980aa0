package property

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// MapProperty stores a *MapProxy: a JSON object with arbitrary keys whose
// values are validated by a single value property.
type MapProperty struct {
	base
	value Property
}

// Map returns a map property over value.
func Map(value Property) *MapProperty {
	p := &MapProperty{value: value}
	p.child(value)
	p.init(KindMap, func() *js.Schema {
		return js.StandardObject(nil, nil, p.value.JSONSchema())
	})
	return p
}

func (p *MapProperty) Named(name string) *MapProperty { p.explicit = name; return p }
func (p *MapProperty) Optional() *MapProperty        { p.optional = true; return p }
func (p *MapProperty) Check(fn jsonconf.SpecialValidation) *MapProperty {
	p.special = fn
	return p
}

// Value returns the value property.
func (p *MapProperty) Value() Property { return p.value }

func (p *MapProperty) Err() error {
	if p.value == nil {
		return errors.Join(p.errs...)
	}
	return p.base.Err()
}

// NewProxy returns an empty proxy bound to p.
func (p *MapProperty) NewProxy() *MapProxy { return &MapProxy{prop: p, items: map[string]any{}} }

// ValidateValue accepts a *MapProxy or any Go map with string keys.
func (p *MapProperty) ValidateValue(v any) (any, error) {
	var in map[string]any
	switch t := v.(type) {
	case *MapProxy:
		if t.prop == p {
			return reverse(p, &p.base, t)
		}
		in = make(map[string]any, t.Len())
		for k, s := range t.items {
			in[k] = t.value(s)
		}
	case map[string]any:
		in = t
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected object, got %T", v))
		}
		in = make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			in[it.Key().String()] = it.Value().Interface()
		}
	}
	px := p.NewProxy()
	for _, k := range jsonconf.SortedKeys(in) {
		stored, err := p.value.ValidateValue(in[k])
		if err != nil {
			return nil, jsonconf.WithProperty(k, err)
		}
		px.items[k] = stored
	}
	return reverse(p, &p.base, px)
}

func (p *MapProperty) ValueAsRawJSON(stored any) (any, error) {
	px, ok := stored.(*MapProxy)
	if !ok {
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected *MapProxy, got %T", stored))
	}
	return px.ToRawJSON()
}

func (p *MapProperty) ValueFromRawJSON(raw any) (any, error) {
	norm, err := jsonconf.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validateRaw(norm); err != nil {
		return nil, err
	}
	in := norm.(map[string]any)
	px := p.NewProxy()
	for _, k := range jsonconf.SortedKeys(in) {
		stored, err := p.value.ValueFromRawJSON(in[k])
		if err != nil {
			return nil, jsonconf.WithProperty(k, err)
		}
		px.items[k] = stored
	}
	return px, nil
}

func (p *MapProperty) Declaration() Declaration {
	d := p.declaration()
	if p.value != nil {
		d.Elements = []Declaration{p.value.Declaration()}
	}
	return d
}

// MapProxy is a keyed association whose values are validated by the value
// property of the owning MapProperty.
type MapProxy struct {
	prop  *MapProperty
	items map[string]any
}

// Property returns the owning property.
func (m *MapProxy) Property() *MapProperty { return m.prop }

func (m *MapProxy) Len() int { return len(m.items) }

func (m *MapProxy) value(stored any) any {
	if d, ok := m.prop.value.(dereferencer); ok {
		return d.deref(stored)
	}
	return stored
}

// Get returns the value for key or ErrNotFound.
func (m *MapProxy) Get(key string) (any, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return nil, jsonconf.NewValidationError(key, ErrNotFound, nil)
	}
	return v, nil
}

// Lookup returns the value for key and whether it is present.
func (m *MapProxy) Lookup(key string) (any, bool) {
	s, ok := m.items[key]
	if !ok {
		return nil, false
	}
	return m.value(s), true
}

func (m *MapProxy) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// commit validates items against the owning property as a whole, including
// its special check, and only then replaces the entries.
func (m *MapProxy) commit(items map[string]any) error {
	raw, err := (&MapProxy{prop: m.prop, items: items}).ToRawJSON()
	if err != nil {
		return err
	}
	if err := m.prop.validateRaw(raw); err != nil {
		return jsonconf.WithProperty(m.prop.Name(), err)
	}
	m.items = items
	return nil
}

func (m *MapProxy) cloneItems() map[string]any {
	out := make(map[string]any, len(m.items)+1)
	for k, s := range m.items {
		out[k] = s
	}
	return out
}

// Set validates v and stores it under key.
func (m *MapProxy) Set(key string, v any) error {
	stored, err := m.prop.value.ValidateValue(v)
	if err != nil {
		return jsonconf.WithProperty(key, err)
	}
	items := m.cloneItems()
	items[key] = stored
	return m.commit(items)
}

// Delete removes key and reports whether it was present.
func (m *MapProxy) Delete(key string) (bool, error) {
	if _, ok := m.items[key]; !ok {
		return false, nil
	}
	items := m.cloneItems()
	delete(items, key)
	if err := m.commit(items); err != nil {
		return false, err
	}
	return true, nil
}

// Pop removes key and returns its value, or ErrNotFound.
func (m *MapProxy) Pop(key string) (any, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	if _, err := m.Delete(key); err != nil {
		return nil, err
	}
	return v, nil
}

// SetDefault returns the value for key, storing v first if key is missing.
func (m *MapProxy) SetDefault(key string, v any) (any, error) {
	if cur, ok := m.Lookup(key); ok {
		return cur, nil
	}
	if err := m.Set(key, v); err != nil {
		return nil, err
	}
	cur, _ := m.Lookup(key)
	return cur, nil
}

// Update stores every entry of values, or none of them.
func (m *MapProxy) Update(values map[string]any) error {
	items := m.cloneItems()
	for _, k := range jsonconf.SortedKeys(values) {
		stored, err := m.prop.value.ValidateValue(values[k])
		if err != nil {
			return jsonconf.WithProperty(k, err)
		}
		items[k] = stored
	}
	return m.commit(items)
}

// Clear removes every entry.
func (m *MapProxy) Clear() error { return m.commit(map[string]any{}) }

// Keys returns the keys in ascending order.
func (m *MapProxy) Keys() []string { return jsonconf.SortedKeys(m.items) }

// Values returns the values in key order.
func (m *MapProxy) Values() []any {
	keys := m.Keys()
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = m.value(m.items[k])
	}
	return out
}

// ToRawJSON converts every value through the value property.
func (m *MapProxy) ToRawJSON() (any, error) {
	out := make(map[string]any, len(m.items))
	for k, s := range m.items {
		raw, err := m.prop.value.ValueAsRawJSON(s)
		if err != nil {
			return nil, jsonconf.WithProperty(k, err)
		}
		out[k] = raw
	}
	return out, nil
}

func (m *MapProxy) JSONSchema() *js.Schema { return m.prop.JSONSchema() }

// ValidateRawJSON validates raw against the owning property.
func (m *MapProxy) ValidateRawJSON(raw any) error { return ValidateRawJSON(m.prop, raw) }
