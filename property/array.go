package property

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

var (
	// ErrIndexOutOfRange is returned by proxy operations given a bad index.
	ErrIndexOutOfRange = errors.New("property: index out of range")
	// ErrNotFound is returned when a value or key is not in a proxy.
	ErrNotFound = errors.New("property: not found")
)

// ArrayProperty stores an *ArrayProxy whose elements are validated by a
// single element property.
type ArrayProperty struct {
	base
	elem     Property
	min, max *int
	unique   bool
}

// Array returns an array property over elem. The array takes the element's
// explicit name unless Named is called.
func Array(elem Property) *ArrayProperty {
	p := &ArrayProperty{elem: elem}
	p.child(elem)
	if elem != nil {
		p.explicit = elem.Name()
	}
	p.init(KindArray, func() *js.Schema {
		return js.RegularArray(p.elem.JSONSchema(), p.min, p.max, p.unique)
	})
	return p
}

func (p *ArrayProperty) Named(name string) *ArrayProperty { p.explicit = name; return p }
func (p *ArrayProperty) Optional() *ArrayProperty        { p.optional = true; return p }
func (p *ArrayProperty) Check(fn jsonconf.SpecialValidation) *ArrayProperty {
	p.special = fn
	return p
}

// MinElements sets the minimum number of elements.
func (p *ArrayProperty) MinElements(n int) *ArrayProperty {
	p.min = &n
	p.checkCounts()
	return p
}

// MaxElements sets the maximum number of elements.
func (p *ArrayProperty) MaxElements(n int) *ArrayProperty {
	p.max = &n
	p.checkCounts()
	return p
}

// Unique requires elements to be pairwise distinct as raw JSON.
func (p *ArrayProperty) Unique() *ArrayProperty { p.unique = true; return p }

func (p *ArrayProperty) checkCounts() {
	switch {
	case p.min != nil && *p.min < 0:
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("negative minElements %d", *p.min))
	case p.max != nil && *p.max < 0:
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("negative maxElements %d", *p.max))
	case p.min != nil && p.max != nil && *p.min > *p.max:
		p.fail(jsonconf.ErrBadDeclaration, fmt.Errorf("minElements %d exceeds maxElements %d", *p.min, *p.max))
	}
}

// Element returns the element property.
func (p *ArrayProperty) Element() Property { return p.elem }

func (p *ArrayProperty) Err() error {
	if p.elem == nil {
		return errors.Join(p.errs...)
	}
	return p.base.Err()
}

// NewProxy returns an empty proxy bound to p. It does not check
// MinElements.
func (p *ArrayProperty) NewProxy() *ArrayProxy { return &ArrayProxy{prop: p} }

// ValidateValue accepts an *ArrayProxy, a []any or any Go slice or array.
// A proxy of p itself is stored as is; anything else is copied into a fresh
// proxy.
func (p *ArrayProperty) ValidateValue(v any) (any, error) {
	var in []any
	switch t := v.(type) {
	case *ArrayProxy:
		if t.prop == p {
			return reverse(p, &p.base, t)
		}
		in = t.Values()
	case []any:
		in = t
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected array, got %T", v))
		}
		in = make([]any, rv.Len())
		for i := range in {
			in[i] = rv.Index(i).Interface()
		}
	}
	px := p.NewProxy()
	px.items = make([]any, 0, len(in))
	for i, e := range in {
		stored, err := p.elem.ValidateValue(e)
		if err != nil {
			return nil, elementError(i, err)
		}
		px.items = append(px.items, stored)
	}
	return reverse(p, &p.base, px)
}

func (p *ArrayProperty) ValueAsRawJSON(stored any) (any, error) {
	px, ok := stored.(*ArrayProxy)
	if !ok {
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected *ArrayProxy, got %T", stored))
	}
	return px.ToRawJSON()
}

func (p *ArrayProperty) ValueFromRawJSON(raw any) (any, error) {
	norm, err := jsonconf.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validateRaw(norm); err != nil {
		return nil, err
	}
	in := norm.([]any)
	px := p.NewProxy()
	px.items = make([]any, 0, len(in))
	for i, e := range in {
		stored, err := p.elem.ValueFromRawJSON(e)
		if err != nil {
			return nil, elementError(i, err)
		}
		px.items = append(px.items, stored)
	}
	return px, nil
}

func (p *ArrayProperty) Declaration() Declaration {
	d := p.declaration()
	if p.elem != nil && d.Name == p.elem.Name() {
		d.Name = ""
	}
	args := map[string]any{}
	if p.min != nil {
		args["minElements"] = *p.min
	}
	if p.max != nil {
		args["maxElements"] = *p.max
	}
	if p.unique {
		args["unique"] = true
	}
	if len(args) > 0 {
		d.Args = args
	}
	if p.elem != nil {
		d.Elements = []Declaration{p.elem.Declaration()}
	}
	return d
}

func elementError(at any, err error) error {
	return jsonconf.WithProperty(fmt.Sprintf("[%v]", at), err)
}

// ArrayProxy is an ordered sequence whose elements are validated by the
// element property of the owning ArrayProperty. Length and uniqueness
// constraints are enforced on every mutation. A failed mutation leaves the
// proxy unchanged.
type ArrayProxy struct {
	prop  *ArrayProperty
	items []any
}

// Property returns the owning property.
func (a *ArrayProxy) Property() *ArrayProperty { return a.prop }

func (a *ArrayProxy) Len() int { return len(a.items) }

func (a *ArrayProxy) value(stored any) any {
	if d, ok := a.prop.elem.(dereferencer); ok {
		return d.deref(stored)
	}
	return stored
}

// At returns the element at i. It panics if i is out of range.
func (a *ArrayProxy) At(i int) any { return a.value(a.items[i]) }

// Values returns the elements in order.
func (a *ArrayProxy) Values() []any {
	out := make([]any, len(a.items))
	for i, s := range a.items {
		out[i] = a.value(s)
	}
	return out
}

func (a *ArrayProxy) rawAt(i int) (any, error) { return a.prop.elem.ValueAsRawJSON(a.items[i]) }

// indexOfRaw returns the index of the first element equal to raw, skipping
// index skip.
func (a *ArrayProxy) indexOfRaw(raw any, skip int) int {
	for i := range a.items {
		if i == skip {
			continue
		}
		r, err := a.rawAt(i)
		if err == nil && jsonconf.EqualRawJSON(r, raw) {
			return i
		}
	}
	return -1
}

func (a *ArrayProxy) fail(kind error, format string, args ...any) error {
	return jsonconf.NewValidationError(a.prop.Name(), kind, fmt.Errorf(format, args...))
}

// admit validates v through the element property and checks uniqueness
// against the current elements other than skip.
func (a *ArrayProxy) admit(v any, skip int) (any, error) {
	stored, err := a.prop.elem.ValidateValue(v)
	if err != nil {
		return nil, jsonconf.WithProperty(a.prop.Name(), err)
	}
	if a.prop.unique {
		raw, err := a.prop.elem.ValueAsRawJSON(stored)
		if err != nil {
			return nil, jsonconf.WithProperty(a.prop.Name(), err)
		}
		if j := a.indexOfRaw(raw, skip); j >= 0 {
			return nil, a.fail(jsonconf.ErrNotUnique, "duplicate of element %d", j)
		}
	}
	return stored, nil
}

func (a *ArrayProxy) canGrow(n int) error {
	if a.prop.max != nil && len(a.items)+n > *a.prop.max {
		return a.fail(jsonconf.ErrTooManyElements, "maximum is %d", *a.prop.max)
	}
	return nil
}

func (a *ArrayProxy) canShrink(n int) error {
	if a.prop.min != nil && len(a.items)-n < *a.prop.min {
		return a.fail(jsonconf.ErrTooFewElements, "minimum is %d", *a.prop.min)
	}
	return nil
}

// commit validates items against the owning property as a whole, including
// its special check, and only then replaces the elements.
func (a *ArrayProxy) commit(items []any) error {
	raw, err := (&ArrayProxy{prop: a.prop, items: items}).ToRawJSON()
	if err != nil {
		return err
	}
	if err := a.prop.validateRaw(raw); err != nil {
		return jsonconf.WithProperty(a.prop.Name(), err)
	}
	a.items = items
	return nil
}

func (a *ArrayProxy) cloneItems(extra int) []any {
	return append(make([]any, 0, len(a.items)+extra), a.items...)
}

// Append adds v at the end.
func (a *ArrayProxy) Append(v any) error {
	if err := a.canGrow(1); err != nil {
		return err
	}
	stored, err := a.admit(v, -1)
	if err != nil {
		return err
	}
	return a.commit(append(a.cloneItems(1), stored))
}

// Extend appends every value in vs, or none of them.
func (a *ArrayProxy) Extend(vs ...any) error {
	if err := a.canGrow(len(vs)); err != nil {
		return err
	}
	tmp := &ArrayProxy{prop: a.prop, items: a.cloneItems(len(vs))}
	for _, v := range vs {
		stored, err := tmp.admit(v, -1)
		if err != nil {
			return err
		}
		tmp.items = append(tmp.items, stored)
	}
	return a.commit(tmp.items)
}

// Insert places v before index i (0 <= i <= Len).
func (a *ArrayProxy) Insert(i int, v any) error {
	if i < 0 || i > len(a.items) {
		return a.fail(ErrIndexOutOfRange, "index %d, length %d", i, len(a.items))
	}
	if err := a.canGrow(1); err != nil {
		return err
	}
	stored, err := a.admit(v, -1)
	if err != nil {
		return err
	}
	items := append(a.cloneItems(1), nil)
	copy(items[i+1:], items[i:])
	items[i] = stored
	return a.commit(items)
}

// SetAt replaces the element at i.
func (a *ArrayProxy) SetAt(i int, v any) error {
	if i < 0 || i >= len(a.items) {
		return a.fail(ErrIndexOutOfRange, "index %d, length %d", i, len(a.items))
	}
	stored, err := a.admit(v, i)
	if err != nil {
		return err
	}
	items := a.cloneItems(0)
	items[i] = stored
	return a.commit(items)
}

// Pop removes and returns the last element.
func (a *ArrayProxy) Pop() (any, error) { return a.PopAt(len(a.items) - 1) }

// PopAt removes and returns the element at i.
func (a *ArrayProxy) PopAt(i int) (any, error) {
	if i < 0 || i >= len(a.items) {
		return nil, a.fail(ErrIndexOutOfRange, "index %d, length %d", i, len(a.items))
	}
	if err := a.canShrink(1); err != nil {
		return nil, err
	}
	v := a.value(a.items[i])
	items := append(a.cloneItems(0)[:i], a.items[i+1:]...)
	if err := a.commit(items); err != nil {
		return nil, err
	}
	return v, nil
}

// Remove deletes the first element equal to v as raw JSON.
func (a *ArrayProxy) Remove(v any) error {
	i := a.Index(v)
	if i < 0 {
		return a.fail(ErrNotFound, "value not in array")
	}
	_, err := a.PopAt(i)
	return err
}

// Clear removes every element.
func (a *ArrayProxy) Clear() error {
	if err := a.canShrink(len(a.items)); err != nil {
		return err
	}
	return a.commit([]any{})
}

// Index returns the position of the first element equal to v, or -1.
func (a *ArrayProxy) Index(v any) int {
	stored, err := a.prop.elem.ValidateValue(v)
	if err != nil {
		return -1
	}
	raw, err := a.prop.elem.ValueAsRawJSON(stored)
	if err != nil {
		return -1
	}
	return a.indexOfRaw(raw, -1)
}

func (a *ArrayProxy) Contains(v any) bool { return a.Index(v) >= 0 }

// Reverse reverses the order of the elements.
func (a *ArrayProxy) Reverse() error {
	items := a.cloneItems(0)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return a.commit(items)
}

// Sort orders the elements with less, which receives element values.
func (a *ArrayProxy) Sort(less func(x, y any) bool) error {
	items := a.cloneItems(0)
	sort.SliceStable(items, func(i, j int) bool {
		return less(a.value(items[i]), a.value(items[j]))
	})
	return a.commit(items)
}

// ToRawJSON converts every element through the element property.
func (a *ArrayProxy) ToRawJSON() (any, error) {
	out := make([]any, len(a.items))
	for i := range a.items {
		raw, err := a.rawAt(i)
		if err != nil {
			return nil, elementError(i, err)
		}
		out[i] = raw
	}
	return out, nil
}

func (a *ArrayProxy) JSONSchema() *js.Schema { return a.prop.JSONSchema() }

// ValidateRawJSON validates raw against the owning property.
func (a *ArrayProxy) ValidateRawJSON(raw any) error { return ValidateRawJSON(a.prop, raw) }
