package property

import (
	"errors"
	"fmt"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// Selection is the stored value of a union property: the index of the
// candidate that owns the value, and the value as that candidate stored it.
type Selection struct {
	Index int
	Value any
}

// policy picks the canonical candidate from the per-candidate results.
type policy func(accepted []bool) (int, error)

// OfProperty validates values against several candidate properties and
// stores the value of the one selected by its policy.
type OfProperty struct {
	base
	candidates []Property
	combine    js.Combinator
	pick       policy
}

func newOf(kind Kind, combine js.Combinator, pick policy, candidates []Property) *OfProperty {
	p := &OfProperty{candidates: candidates, combine: combine, pick: pick}
	if len(candidates) < 2 {
		p.fail(jsonconf.ErrTooFewCandidates, fmt.Errorf("got %d", len(candidates)))
	}
	for _, c := range candidates {
		p.child(c)
	}
	p.init(kind, func() *js.Schema {
		subs := make([]*js.Schema, len(p.candidates))
		for i, c := range p.candidates {
			subs[i] = c.JSONSchema()
		}
		return p.combine(subs...)
	})
	return p
}

// OneOf accepts values matched by exactly one candidate.
func OneOf(candidates ...Property) *OfProperty {
	return newOf(KindOneOf, js.OneOf, func(accepted []bool) (int, error) {
		idx, n := -1, 0
		for i, ok := range accepted {
			if ok {
				n++
				if idx < 0 {
					idx = i
				}
			}
		}
		switch n {
		case 0:
			return -1, jsonconf.ErrUnionNoMatch
		case 1:
			return idx, nil
		}
		return -1, jsonconf.ErrUnionAmbiguous
	}, candidates)
}

// AnyOf accepts values matched by at least one candidate; the first match in
// declaration order owns the value.
func AnyOf(candidates ...Property) *OfProperty {
	return newOf(KindAnyOf, js.AnyOf, func(accepted []bool) (int, error) {
		for i, ok := range accepted {
			if ok {
				return i, nil
			}
		}
		return -1, jsonconf.ErrUnionNoMatch
	}, candidates)
}

// AllOf accepts values matched by every candidate; the first candidate owns
// the value.
func AllOf(candidates ...Property) *OfProperty {
	return newOf(KindAllOf, js.AllOf, func(accepted []bool) (int, error) {
		for _, ok := range accepted {
			if !ok {
				return -1, jsonconf.ErrUnionNoMatch
			}
		}
		return 0, nil
	}, candidates)
}

func (p *OfProperty) Named(name string) *OfProperty { p.explicit = name; return p }
func (p *OfProperty) Optional() *OfProperty        { p.optional = true; return p }
func (p *OfProperty) Check(fn jsonconf.SpecialValidation) *OfProperty {
	p.special = fn
	return p
}

// Candidates returns the candidate properties in declaration order.
func (p *OfProperty) Candidates() []Property { return append([]Property(nil), p.candidates...) }

func (p *OfProperty) Err() error {
	if len(p.errs) > 0 {
		return errors.Join(p.errs...)
	}
	return p.base.Err()
}

func (p *OfProperty) deref(stored any) any {
	if sel, ok := stored.(*Selection); ok {
		return sel.Value
	}
	return stored
}

// trial runs try against every candidate. Candidate failures are collected
// as issues, never returned directly.
func (p *OfProperty) trial(try func(c Property) (any, error)) (*Selection, error) {
	accepted := make([]bool, len(p.candidates))
	values := make([]any, len(p.candidates))
	var iss jsonconf.Issues
	for i, c := range p.candidates {
		v, err := try(c)
		if err != nil {
			iss = jsonconf.AppendIssues(iss, candidateIssue(p.kind, i, err))
			continue
		}
		accepted[i], values[i] = true, v
	}
	idx, kind := p.pick(accepted)
	if kind != nil {
		var cause error
		if len(iss) > 0 {
			cause = iss
		}
		return nil, jsonconf.NewValidationError("", kind, cause)
	}
	return &Selection{Index: idx, Value: values[idx]}, nil
}

func candidateIssue(kind Kind, i int, err error) jsonconf.Issue {
	code := jsonconf.CodeSchema
	var ve *jsonconf.ValidationError
	if errors.As(err, &ve) {
		code = ve.Code
	}
	return jsonconf.Issue{Path: fmt.Sprintf("/%s/%d", kind, i), Code: code, Message: err.Error(), Cause: err}
}

func (p *OfProperty) ValidateValue(v any) (any, error) {
	if sel, ok := v.(*Selection); ok {
		v = sel.Value
	}
	sel, err := p.trial(func(c Property) (any, error) { return c.ValidateValue(v) })
	if err != nil {
		return nil, err
	}
	return reverse(p, &p.base, sel)
}

func (p *OfProperty) ValueAsRawJSON(stored any) (any, error) {
	sel, ok := stored.(*Selection)
	if !ok || sel.Index < 0 || sel.Index >= len(p.candidates) {
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected *Selection, got %T", stored))
	}
	return p.candidates[sel.Index].ValueAsRawJSON(sel.Value)
}

func (p *OfProperty) ValueFromRawJSON(raw any) (any, error) {
	sel, err := p.trial(func(c Property) (any, error) { return c.ValueFromRawJSON(raw) })
	if err != nil {
		return nil, err
	}
	if p.special != nil {
		if err := p.validateRaw(raw); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func (p *OfProperty) Declaration() Declaration {
	d := p.declaration()
	for _, c := range p.candidates {
		d.Elements = append(d.Elements, c.Declaration())
	}
	return d
}

// Selected returns the index of the candidate owning the current value of p
// in slots.
func Selected(p *OfProperty, slots Slots) (int, bool) {
	sel, ok := slots[p.Name()].(*Selection)
	if !ok {
		return -1, false
	}
	return sel.Index, true
}
