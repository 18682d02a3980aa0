package jsonconf

import (
	"fmt"
	"sync"

	gjs "github.com/google/jsonschema-go/jsonschema"

	js "github.com/reoring/jsonconf/jsonschema"
)

// SpecialValidation checks raw JSON for constraints the schema vocabulary
// cannot express. It runs only after structural validation succeeded.
type SpecialValidation func(raw any) error

// Validated is implemented by anything that reports a JSON Schema and can
// validate raw JSON against it.
type Validated interface {
	JSONSchema() *js.Schema
	ValidateRawJSON(raw any) error
}

// Validator compiles a schema on first use and caches the result for the
// lifetime of its owner. The schema function is called at most once.
type Validator struct {
	owner   string
	schema  func() *js.Schema
	special SpecialValidation

	once     sync.Once
	built    *js.Schema
	resolved *gjs.Resolved
	err      error
}

// NewValidator returns a Validator for the schema produced by schema. owner
// names the property or type in error messages; special may be nil.
func NewValidator(owner string, schema func() *js.Schema, special SpecialValidation) *Validator {
	return &Validator{owner: owner, schema: schema, special: special}
}

// SchemaValidator is a Validator over a fixed schema.
func SchemaValidator(owner string, s *js.Schema) *Validator {
	return NewValidator(owner, func() *js.Schema { return s }, nil)
}

func (v *Validator) compile() {
	v.once.Do(func() {
		s := v.schema()
		if s == nil {
			s = js.TriviallySucceed()
		}
		v.built = s
		// resolve a private copy: the engine requires a tree, while composed
		// schemas may share sub-schema pointers
		tree, err := js.Clone(s)
		if err != nil {
			v.err = NewSchemaError(v.owner, ErrBadDeclaration, err)
			return
		}
		r, err := tree.Resolve(nil)
		if err != nil {
			v.err = NewSchemaError(v.owner, ErrBadDeclaration, fmt.Errorf("compile schema: %w", err))
			return
		}
		v.resolved = r
	})
}

// JSONSchema returns the (cached) schema.
func (v *Validator) JSONSchema() *js.Schema {
	v.compile()
	return v.built
}

// Err reports a schema compilation failure.
func (v *Validator) Err() error {
	v.compile()
	return v.err
}

// ValidateRawJSON runs structural validation followed by the special hook.
func (v *Validator) ValidateRawJSON(raw any) error {
	v.compile()
	if v.err != nil {
		return v.err
	}
	norm, err := Normalize(raw)
	if err != nil {
		return WithProperty(v.owner, err)
	}
	if err := v.resolved.Validate(norm); err != nil {
		return NewValidationError(v.owner, ErrSchemaViolation, err)
	}
	if v.special != nil {
		if err := v.special(norm); err != nil {
			return NewValidationError(v.owner, ErrSpecialViolation, err)
		}
	}
	return nil
}

// IsValidRawJSON is ValidateRawJSON reduced to a boolean.
func (v *Validator) IsValidRawJSON(raw any) bool { return v.ValidateRawJSON(raw) == nil }

// ValidateJSONString parses s and validates the result.
func (v *Validator) ValidateJSONString(s string) error {
	raw, err := ParseJSONString(s)
	if err != nil {
		return err
	}
	return v.ValidateRawJSON(raw)
}

// IsValidJSONString is ValidateJSONString reduced to a boolean.
func (v *Validator) IsValidJSONString(s string) bool { return v.ValidateJSONString(s) == nil }

// CloneJSONSchema returns a deep copy of the schema, safe to modify.
func (v *Validator) CloneJSONSchema() (*js.Schema, error) {
	return js.Clone(v.JSONSchema())
}
