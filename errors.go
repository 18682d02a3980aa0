package jsonconf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/jsonconf/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType       = "invalid_type"
	CodeSchema            = "schema"
	CodeSpecial           = "special"
	CodeRequired          = "required"
	CodeNotOptional       = "not_optional"
	CodeRebind            = "rebind"
	CodeTooSmall          = "too_small"
	CodeTooBig            = "too_big"
	CodeUniqueness        = "uniqueness"
	CodeUnionNoMatch      = "union_no_match"
	CodeUnionAmbiguous    = "union_ambiguous"
	CodeUnknownKey        = "unknown_key"
	CodeDuplicateProperty = "duplicate_property"
	CodeDuplicateKey      = "duplicate_key"
	CodeBadDeclaration    = "bad_declaration"
	CodeParseError        = "parse_error"
	CodeIO                = "io"
)

// Kind sentinels. Every error produced by this module matches exactly one of
// these through errors.Is.
var (
	ErrNotOptional       = errors.New("jsonconf: cannot set non-optional property as absent")
	ErrNoValue           = errors.New("jsonconf: no value set for property")
	ErrRebind            = errors.New("jsonconf: property already bound to a different name")
	ErrTooFewCandidates  = errors.New("jsonconf: union properties require at least 2 sub-properties")
	ErrOptionalChild     = errors.New("jsonconf: sub-property cannot be optional")
	ErrDuplicateProperty = errors.New("jsonconf: duplicate property name")
	ErrBadDeclaration    = errors.New("jsonconf: invalid declaration")
	ErrSchemaViolation   = errors.New("jsonconf: value failed schema validation")
	ErrSpecialViolation  = errors.New("jsonconf: value failed special validation")
	ErrInvalidType       = errors.New("jsonconf: value is not raw JSON")
	ErrUnionNoMatch      = errors.New("jsonconf: value matched no sub-property")
	ErrUnionAmbiguous    = errors.New("jsonconf: value matched more than one sub-property")
	ErrTooManyElements   = errors.New("jsonconf: array already at maximum size")
	ErrTooFewElements    = errors.New("jsonconf: array already at minimum size")
	ErrNotUnique         = errors.New("jsonconf: array elements must be unique")
	ErrUnknownProperty   = errors.New("jsonconf: unknown property")
	ErrSerialise         = errors.New("jsonconf: serialisation failed")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. schema at /1
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Cause != nil {
			fmt.Fprintf(b, " (%v)", it.Cause)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// SchemaError reports a malformed or self-contradictory declaration. It is
// raised while a property or configuration type is being defined.
type SchemaError struct {
	Subject string // property or type name, when known
	Code    string
	Kind    error
	Cause   error
}

func (e *SchemaError) Error() string {
	return formatError("schema error", e.Subject, e.Code, e.Kind, e.Cause)
}

func (e *SchemaError) Unwrap() []error { return joinCauses(e.Kind, e.Cause) }

// ValidationError reports a value that failed its schema or special check.
// Property names the failing property ("" for whole-type checks).
type ValidationError struct {
	Property string
	Code     string
	Kind     error
	Cause    error
}

func (e *ValidationError) Error() string {
	return formatError("validation error", e.Property, e.Code, e.Kind, e.Cause)
}

func (e *ValidationError) Unwrap() []error { return joinCauses(e.Kind, e.Cause) }

// SerialiseError wraps an encoding or I/O failure. Path is the file involved,
// if any.
type SerialiseError struct {
	Op    string
	Path  string
	Cause error
}

func (e *SerialiseError) Error() string {
	b := &strings.Builder{}
	b.WriteString("serialise error: ")
	b.WriteString(e.Op)
	if e.Path != "" {
		fmt.Fprintf(b, " '%s'", e.Path)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *SerialiseError) Unwrap() []error { return joinCauses(ErrSerialise, e.Cause) }

// NewSchemaError builds a SchemaError whose code is derived from kind.
func NewSchemaError(subject string, kind, cause error) *SchemaError {
	return &SchemaError{Subject: subject, Code: codeOf(kind), Kind: kind, Cause: cause}
}

// NewValidationError builds a ValidationError whose code is derived from kind.
func NewValidationError(property string, kind, cause error) *ValidationError {
	return &ValidationError{Property: property, Code: codeOf(kind), Kind: kind, Cause: cause}
}

// WithProperty returns err re-labelled with the given property name when it is
// a ValidationError that does not name one yet. Other errors are wrapped.
func WithProperty(property string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Property == "" {
			cp := *ve
			cp.Property = property
			return &cp
		}
		if ve.Property == property {
			return err
		}
		return &ValidationError{Property: property, Code: ve.Code, Kind: ve.Kind, Cause: err}
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return err
	}
	return &ValidationError{Property: property, Code: CodeSchema, Kind: ErrSchemaViolation, Cause: err}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSchemaError reports whether err carries a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

var kindCodes = map[error]string{
	ErrNotOptional:       CodeNotOptional,
	ErrNoValue:           CodeRequired,
	ErrRebind:            CodeRebind,
	ErrTooFewCandidates:  CodeBadDeclaration,
	ErrOptionalChild:     CodeBadDeclaration,
	ErrDuplicateProperty: CodeDuplicateProperty,
	ErrBadDeclaration:    CodeBadDeclaration,
	ErrSchemaViolation:   CodeSchema,
	ErrSpecialViolation:  CodeSpecial,
	ErrInvalidType:       CodeInvalidType,
	ErrUnionNoMatch:      CodeUnionNoMatch,
	ErrUnionAmbiguous:    CodeUnionAmbiguous,
	ErrTooManyElements:   CodeTooBig,
	ErrTooFewElements:    CodeTooSmall,
	ErrNotUnique:         CodeUniqueness,
	ErrUnknownProperty:   CodeUnknownKey,
	ErrSerialise:         CodeIO,
}

func codeOf(kind error) string {
	if c, ok := kindCodes[kind]; ok {
		return c
	}
	return CodeSchema
}

func formatError(prefix, subject, code string, kind, cause error) string {
	b := &strings.Builder{}
	b.WriteString(prefix)
	if subject != "" {
		fmt.Fprintf(b, " in '%s'", subject)
	}
	b.WriteString(": ")
	b.WriteString(i18n.T(code, nil))
	if cause != nil {
		b.WriteString(": ")
		b.WriteString(cause.Error())
	}
	return b.String()
}

func joinCauses(kind, cause error) []error {
	out := make([]error, 0, 2)
	if kind != nil {
		out = append(out, kind)
	}
	if cause != nil {
		out = append(out, cause)
	}
	return out
}
