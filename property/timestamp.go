package property

import (
	"fmt"
	"time"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// KindTimestamp declares a Timestamp property.
const KindTimestamp Kind = "timestamp"

// rfc3339Pattern mirrors what time.Parse accepts for RFC 3339, except that
// it cannot reject February 29 outside leap years.
const rfc3339Pattern = `^\d{4}-(?:(?:0[13578]|1[02])-(?:0[1-9]|[12]\d|3[01])|(?:0[469]|11)-(?:0[1-9]|[12]\d|30)|02-(?:0[1-9]|1\d|2\d))` +
	`T(?:[01]\d|2[0-3]):[0-5]\d:[0-5]\d(?:\.\d+)?(?:Z|[+-](?:[01]\d|2[0-3]):[0-5]\d)$`

// TimestampProperty stores time.Time values and serialises them as RFC 3339
// strings in UTC.
type TimestampProperty struct{ base }

// Timestamp returns a date-time property.
func Timestamp() *TimestampProperty {
	p := &TimestampProperty{}
	p.init(KindTimestamp, func() *js.Schema { return js.String(js.StringOpts{Pattern: rfc3339Pattern, Format: "date-time"}) })
	return p
}

func (p *TimestampProperty) Named(name string) *TimestampProperty { p.explicit = name; return p }
func (p *TimestampProperty) Optional() *TimestampProperty        { p.optional = true; return p }
func (p *TimestampProperty) Check(fn jsonconf.SpecialValidation) *TimestampProperty {
	p.special = fn
	return p
}

// ValidateValue accepts a time.Time or an RFC 3339 string.
func (p *TimestampProperty) ValidateValue(v any) (any, error) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("nil time"))
		}
		t = *x
	case string:
		var err error
		if t, err = parseRFC3339(x); err != nil {
			return nil, jsonconf.NewValidationError("", jsonconf.ErrSchemaViolation, fmt.Errorf("invalid RFC 3339 time: %w", err))
		}
	default:
		return nil, jsonconf.NewValidationError("", jsonconf.ErrInvalidType, fmt.Errorf("expected time or RFC 3339 string, got %T", v))
	}
	return reverse(p, &p.base, t.UTC())
}

func (p *TimestampProperty) ValueAsRawJSON(stored any) (any, error) {
	t, ok := stored.(time.Time)
	if !ok {
		return nil, jsonconf.NewValidationError(p.Name(), jsonconf.ErrInvalidType, fmt.Errorf("stored %T is not a time", stored))
	}
	return formatRFC3339(t), nil
}

func (p *TimestampProperty) ValueFromRawJSON(raw any) (any, error) {
	if err := p.validateRaw(raw); err != nil {
		return nil, err
	}
	return p.ValidateValue(raw)
}

func (p *TimestampProperty) Declaration() Declaration { return p.declaration() }

func parseRFC3339(s string) (time.Time, error) {
	// RFC3339Nano also accepts values without fractional seconds.
	return time.Parse(time.RFC3339Nano, s)
}

func formatRFC3339(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
