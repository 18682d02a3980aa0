package property_test

import (
	"testing"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/config"
	js "github.com/reoring/jsonconf/jsonschema"
	"github.com/reoring/jsonconf/property"
)

// Every property must accept exactly the raw JSON its reported schema accepts.
func TestIsValidRawJSON_AgreesWithSchema(t *testing.T) {
	point := config.Define("Point").
		Field("X", property.Number()).
		Field("Y", property.Number().Optional()).
		Strict().
		MustBuild()

	type sample struct {
		raw   any
		valid bool
	}
	cases := []struct {
		name    string
		p       property.Property
		samples []sample
	}{
		{
			name: "array",
			p:    property.Array(property.Number()).MinElements(1).MaxElements(3).Unique(),
			samples: []sample{
				{[]any{1.0}, true},
				{[]any{1.0, 2.0, 3.0}, true},
				{[]any{}, false},
				{[]any{1.0, 2.0, 3.0, 4.0}, false},
				{[]any{1.0, 1.0}, false},
				{[]any{1.0, "a"}, false},
				{"x", false},
			},
		},
		{
			name: "nested",
			p:    property.Nested(point),
			samples: []sample{
				{map[string]any{"X": 1.0}, true},
				{map[string]any{"X": 1.0, "Y": 2.0}, true},
				{map[string]any{"Y": 2.0}, false},
				{map[string]any{"X": "a"}, false},
				{map[string]any{"X": 1.0, "Z": 0.0}, false},
				{[]any{}, false},
				{"x", false},
			},
		},
		{
			name: "timestamp",
			p:    property.Timestamp(),
			samples: []sample{
				{"2024-03-01T00:30:00Z", true},
				{"2024-03-01T00:30:00.5+01:00", true},
				{"2024-02-29T23:59:59-23:59", true},
				{"2024-13-01T00:00:00Z", false},
				{"2024-02-30T00:00:00Z", false},
				{"2024-04-31T00:00:00Z", false},
				{"2024-03-01T24:00:00Z", false},
				{"2024-03-01 00:30:00Z", false},
				{"yesterday", false},
				{12.0, false},
				{nil, false},
			},
		},
		{
			name: "anyOf",
			p:    property.AnyOf(property.Number().Max(5), property.Number().Min(3)),
			samples: []sample{
				{1.0, true},
				{4.0, true},
				{10.0, true},
				{"a", false},
			},
		},
		{
			name: "allOf",
			p:    property.AllOf(property.Number().Min(0), property.Number().IntegerOnly()),
			samples: []sample{
				{3.0, true},
				{-1.0, false},
				{1.5, false},
				{"a", false},
			},
		},
		{
			name: "oneOf",
			p:    property.OneOf(property.Number().Max(5), property.Number().Min(3)),
			samples: []sample{
				{1.0, true},
				{10.0, true},
				{4.0, false},
				{true, false},
			},
		},
	}
	for _, tc := range cases {
		if err := tc.p.Err(); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		s, err := js.Clone(tc.p.JSONSchema())
		if err != nil {
			t.Fatalf("%s: clone schema: %v", tc.name, err)
		}
		schemaOnly := jsonconf.SchemaValidator("", s)
		for _, smp := range tc.samples {
			got := property.IsValidRawJSON(tc.p, smp.raw)
			bySchema := schemaOnly.IsValidRawJSON(smp.raw)
			if got != smp.valid || bySchema != smp.valid {
				t.Fatalf("%s %v: property=%v schema=%v want=%v", tc.name, smp.raw, got, bySchema, smp.valid)
			}
		}
	}
}
