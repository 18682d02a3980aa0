package config_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/config"
	"github.com/reoring/jsonconf/property"
)

func serverType(tb testing.TB) *config.Type {
	tb.Helper()
	st, err := config.Define("Server").
		Field("Host", property.String().Named("host").MinLength(1)).
		Field("Port", property.Number().Named("port").IntegerOnly().Min(1).Max(65535)).
		Field("Tags", property.Array(property.String()).Named("tags").Unique().Optional()).
		Field("Mode", property.OneOf(property.Constant("auto"), property.Number().Min(0)).Named("mode").Optional()).
		Build()
	if err != nil {
		tb.Fatalf("build: %v", err)
	}
	return st
}

func TestConfiguration_RoundTrip(t *testing.T) {
	st := serverType(t)
	c, err := st.New(map[string]any{"Host": "localhost", "port": 8080, "Tags": []string{"a", "b"}, "Mode": "auto"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	raw, err := c.ToRawJSON()
	if err != nil {
		t.Fatalf("to raw: %v", err)
	}
	want := map[string]any{"host": "localhost", "port": 8080, "tags": []any{"a", "b"}, "mode": "auto"}
	if !jsonconf.EqualRawJSON(raw, want) {
		t.Fatalf("got=%v want=%v", raw, want)
	}

	back, err := st.FromRawJSON(raw)
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	for _, name := range []string{"Host", "Port", "Mode"} {
		if a, b := c.MustGet(name), back.MustGet(name); a != b {
			t.Fatalf("%s: %v != %v", name, a, b)
		}
	}
	tags := back.MustGet("Tags").(*property.ArrayProxy)
	if !jsonconf.EqualRawJSON(tags.Values(), []any{"a", "b"}) {
		t.Fatalf("tags: %v", tags.Values())
	}
}

func TestConfiguration_OptionalOmitted(t *testing.T) {
	st := serverType(t)
	c, err := st.FromJSONString(`{"host":"h","port":1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v := c.MustGet("Tags"); !jsonconf.IsAbsent(v) {
		t.Fatalf("missing optional key reads Absent, got %v", v)
	}
	if c.Has("Tags") {
		t.Fatalf("Has should be false for absent values")
	}
	if err := c.Set("Tags", []string{"x"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("Tags", jsonconf.Absent); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, _ := c.ToJSONString()
	if strings.Contains(s, "tags") {
		t.Fatalf("absent optional must be omitted: %s", s)
	}
	if err := c.Set("Host", jsonconf.Absent); !errors.Is(err, jsonconf.ErrNotOptional) {
		t.Fatalf("expected ErrNotOptional, got %v", err)
	}
}

func TestConfiguration_RequiredMissing(t *testing.T) {
	st := serverType(t)
	if _, err := st.New(map[string]any{"Host": "h"}); !errors.Is(err, jsonconf.ErrNoValue) {
		t.Fatalf("expected ErrNoValue, got %v", err)
	}
	_, err := st.FromJSONString(`{"host":"h"}`)
	if !errors.Is(err, jsonconf.ErrSchemaViolation) {
		t.Fatalf("schema requires port, got %v", err)
	}
}

func TestConfiguration_AdditionalProperties(t *testing.T) {
	st := serverType(t)
	c, err := st.New(map[string]any{"Host": "h", "Port": 1, "foo": "bar"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if v, err := c.Get("foo"); err != nil || v != "bar" {
		t.Fatalf("overflow read: %v %v", v, err)
	}
	raw, _ := c.ToRawJSON()
	if raw.(map[string]any)["foo"] != "bar" {
		t.Fatalf("overflow must be serialised: %v", raw)
	}
	if err := c.Set("foo", jsonconf.Absent); err != nil || c.Has("foo") {
		t.Fatalf("setting Absent deletes overflow keys")
	}
	if _, err := c.Get("foo"); !errors.Is(err, jsonconf.ErrUnknownProperty) {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestConfiguration_TypedAdditionalProperties(t *testing.T) {
	st := config.Define("Limits").
		Field("Name", property.String()).
		AdditionalProperties(property.Number().Min(0)).
		MustBuild()
	if _, err := st.FromJSONString(`{"Name":"x","cpu":2}`); err != nil {
		t.Fatalf("numeric overflow accepted: %v", err)
	}
	if _, err := st.FromJSONString(`{"Name":"x","cpu":"two"}`); err == nil {
		t.Fatalf("non-numeric overflow must fail")
	}
	c := st.MustNew(map[string]any{"Name": "x"})
	if err := c.Set("mem", -1); !errors.Is(err, jsonconf.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if err := c.Additional().Set("mem", 3); err != nil {
		t.Fatalf("bucket set: %v", err)
	}
	if c.MustGet("mem") != 3.0 {
		t.Fatalf("bucket and field access share state")
	}
}

func TestConfiguration_Strict(t *testing.T) {
	st := config.Define("Strict").Field("A", property.Bool()).Strict().MustBuild()
	if _, err := st.FromJSONString(`{"A":true,"B":1}`); err == nil {
		t.Fatalf("strict type must reject extras")
	}
	c := st.MustNew(map[string]any{"A": true})
	if err := c.Set("B", 1); err == nil {
		t.Fatalf("strict instance must reject extras")
	}
	if st.JSONSchema().AdditionalProperties == nil {
		t.Fatalf("schema must carry additionalProperties")
	}
	if st.IsValidJSONString(`{"A":true,"B":1}`) {
		t.Fatalf("schema soundness: strict schema must reject extras")
	}
}

func TestDefine_DuplicateNames(t *testing.T) {
	_, err := config.Define("Dup").
		Field("A", property.Number().Named("x")).
		Field("B", property.String().Named("x")).
		Build()
	if !errors.Is(err, jsonconf.ErrDuplicateProperty) || !jsonconf.IsSchemaError(err) {
		t.Fatalf("expected duplicate-property SchemaError, got %v", err)
	}

	base := config.Define("Base").Field("A", property.Number()).MustBuild()
	_, err = config.Extend(base, "Child").Field("Other", property.Bool().Named("A")).Build()
	if !errors.Is(err, jsonconf.ErrDuplicateProperty) {
		t.Fatalf("names must be unique across ancestors, got %v", err)
	}
}

func TestDefine_RebindAndBadProperty(t *testing.T) {
	shared := property.Number()
	config.Define("One").Field("a", shared).MustBuild()
	if _, err := config.Define("Two").Field("b", shared).Build(); !errors.Is(err, jsonconf.ErrRebind) {
		t.Fatalf("expected ErrRebind, got %v", err)
	}
	if _, err := config.Define("Bad").Field("u", property.OneOf(property.Bool())).Build(); !errors.Is(err, jsonconf.ErrTooFewCandidates) {
		t.Fatalf("expected ErrTooFewCandidates at definition time, got %v", err)
	}
	if _, err := config.Define("Rule").Rule("self.(", "").Build(); !jsonconf.IsSchemaError(err) {
		t.Fatalf("expected SchemaError for bad rule, got %v", err)
	}
}

func TestDefine_FailedBuildLeavesPropertiesUnbound(t *testing.T) {
	count := property.Number()
	clash := property.String().Named("count")
	if _, err := config.Define("Broken").Field("count", count).Field("label", clash).Build(); !errors.Is(err, jsonconf.ErrDuplicateProperty) {
		t.Fatalf("expected ErrDuplicateProperty, got %v", err)
	}
	if _, err := config.Define("BadRule").Field("total", count).Rule("self.(", "").Build(); !jsonconf.IsSchemaError(err) {
		t.Fatalf("expected SchemaError for bad rule, got %v", err)
	}
	if count.Name() != "" {
		t.Fatalf("failed builds must not bind names, got %q", count.Name())
	}
	fixed, err := config.Define("Fixed").Field("count", count).Build()
	if err != nil {
		t.Fatalf("retry with the same property: %v", err)
	}
	if count.Name() != "count" {
		t.Fatalf("successful build binds the field name, got %q", count.Name())
	}
	if _, err := fixed.FromJSONString(`{"count":3}`); err != nil {
		t.Fatalf("load: %v", err)
	}

	shared := property.Bool()
	if _, err := config.Define("Twice").Field("a", shared).Field("b", shared).Build(); !errors.Is(err, jsonconf.ErrDuplicateProperty) {
		t.Fatalf("one property under two fields: %v", err)
	}
}

func TestExtend_InheritsAndNests(t *testing.T) {
	base := config.Define("Shape").
		Field("Name", property.String()).
		Rule("size(self.Name) < 10", "name too long").
		MustBuild()
	circle := config.Extend(base, "Circle").Field("Radius", property.Number().ExclusiveMin(0)).MustBuild()
	if !circle.IsA(base) || base.IsA(circle) {
		t.Fatalf("IsA is wrong")
	}
	if len(circle.Properties()) != 2 {
		t.Fatalf("inherited properties missing")
	}
	if _, err := circle.FromJSONString(`{"Name":"a-very-long-name","Radius":1}`); err == nil {
		t.Fatalf("parent rules apply to subtypes")
	}

	drawing := config.Define("Drawing").
		Field("Main", property.Nested(base)).
		Field("Shapes", property.Array(property.Nested(base)).Optional()).
		MustBuild()
	c1 := circle.MustNew(map[string]any{"Name": "c", "Radius": 2})
	d, err := drawing.New(map[string]any{"Main": c1, "Shapes": []any{map[string]any{"Name": "s"}, `{"Name":"t"}`}})
	if err != nil {
		t.Fatalf("new drawing: %v", err)
	}
	if d.MustGet("Main").(*config.Configuration).Type() != circle {
		t.Fatalf("subtype instances are stored as they are")
	}
	raw, err := d.ToRawJSON()
	if err != nil {
		t.Fatalf("to raw: %v", err)
	}
	want := map[string]any{
		"Main":   map[string]any{"Name": "c", "Radius": 2},
		"Shapes": []any{map[string]any{"Name": "s"}, map[string]any{"Name": "t"}},
	}
	if !jsonconf.EqualRawJSON(raw, want) {
		t.Fatalf("got=%v want=%v", raw, want)
	}
	if err := d.Set("Main", 42); !errors.Is(err, jsonconf.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestConfiguration_Clone(t *testing.T) {
	st := serverType(t)
	c := st.MustNew(map[string]any{"Host": "h", "Port": 1, "Tags": []string{"a"}})
	cp, err := c.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if err := cp.MustGet("Tags").(*property.ArrayProxy).Append("b"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if c.MustGet("Tags").(*property.ArrayProxy).Len() != 1 {
		t.Fatalf("clone shares state with the original")
	}
}

func TestConfiguration_Files(t *testing.T) {
	st := serverType(t)
	c := st.MustNew(map[string]any{"Host": "h", "Port": 2, "extra": map[string]any{"k": true}})
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "server.json")
	if err := c.SaveToJSONFile(jsonPath); err != nil {
		t.Fatalf("save json: %v", err)
	}
	back, err := st.LoadFromJSONFile(jsonPath)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if back.String() != c.String() {
		t.Fatalf("json file round trip: %s vs %s", back, c)
	}

	yamlPath := filepath.Join(dir, "server.yaml")
	if err := c.SaveToYAMLFile(yamlPath); err != nil {
		t.Fatalf("save yaml: %v", err)
	}
	back, err = st.LoadFromYAMLFile(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if back.String() != c.String() {
		t.Fatalf("yaml file round trip: %s vs %s", back, c)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"host":""}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = st.LoadFromJSONFile(bad)
	var se *jsonconf.SerialiseError
	if !errors.As(err, &se) || se.Path != bad {
		t.Fatalf("load failures must name the path, got %v", err)
	}
	if !errors.Is(err, jsonconf.ErrSchemaViolation) {
		t.Fatalf("validation cause must stay in the chain, got %v", err)
	}
}

func TestConfiguration_WriteToAndFromReader(t *testing.T) {
	st := serverType(t)
	c := st.MustNew(map[string]any{"Host": "h", "Port": 3})
	var sb strings.Builder
	if _, err := c.WriteTo(&sb); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := st.FromReader(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.MustGet("port") != 3.0 {
		t.Fatalf("port: %v", back.MustGet("port"))
	}
	if _, ok := any(st).(io.ReaderFrom); ok {
		t.Fatalf("Type must not look like an io.ReaderFrom")
	}
	if _, ok := any(c).(io.WriterTo); !ok {
		t.Fatalf("Configuration must be an io.WriterTo")
	}
}
