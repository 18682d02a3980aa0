package property_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/property"
)

func TestMap_Operations(t *testing.T) {
	p := property.Map(property.Number().Min(0)).Named("limits")
	slots := property.Slots{}
	if err := property.Set(p, slots, map[string]int{"cpu": 2, "mem": 512}); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ := property.Get(p, slots)
	m := v.(*property.MapProxy)

	if err := m.Set("disk", -1); !errors.Is(err, jsonconf.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if m.Has("disk") {
		t.Fatalf("failed set must not store")
	}
	if got, err := m.SetDefault("cpu", 8); err != nil || got != 2.0 {
		t.Fatalf("SetDefault existing: %v %v", got, err)
	}
	if got, err := m.SetDefault("gpu", 1); err != nil || got != 1.0 {
		t.Fatalf("SetDefault new: %v %v", got, err)
	}
	if err := m.Update(map[string]any{"a": 1, "b": -5}); err == nil {
		t.Fatalf("update with an invalid value must fail")
	}
	if m.Has("a") {
		t.Fatalf("failed update must not store anything")
	}
	if !reflect.DeepEqual(m.Keys(), []string{"cpu", "gpu", "mem"}) {
		t.Fatalf("keys: %v", m.Keys())
	}
	if v, err := m.Pop("gpu"); err != nil || v != 1.0 {
		t.Fatalf("pop: %v %v", v, err)
	}
	if _, err := m.Get("gpu"); !errors.Is(err, property.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := m.Delete("mem"); !ok || err != nil {
		t.Fatalf("delete present key: %v %v", ok, err)
	}
	if ok, err := m.Delete("mem"); ok || err != nil {
		t.Fatalf("delete missing key: %v %v", ok, err)
	}
	raw, _ := property.GetAsRawJSON(p, slots)
	if !jsonconf.EqualRawJSON(raw, map[string]any{"cpu": 2}) {
		t.Fatalf("unexpected %v", raw)
	}
}

func TestMap_MutationsRunSpecialCheck(t *testing.T) {
	atMostOne := func(raw any) error {
		if len(raw.(map[string]any)) > 1 {
			return errors.New("at most one entry")
		}
		return nil
	}
	p := property.Map(property.Number()).Named("quota").Check(atMostOne)
	slots := property.Slots{}
	if err := property.Set(p, slots, map[string]any{"a": 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ := property.Get(p, slots)
	m := v.(*property.MapProxy)

	if err := m.Set("b", 2); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("set: expected special violation, got %v", err)
	}
	if _, err := m.SetDefault("b", 2); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("setdefault: expected special violation, got %v", err)
	}
	if err := m.Update(map[string]any{"b": 2}); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("update: expected special violation, got %v", err)
	}
	raw, _ := property.GetAsRawJSON(p, slots)
	if !jsonconf.EqualRawJSON(raw, map[string]any{"a": 1}) || !property.IsValidRawJSON(p, raw) {
		t.Fatalf("rejected mutations must leave the proxy unchanged: %v", raw)
	}
	if err := m.Set("a", 5); err != nil {
		t.Fatalf("replace existing key: %v", err)
	}

	required := property.Map(property.Bool()).Check(func(raw any) error {
		if _, ok := raw.(map[string]any)["enabled"]; !ok {
			return errors.New("enabled is required")
		}
		return nil
	})
	stored, err := required.ValidateValue(map[string]any{"enabled": true})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	m = stored.(*property.MapProxy)
	if _, err := m.Delete("enabled"); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("delete: expected special violation, got %v", err)
	}
	if _, err := m.Pop("enabled"); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("pop: expected special violation, got %v", err)
	}
	if err := m.Clear(); !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("clear: expected special violation, got %v", err)
	}
	if !m.Has("enabled") {
		t.Fatalf("rejected removals must keep the entry")
	}
}

func TestMap_FromRawJSONAndSchema(t *testing.T) {
	p := property.Map(property.String()).Named("labels")
	if !property.IsValidRawJSON(p, map[string]any{"a": "x"}) {
		t.Fatalf("expected valid")
	}
	if property.IsValidRawJSON(p, map[string]any{"a": 1}) {
		t.Fatalf("non-string value must fail")
	}
	if property.IsValidRawJSON(p, []any{}) {
		t.Fatalf("arrays are not maps")
	}
	s := p.JSONSchema()
	if s.Type != "object" || s.AdditionalProperties == nil || s.AdditionalProperties.Type != "string" {
		t.Fatalf("unexpected schema %+v", s)
	}
}

func TestMap_OfArrays(t *testing.T) {
	p := property.Map(property.Array(property.Number()).Unique()).Named("groups")
	slots := property.Slots{}
	if err := property.SetFromRawJSON(p, slots, map[string]any{"a": []any{1, 2}}); err != nil {
		t.Fatalf("from raw: %v", err)
	}
	v, _ := property.Get(p, slots)
	a, _ := v.(*property.MapProxy).Lookup("a")
	if err := a.(*property.ArrayProxy).Append(2); !errors.Is(err, jsonconf.ErrNotUnique) {
		t.Fatalf("inner uniqueness: %v", err)
	}
}
