package jsonconf_test

import (
	"testing"

	"github.com/reoring/jsonconf"
)

func TestRule_CrossField(t *testing.T) {
	r, err := jsonconf.CompileRule("self.min <= self.max", "min must not exceed max")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := r.Check(map[string]any{"min": 1.0, "max": 2.0}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	err = r.Check(map[string]any{"min": 3.0, "max": 2.0})
	if err == nil || err.Error() != "min must not exceed max" {
		t.Fatalf("expected rule message, got %v", err)
	}
}

func TestRule_CompileErrorIsSchemaError(t *testing.T) {
	_, err := jsonconf.CompileRule("self.(", "")
	if !jsonconf.IsSchemaError(err) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestRule_NonBoolResult(t *testing.T) {
	r := jsonconf.MustCompileRule("self.name", "")
	if err := r.Check(map[string]any{"name": "x"}); err == nil {
		t.Fatalf("non-bool result must fail")
	}
}

func TestRules_Combine(t *testing.T) {
	extraCalled := false
	sv := jsonconf.Rules(func(any) error { extraCalled = true; return nil },
		jsonconf.MustCompileRule("size(self) > 0", "empty"),
	)
	if err := sv([]any{1.0}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	if !extraCalled {
		t.Fatalf("extra hook should run after rules")
	}
	if err := sv([]any{}); err == nil {
		t.Fatalf("expected failure for empty list")
	}
	if jsonconf.Rules(nil) != nil {
		t.Fatalf("no rules and no hook should yield nil")
	}
}
