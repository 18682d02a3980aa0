package jsonconf_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/reoring/jsonconf"
)

func TestValidationError_KindAndCause(t *testing.T) {
	cause := errors.New("2 appears twice")
	err := jsonconf.NewValidationError("tags", jsonconf.ErrNotUnique, cause)
	if !errors.Is(err, jsonconf.ErrNotUnique) || !errors.Is(err, cause) {
		t.Fatalf("kind and cause must both match: %v", err)
	}
	if errors.Is(err, jsonconf.ErrSchemaViolation) {
		t.Fatalf("unexpected kind match")
	}
	if err.Code != jsonconf.CodeUniqueness {
		t.Fatalf("code=%s", err.Code)
	}
	want := "validation error in 'tags': non-unique element: 2 appears twice"
	if err.Error() != want {
		t.Fatalf("got=%q want=%q", err.Error(), want)
	}
}

func TestWithProperty(t *testing.T) {
	if jsonconf.WithProperty("a", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	var ve *jsonconf.ValidationError

	err := jsonconf.WithProperty("port", jsonconf.NewValidationError("", jsonconf.ErrSchemaViolation, nil))
	if !errors.As(err, &ve) || ve.Property != "port" {
		t.Fatalf("unnamed error must take the property name: %v", err)
	}

	inner := jsonconf.NewValidationError("host", jsonconf.ErrSpecialViolation, nil)
	err = jsonconf.WithProperty("server", inner)
	if !errors.As(err, &ve) || ve.Property != "server" || !errors.Is(err, jsonconf.ErrSpecialViolation) {
		t.Fatalf("named error must be wrapped under the outer property: %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("inner error must stay in the chain")
	}

	se := jsonconf.NewSchemaError("x", jsonconf.ErrRebind, nil)
	if got := jsonconf.WithProperty("y", se); got != error(se) {
		t.Fatalf("schema errors pass through, got %v", got)
	}

	err = jsonconf.WithProperty("z", fmt.Errorf("boom"))
	if !errors.As(err, &ve) || ve.Code != jsonconf.CodeSchema {
		t.Fatalf("plain errors become schema violations: %v", err)
	}
}

func TestIssues_ErrorAndAs(t *testing.T) {
	var iss jsonconf.Issues
	for i := 0; i < 5; i++ {
		iss = jsonconf.AppendIssues(iss, jsonconf.Issue{Path: fmt.Sprintf("/oneOf/%d", i), Code: jsonconf.CodeSchema})
	}
	msg := iss.Error()
	if !strings.HasPrefix(msg, "schema at /oneOf/0; schema at /oneOf/1") || !strings.HasSuffix(msg, "(total 5)") {
		t.Fatalf("unexpected summary %q", msg)
	}
	wrapped := jsonconf.NewValidationError("mode", jsonconf.ErrUnionNoMatch, iss)
	got, ok := jsonconf.AsIssues(wrapped)
	if !ok || len(got) != 5 {
		t.Fatalf("issues not found in chain: %v", wrapped)
	}
	if _, ok := jsonconf.AsIssues(errors.New("x")); ok {
		t.Fatalf("plain error has no issues")
	}
}

func TestSerialiseError(t *testing.T) {
	err := &jsonconf.SerialiseError{Op: "load", Path: "cfg.json", Cause: fs.ErrNotExist}
	if !errors.Is(err, jsonconf.ErrSerialise) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("chain: %v", err)
	}
	if !strings.Contains(err.Error(), "load 'cfg.json'") {
		t.Fatalf("message must name the file: %s", err)
	}
}
