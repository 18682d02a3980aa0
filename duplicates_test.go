package jsonconf_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/reoring/jsonconf"
)

func TestDuplicateKeys_None(t *testing.T) {
	iss, err := jsonconf.DuplicateKeys(strings.NewReader(`{"a":1,"b":{"a":2},"c":[{"a":1},{"a":2}]}`), 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(iss) != 0 {
		t.Fatalf("expected 0 issues, got %d: %v", len(iss), iss)
	}
}

func TestDuplicateKeys_Paths(t *testing.T) {
	doc := `{"a":1,"a":2,"n":{"x/y":"v","x/y":"w"},"l":[true,{"k":null,"k":[]}]}`
	iss, err := jsonconf.DuplicateKeys(strings.NewReader(doc), 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"/a", "/n/x~1y", "/l/1/k"}
	if len(iss) != len(want) {
		t.Fatalf("expected %d issues, got %v", len(want), iss)
	}
	for i, p := range want {
		if iss[i].Path != p || iss[i].Code != jsonconf.CodeDuplicateKey {
			t.Fatalf("issue %d: got %s at %s, want %s", i, iss[i].Code, iss[i].Path, p)
		}
	}
}

func TestDuplicateKeys_LimitAndSyntax(t *testing.T) {
	iss, err := jsonconf.DuplicateKeys(strings.NewReader(`{"a":1,"a":2,"b":1,"b":2}`), 1)
	if err != nil || len(iss) != 1 {
		t.Fatalf("limit: %v %v", iss, err)
	}
	for _, doc := range []string{`{"a":`, `[1,2`, `{"a":{}`} {
		if _, err := jsonconf.DuplicateKeys(strings.NewReader(doc), 0); !errors.Is(err, io.ErrUnexpectedEOF) || !errors.Is(err, jsonconf.ErrSerialise) {
			t.Fatalf("%s: expected truncation error, got %v", doc, err)
		}
	}
	iss, err = jsonconf.DuplicateKeys(strings.NewReader(`{"a":1,"a":2`), 0)
	if err == nil || len(iss) != 1 {
		t.Fatalf("issues found before the truncation are kept with the error: %v %v", iss, err)
	}
}
