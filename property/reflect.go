package property

import (
	gojson "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/reoring/jsonconf"
	js "github.com/reoring/jsonconf/jsonschema"
)

// Reflect returns a raw property whose schema is reflected from the Go type
// T (struct tags `json` and `jsonschema` are honoured). The stored value is
// raw JSON, not a T.
func Reflect[T any]() *RawProperty {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	reflected := r.Reflect(new(T))
	reflected.Version = ""
	reflected.ID = ""

	b, err := gojson.Marshal(reflected)
	if err != nil {
		p := Raw(nil)
		p.fail(jsonconf.ErrBadDeclaration, err)
		return p
	}
	s, err := js.FromJSON(b)
	if err != nil {
		p := Raw(nil)
		p.fail(jsonconf.ErrBadDeclaration, err)
		return p
	}
	return Raw(s)
}
