// Package jsonconf provides:
//
// - The raw JSON model (shape predicates, Normalize, EqualRawJSON) and the Absent sentinel
// - A Validator that compiles and caches a JSON Schema and runs a special-validation hook
// - CEL rules for checks the schema vocabulary cannot express
// - A stable error model: SchemaError, ValidationError and SerialiseError with kind sentinels
// - JSON (goccy/go-json) and YAML text codecs with scoped file I/O
//
// Design policy:
// - Keep the shared vocabulary in the root package; declarations live in property/,
//   configuration types in config/, schema builders in jsonschema/, the CLI in cmd/jsonconf.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	server := config.Define("Server").
//	    Field("Host", property.String().MinLength(1)).
//	    Field("Port", property.Number().IntegerOnly().Min(1).Max(65535)).
//	    Field("Tags", property.Array(property.String()).Unique().Optional()).
//	    Strict().
//	    MustBuild()
//
//	c, err := server.FromJSONString(`{"Host":"localhost","Port":8080}`)
//	port, _ := c.Get("Port")
//	_ = c.Set("Port", 9090)
//	out, err := c.ToJSONString()
package jsonconf
