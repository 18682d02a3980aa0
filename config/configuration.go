package config

import (
	"fmt"
	"io"

	"github.com/reoring/jsonconf"
	"github.com/reoring/jsonconf/property"
)

// DefaultIndent is the indentation used when writing JSON files.
const DefaultIndent = "  "

// Configuration is an instance of a Type: one value slot per declared
// property plus an overflow bucket for additional properties. It is not safe
// for concurrent mutation.
type Configuration struct {
	t     *Type
	slots property.Slots
	extra *property.MapProxy
}

// Type returns the type of c.
func (c *Configuration) Type() *Type { return c.t }

// Get returns the value of a declared property (by field or property name)
// or of an additional property. Unset optional properties read Absent.
func (c *Configuration) Get(name string) (any, error) {
	if p, ok := c.t.Property(name); ok {
		return property.Get(p, c.slots)
	}
	if v, ok := c.extra.Lookup(name); ok {
		return v, nil
	}
	return nil, jsonconf.NewValidationError(name, jsonconf.ErrUnknownProperty, fmt.Errorf("%s has no property '%s'", c.t.name, name))
}

// MustGet is Get that panics on error.
func (c *Configuration) MustGet(name string) any {
	v, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set validates v and stores it. Names that match no declared property are
// stored as additional properties; setting one of those to Absent removes it.
func (c *Configuration) Set(name string, v any) error {
	if p, ok := c.t.Property(name); ok {
		return property.Set(p, c.slots, v)
	}
	if jsonconf.IsAbsent(v) {
		_, err := c.extra.Delete(name)
		return err
	}
	return c.extra.Set(name, v)
}

// Has reports whether name currently holds a value.
func (c *Configuration) Has(name string) bool {
	if p, ok := c.t.Property(name); ok {
		_, set := property.Stored(p, c.slots)
		return set
	}
	return c.extra.Has(name)
}

// Additional returns the additional-properties bucket.
func (c *Configuration) Additional() *property.MapProxy { return c.extra }

func (c *Configuration) checkRequired() error {
	for _, f := range c.t.fields {
		if f.Property.IsOptional() {
			continue
		}
		if _, ok := property.Stored(f.Property, c.slots); !ok {
			return jsonconf.NewValidationError(f.Property.Name(), jsonconf.ErrNoValue, nil)
		}
	}
	return nil
}

// ToRawJSON emits every present declared property, then the additional
// properties, and validates the result against the type.
func (c *Configuration) ToRawJSON() (any, error) {
	out := map[string]any{}
	for _, f := range c.t.fields {
		raw, err := property.GetAsRawJSON(f.Property, c.slots)
		if err != nil {
			return nil, err
		}
		if jsonconf.IsPresent(raw) {
			out[f.Property.Name()] = raw
		}
	}
	extra, err := c.extra.ToRawJSON()
	if err != nil {
		return nil, err
	}
	for k, v := range extra.(map[string]any) {
		out[k] = v
	}
	if err := c.t.validator.ValidateRawJSON(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToJSONString renders c as compact JSON text.
func (c *Configuration) ToJSONString() (string, error) {
	raw, err := c.ToRawJSON()
	if err != nil {
		return "", err
	}
	return jsonconf.FormatJSONString(raw)
}

// WriteTo writes c as indented JSON.
func (c *Configuration) WriteTo(w io.Writer) (int64, error) {
	raw, err := c.ToRawJSON()
	if err != nil {
		return 0, err
	}
	b, err := jsonconf.MarshalJSON(raw, DefaultIndent)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(append(b, '\n'))
	if err != nil {
		return int64(n), &jsonconf.SerialiseError{Op: "write", Cause: err}
	}
	return int64(n), nil
}

// SaveToJSONFile writes c to path as indented JSON. Failures name the path.
func (c *Configuration) SaveToJSONFile(path string) error {
	return c.save(path, func(w io.Writer, raw any) error {
		return jsonconf.EncodeJSON(w, raw, DefaultIndent)
	})
}

// SaveToYAMLFile writes c to path as YAML.
func (c *Configuration) SaveToYAMLFile(path string) error {
	return c.save(path, jsonconf.EncodeYAML)
}

func (c *Configuration) save(path string, encode func(io.Writer, any) error) error {
	raw, err := c.ToRawJSON()
	if err != nil {
		return &jsonconf.SerialiseError{Op: "save", Path: path, Cause: err}
	}
	return jsonconf.WriteFile(path, func(w io.Writer) error { return encode(w, raw) })
}

// Clone returns an independent copy of c.
func (c *Configuration) Clone() (*Configuration, error) {
	raw, err := c.ToRawJSON()
	if err != nil {
		return nil, err
	}
	return c.t.FromRawJSON(raw)
}

// String renders c as compact JSON, or an error marker when c is invalid.
func (c *Configuration) String() string {
	s, err := c.ToJSONString()
	if err != nil {
		return fmt.Sprintf("%s(<invalid: %v>)", c.t.name, err)
	}
	return s
}
