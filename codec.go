package jsonconf

import (
	"bytes"
	"errors"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Encoding of persisted files. Files are always read and written as UTF-8.
const Encoding = "utf-8"

// ParseJSONString decodes s into canonical raw JSON.
func ParseJSONString(s string) (any, error) {
	return DecodeJSON(bytes.NewReader([]byte(s)))
}

// DecodeJSON reads exactly one JSON value from r. Trailing data other than
// whitespace is an error.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &SerialiseError{Op: "parse JSON", Cause: err}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected trailing data")
		}
		return nil, &SerialiseError{Op: "parse JSON", Cause: err}
	}
	return v, nil
}

// FormatJSONString encodes raw JSON as compact JSON text.
func FormatJSONString(raw any) (string, error) {
	b, err := MarshalJSON(raw, "")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalJSON encodes raw JSON; a non-empty indent produces indented output.
func MarshalJSON(raw any, indent string) ([]byte, error) {
	norm, err := Normalize(raw)
	if err != nil {
		return nil, &SerialiseError{Op: "encode JSON", Cause: err}
	}
	var b []byte
	if indent != "" {
		b, err = json.MarshalIndent(norm, "", indent)
	} else {
		b, err = json.Marshal(norm)
	}
	if err != nil {
		return nil, &SerialiseError{Op: "encode JSON", Cause: err}
	}
	return b, nil
}

// EncodeJSON writes raw JSON to w followed by a newline.
func EncodeJSON(w io.Writer, raw any, indent string) error {
	b, err := MarshalJSON(raw, indent)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return &SerialiseError{Op: "write JSON", Cause: err}
	}
	return nil
}

// DecodeYAML reads one YAML document from r and converts it to canonical raw
// JSON.
func DecodeYAML(r io.Reader) (any, error) {
	var node any
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		return nil, &SerialiseError{Op: "parse YAML", Cause: err}
	}
	raw, err := Normalize(yamlNormalizeValue(node))
	if err != nil {
		return nil, &SerialiseError{Op: "parse YAML", Cause: err}
	}
	return raw, nil
}

// EncodeYAML writes raw JSON to w as a YAML document.
func EncodeYAML(w io.Writer, raw any) error {
	norm, err := Normalize(raw)
	if err != nil {
		return &SerialiseError{Op: "encode YAML", Cause: err}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(norm); err != nil {
		return &SerialiseError{Op: "encode YAML", Cause: err}
	}
	if err := enc.Close(); err != nil {
		return &SerialiseError{Op: "encode YAML", Cause: err}
	}
	return nil
}

// ReadFile opens path, decodes it with decode and closes it on every path.
// Failures are wrapped in a SerialiseError naming the file.
func ReadFile(path string, decode func(io.Reader) (any, error)) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SerialiseError{Op: "load", Path: path, Cause: err}
	}
	defer f.Close()
	raw, err := decode(f)
	if err != nil {
		return nil, &SerialiseError{Op: "load", Path: path, Cause: err}
	}
	return raw, nil
}

// WriteFile creates path and writes it with encode. The file is closed on
// every path and a close error is reported.
func WriteFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Op: "save", Path: path, Cause: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &SerialiseError{Op: "save", Path: path, Cause: cerr}
		}
	}()
	if err := encode(f); err != nil {
		return &SerialiseError{Op: "save", Path: path, Cause: err}
	}
	return nil
}

// yamlNormalizeValue converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
