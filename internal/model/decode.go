package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"
)

// Decode parses a JSON or YAML document. Blank input decodes to Absent.
func Decode(data []byte) (*Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return absent, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if v, err := DecodeJSON(trimmed); err == nil {
			return v, nil
		}
	}
	return DecodeYAML(trimmed)
}

// DecodeJSON parses a JSON document. Integral numbers decode as int64 and the
// rest as float64.
func DecodeJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding json: unexpected trailing data")
	}
	return &Value{raw: convertNumbers(raw)}, nil
}

// DecodeYAML parses a single YAML document.
func DecodeYAML(data []byte) (*Value, error) {
	if strings.TrimSpace(string(data)) == "" {
		return absent, nil
	}
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return DecodeJSON(j)
}

// MustDecode is Decode for literals in tests and examples. It panics on
// malformed input.
func MustDecode(data string) *Value {
	v, err := Decode([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func convertNumbers(data any) any {
	switch t := data.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = convertNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = convertNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return data
}
