package tower

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
)

// RawPayload is one decoded API object. Numbers are kept as json.Number so
// integer ids survive exactly.
type RawPayload map[string]interface{}

// RawCollection is the standard AWX/Tower paginated envelope.
type RawCollection struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []RawPayload `json:"results"`
}

// decodePayload parses a response body that must hold a JSON object.
func decodePayload(body, what string) (RawPayload, error) {
	var raw RawPayload
	if err := decodeJSON(body, &raw); err != nil {
		return nil, &ParseError{What: what, Cause: err}
	}
	if raw == nil {
		return nil, &ParseError{What: what, Cause: fmt.Errorf("expected a JSON object, got null")}
	}
	return raw, nil
}

func decodeCollection(body, what string) (*RawCollection, error) {
	var page RawCollection
	if err := decodeJSON(body, &page); err != nil {
		return nil, &ParseError{What: what, Cause: err}
	}
	return &page, nil
}

func decodeJSON(body string, dest interface{}) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

// fieldKind is the JSON type a declared field must hold when present.
type fieldKind int

const (
	kindInt fieldKind = iota
	kindString
	kindBool
	kindObject
)

func (k fieldKind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindObject:
		return "object"
	}
	return "unknown"
}

func (k fieldKind) accepts(v interface{}) bool {
	switch k {
	case kindInt:
		_, ok := toInt(v)
		return ok
	case kindString:
		_, ok := v.(string)
		return ok
	case kindBool:
		_, ok := v.(bool)
		return ok
	case kindObject:
		_, ok := v.(map[string]interface{})
		return ok
	}
	return false
}

// field declares one attribute of a resource kind.
type field struct {
	name     string
	kind     fieldKind
	required bool
}

// baseFields are shared by every resource kind.
var baseFields = []field{
	{name: "id", kind: kindInt, required: true},
	{name: "type", kind: kindString},
	{name: "url", kind: kindString},
	{name: "name", kind: kindString},
	{name: "description", kind: kindString},
	{name: "related", kind: kindObject},
	{name: "summary_fields", kind: kindObject},
	{name: "created", kind: kindString},
	{name: "modified", kind: kindString},
}

func withBase(extra ...field) []field {
	out := make([]field, 0, len(baseFields)+len(extra))
	out = append(out, baseFields...)
	return append(out, extra...)
}

// validate checks raw against the declared fields. Null counts as absent.
func validate(kind string, raw RawPayload, fields []field) error {
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok || v == nil {
			if f.required {
				return &TypeMismatchError{Kind: kind, Field: f.name, Want: f.kind.String(), Got: "missing"}
			}
			continue
		}
		if !f.kind.accepts(v) {
			return &TypeMismatchError{Kind: kind, Field: f.name, Want: f.kind.String(), Got: jsonType(v)}
		}
	}
	return nil
}

func jsonType(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number " + n.String()
	case float64, int, int64:
		return fmt.Sprintf("number %v", n)
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// toInt converts a decoded JSON number to int. Non-integral values fail.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

// intField safely extracts an int field, returning 0 if absent.
func intField(obj map[string]interface{}, name string) int {
	n, _ := toInt(obj[name])
	return n
}

// stringField safely extracts a string field, returning "" if nil.
func stringField(obj map[string]interface{}, name string) string {
	if v, ok := obj[name].(string); ok {
		return v
	}
	return ""
}

// boolField safely extracts a bool field, returning false if nil.
func boolField(obj map[string]interface{}, name string) bool {
	if v, ok := obj[name].(bool); ok {
		return v
	}
	return false
}
