// File: api/schemas/script.go
package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// ScriptKind discriminates the values the script-execution boundary is
// allowed to marshal back from the page. Anything the driver returns is
// folded into one of these; there is deliberately no "object" kind beyond
// ElementHandle, matching the restricted value set of the boundary.
type ScriptKind string

const (
	ScriptNull    ScriptKind = "null"
	ScriptBool    ScriptKind = "bool"
	ScriptNumber  ScriptKind = "number"
	ScriptString  ScriptKind = "string"
	ScriptElement ScriptKind = "element"
	ScriptList    ScriptKind = "list"
)

// ElementHandle is an opaque reference to a DOM element returned by the
// driver. When results come back by value the handle carries only the
// serialized object; ObjectID is populated when the driver returns a
// remote reference instead.
type ElementHandle struct {
	ObjectID string          `json:"objectId,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// ScriptValue is the tagged result of one script execution. Exactly one
// of the payload fields is meaningful, selected by Kind.
type ScriptValue struct {
	Kind    ScriptKind
	Bool    bool
	Number  float64
	Text    string
	Element ElementHandle
	List    []ScriptValue
}

var scriptJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeScriptValue folds a raw driver result into the tagged value set.
// The driver is trusted to hand back valid JSON; anything else is an error.
func DecodeScriptValue(raw json.RawMessage) (ScriptValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("undefined")) {
		return ScriptValue{Kind: ScriptNull}, nil
	}

	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := scriptJSON.Unmarshal(trimmed, &b); err != nil {
			return ScriptValue{}, fmt.Errorf("decoding script boolean: %w", err)
		}
		return ScriptValue{Kind: ScriptBool, Bool: b}, nil

	case '"':
		var s string
		if err := scriptJSON.Unmarshal(trimmed, &s); err != nil {
			return ScriptValue{}, fmt.Errorf("decoding script string: %w", err)
		}
		return ScriptValue{Kind: ScriptString, Text: s}, nil

	case '[':
		var parts []json.RawMessage
		if err := scriptJSON.Unmarshal(trimmed, &parts); err != nil {
			return ScriptValue{}, fmt.Errorf("decoding script list: %w", err)
		}
		list := make([]ScriptValue, 0, len(parts))
		for i, part := range parts {
			v, err := DecodeScriptValue(part)
			if err != nil {
				return ScriptValue{}, fmt.Errorf("decoding script list element %d: %w", i, err)
			}
			list = append(list, v)
		}
		return ScriptValue{Kind: ScriptList, List: list}, nil

	case '{':
		// The only object the boundary admits is a DOM element handle.
		var handle ElementHandle
		if err := scriptJSON.Unmarshal(trimmed, &handle); err != nil {
			return ScriptValue{}, fmt.Errorf("decoding element handle: %w", err)
		}
		handle.Raw = append(json.RawMessage(nil), trimmed...)
		return ScriptValue{Kind: ScriptElement, Element: handle}, nil

	default:
		var n float64
		if err := scriptJSON.Unmarshal(trimmed, &n); err != nil {
			return ScriptValue{}, fmt.Errorf("decoding script number: %w", err)
		}
		return ScriptValue{Kind: ScriptNumber, Number: n}, nil
	}
}

// String renders the value for logs and CLI output.
func (v ScriptValue) String() string {
	switch v.Kind {
	case ScriptNull:
		return "null"
	case ScriptBool:
		return strconv.FormatBool(v.Bool)
	case ScriptNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ScriptString:
		return v.Text
	case ScriptElement:
		if v.Element.ObjectID != "" {
			return "element(" + v.Element.ObjectID + ")"
		}
		return "element"
	case ScriptList:
		buf := bytes.NewBufferString("[")
		for i, item := range v.List {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.String())
		}
		buf.WriteString("]")
		return buf.String()
	}
	return string(v.Kind)
}

// Truthy reports whether the page would treat the value as true. The wait
// and dialog layers require strict booleans in their own contracts; this
// exists only for callers that evaluate arbitrary user expressions.
func (v ScriptValue) Truthy() bool {
	switch v.Kind {
	case ScriptBool:
		return v.Bool
	case ScriptNumber:
		return v.Number != 0
	case ScriptString:
		return v.Text != ""
	case ScriptElement:
		return true
	case ScriptList:
		return true
	}
	return false
}

// JSString encodes a Go value as a JSON literal safe to embed in injected
// script source. Marshal failures collapse to the empty string literal so
// a bad argument can never break out of its quoting.
func JSString(v any) string {
	b, err := scriptJSON.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// MarshalJSON serializes the value back into plain JSON, matching what the
// page originally produced (element handles collapse to their raw form).
func (v ScriptValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ScriptNull:
		return []byte("null"), nil
	case ScriptBool:
		return scriptJSON.Marshal(v.Bool)
	case ScriptNumber:
		return scriptJSON.Marshal(v.Number)
	case ScriptString:
		return scriptJSON.Marshal(v.Text)
	case ScriptElement:
		if len(v.Element.Raw) > 0 {
			return v.Element.Raw, nil
		}
		return scriptJSON.Marshal(v.Element)
	case ScriptList:
		return scriptJSON.Marshal(v.List)
	}
	return nil, fmt.Errorf("cannot marshal script value of kind %q", v.Kind)
}
