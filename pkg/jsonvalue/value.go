// Package jsonvalue implements the untyped JSON sum type used throughout
// SwiftAgentKit for tool arguments, tool results, and protocol metadata.
//
// encoding/json alone conflates booleans and numbers once a payload is
// unmarshaled into interface{} in some call paths, and loses the
// string/integer/double distinction other places. Value is a tagged union
// that never does either: a JSON `true` always decodes as Kind == Bool, a
// JSON `1` always decodes as Kind == Number, strings stay Kind == String.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags the underlying JSON shape held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged union over the JSON data model: string, integer or
// double (both carried as Number), boolean, array, object, or null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	// isInt records whether n originated from a JSON integer literal, so
	// round-tripping 3 doesn't turn into 3.0 in re-encoded output.
	isInt bool
	s     string
	arr   []Value
	obj   map[string]Value
	// keys holds the object's keys in sorted order, for deterministic
	// encoding and Keys only; the data
	// model treats JSON objects as unordered, per spec — two Values decoded
	// from differently-ordered-but-equal-content objects still compare Equal.
	keys []string
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(n int64) Value          { return Value{kind: KindNumber, n: float64(n), isInt: true} }
func Float(n float64) Value      { return Value{kind: KindNumber, n: n} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Object builds an object Value from a map, in sorted key order for
// deterministic encoding.
func Object(m map[string]Value) Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Value{kind: KindObject, obj: m, keys: keys}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsObject() bool    { return v.kind == KindObject }
func (v Value) IsArray() bool     { return v.kind == KindArray }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsFloat() (float64, bool) { return v.n, v.kind == KindNumber }
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return int64(v.n), true
}
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Field looks up a key in an object Value; returns (Null, false) otherwise.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.obj[key]
	return val, ok
}

// Keys returns the sorted key list of an object Value, or nil.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Equal reports deep equality, treating objects as unordered.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, val := range v.obj {
			ov, ok := other.obj[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		if v.isInt {
			return []byte(fmt.Sprintf("%d", int64(v.n))), nil
		}
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			data, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("jsonvalue: unknown kind %d", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

func fromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		if n, err := t.Int64(); err == nil && !bytes.ContainsAny([]byte(t.String()), ".eE") {
			return Int(n)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = fromAny(e)
		}
		return Array(items...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = fromAny(e)
		}
		return Object(m)
	default:
		return Null()
	}
}

// FromMap converts a map[string]any (as commonly produced by tool-call
// argument decoding) into an object Value.
func FromMap(m map[string]any) Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = fromAny(v)
	}
	return Object(out)
}

// ToMap converts an object Value back into a map[string]any, for callers
// (such as MCP tool invocation) that still expect the loosely-typed shape.
func (v Value) ToMap() map[string]any {
	if v.kind != KindObject {
		return nil
	}
	out := make(map[string]any, len(v.obj))
	for k, val := range v.obj {
		out[k] = val.toAny()
	}
	return out
}

func (v Value) toAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if v.isInt {
			return int64(v.n)
		}
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.toAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, val := range v.obj {
			out[k] = val.toAny()
		}
		return out
	}
	return nil
}
