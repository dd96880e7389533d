// Package tree holds the loosely-typed value tree produced by decoding a
// replay results block. Mapping key order is preserved as decoded.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of the tree. The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	num    string // number literal as decoded
	s      string
	items  []Value
	keys   []string
	fields map[string]Value
}

// Empty returns a mapping with no entries.
func Empty() Value {
	return Value{kind: Mapping, fields: map[string]Value{}}
}

func NewBool(b bool) Value { return Value{kind: Bool, b: b} }
func NewString(s string) Value { return Value{kind: String, s: s} }

func NewInt(n int64) Value {
	return Value{kind: Number, num: strconv.FormatInt(n, 10)}
}

func NewFloat(f float64) Value {
	return Value{kind: Number, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

func NewSequence(items ...Value) Value {
	return Value{kind: Sequence, items: items}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is null or a container without entries.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case Null:
		return true
	case Sequence:
		return len(v.items) == 0
	case Mapping:
		return len(v.keys) == 0
	}
	return false
}

// Len returns the number of entries of a sequence or mapping, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Sequence:
		return len(v.items)
	case Mapping:
		return len(v.keys)
	}
	return 0
}

// Items returns the elements of a sequence, nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != Sequence {
		return nil
	}
	return v.items
}

// Keys returns mapping keys in decode order.
func (v Value) Keys() []string {
	if v.kind != Mapping {
		return nil
	}
	return v.keys
}

// Get returns the value stored under key, or Null when v is not a mapping
// or the key is absent.
func (v Value) Get(key string) Value {
	if v.kind != Mapping {
		return Value{}
	}
	return v.fields[key]
}

// Has reports whether key is present in a mapping.
func (v Value) Has(key string) bool {
	if v.kind != Mapping {
		return false
	}
	_, ok := v.fields[key]
	return ok
}

// Set adds or replaces key, keeping first-insertion order.
func (v *Value) Set(key string, val Value) {
	if v.kind != Mapping {
		*v = Empty()
	}
	if _, ok := v.fields[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

// Each calls fn for every mapping entry in decode order.
func (v Value) Each(fn func(key string, val Value)) {
	if v.kind != Mapping {
		return
	}
	for _, k := range v.keys {
		fn(k, v.fields[k])
	}
}

// AsString returns the string payload of a String value.
func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// AsFloat returns a Number as float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsInt returns a Number as int64. Fractions are truncated.
func (v Value) AsInt() (int64, bool) {
	if v.kind != Number {
		return 0, false
	}
	if n, err := strconv.ParseInt(v.num, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Canonical renders a String or Number as its canonical text form. Integral
// numbers render without exponent or fraction, so 76561198000000000 and
// 7.6561198e16 decode to the same identity.
func (v Value) Canonical() (string, bool) {
	switch v.kind {
	case String:
		return v.s, true
	case Number:
		if _, err := strconv.ParseInt(v.num, 10, 64); err == nil {
			return v.num, true
		}
		if u, err := strconv.ParseUint(v.num, 10, 64); err == nil {
			return strconv.FormatUint(u, 10), true
		}
		f, err := strconv.ParseFloat(v.num, 64)
		if err != nil {
			return v.num, true
		}
		if f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', 0, 64), true
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}

// Interface converts v to plain Go values (map[string]interface{},
// []interface{}, float64, string, bool, nil).
func (v Value) Interface() interface{} {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		f, _ := v.AsFloat()
		return f
	case String:
		return v.s
	case Sequence:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case Mapping:
		out := make(map[string]interface{}, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.fields[k].Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON writes v with mapping keys in decode order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.num)
	case String:
		if err := encodeString(buf, v.s); err != nil {
			return err
		}
	case Sequence:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Mapping:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON replaces v with the decoded document.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// encodeString writes s as a JSON string without HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
