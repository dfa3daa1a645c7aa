package models

import (
	"strconv"
	"strings"
)

// ValueKind enumerates the closed set of frontmatter value shapes.
type ValueKind string

// Frontmatter value kinds.
const (
	ValueNull       ValueKind = "null"
	ValueString     ValueKind = "string"
	ValueNumber     ValueKind = "number"
	ValueBool       ValueKind = "bool"
	ValueStringList ValueKind = "list"
)

// Value is a frontmatter value. Modelling it as a closed variant lets
// consistency checks switch exhaustively over Kind instead of type-asserting
// an interface{}.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Bool bool      `json:"bool,omitempty"`
	List []string  `json:"list,omitempty"`
}

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: ValueNull} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue wraps n.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// ListValue wraps items.
func ListValue(items []string) Value { return Value{Kind: ValueStringList, List: items} }

// Scalar reports whether the value is a single comparable scalar.
func (v Value) Scalar() bool {
	return v.Kind == ValueString || v.Kind == ValueNumber || v.Kind == ValueBool
}

// String renders the value the way it would appear in a frontmatter block.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueStringList:
		return "[" + strings.Join(v.List, ", ") + "]"
	default:
		return ""
	}
}
