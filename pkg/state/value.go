// Package state implements the typed state store backing a protocol session.
// Values are stored in a canonical text form tagged with their declared type;
// the coercion helpers here are the single source of truth for how text is
// read as numbers and booleans, shared with pkg/interpreter.
package state

import (
	"strconv"
	"strings"
)

// Kind tags a value with its declared CPL type.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// KindFromName maps a declared type name to its Kind.
func KindFromName(name string) (Kind, bool) {
	switch name {
	case "string":
		return KindString, true
	case "int":
		return KindInt, true
	case "bool":
		return KindBool, true
	case "float":
		return KindFloat, true
	default:
		return KindString, false
	}
}

// Value is a typed state value in canonical text form.
type Value struct {
	Kind Kind
	Text string
}

func String(v string) Value { return Value{Kind: KindString, Text: v} }

func Int(v int64) Value { return Value{Kind: KindInt, Text: strconv.FormatInt(v, 10)} }

func Bool(v bool) Value { return Value{Kind: KindBool, Text: strconv.FormatBool(v)} }

func Float(v float64) Value { return Value{Kind: KindFloat, Text: FormatFloat(v)} }

func (v Value) AsString() string { return v.Text }

func (v Value) AsInt() int64 { return ToInt(v.Text) }

func (v Value) AsBool() bool { return Truthy(v.Text) }

func (v Value) AsFloat() float64 { return ToFloat(v.Text) }

// ToFloat parses text as a floating point number; unparsable text reads as 0.
func ToFloat(text string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return f
}

// ToInt parses text as an integer; fractional text truncates toward zero and
// unparsable text reads as 0.
func ToInt(text string) int64 {
	s := strings.TrimSpace(text)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Truthy applies the canonical CPL truthiness rule: "true" and "1" are true,
// "false" and "0" are false, any other non-empty text is true.
func Truthy(text string) bool {
	switch text {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return text != ""
}

// FormatFloat renders a float in canonical CPL text form: minimal digits, no
// exponent, and no fractional suffix for integer-valued results.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool renders a boolean in canonical CPL text form.
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}
