package models

import (
	"fmt"
	"strings"
)

// ValueKind is the declared type of an attribute. Array kinds use the
// "elem[]" notation (e.g. "string[]") and hold an ordered sequence of
// elements keyed by array index.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindReference ValueKind = "reference"

	KindStringArray    ValueKind = "string[]"
	KindNumberArray    ValueKind = "number[]"
	KindReferenceArray ValueKind = "reference[]"
)

// Valid reports whether k is one of the declared kinds.
func (k ValueKind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindReference,
		KindStringArray, KindNumberArray, KindReferenceArray:
		return true
	}
	return false
}

// IsArray reports whether k is an array kind.
func (k ValueKind) IsArray() bool {
	return strings.HasSuffix(string(k), "[]")
}

// Elem returns the element kind of an array kind. For scalar kinds it
// returns the kind itself.
func (k ValueKind) Elem() ValueKind {
	if k.IsArray() {
		return ValueKind(strings.TrimSuffix(string(k), "[]"))
	}
	return k
}

// ParseValueKind parses a kind string as it appears in domain spec files
// and in the attribute table.
func ParseValueKind(s string) (ValueKind, error) {
	k := ValueKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown value kind %q", s)
	}
	return k, nil
}
