package models

import (
	"encoding/json"
	"fmt"
)

// Value is a tagged union holding exactly one typed payload. The zero Value
// is invalid; values are built through the constructors so a row can never
// carry two populated payloads.
type Value struct {
	kind      ValueKind
	stringVal string
	numberVal float64
	refVal    EntityID
}

// StringValue returns a string-kind value.
func StringValue(s string) Value {
	return Value{kind: KindString, stringVal: s}
}

// NumberValue returns a number-kind value.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, numberVal: n}
}

// ReferenceValue returns a reference-kind value pointing at another entity.
func ReferenceValue(id EntityID) Value {
	return Value{kind: KindReference, refVal: id}
}

// Kind returns the scalar kind of the payload. Values read from an array
// attribute report the element kind, not the array kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether v is the invalid zero Value.
func (v Value) IsZero() bool { return v.kind == "" }

// AsString returns the string payload and whether v holds one.
func (v Value) AsString() (string, bool) {
	return v.stringVal, v.kind == KindString
}

// AsNumber returns the number payload and whether v holds one.
func (v Value) AsNumber() (float64, bool) {
	return v.numberVal, v.kind == KindNumber
}

// AsReference returns the referenced entity id and whether v holds one.
func (v Value) AsReference() (EntityID, bool) {
	return v.refVal, v.kind == KindReference
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	return v == other
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.stringVal)
	case KindNumber:
		return fmt.Sprintf("%g", v.numberVal)
	case KindReference:
		return fmt.Sprintf("ref:%d", v.refVal)
	default:
		return "<invalid value>"
	}
}

// MarshalJSON emits the bare payload: "text", 3.5, or a reference object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.stringVal)
	case KindNumber:
		return json.Marshal(v.numberVal)
	case KindReference:
		return json.Marshal(map[string]EntityID{"$ref": v.refVal})
	default:
		return nil, fmt.Errorf("cannot marshal invalid value")
	}
}
