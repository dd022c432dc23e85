package models

import (
	"encoding/json"
	"testing"
)

func TestValue_Constructors(t *testing.T) {
	sv := StringValue("Intro to Systems")
	if got, ok := sv.AsString(); !ok || got != "Intro to Systems" {
		t.Errorf("AsString() = (%q, %v)", got, ok)
	}
	if _, ok := sv.AsNumber(); ok {
		t.Error("string value should not report a number payload")
	}
	if _, ok := sv.AsReference(); ok {
		t.Error("string value should not report a reference payload")
	}
	if sv.Kind() != KindString {
		t.Errorf("Kind() = %v, want %v", sv.Kind(), KindString)
	}

	nv := NumberValue(3)
	if got, ok := nv.AsNumber(); !ok || got != 3 {
		t.Errorf("AsNumber() = (%v, %v)", got, ok)
	}

	rv := ReferenceValue(EntityID(42))
	if got, ok := rv.AsReference(); !ok || got != 42 {
		t.Errorf("AsReference() = (%v, %v)", got, ok)
	}
}

func TestValue_Zero(t *testing.T) {
	var v Value
	if !v.IsZero() {
		t.Error("zero Value should report IsZero")
	}
	if v.Kind().Valid() {
		t.Error("zero Value should not have a valid kind")
	}
	if StringValue("").IsZero() {
		t.Error("empty string value is still a populated value")
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"same string", StringValue("a"), StringValue("a"), true},
		{"different string", StringValue("a"), StringValue("b"), false},
		{"same number", NumberValue(3), NumberValue(3), true},
		{"same reference", ReferenceValue(1), ReferenceValue(1), true},
		{"kind mismatch", StringValue("3"), NumberValue(3), false},
		{"number vs reference", NumberValue(1), ReferenceValue(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal() = %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"string", StringValue("CS-101"), `"CS-101"`},
		{"number", NumberValue(3.5), `3.5`},
		{"reference", ReferenceValue(7), `{"$ref":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal = %s, want %s", data, tt.expected)
			}
		})
	}

	if _, err := json.Marshal(Value{}); err == nil {
		t.Error("marshaling the zero Value should fail")
	}
}
