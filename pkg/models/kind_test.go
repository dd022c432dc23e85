package models

import "testing"

func TestValueKind_Valid(t *testing.T) {
	tests := []struct {
		kind  ValueKind
		valid bool
	}{
		{KindString, true},
		{KindNumber, true},
		{KindReference, true},
		{KindStringArray, true},
		{KindNumberArray, true},
		{KindReferenceArray, true},
		{ValueKind(""), false},
		{ValueKind("boolean"), false},
		{ValueKind("String"), false},
		{ValueKind("string[][]"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestValueKind_IsArrayAndElem(t *testing.T) {
	tests := []struct {
		kind    ValueKind
		isArray bool
		elem    ValueKind
	}{
		{KindString, false, KindString},
		{KindNumber, false, KindNumber},
		{KindReference, false, KindReference},
		{KindStringArray, true, KindString},
		{KindNumberArray, true, KindNumber},
		{KindReferenceArray, true, KindReference},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsArray(); got != tt.isArray {
				t.Errorf("IsArray() = %v, want %v", got, tt.isArray)
			}
			if got := tt.kind.Elem(); got != tt.elem {
				t.Errorf("Elem() = %v, want %v", got, tt.elem)
			}
		})
	}
}

func TestParseValueKind(t *testing.T) {
	if _, err := ParseValueKind("number[]"); err != nil {
		t.Fatalf("ParseValueKind(number[]) failed: %v", err)
	}
	if _, err := ParseValueKind("decimal"); err == nil {
		t.Fatal("ParseValueKind(decimal) should have failed")
	}
}
