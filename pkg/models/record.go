package models

// Field is one materialized attribute on a record. Scalar attributes carry a
// single value; array attributes carry their values in array-index order.
// When a reference field has been resolved, Resolved holds the nested record
// for each value, parallel to Values.
type Field struct {
	Kind     ValueKind `json:"kind"`
	Values   []Value   `json:"values"`
	Resolved []*Record `json:"resolved,omitempty"`
}

// Scalar returns the single value of a scalar field. It returns false for
// array fields and for empty fields.
func (f Field) Scalar() (Value, bool) {
	if f.Kind.IsArray() || len(f.Values) != 1 {
		return Value{}, false
	}
	return f.Values[0], true
}

// List returns the field's values in array-index order.
func (f Field) List() []Value { return f.Values }

// Record is a typed domain record reconstructed from EAV rows: the entity
// identity plus a mapping from attribute name to field. Attributes with no
// stored value are omitted from Fields, never defaulted.
type Record struct {
	Entity Entity           `json:"entity"`
	Fields map[string]Field `json:"fields"`
}

// Get returns the named field and whether it is present.
func (r *Record) Get(name string) (Field, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// GetString returns the scalar string payload of the named field.
func (r *Record) GetString(name string) (string, bool) {
	f, ok := r.Fields[name]
	if !ok {
		return "", false
	}
	v, ok := f.Scalar()
	if !ok {
		return "", false
	}
	return v.AsString()
}

// GetNumber returns the scalar number payload of the named field.
func (r *Record) GetNumber(name string) (float64, bool) {
	f, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	v, ok := f.Scalar()
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// GetReference returns the scalar reference payload of the named field.
func (r *Record) GetReference(name string) (EntityID, bool) {
	f, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	v, ok := f.Scalar()
	if !ok {
		return 0, false
	}
	return v.AsReference()
}
