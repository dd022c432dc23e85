package models

// BootstrapStatus classifies the outcome of registering one attribute.
type BootstrapStatus string

const (
	// BootstrapCreated means the attribute did not exist and was registered.
	BootstrapCreated BootstrapStatus = "created"
	// BootstrapPresent means an identical definition already existed.
	BootstrapPresent BootstrapStatus = "present"
	// BootstrapKindConflict means the attribute exists with a different kind.
	// The existing definition is left untouched; the conflict is surfaced
	// here for an operator to resolve.
	BootstrapKindConflict BootstrapStatus = "kind-conflict"
)

// BootstrapEntry is the outcome for a single (domain, attribute) pair.
type BootstrapEntry struct {
	Domain       string          `json:"domain"`
	Attribute    string          `json:"attribute"`
	Kind         ValueKind       `json:"kind"`
	Status       BootstrapStatus `json:"status"`
	ExistingKind ValueKind       `json:"existing_kind,omitempty"` // set on kind-conflict
}

// BootstrapReport is the full outcome of one ensure run.
type BootstrapReport struct {
	Entries []BootstrapEntry `json:"entries"`
}

// Created returns the number of newly registered attributes.
func (r *BootstrapReport) Created() int { return r.count(BootstrapCreated) }

// Present returns the number of attributes that were already registered.
func (r *BootstrapReport) Present() int { return r.count(BootstrapPresent) }

// Conflicts returns the kind-conflict entries.
func (r *BootstrapReport) Conflicts() []BootstrapEntry {
	var out []BootstrapEntry
	for _, e := range r.Entries {
		if e.Status == BootstrapKindConflict {
			out = append(out, e)
		}
	}
	return out
}

// Clean reports whether the run produced no kind conflicts.
func (r *BootstrapReport) Clean() bool { return len(r.Conflicts()) == 0 }

func (r *BootstrapReport) count(status BootstrapStatus) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}
