package models

import "testing"

func TestBootstrapReport_Counts(t *testing.T) {
	report := &BootstrapReport{
		Entries: []BootstrapEntry{
			{Domain: "course", Attribute: "title", Kind: KindString, Status: BootstrapCreated},
			{Domain: "course", Attribute: "credits", Kind: KindNumber, Status: BootstrapPresent},
			{Domain: "course", Attribute: "code", Kind: KindNumber, Status: BootstrapKindConflict, ExistingKind: KindString},
			{Domain: "staff", Attribute: "email", Kind: KindString, Status: BootstrapCreated},
		},
	}

	if got := report.Created(); got != 2 {
		t.Errorf("Created() = %d, want 2", got)
	}
	if got := report.Present(); got != 1 {
		t.Errorf("Present() = %d, want 1", got)
	}

	conflicts := report.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("Conflicts() returned %d entries, want 1", len(conflicts))
	}
	if conflicts[0].Attribute != "code" || conflicts[0].ExistingKind != KindString {
		t.Errorf("unexpected conflict entry: %+v", conflicts[0])
	}
	if report.Clean() {
		t.Error("report with conflicts should not be Clean")
	}

	empty := &BootstrapReport{}
	if !empty.Clean() {
		t.Error("empty report should be Clean")
	}
}
