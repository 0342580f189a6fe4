package models

import "testing"

func TestEnsureMutable_LocksOnlyImported(t *testing.T) {
	cases := []struct {
		status RunStatus
		locked bool
	}{
		{RunStatusDraft, false},
		{RunStatusParsed, false},
		{RunStatusFailed, false},
		{RunStatusImported, true},
	}
	for _, tc := range cases {
		run := &ImportRun{Status: tc.status}
		err := run.EnsureMutable()
		if tc.locked && err == nil {
			t.Fatalf("%s: expected mutation to be rejected", tc.status)
		}
		if !tc.locked && err != nil {
			t.Fatalf("%s: expected mutation to be allowed, got %v", tc.status, err)
		}
		if got := tc.status.IsLocked(); got != tc.locked {
			t.Fatalf("%s: IsLocked() = %v, want %v", tc.status, got, tc.locked)
		}
	}
}

func TestEnsureMutable_DoesNotMutateStatus(t *testing.T) {
	run := &ImportRun{Status: RunStatusImported}
	if err := run.EnsureMutable(); err == nil {
		t.Fatal("Imported run should reject mutation")
	}
	if run.Status != RunStatusImported {
		t.Fatalf("status changed by guard: %s", run.Status)
	}
}
