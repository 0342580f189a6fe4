package models

import "testing"

func TestRunStatusTransitions(t *testing.T) {
	cases := []struct {
		from    RunStatus
		to      RunStatus
		allowed bool
	}{
		{RunStatusDraft, RunStatusParsed, true},
		{RunStatusDraft, RunStatusDraft, true},
		{RunStatusDraft, RunStatusImported, false},
		{RunStatusDraft, RunStatusFailed, false},
		{RunStatusParsed, RunStatusImported, true},
		{RunStatusParsed, RunStatusFailed, true},
		{RunStatusParsed, RunStatusParsed, true},
		{RunStatusParsed, RunStatusDraft, false},
		{RunStatusFailed, RunStatusDraft, true},
		{RunStatusFailed, RunStatusImported, false},
		{RunStatusImported, RunStatusDraft, false},
		{RunStatusImported, RunStatusParsed, false},
		{RunStatusImported, RunStatusFailed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestChangeStatus_RejectsIllegalMove(t *testing.T) {
	run := &ImportRun{Status: RunStatusDraft}
	if err := run.ChangeStatus(RunStatusImported); err == nil {
		t.Fatal("Draft -> Imported should be rejected")
	}
	if run.Status != RunStatusDraft {
		t.Fatalf("status mutated on rejected transition: %s", run.Status)
	}
	if err := run.ChangeStatus(RunStatusParsed); err != nil {
		t.Fatalf("Draft -> Parsed should be allowed: %v", err)
	}
	if run.Status != RunStatusParsed {
		t.Fatalf("status not applied: %s", run.Status)
	}
}

func TestParseRunMode(t *testing.T) {
	if _, err := ParseRunMode("Checkin"); err != nil {
		t.Fatalf("Checkin should parse: %v", err)
	}
	if _, err := ParseRunMode("checkin"); err == nil {
		t.Fatal("mode parsing is case sensitive")
	}
	if _, err := ParseRunMode("Unknown"); err == nil {
		t.Fatal("unknown mode should be rejected")
	}
}

func TestAppendImportLog_CapsDetail(t *testing.T) {
	run := &ImportRun{}
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	if err := run.AppendImportLog(ImportLogEntry{Outcome: RowOutcomeFailed, Detail: string(long)}); err != nil {
		t.Fatalf("AppendImportLog error: %v", err)
	}
	entries, err := run.GetImportLog()
	if err != nil {
		t.Fatalf("GetImportLog error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].Detail) != importLogDetailMaxLen {
		t.Fatalf("detail not capped: %d", len(entries[0].Detail))
	}
	if entries[0].Timestamp.IsZero() {
		t.Fatal("timestamp should be backfilled")
	}
}
