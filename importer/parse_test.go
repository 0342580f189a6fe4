package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/imports_backend/models"
)

func TestApplyParseCounters_ResetsGenerationCounters(t *testing.T) {
	// Counters left over from a failed generate must not survive a re-parse.
	run := &models.ImportRun{
		Status:             models.RunStatusFailed,
		RowsDetected:       99,
		CreatedCount:       5,
		AlreadyExistsCount: 2,
		FailedCount:        3,
		SkippedCount:       4,
	}
	summary := &ParseSummary{
		Total:               10,
		Ready:               7,
		SkippedBeforeCutoff: 2,
		SkippedDuplicates:   1,
	}

	applyParseCounters(run, summary)

	if run.RowsDetected != 13 {
		t.Fatalf("rows detected = %d, want 13", run.RowsDetected)
	}
	if run.ParsedCount != 10 || run.ReadyCount != 7 {
		t.Fatalf("parsed/ready = %d/%d, want 10/7", run.ParsedCount, run.ReadyCount)
	}
	if run.CreatedCount != 0 || run.AlreadyExistsCount != 0 || run.FailedCount != 0 || run.SkippedCount != 0 {
		t.Fatalf("generation counters not reset: created=%d already_exists=%d failed=%d skipped=%d",
			run.CreatedCount, run.AlreadyExistsCount, run.FailedCount, run.SkippedCount)
	}
}

func TestApplyParseCounters_StatementSummary(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	run := &models.ImportRun{}
	summary := &ParseSummary{
		Total: 3,
		Ready: 3,
		Statement: &StatementSummary{
			Start:            &start,
			End:              &end,
			BeginningBalance: decimal.NewFromInt(10000),
			EndingBalance:    decimal.NewFromInt(10500),
			DebitCount:       1,
			CreditCount:      2,
			DebitSum:         decimal.NewFromInt(500),
			CreditSum:        decimal.NewFromInt(1000),
		},
	}

	applyParseCounters(run, summary)

	if run.StatementStart == nil || !run.StatementStart.Equal(start) {
		t.Fatalf("statement start = %v, want %v", run.StatementStart, start)
	}
	if run.StatementEnd == nil || !run.StatementEnd.Equal(end) {
		t.Fatalf("statement end = %v, want %v", run.StatementEnd, end)
	}
	if !run.BeginningBalance.Equal(decimal.NewFromInt(10000)) || !run.EndingBalance.Equal(decimal.NewFromInt(10500)) {
		t.Fatalf("balances = %s/%s, want 10000/10500", run.BeginningBalance, run.EndingBalance)
	}
	if run.DebitCount != 1 || run.CreditCount != 2 {
		t.Fatalf("debit/credit counts = %d/%d, want 1/2", run.DebitCount, run.CreditCount)
	}
}
