package models

import (
	"reflect"
	"testing"
)

func TestMappingValidate_ReportsAllMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		mode    RunMode
		mapping ColumnMapping
		missing []string
	}{
		{
			name:    "checkin complete",
			mode:    RunModeCheckin,
			mapping: ColumnMapping{DateColumn: "1", DeviceIdColumn: "7"},
			missing: nil,
		},
		{
			name:    "checkin missing device id",
			mode:    RunModeCheckin,
			mapping: ColumnMapping{DateColumn: "1"},
			missing: []string{"Device Id Column"},
		},
		{
			name:    "statement single amount missing amount only",
			mode:    RunModeBankStatement,
			mapping: ColumnMapping{DateColumn: "Value Date", DescriptionColumn: "Narration"},
			missing: []string{"Amount Column"},
		},
		{
			name: "statement credit debit missing both sides",
			mode: RunModeBankStatement,
			mapping: ColumnMapping{
				DateColumn:            "Date",
				DescriptionColumn:     "Details",
				HasCreditDebitColumns: true,
			},
			missing: []string{"Credit Column", "Debit Column"},
		},
		{
			name:    "invoice empty mapping reports everything",
			mode:    RunModePurchaseInvoice,
			mapping: ColumnMapping{},
			missing: []string{"Date Column", "Description Column", "Cost Center Column", "Value Column"},
		},
		{
			name:    "whitespace only counts as missing",
			mode:    RunModeCheckin,
			mapping: ColumnMapping{DateColumn: "  ", DeviceIdColumn: "uid"},
			missing: []string{"Date Column"},
		},
	}

	for _, tc := range cases {
		got := tc.mapping.Validate(tc.mode)
		if got.Ok != (len(tc.missing) == 0) {
			t.Fatalf("%s: Ok=%v with missing %v", tc.name, got.Ok, got.Missing)
		}
		if !reflect.DeepEqual(got.Missing, tc.missing) {
			t.Fatalf("%s: expected missing %v, got %v", tc.name, tc.missing, got.Missing)
		}
	}
}

func TestIgnoreTerms_SplitsAndTrims(t *testing.T) {
	m := ColumnMapping{IgnoreRowsContaining: "Opening Balance\n\n  TOTAL  \n"}
	got := m.IgnoreTerms()
	want := []string{"Opening Balance", "TOTAL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDetectColumns_SingleAmountHeader(t *testing.T) {
	g := DetectColumns([]string{"Value Date", "Narration", "Amount", "Running Balance", "Cheque No"})
	if g.DateColumn != "Value Date" {
		t.Fatalf("date guess: %q", g.DateColumn)
	}
	if g.DescriptionColumn != "Narration" {
		t.Fatalf("description guess: %q", g.DescriptionColumn)
	}
	if g.AmountColumn != "Amount" || g.HasCreditDebitColumns {
		t.Fatalf("expected single amount column, got %+v", g)
	}
	if g.BalanceColumn != "Running Balance" {
		t.Fatalf("balance guess: %q", g.BalanceColumn)
	}
	if g.ReferenceColumn != "Cheque No" {
		t.Fatalf("reference guess: %q", g.ReferenceColumn)
	}
}

func TestDetectColumns_CreditDebitHeader(t *testing.T) {
	g := DetectColumns([]string{"Txn Date", "Details", "Credit (Deposit)", "Debit (Withdrawal)", "Balance"})
	if !g.HasCreditDebitColumns {
		t.Fatalf("expected credit/debit detection, got %+v", g)
	}
	if g.CreditColumn != "Credit (Deposit)" || g.DebitColumn != "Debit (Withdrawal)" {
		t.Fatalf("credit/debit guesses: %q / %q", g.CreditColumn, g.DebitColumn)
	}
	if g.AmountColumn != "" {
		t.Fatalf("amount should stay empty when both sides exist, got %q", g.AmountColumn)
	}
}

func TestDetectColumns_NoMatches(t *testing.T) {
	g := DetectColumns([]string{"colA", "colB"})
	if g.DateColumn != "" || g.AmountColumn != "" || g.HasCreditDebitColumns {
		t.Fatalf("expected empty guesses, got %+v", g)
	}
}
