package importer

import (
	"context"
	"testing"

	"github.com/mmdatafocus/imports_backend/models"
)

type fakeStatementStore struct {
	existing map[string]bool
	created  []*models.BankingTransaction
	nextId   int
}

func (s *fakeStatementStore) key(t *models.BankingTransaction) string {
	return t.TransactionDate.Format("2006-01-02") + "|" + t.Deposit.StringFixed(3) + "|" +
		t.Withdrawal.StringFixed(3) + "|" + t.Description + "|" + t.ReferenceNumber
}

func (s *fakeStatementStore) TransactionExists(ctx context.Context, businessId string, t *models.BankingTransaction) (bool, error) {
	return s.existing[s.key(t)], nil
}

func (s *fakeStatementStore) CreateTransaction(ctx context.Context, t *models.BankingTransaction) (int, error) {
	s.nextId++
	s.created = append(s.created, t)
	if s.existing == nil {
		s.existing = map[string]bool{}
	}
	s.existing[s.key(t)] = true
	return s.nextId, nil
}

func statementRun(creditDebit bool) *models.ImportRun {
	m := models.ColumnMapping{
		DateColumn:               "Date",
		DescriptionColumn:        "Description",
		BalanceColumn:            "Balance",
		ReferenceColumn:          "Reference",
		DateFormat:               "DD/MM/YYYY",
		RemoveThousandSeparators: true,
		HasCreditDebitColumns:    creditDebit,
	}
	if creditDebit {
		m.CreditColumn = "Credit"
		m.DebitColumn = "Debit"
	} else {
		m.AmountColumn = "Amount"
	}
	return &models.ImportRun{
		ID:            2,
		BusinessId:    "biz-1",
		Mode:          models.RunModeBankStatement,
		BankAccountId: 5,
		Currency:      "MMK",
		ColumnMapping: m,
	}
}

func TestStatementNormalize_SignedAmountSplit(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(false)

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Amount", "Balance", "Reference"},
		{"01/02/2026", "salary", "1,000.00", "11,000.00", "TXN1"},
		{"02/02/2026", "rent", "-400.00", "10,600.00", "TXN2"},
	}}}

	rows, summary, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if summary.Total != 2 || summary.Ready != 2 {
		t.Fatalf("total=%d ready=%d", summary.Total, summary.Ready)
	}

	first := rows[0].Statement
	if first.Deposit.StringFixed(3) != "1000.000" || !first.Withdrawal.IsZero() {
		t.Fatalf("positive amount should become deposit: %+v", first)
	}
	second := rows[1].Statement
	if second.Withdrawal.StringFixed(3) != "400.000" || !second.Deposit.IsZero() {
		t.Fatalf("negative amount should become withdrawal: %+v", second)
	}
}

func TestStatementNormalize_CreditDebitColumnsUseAbsolutes(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(true)

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Credit", "Debit", "Balance", "Reference"},
		{"01/02/2026", "deposit", "500", "", "10,500", "R1"},
		{"02/02/2026", "withdrawal", "", "-200", "10,300", "R2"},
	}}}

	rows, _, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rows[0].Statement.Deposit.StringFixed(3) != "500.000" {
		t.Fatalf("credit row: %+v", rows[0].Statement)
	}
	if rows[1].Statement.Withdrawal.StringFixed(3) != "200.000" {
		t.Fatalf("debit cells are absolute values: %+v", rows[1].Statement)
	}
}

func TestStatementNormalize_MalformedRowsRetainedUnready(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(false)

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Amount", "Balance", "Reference"},
		{"01/02/2026", "ok", "100", "", ""},
		{"garbage", "bad date", "100", "", ""},
		{"02/02/2026", "bad amount", "12x", "", ""},
	}}}

	rows, summary, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if summary.Total != 3 || summary.Ready != 1 {
		t.Fatalf("malformed rows should stay in the set: total=%d ready=%d", summary.Total, summary.Ready)
	}
	unreadyReasons := 0
	for _, r := range rows {
		if !r.Ready {
			if r.Reason == "" {
				t.Fatal("unready row without a reason")
			}
			unreadyReasons++
		}
	}
	if unreadyReasons != 2 {
		t.Fatalf("expected 2 unready rows, got %d", unreadyReasons)
	}
}

func TestStatementNormalize_IgnoreTermsDropRows(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(false)
	run.IgnoreRowsContaining = "Opening Balance"

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Amount", "Balance", "Reference"},
		{"01/02/2026", "Opening Balance", "0", "10,000", ""},
		{"01/02/2026", "salary", "1,000", "11,000", ""},
	}}}

	_, summary, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("ignored row should not be counted, total=%d", summary.Total)
	}
}

func TestStatementNormalize_SummaryBalances(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(false)

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Amount", "Balance", "Reference"},
		{"01/02/2026", "salary", "1,000", "11,000", ""},
		{"02/02/2026", "rent", "-400", "10,600", ""},
		{"03/02/2026", "groceries", "-100", "10,500", ""},
	}}}

	_, summary, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	s := summary.Statement
	if s == nil {
		t.Fatal("statement summary missing")
	}
	// first balance 11000 minus first net movement (+1000) gives 10000
	if s.BeginningBalance.StringFixed(3) != "10000.000" {
		t.Fatalf("beginning balance = %s", s.BeginningBalance.StringFixed(3))
	}
	if s.EndingBalance.StringFixed(3) != "10500.000" {
		t.Fatalf("ending balance = %s", s.EndingBalance.StringFixed(3))
	}
	if s.CreditCount != 1 || s.DebitCount != 2 {
		t.Fatalf("credit/debit counts: %d/%d", s.CreditCount, s.DebitCount)
	}
	if s.CreditSum.StringFixed(3) != "1000.000" || s.DebitSum.StringFixed(3) != "500.000" {
		t.Fatalf("credit/debit sums: %s/%s", s.CreditSum.StringFixed(3), s.DebitSum.StringFixed(3))
	}
	if s.Start == nil || s.End == nil || !s.Start.Before(*s.End) {
		t.Fatalf("date range: %v - %v", s.Start, s.End)
	}
}

func TestStatementNaturalKey_StableAndDistinct(t *testing.T) {
	n := &statementNormalizer{store: &fakeStatementStore{}}
	run := statementRun(false)

	input := []SourceInput{{FileId: 1, FileName: "stmt.csv", Rows: [][]string{
		{"Date", "Description", "Amount", "Balance", "Reference"},
		{"01/02/2026", "salary", "1,000", "", "R1"},
		{"01/02/2026", "salary", "1,000", "", "R2"},
	}}}

	rows, summary, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rows[0].NaturalKey == rows[1].NaturalKey {
		t.Fatal("differing references must produce differing keys")
	}
	if summary.DistinctKeys != 2 {
		t.Fatalf("distinct keys = %d", summary.DistinctKeys)
	}

	again, _, err := n.Normalize(context.Background(), run, input)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if rows[0].NaturalKey != again[0].NaturalKey {
		t.Fatal("natural key unstable across re-parse")
	}
}
