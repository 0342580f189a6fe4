package importer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/imports_backend/fileparse"
	"github.com/mmdatafocus/imports_backend/models"
)

// StatementStore abstracts transaction persistence for the statement pipeline.
type StatementStore interface {
	TransactionExists(ctx context.Context, businessId string, t *models.BankingTransaction) (bool, error)
	CreateTransaction(ctx context.Context, t *models.BankingTransaction) (int, error)
}

type statementNormalizer struct {
	store StatementStore
}

func (n *statementNormalizer) Normalize(ctx context.Context, run *models.ImportRun, files []SourceInput) ([]*CanonicalRow, *ParseSummary, error) {
	summary := &ParseSummary{PerFile: make(map[int]FileCounts)}
	ignoreTerms := run.IgnoreTerms()

	var rows []*CanonicalRow
	for _, input := range files {
		header, data := fileparse.HeaderAndData(input.Rows, run.SkipHeaderRows)
		dateIdx := ResolveColumnIndex(header, run.DateColumn)
		descIdx := ResolveColumnIndex(header, run.DescriptionColumn)
		amountIdx := ResolveColumnIndex(header, run.AmountColumn)
		creditIdx := ResolveColumnIndex(header, run.CreditColumn)
		debitIdx := ResolveColumnIndex(header, run.DebitColumn)
		balanceIdx := ResolveColumnIndex(header, run.BalanceColumn)
		refIdx := ResolveColumnIndex(header, run.ReferenceColumn)

		counts := FileCounts{}
		for _, raw := range data {
			if len(raw) == 0 || allEmpty(raw) {
				continue
			}
			if rowContainsAny(raw, ignoreTerms) {
				continue
			}

			line := &StatementRow{
				Description: cellAt(raw, descIdx),
				Reference:   cellAt(raw, refIdx),
			}
			row := &CanonicalRow{
				SourceFile: input.FileName,
				Statement:  line,
			}

			date, dateErr := ParseRowDate(cellAt(raw, dateIdx), run.DateFormat)
			if dateErr == nil {
				line.Date = date
				row.OrderKey = date
			}

			var amountErr error
			if run.HasCreditDebitColumns {
				credit, errC := ParseAmount(cellAt(raw, creditIdx), run.ColumnMapping)
				debit, errD := ParseAmount(cellAt(raw, debitIdx), run.ColumnMapping)
				if errC != nil {
					amountErr = errC
				} else if errD != nil {
					amountErr = errD
				} else {
					line.Deposit = credit.Abs()
					line.Withdrawal = debit.Abs()
				}
			} else {
				amount, errA := ParseAmount(cellAt(raw, amountIdx), run.ColumnMapping)
				if errA != nil {
					amountErr = errA
				} else if amount.IsNegative() {
					line.Withdrawal = amount.Neg()
				} else {
					line.Deposit = amount
				}
			}

			if balanceIdx >= 0 {
				if balance, err := ParseAmount(cellAt(raw, balanceIdx), run.ColumnMapping); err == nil && cellAt(raw, balanceIdx) != "" {
					line.Balance = balance
					line.HasBalance = true
				}
			}

			row.NaturalKey = statementNaturalKey(run.BankAccountId, line)
			row.Fields = map[string]string{
				"date":        cellAt(raw, dateIdx),
				"description": line.Description,
				"deposit":     line.Deposit.StringFixed(moneyPlaces),
				"withdrawal":  line.Withdrawal.StringFixed(moneyPlaces),
				"reference":   line.Reference,
			}
			if line.HasBalance {
				row.Fields["balance"] = line.Balance.StringFixed(moneyPlaces)
			}

			switch {
			case dateErr != nil:
				row.Reason = dateErr.Error()
			case amountErr != nil:
				row.Reason = amountErr.Error()
			default:
				row.Ready = true
				counts.Ready++
			}

			rows = append(rows, row)
			counts.Parsed++
		}
		summary.PerFile[input.FileId] = counts
		summary.Total += counts.Parsed
		summary.Ready += counts.Ready
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderKey.Equal(rows[j].OrderKey) {
			return rows[i].NaturalKey < rows[j].NaturalKey
		}
		return rows[i].OrderKey.Before(rows[j].OrderKey)
	})

	keys := make(map[string]bool, len(rows))
	for _, r := range rows {
		keys[r.NaturalKey] = true
	}
	summary.DistinctKeys = len(keys)
	summary.Statement = deriveStatementSummary(rows)

	return rows, summary, nil
}

// statementNaturalKey hashes the statement line composite so the same logical
// line always maps to the same key across re-parses.
func statementNaturalKey(bankAccountId int, line *StatementRow) string {
	composite := fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		bankAccountId,
		line.Date.UTC().Format("2006-01-02"),
		line.Deposit.StringFixed(moneyPlaces),
		line.Withdrawal.StringFixed(moneyPlaces),
		line.Description,
		line.Reference,
	)
	sum := sha1.Sum([]byte(composite))
	return "stmt:" + hex.EncodeToString(sum[:])
}

// deriveStatementSummary computes the statement date range, debit/credit
// aggregates and the beginning/ending balance when a balance column exists.
// Beginning balance backs the first line's net movement out of its balance.
func deriveStatementSummary(rows []*CanonicalRow) *StatementSummary {
	s := &StatementSummary{
		DebitSum:  decimal.Zero,
		CreditSum: decimal.Zero,
	}

	var first, last *StatementRow
	for _, r := range rows {
		if !r.Ready {
			continue
		}
		line := r.Statement
		if s.Start == nil || line.Date.Before(*s.Start) {
			start := line.Date
			s.Start = &start
		}
		if s.End == nil || line.Date.After(*s.End) {
			end := line.Date
			s.End = &end
		}
		if line.Withdrawal.IsPositive() {
			s.DebitCount++
			s.DebitSum = s.DebitSum.Add(line.Withdrawal)
		}
		if line.Deposit.IsPositive() {
			s.CreditCount++
			s.CreditSum = s.CreditSum.Add(line.Deposit)
		}
		if first == nil {
			first = line
		}
		last = line
	}

	if first != nil && first.HasBalance {
		s.BeginningBalance = first.Balance.Sub(first.Deposit.Sub(first.Withdrawal)).Round(moneyPlaces)
	}
	if last != nil && last.HasBalance {
		s.EndingBalance = last.Balance.Round(moneyPlaces)
	}
	s.DebitSum = s.DebitSum.Round(moneyPlaces)
	s.CreditSum = s.CreditSum.Round(moneyPlaces)
	return s
}

func (n *statementNormalizer) Exists(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (bool, error) {
	return n.store.TransactionExists(ctx, run.BusinessId, n.toTransaction(run, row))
}

func (n *statementNormalizer) Create(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (int, error) {
	return n.store.CreateTransaction(ctx, n.toTransaction(run, row))
}

func (n *statementNormalizer) toTransaction(run *models.ImportRun, row *CanonicalRow) *models.BankingTransaction {
	line := row.Statement
	return &models.BankingTransaction{
		BusinessId:      run.BusinessId,
		BankAccountId:   run.BankAccountId,
		TransactionDate: line.Date,
		Deposit:         line.Deposit,
		Withdrawal:      line.Withdrawal,
		Description:     line.Description,
		ReferenceNumber: line.Reference,
		Balance:         line.Balance,
		Currency:        run.Currency,
		RunId:           run.ID,
	}
}

func (n *statementNormalizer) Finalize(ctx context.Context, run *models.ImportRun, result *GenerateResult) error {
	return nil
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
