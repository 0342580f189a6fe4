package models

import (
	"regexp"
	"strings"
)

// ColumnMapping is embedded into ImportRun. Column fields hold header labels
// from the source file, not indexes, so re-uploading a file with reordered
// columns keeps the mapping valid.
type ColumnMapping struct {
	FileType                 SourceFileType `gorm:"size:10;default:'CSV'" json:"file_type"`
	Delimiter                string         `gorm:"size:5;default:','" json:"delimiter"`
	Encoding                 string         `gorm:"size:40;default:'utf-8'" json:"encoding"`
	SkipHeaderRows           int            `gorm:"default:0" json:"skip_header_rows"`
	DateFormat               string         `gorm:"size:40" json:"date_format"`
	DecimalSeparator         string         `gorm:"size:5;default:'.'" json:"decimal_separator"`
	RemoveThousandSeparators bool           `gorm:"default:true" json:"remove_thousand_separators"`
	NegativeInParentheses    bool           `gorm:"default:false" json:"negative_in_parentheses"`
	HasCreditDebitColumns    bool           `gorm:"default:false" json:"has_credit_debit_columns"`

	DateColumn        string `gorm:"size:255" json:"date_column"`
	DescriptionColumn string `gorm:"size:255" json:"description_column"`
	AmountColumn      string `gorm:"size:255" json:"amount_column"`
	CreditColumn      string `gorm:"size:255" json:"credit_column"`
	DebitColumn       string `gorm:"size:255" json:"debit_column"`
	BalanceColumn     string `gorm:"size:255" json:"balance_column"`
	ReferenceColumn   string `gorm:"size:255" json:"reference_column"`

	// newline separated terms; a row containing any of them is dropped before normalization
	IgnoreRowsContaining string `gorm:"type:text" json:"ignore_rows_containing"`

	// checkin mode
	DeviceIdColumn string `gorm:"size:255" json:"device_id_column"`

	// invoice mode
	CostCenterColumn         string `gorm:"size:255" json:"cost_center_column"`
	FallbackCostCenterColumn string `gorm:"size:255" json:"fallback_cost_center_column"`
	ValueColumn              string `gorm:"size:255" json:"value_column"`
}

// MappingValidation is the result of a full validator pass.
type MappingValidation struct {
	Ok      bool     `json:"ok"`
	Missing []string `json:"missing"`
}

// Validate checks the mapping is complete enough to parse for the given mode.
// It reports every missing field in one pass, not just the first.
func (m ColumnMapping) Validate(mode RunMode) MappingValidation {
	var missing []string

	if strings.TrimSpace(m.DateColumn) == "" {
		missing = append(missing, "Date Column")
	}

	switch mode {
	case RunModeCheckin:
		if strings.TrimSpace(m.DeviceIdColumn) == "" {
			missing = append(missing, "Device Id Column")
		}
	case RunModeBankStatement:
		if strings.TrimSpace(m.DescriptionColumn) == "" {
			missing = append(missing, "Description Column")
		}
		if m.HasCreditDebitColumns {
			if strings.TrimSpace(m.CreditColumn) == "" {
				missing = append(missing, "Credit Column")
			}
			if strings.TrimSpace(m.DebitColumn) == "" {
				missing = append(missing, "Debit Column")
			}
		} else {
			if strings.TrimSpace(m.AmountColumn) == "" {
				missing = append(missing, "Amount Column")
			}
		}
	case RunModePurchaseInvoice:
		if strings.TrimSpace(m.DescriptionColumn) == "" {
			missing = append(missing, "Description Column")
		}
		if strings.TrimSpace(m.CostCenterColumn) == "" {
			missing = append(missing, "Cost Center Column")
		}
		if strings.TrimSpace(m.ValueColumn) == "" {
			missing = append(missing, "Value Column")
		}
	}

	return MappingValidation{Ok: len(missing) == 0, Missing: missing}
}

// IgnoreTerms splits IgnoreRowsContaining into trimmed non-empty terms.
func (m ColumnMapping) IgnoreTerms() []string {
	var terms []string
	for _, line := range strings.Split(m.IgnoreRowsContaining, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			terms = append(terms, line)
		}
	}
	return terms
}

// ColumnGuesses holds heuristic mapping suggestions from a header row.
type ColumnGuesses struct {
	DateColumn            string `json:"date_column"`
	DescriptionColumn     string `json:"description_column"`
	AmountColumn          string `json:"amount_column"`
	CreditColumn          string `json:"credit_column"`
	DebitColumn           string `json:"debit_column"`
	BalanceColumn         string `json:"balance_column"`
	ReferenceColumn       string `json:"reference_column"`
	HasCreditDebitColumns bool   `json:"has_credit_debit_columns"`
}

var headerNormalizeRe = regexp.MustCompile(`[()\[\]{}_/\\.,;:\-]+`)
var headerSpaceRe = regexp.MustCompile(`\s+`)

func normalizeHeaderLabel(s string) string {
	s = strings.ToLower(s)
	s = headerNormalizeRe.ReplaceAllString(s, " ")
	s = headerSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DetectColumns guesses a statement mapping from a header row. Substring
// matching against normalized labels, so headers like "Credit (Deposit)" work.
// Never modifies the run.
func DetectColumns(header []string) ColumnGuesses {
	labels := make([]string, len(header))
	normalized := make([]string, len(header))
	for i, c := range header {
		labels[i] = strings.TrimSpace(c)
		normalized[i] = normalizeHeaderLabel(c)
	}

	findAny := func(needles ...string) int {
		for i, col := range normalized {
			for _, n := range needles {
				if strings.Contains(col, n) {
					return i
				}
			}
		}
		return -1
	}

	var g ColumnGuesses

	if i := findAny("value date", "txn date", "transaction date", "posting date", "date"); i >= 0 {
		g.DateColumn = labels[i]
	}
	if i := findAny("description", "details", "narration", "remarks", "memo", "particulars"); i >= 0 {
		g.DescriptionColumn = labels[i]
	}

	ai := findAny("amount", "transaction amount", "amt")
	cri := findAny("credit", "cr", "deposit", "credit deposit", "deposit amount", "amount credited", "credit amount")
	dri := findAny("debit", "dr", "withdrawal", "debit withdrawal", "withdrawal amount", "amount debited", "debit amount")

	if ai >= 0 && (cri < 0 || dri < 0) {
		g.AmountColumn = labels[ai]
		g.HasCreditDebitColumns = false
	} else if cri >= 0 && dri >= 0 {
		g.CreditColumn = labels[cri]
		g.DebitColumn = labels[dri]
		g.HasCreditDebitColumns = true
	}

	if i := findAny("running balance", "available balance", "balance", "closing balance", "ledger balance"); i >= 0 {
		g.BalanceColumn = labels[i]
	}
	if i := findAny("reference", "ref", "cheque", "chq", "utr", "transaction id", "txn id"); i >= 0 {
		g.ReferenceColumn = labels[i]
	}

	return g
}
