package models

import "errors"

type RunMode string

const (
	RunModeCheckin         RunMode = "Checkin"
	RunModeBankStatement   RunMode = "BankStatement"
	RunModePurchaseInvoice RunMode = "PurchaseInvoice"
)

var runModes = map[string]RunMode{
	"Checkin":         RunModeCheckin,
	"BankStatement":   RunModeBankStatement,
	"PurchaseInvoice": RunModePurchaseInvoice,
}

func ParseRunMode(s string) (RunMode, error) {
	mode, ok := runModes[s]
	if !ok {
		return "", errors.New("invalid run mode")
	}
	return mode, nil
}

type RunStatus string

const (
	RunStatusDraft    RunStatus = "Draft"
	RunStatusParsed   RunStatus = "Parsed"
	RunStatusImported RunStatus = "Imported"
	RunStatusFailed   RunStatus = "Failed"
)

// runStatusTransitions is the only source of truth for legal status moves.
// Imported is terminal; the administrative reopen bypasses this table on
// purpose and is gated separately (see ReopenImportRun).
var runStatusTransitions = map[RunStatus][]RunStatus{
	RunStatusDraft:    {RunStatusDraft, RunStatusParsed},
	RunStatusParsed:   {RunStatusParsed, RunStatusImported, RunStatusFailed},
	RunStatusFailed:   {RunStatusDraft},
	RunStatusImported: {},
}

// CanTransition reports whether from -> to appears in the transition table.
func (from RunStatus) CanTransition(to RunStatus) bool {
	for _, next := range runStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsRetryable reports whether an operator may safely re-run parse on this status.
func (s RunStatus) IsRetryable() bool {
	return s == RunStatusDraft || s == RunStatusFailed
}

func (s RunStatus) IsLocked() bool {
	return s == RunStatusImported
}

type SourceFileStatus string

const (
	SourceFileStatusDraft   SourceFileStatus = "Draft"
	SourceFileStatusParsed  SourceFileStatus = "Parsed"
	SourceFileStatusError   SourceFileStatus = "Error"
	SourceFileStatusSkipped SourceFileStatus = "Skipped"
)

type SourceFileType string

const (
	SourceFileTypeCSV  SourceFileType = "CSV"
	SourceFileTypeXLSX SourceFileType = "XLSX"
)

// RowOutcome labels one import-log entry.
type RowOutcome string

const (
	RowOutcomeCreated       RowOutcome = "Created"
	RowOutcomeAlreadyExists RowOutcome = "AlreadyExists"
	RowOutcomeFailed        RowOutcome = "Failed"
	RowOutcomeSkipped       RowOutcome = "Skipped"
	RowOutcomeReopened      RowOutcome = "Reopened"
)
