// Package importer implements the batch import run pipeline: mapping
// validation, row normalization, preview, and idempotent generation of
// downstream records with duplicate suppression.
package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/imports_backend/models"
)

// CanonicalRow is the normalized representation of one parsed source row
// (or one group of rows in invoice mode). It never outlives the parse and
// generation cycle; only derived counts and a bounded sample are persisted.
type CanonicalRow struct {
	// NaturalKey is derived from immutable source fields only, so re-parsing
	// the same source always yields the same key for the same logical event.
	NaturalKey string `json:"natural_key"`
	// OrderKey gives rows a stable natural ordering (typically the event or
	// transaction timestamp).
	OrderKey   time.Time         `json:"order_key"`
	Ready      bool              `json:"ready"`
	Reason     string            `json:"reason,omitempty"`
	SourceFile string            `json:"source_file,omitempty"`
	Fields     map[string]string `json:"fields"`

	// exactly one of the mode payloads is set
	Checkin   *CheckinRow   `json:"checkin,omitempty"`
	Statement *StatementRow `json:"statement,omitempty"`
	Invoice   *InvoiceRow   `json:"invoice,omitempty"`
}

type CheckinRow struct {
	EventTime          time.Time `json:"event_time"`
	DeviceName         string    `json:"device_name"`
	AttendanceDeviceId string    `json:"attendance_device_id"`
	EmployeeId         int       `json:"employee_id"`
}

type StatementRow struct {
	Date        time.Time       `json:"date"`
	Deposit     decimal.Decimal `json:"deposit"`
	Withdrawal  decimal.Decimal `json:"withdrawal"`
	Balance     decimal.Decimal `json:"balance"`
	HasBalance  bool            `json:"has_balance"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

type InvoiceRow struct {
	GroupKey       string          `json:"group_key"`
	CostCenterId   int             `json:"cost_center_id"`
	CostCenterName string          `json:"cost_center_name"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	Total          decimal.Decimal `json:"total"`
	Lines          []InvoiceLine   `json:"lines"`
}

type InvoiceLine struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// SourceInput is one attached file already read into a raw grid.
type SourceInput struct {
	FileId     int
	FileName   string
	DeviceName string
	Rows       [][]string
}

// FileCounts is the per-file parse accounting delta.
type FileCounts struct {
	Parsed int
	Ready  int
}

// StatementSummary aggregates statement-mode derivations persisted on the run.
type StatementSummary struct {
	Start            *time.Time
	End              *time.Time
	BeginningBalance decimal.Decimal
	EndingBalance    decimal.Decimal
	DebitCount       int
	CreditCount      int
	DebitSum         decimal.Decimal
	CreditSum        decimal.Decimal
}

// ParseSummary aggregates one normalizer pass. Failed stays zero at parse
// time; rows that are merely not ready are reported through Ready, not Failed.
type ParseSummary struct {
	Total               int
	Ready               int
	Failed              int
	DistinctKeys        int
	SkippedBeforeCutoff int
	SkippedDuplicates   int
	UnmatchedIds        []string
	PerFile             map[int]FileCounts
	Statement           *StatementSummary
}

// GenerateResult is the outcome of one generation pass.
type GenerateResult struct {
	Created       int                     `json:"created"`
	AlreadyExists int                     `json:"already_exists"`
	Failed        int                     `json:"failed"`
	Skipped       int                     `json:"skipped"`
	LastEventTime *time.Time              `json:"last_event_time"`
	SideEffects   int                     `json:"side_effects"`
	Details       []models.ImportLogEntry `json:"details"`
}
