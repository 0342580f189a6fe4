package models

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/utils"
	"github.com/shopspring/decimal"
)

const importLogDetailMaxLen = 400

// ImportRun is one batch-import document. It owns the column mapping, the
// outcome counters, a bounded preview payload and an ordered import log.
type ImportRun struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index" json:"business_id"`
	Mode       RunMode   `gorm:"size:30;not null" json:"mode"`
	Status     RunStatus `gorm:"size:20;not null;default:'Draft'" json:"status"`
	Title      string    `gorm:"size:255" json:"title"`

	ColumnMapping `json:"mapping"`

	// checkin mode
	CutoffTime *time.Time `json:"cutoff_time"`
	GapSeconds int        `gorm:"default:60" json:"gap_seconds"`

	// statement mode
	BankAccountId int    `gorm:"index" json:"bank_account_id"`
	Currency      string `gorm:"size:10" json:"currency"`

	// invoice mode
	SupplierId int `gorm:"index" json:"supplier_id"`

	RowsDetected       int `gorm:"default:0" json:"rows_detected"`
	ParsedCount        int `gorm:"default:0" json:"parsed_count"`
	ReadyCount         int `gorm:"default:0" json:"ready_count"`
	FailedCount        int `gorm:"default:0" json:"failed_count"`
	SkippedCount       int `gorm:"default:0" json:"skipped_count"`
	CreatedCount       int `gorm:"default:0" json:"created_count"`
	AlreadyExistsCount int `gorm:"default:0" json:"already_exists_count"`

	// statement summary, derived at parse time
	StatementStart   *time.Time      `json:"statement_start"`
	StatementEnd     *time.Time      `json:"statement_end"`
	BeginningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"beginning_balance"`
	EndingBalance    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ending_balance"`
	DebitCount       int             `gorm:"default:0" json:"debit_count"`
	CreditCount      int             `gorm:"default:0" json:"credit_count"`
	DebitSum         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit_sum"`
	CreditSum        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_sum"`

	PreviewPayload []byte `gorm:"type:json" json:"-"`
	ImportLog      []byte `gorm:"type:json" json:"-"`

	FailureReason string     `gorm:"type:text" json:"failure_reason"`
	ImportedOn    *time.Time `json:"imported_on"`

	SourceFiles []RunSourceFile `gorm:"foreignKey:RunId" json:"source_files"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r ImportRun) GetId() int {
	return r.ID
}

// RunSourceFile is one uploaded file attached to a run. Content is kept as a
// blob so re-parsing never depends on external file storage.
type RunSourceFile struct {
	ID          int              `gorm:"primary_key" json:"id"`
	RunId       int              `gorm:"index" json:"run_id"`
	BusinessId  string           `gorm:"index" json:"business_id"`
	FileName    string           `gorm:"size:255" json:"file_name"`
	Content     []byte           `gorm:"type:mediumblob" json:"-"`
	Sha1        string           `gorm:"size:40" json:"sha1"`
	DeviceName  string           `gorm:"size:255" json:"device_name"`
	Status      SourceFileStatus `gorm:"size:20;default:'Draft'" json:"status"`
	ParsedCount int              `gorm:"default:0" json:"parsed_count"`
	ReadyCount  int              `gorm:"default:0" json:"ready_count"`
	LastError   string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// PreviewPayload is the bounded sample persisted on the run after parsing.
type RunPreviewPayload struct {
	Columns      []string            `json:"columns"`
	Sample       []map[string]string `json:"sample"`
	Total        int                 `json:"total"`
	Ready        int                 `json:"ready"`
	DistinctKeys int                 `json:"distinct_keys"`
	UnmatchedIds []string            `json:"unmatched_ids,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

type ImportLogEntry struct {
	Outcome    RowOutcome `json:"outcome"`
	NaturalKey string     `json:"natural_key,omitempty"`
	RecordId   int        `json:"record_id,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	User       string     `json:"user,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (r *ImportRun) SetPreviewPayload(p *RunPreviewPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.PreviewPayload = raw
	return nil
}

func (r *ImportRun) GetPreviewPayload() (*RunPreviewPayload, error) {
	if len(r.PreviewPayload) == 0 {
		return nil, nil
	}
	var p RunPreviewPayload
	if err := json.Unmarshal(r.PreviewPayload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ImportRun) GetImportLog() ([]ImportLogEntry, error) {
	if len(r.ImportLog) == 0 {
		return nil, nil
	}
	var entries []ImportLogEntry
	if err := json.Unmarshal(r.ImportLog, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendImportLog adds entries in processing order. Detail strings are capped
// so one noisy failure cannot bloat the run document.
func (r *ImportRun) AppendImportLog(entries ...ImportLogEntry) error {
	existing, err := r.GetImportLog()
	if err != nil {
		return err
	}
	for i := range entries {
		if len(entries[i].Detail) > importLogDetailMaxLen {
			entries[i].Detail = entries[i].Detail[:importLogDetailMaxLen]
		}
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = time.Now().UTC()
		}
	}
	existing = append(existing, entries...)
	raw, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	r.ImportLog = raw
	return nil
}

// EnsureMutable rejects mutation of a run whose status locks it. An Imported
// run and its source files only change through the reopen override.
func (r *ImportRun) EnsureMutable() error {
	if r.Status.IsLocked() {
		return errors.New("run is imported and locked")
	}
	return nil
}

// ChangeStatus applies a transition, rejecting any move not present in the
// transition table.
func (r *ImportRun) ChangeStatus(to RunStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("illegal run status transition %s -> %s", r.Status, to)
	}
	r.Status = to
	return nil
}

type NewImportRun struct {
	Mode          string        `json:"mode" binding:"required,runmode"`
	Title         string        `json:"title"`
	ColumnMapping ColumnMapping `json:"mapping"`
	CutoffTime    *time.Time    `json:"cutoff_time"`
	GapSeconds    int           `json:"gap_seconds"`
	BankAccountId int           `json:"bank_account_id"`
	SupplierId    int           `json:"supplier_id"`
	Currency      string        `json:"currency"`
}

func CreateImportRun(ctx context.Context, input *NewImportRun) (*ImportRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	mode, err := ParseRunMode(input.Mode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case RunModeBankStatement:
		if input.BankAccountId > 0 {
			if err := utils.ValidateResourceId[BankAccount](ctx, businessId, input.BankAccountId); err != nil {
				return nil, errors.New("bank account id not found")
			}
		}
	case RunModePurchaseInvoice:
		if input.SupplierId > 0 {
			if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
				return nil, errors.New("supplier id not found")
			}
		}
	}

	gapSeconds := input.GapSeconds
	if gapSeconds <= 0 {
		gapSeconds = 60
	}

	run := ImportRun{
		BusinessId:    businessId,
		Mode:          mode,
		Status:        RunStatusDraft,
		Title:         input.Title,
		ColumnMapping: input.ColumnMapping,
		CutoffTime:    input.CutoffTime,
		GapSeconds:    gapSeconds,
		BankAccountId: input.BankAccountId,
		SupplierId:    input.SupplierId,
		Currency:      input.Currency,
	}

	// A statement run inherits the bank account's saved mapping when the
	// operator did not supply one.
	if mode == RunModeBankStatement && input.BankAccountId > 0 && run.DateColumn == "" {
		account, err := utils.FetchModel[BankAccount](ctx, businessId, input.BankAccountId)
		if err == nil && account.SavedMapping != nil {
			var saved ColumnMapping
			if jsonErr := json.Unmarshal(account.SavedMapping, &saved); jsonErr == nil {
				run.ColumnMapping = saved
			}
		}
		if run.Currency == "" && account != nil {
			run.Currency = account.Currency
		}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func GetImportRun(ctx context.Context, id int) (*ImportRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ImportRun](ctx, businessId, id, "SourceFiles")
}

// ListImportRuns returns the business's runs, newest first. Source files are
// not preloaded; fetch a single run for its files.
func ListImportRuns(ctx context.Context) ([]*ImportRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	runs, err := utils.FetchAllModels[ImportRun](ctx, businessId)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// UpdateImportRunMapping replaces the run's mapping. Rejected once the run is
// Imported; a Parsed run drops back to Draft so stale previews cannot be
// generated from.
func UpdateImportRunMapping(ctx context.Context, id int, mapping ColumnMapping) (*ImportRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	run, err := utils.FetchModel[ImportRun](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := run.EnsureMutable(); err != nil {
		return nil, err
	}

	run.ColumnMapping = mapping
	if run.Status == RunStatusParsed {
		run.Status = RunStatusDraft
		run.PreviewPayload = nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

type NewRunSourceFile struct {
	FileName   string
	Content    []byte
	DeviceName string
}

// AttachSourceFile adds an uploaded file to a run. Changing files on a Parsed
// run resets the run to Draft; an Imported run rejects the change outright.
func AttachSourceFile(ctx context.Context, runId int, input *NewRunSourceFile) (*RunSourceFile, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	run, err := utils.FetchModel[ImportRun](ctx, businessId, runId)
	if err != nil {
		return nil, err
	}
	if err := run.EnsureMutable(); err != nil {
		return nil, err
	}
	if len(input.Content) == 0 {
		return nil, errors.New("source file is empty")
	}

	sum := sha1.Sum(input.Content)
	file := RunSourceFile{
		RunId:      runId,
		BusinessId: businessId,
		FileName:   input.FileName,
		Content:    input.Content,
		Sha1:       hex.EncodeToString(sum[:]),
		DeviceName: input.DeviceName,
		Status:     SourceFileStatusDraft,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&file).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if run.Status == RunStatusParsed {
		if err := tx.WithContext(ctx).Model(run).Updates(map[string]interface{}{
			"Status":         RunStatusDraft,
			"PreviewPayload": nil,
		}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func RemoveSourceFile(ctx context.Context, runId int, fileId int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	run, err := utils.FetchModel[ImportRun](ctx, businessId, runId)
	if err != nil {
		return err
	}
	if err := run.EnsureMutable(); err != nil {
		return err
	}

	var file RunSourceFile
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("business_id = ? AND run_id = ?", businessId, runId).First(&file, fileId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&file).Error; err != nil {
		tx.Rollback()
		return err
	}
	if run.Status == RunStatusParsed {
		if err := tx.WithContext(ctx).Model(run).Updates(map[string]interface{}{
			"Status":         RunStatusDraft,
			"PreviewPayload": nil,
		}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

// ReopenImportRun is the administrative override out of Imported. It bypasses
// the transition table and is gated by the ALLOW_RUN_REOPEN flag plus the
// caller's admin context.
func ReopenImportRun(ctx context.Context, id int, reason string) (*ImportRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !config.AllowRunReopen() {
		return nil, errors.New("run reopen is disabled")
	}
	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); !isAdmin {
		return nil, errors.New("run reopen requires admin")
	}

	run, err := utils.FetchModel[ImportRun](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if run.Status != RunStatusImported {
		return nil, errors.New("only an imported run can be reopened")
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	if err := run.AppendImportLog(ImportLogEntry{
		Outcome: RowOutcomeReopened,
		Detail:  reason,
		User:    userName,
	}); err != nil {
		return nil, err
	}

	run.Status = RunStatusDraft
	run.ImportedOn = nil

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}
