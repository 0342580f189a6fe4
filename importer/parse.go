package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/fileparse"
	"github.com/mmdatafocus/imports_backend/models"
)

const previewSampleSize = 100

// Parse validates the run's mapping, reads every attached file, normalizes the
// rows and persists the derived counts plus a bounded preview on the run.
// Re-parsing is idempotent; the canonical rows themselves are cached in Redis
// for preview and generation but never stored on the run.
func Parse(ctx context.Context, runId int) (*models.ImportRun, *ParseSummary, error) {
	run, err := models.GetImportRun(ctx, runId)
	if err != nil {
		return nil, nil, err
	}
	if err := run.EnsureMutable(); err != nil {
		return nil, nil, err
	}

	// Mapping validation fails fast, before any file is read.
	if validation := run.Validate(run.Mode); !validation.Ok {
		return nil, nil, fmt.Errorf("mapping is incomplete: missing %s", strings.Join(validation.Missing, ", "))
	}
	if len(run.SourceFiles) == 0 {
		return nil, nil, errors.New("run has no source files")
	}

	db := config.GetDB()
	var inputs []SourceInput
	failedFiles := make(map[int]string)
	for i := range run.SourceFiles {
		file := &run.SourceFiles[i]
		grid, err := fileparse.Read(file.Content, string(run.FileType), fileparse.Options{Delimiter: run.Delimiter})
		if err != nil {
			failedFiles[file.ID] = err.Error()
			file.Status = models.SourceFileStatusError
			file.LastError = err.Error()
			continue
		}
		inputs = append(inputs, SourceInput{
			FileId:     file.ID,
			FileName:   file.FileName,
			DeviceName: file.DeviceName,
			Rows:       grid,
		})
	}
	if len(inputs) == 0 {
		logger := config.GetLogger()
		for i := range run.SourceFiles {
			if err := db.WithContext(ctx).Save(&run.SourceFiles[i]).Error; err != nil {
				config.LogError(logger, "importer", "Parse", "persist source file error status", run.SourceFiles[i].ID, err)
			}
		}
		return nil, nil, errors.New("no source file could be read")
	}

	if config.StrictMappingValidation() {
		for _, input := range inputs {
			if err := checkMappedColumns(run, input); err != nil {
				return nil, nil, err
			}
		}
	}

	normalizer, err := ForMode(run.Mode)
	if err != nil {
		return nil, nil, err
	}
	rows, summary, err := normalizer.Normalize(ctx, run, inputs)
	if err != nil {
		return nil, nil, err
	}

	// per-file accounting; a readable file contributing no rows is Skipped
	for i := range run.SourceFiles {
		file := &run.SourceFiles[i]
		if _, failed := failedFiles[file.ID]; failed {
			continue
		}
		counts := summary.PerFile[file.ID]
		file.ParsedCount = counts.Parsed
		file.ReadyCount = counts.Ready
		file.LastError = ""
		if counts.Parsed > 0 {
			file.Status = models.SourceFileStatusParsed
		} else {
			file.Status = models.SourceFileStatusSkipped
		}
	}

	applyParseCounters(run, summary)

	if err := run.SetPreviewPayload(buildPreviewPayload(run.Mode, rows, summary)); err != nil {
		return nil, nil, err
	}

	if run.Status == models.RunStatusFailed {
		if err := run.ChangeStatus(models.RunStatusDraft); err != nil {
			return nil, nil, err
		}
	}
	if err := run.ChangeStatus(models.RunStatusParsed); err != nil {
		return nil, nil, err
	}
	run.FailureReason = ""

	if err := cacheRows(run, rows); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "importer", "Parse", "cache canonical rows", run.ID, err)
	}

	for i := range run.SourceFiles {
		if err := db.WithContext(ctx).Save(&run.SourceFiles[i]).Error; err != nil {
			return nil, nil, err
		}
	}
	if err := db.WithContext(ctx).Omit("SourceFiles").Save(run).Error; err != nil {
		return nil, nil, err
	}
	return run, summary, nil
}

// applyParseCounters writes the pass's accounting onto the run. The generation
// counters are zeroed: a re-parse opens a fresh generation cycle, so counts
// from an earlier generate (including a failed one) must not survive into the
// new Parsed state.
func applyParseCounters(run *models.ImportRun, summary *ParseSummary) {
	run.RowsDetected = summary.Total + summary.SkippedBeforeCutoff + summary.SkippedDuplicates
	run.ParsedCount = summary.Total
	run.ReadyCount = summary.Ready
	run.FailedCount = summary.Failed
	run.SkippedCount = 0
	run.CreatedCount = 0
	run.AlreadyExistsCount = 0
	if s := summary.Statement; s != nil {
		run.StatementStart = s.Start
		run.StatementEnd = s.End
		run.BeginningBalance = s.BeginningBalance
		run.EndingBalance = s.EndingBalance
		run.DebitCount = s.DebitCount
		run.CreditCount = s.CreditCount
		run.DebitSum = s.DebitSum
		run.CreditSum = s.CreditSum
	}
}

// checkMappedColumns verifies every mapped column resolves against the file's
// header row. Only active when STRICT_MAPPING_VALIDATION is on; the default
// behavior treats unresolvable columns as empty cells.
func checkMappedColumns(run *models.ImportRun, input SourceInput) error {
	header, _ := fileparse.HeaderAndData(input.Rows, run.SkipHeaderRows)

	mapped := map[string]string{
		"date":                 run.DateColumn,
		"description":          run.DescriptionColumn,
		"amount":               run.AmountColumn,
		"credit":               run.CreditColumn,
		"debit":                run.DebitColumn,
		"balance":              run.BalanceColumn,
		"reference":            run.ReferenceColumn,
		"device id":            run.DeviceIdColumn,
		"cost center":          run.CostCenterColumn,
		"fallback cost center": run.FallbackCostCenterColumn,
		"value":                run.ValueColumn,
	}
	for name, key := range mapped {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if ResolveColumnIndex(header, key) < 0 {
			return fmt.Errorf("%s column %q not found in %s", name, key, input.FileName)
		}
	}
	return nil
}

// previewColumns fixes the column order of the persisted sample per mode.
func previewColumns(mode models.RunMode) []string {
	switch mode {
	case models.RunModeCheckin:
		return []string{"event_time", "attendance_device_id", "device_name", "employee_id"}
	case models.RunModeBankStatement:
		return []string{"date", "description", "deposit", "withdrawal", "balance", "reference"}
	case models.RunModePurchaseInvoice:
		return []string{"cost_center", "lines", "total"}
	default:
		return nil
	}
}

func buildPreviewPayload(mode models.RunMode, rows []*CanonicalRow, summary *ParseSummary) *models.RunPreviewPayload {
	payload := &models.RunPreviewPayload{
		Columns:      previewColumns(mode),
		Total:        summary.Total,
		Ready:        summary.Ready,
		DistinctKeys: summary.DistinctKeys,
		UnmatchedIds: summary.UnmatchedIds,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, row := range rows {
		if len(payload.Sample) >= previewSampleSize {
			break
		}
		sample := make(map[string]string, len(row.Fields)+2)
		for k, v := range row.Fields {
			sample[k] = v
		}
		sample["ready"] = fmt.Sprint(row.Ready)
		if row.Reason != "" {
			sample["reason"] = row.Reason
		}
		payload.Sample = append(payload.Sample, sample)
	}
	return payload
}

func rowsCacheKey(businessId string, runId int) string {
	return fmt.Sprintf("run_rows:%s:%d", businessId, runId)
}

func cacheRows(run *models.ImportRun, rows []*CanonicalRow) error {
	ttl := time.Duration(config.IntFromEnv("RUN_ROWS_TTL_SECONDS", 3600)) * time.Second
	return config.SetRedisObject(rowsCacheKey(run.BusinessId, run.ID), rows, ttl)
}

// loadRows returns the canonical rows for a parsed run, preferring the Redis
// cache and recomputing deterministically from the stored files when absent.
// Recomputing never mutates the run.
func loadRows(ctx context.Context, run *models.ImportRun) ([]*CanonicalRow, error) {
	var cached []*CanonicalRow
	found, err := config.GetRedisObject(rowsCacheKey(run.BusinessId, run.ID), &cached)
	if err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "importer", "loadRows", "read cached canonical rows", run.ID, err)
	}
	if found {
		return cached, nil
	}

	var inputs []SourceInput
	for i := range run.SourceFiles {
		file := &run.SourceFiles[i]
		grid, err := fileparse.Read(file.Content, string(run.FileType), fileparse.Options{Delimiter: run.Delimiter})
		if err != nil {
			continue
		}
		inputs = append(inputs, SourceInput{
			FileId:     file.ID,
			FileName:   file.FileName,
			DeviceName: file.DeviceName,
			Rows:       grid,
		})
	}
	if len(inputs) == 0 {
		return nil, errors.New("no source file could be read")
	}

	normalizer, err := ForMode(run.Mode)
	if err != nil {
		return nil, err
	}
	rows, _, err := normalizer.Normalize(ctx, run, inputs)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
