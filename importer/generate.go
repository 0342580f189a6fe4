package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/models"
	"github.com/mmdatafocus/imports_backend/utils"
)

// Generate runs the idempotent generation engine over a parsed run. Only one
// generation per run proceeds at a time; concurrent callers get
// utils.ErrorRunLocked instead of queueing.
//
// Row outcomes never abort the batch: a not-ready row is skipped, a duplicate
// counts as already existing, and a row-level create failure is recorded and
// processing continues. Only an engine failure aborts, marking the run Failed
// while keeping records already created.
func Generate(ctx context.Context, runId int) (*models.ImportRun, *GenerateResult, error) {
	if !tryAcquireRun(runId) {
		return nil, nil, utils.ErrorRunLocked
	}
	defer releaseRun(runId)

	run, err := models.GetImportRun(ctx, runId)
	if err != nil {
		return nil, nil, err
	}

	if config.GetRedisLock() != nil {
		lock, err := utils.ObtainRunLock(ctx, run.BusinessId, run.ID, "importer", "Generate")
		if err != nil {
			return nil, nil, err
		}
		defer lock.Release(context.Background())
	}

	if run.Status != models.RunStatusParsed {
		return nil, nil, fmt.Errorf("run must be Parsed to generate, is %s", run.Status)
	}

	rows, err := loadRows(ctx, run)
	if err != nil {
		return nil, nil, err
	}
	normalizer, err := ForMode(run.Mode)
	if err != nil {
		return nil, nil, err
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	result, engineErr := runEngine(ctx, run, rows, normalizer, userName)
	if engineErr != nil {
		return failRun(ctx, run, result, engineErr)
	}

	run.CreatedCount = result.Created
	run.AlreadyExistsCount = result.AlreadyExists
	run.FailedCount = result.Failed
	run.SkippedCount = result.Skipped
	if err := run.AppendImportLog(result.Details...); err != nil {
		return nil, nil, err
	}
	if err := run.ChangeStatus(models.RunStatusImported); err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	run.ImportedOn = &now
	run.FailureReason = ""

	db := config.GetDB()
	if err := db.WithContext(ctx).Omit("SourceFiles").Save(run).Error; err != nil {
		return nil, nil, err
	}
	if err := config.RemoveRedisKey(rowsCacheKey(run.BusinessId, run.ID)); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "importer", "Generate", "drop cached canonical rows", run.ID, err)
	}
	return run, result, nil
}

// runEngine processes the row set in natural order. The returned result is
// valid even when err is non-nil; it covers everything processed before the
// abort.
func runEngine(ctx context.Context, run *models.ImportRun, rows []*CanonicalRow, normalizer Normalizer, userName string) (*GenerateResult, error) {
	result := &GenerateResult{}

	for _, row := range rows {
		if !row.Ready {
			result.Skipped++
			result.Details = append(result.Details, models.ImportLogEntry{
				Outcome:    models.RowOutcomeSkipped,
				NaturalKey: row.NaturalKey,
				Detail:     row.Reason,
				User:       userName,
			})
			continue
		}

		exists, err := normalizer.Exists(ctx, run, row)
		if err != nil {
			return result, fmt.Errorf("duplicate check: %w", err)
		}
		if exists {
			result.AlreadyExists++
			result.Details = append(result.Details, models.ImportLogEntry{
				Outcome:    models.RowOutcomeAlreadyExists,
				NaturalKey: row.NaturalKey,
				User:       userName,
			})
			continue
		}

		recordId, err := normalizer.Create(ctx, run, row)
		if err != nil {
			if IsEngineError(err) {
				return result, err
			}
			result.Failed++
			result.Details = append(result.Details, models.ImportLogEntry{
				Outcome:    models.RowOutcomeFailed,
				NaturalKey: row.NaturalKey,
				Detail:     err.Error(),
				User:       userName,
			})
			continue
		}

		result.Created++
		result.Details = append(result.Details, models.ImportLogEntry{
			Outcome:    models.RowOutcomeCreated,
			NaturalKey: row.NaturalKey,
			RecordId:   recordId,
			User:       userName,
		})
		if result.LastEventTime == nil || row.OrderKey.After(*result.LastEventTime) {
			eventTime := row.OrderKey
			result.LastEventTime = &eventTime
		}
	}

	if err := normalizer.Finalize(ctx, run, result); err != nil {
		return result, fmt.Errorf("finalize: %w", err)
	}
	return result, nil
}

// failRun records an engine abort. Records already created stay; the run moves
// to Failed with the reason so the operator can fix the cause and re-parse.
func failRun(ctx context.Context, run *models.ImportRun, result *GenerateResult, cause error) (*models.ImportRun, *GenerateResult, error) {
	logger := config.GetLogger()
	config.LogError(logger, "importer", "Generate", "engine aborted", run.ID, cause)

	run.CreatedCount = result.Created
	run.AlreadyExistsCount = result.AlreadyExists
	run.FailedCount = result.Failed
	run.SkippedCount = result.Skipped
	run.FailureReason = cause.Error()
	if err := run.AppendImportLog(result.Details...); err != nil {
		return nil, nil, errors.Join(cause, err)
	}
	if err := run.ChangeStatus(models.RunStatusFailed); err != nil {
		return nil, nil, errors.Join(cause, err)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Omit("SourceFiles").Save(run).Error; err != nil {
		return nil, nil, errors.Join(cause, err)
	}
	return run, result, cause
}
