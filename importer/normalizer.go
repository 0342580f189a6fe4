package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/imports_backend/models"
)

// Normalizer is the mode-specific strategy behind the pipeline: it turns raw
// grids into canonical rows, answers existence checks for duplicate
// suppression, creates the downstream record, and applies batch side effects.
type Normalizer interface {
	// Normalize produces the canonical row set from the attached files.
	// Unresolvable rows are retained with Ready=false and a reason, never
	// dropped, so the operator can see why a row will be skipped.
	Normalize(ctx context.Context, run *models.ImportRun, files []SourceInput) ([]*CanonicalRow, *ParseSummary, error)

	// Exists reports whether a matching downstream record already exists.
	// Queried once per row immediately before creation, so concurrent runs
	// over overlapping source windows still dedup correctly.
	Exists(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (bool, error)

	// Create writes the downstream record and returns its identifier.
	Create(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (int, error)

	// Finalize applies mode-specific batch side effects after all rows are
	// processed and records them on the result.
	Finalize(ctx context.Context, run *models.ImportRun, result *GenerateResult) error
}

// EngineError marks an unrecoverable failure (record store unavailable,
// unexpected internals). The generation engine aborts the remaining batch on
// it; anything else is a row-level error that is counted and skipped past.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsEngineError reports whether err carries an EngineError anywhere in its chain.
func IsEngineError(err error) bool {
	var engineErr *EngineError
	return errors.As(err, &engineErr)
}

// ForMode returns the database-backed normalizer for a run mode.
func ForMode(mode models.RunMode) (Normalizer, error) {
	switch mode {
	case models.RunModeCheckin:
		return &checkinNormalizer{store: dbCheckinStore{}}, nil
	case models.RunModeBankStatement:
		return &statementNormalizer{store: dbStatementStore{}}, nil
	case models.RunModePurchaseInvoice:
		return &invoiceNormalizer{store: dbInvoiceStore{}}, nil
	default:
		return nil, fmt.Errorf("no normalizer for run mode %q", mode)
	}
}
