package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/imports_backend/models"
)

// TimeRange is the span of downstream records a run has generated.
type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// RunTimeRange returns the min and max event time of the records generated by
// a run. Both bounds are nil when the run has generated nothing.
func RunTimeRange(ctx context.Context, runId int) (*TimeRange, error) {
	run, err := models.GetImportRun(ctx, runId)
	if err != nil {
		return nil, err
	}

	var start, end *time.Time
	switch run.Mode {
	case models.RunModeCheckin:
		start, end, err = models.CheckinTimeRange(ctx, run.BusinessId, run.ID)
	case models.RunModeBankStatement:
		start, end, err = models.BankingTransactionTimeRange(ctx, run.BusinessId, run.ID)
	case models.RunModePurchaseInvoice:
		start, end, err = models.PurchaseInvoiceTimeRange(ctx, run.BusinessId, run.ID)
	default:
		return nil, fmt.Errorf("no time range for run mode %q", run.Mode)
	}
	if err != nil {
		return nil, err
	}
	return &TimeRange{Start: start, End: end}, nil
}
