package importer

import (
	"context"
	"errors"

	"github.com/mmdatafocus/imports_backend/models"
)

const (
	previewDefaultLimit = 50
	previewMaxLimit     = 500
)

// PreviewPage is one window over the canonical rows of a parsed run.
type PreviewPage struct {
	Total  int             `json:"total"`
	Ready  int             `json:"ready"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Rows   []*CanonicalRow `json:"rows"`
}

// Preview pages through the canonical rows of a parsed run in natural order.
// Rows come from the parse-time cache when present and are recomputed from the
// stored files otherwise; either way the run itself is never modified.
func Preview(ctx context.Context, runId int, offset int, limit int, order string) (*PreviewPage, error) {
	run, err := models.GetImportRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	if run.Status == models.RunStatusDraft {
		return nil, errors.New("run has not been parsed")
	}

	rows, err := loadRows(ctx, run)
	if err != nil {
		return nil, err
	}
	return paginateRows(rows, offset, limit, order), nil
}

func paginateRows(rows []*CanonicalRow, offset int, limit int, order string) *PreviewPage {
	ready := 0
	for _, r := range rows {
		if r.Ready {
			ready++
		}
	}

	if order == "desc" {
		reversed := make([]*CanonicalRow, len(rows))
		for i, r := range rows {
			reversed[len(rows)-1-i] = r
		}
		rows = reversed
	}

	if limit <= 0 {
		limit = previewDefaultLimit
	}
	if limit > previewMaxLimit {
		limit = previewMaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	page := &PreviewPage{
		Total:  len(rows),
		Ready:  ready,
		Offset: offset,
		Limit:  limit,
	}
	if offset < len(rows) {
		end := offset + limit
		if end > len(rows) {
			end = len(rows)
		}
		page.Rows = rows[offset:end]
	}
	return page
}
