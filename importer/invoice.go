package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/imports_backend/fileparse"
	"github.com/mmdatafocus/imports_backend/models"
)

// InvoiceStore abstracts cost-center resolution and invoice persistence.
type InvoiceStore interface {
	ResolveCostCenter(ctx context.Context, businessId string, name string) (int, bool, error)
	GroupExists(ctx context.Context, businessId string, runId int, groupKey string) (bool, error)
	CreateInvoice(ctx context.Context, invoice *models.PurchaseInvoice) (int, error)
}

type invoiceNormalizer struct {
	store InvoiceStore
}

// Normalize groups source rows by cost center. When both cost-center columns
// carry a value the primary column wins over the fallback. One canonical row
// is emitted per group; its natural key is the grouping key.
func (n *invoiceNormalizer) Normalize(ctx context.Context, run *models.ImportRun, files []SourceInput) ([]*CanonicalRow, *ParseSummary, error) {
	summary := &ParseSummary{PerFile: make(map[int]FileCounts)}
	ignoreTerms := run.IgnoreTerms()

	type group struct {
		name       string
		sourceFile string
		lines      []InvoiceLine
		reason     string
	}
	groups := make(map[string]*group)
	var groupOrder []string
	groupFiles := make(map[string]int) // groupKey -> FileId of first contributing file

	for _, input := range files {
		header, data := fileparse.HeaderAndData(input.Rows, run.SkipHeaderRows)
		dateIdx := ResolveColumnIndex(header, run.DateColumn)
		descIdx := ResolveColumnIndex(header, run.DescriptionColumn)
		costIdx := ResolveColumnIndex(header, run.CostCenterColumn)
		fallbackIdx := ResolveColumnIndex(header, run.FallbackCostCenterColumn)
		valueIdx := ResolveColumnIndex(header, run.ValueColumn)

		counts := FileCounts{}
		for _, raw := range data {
			if len(raw) == 0 || allEmpty(raw) {
				continue
			}
			if rowContainsAny(raw, ignoreTerms) {
				continue
			}

			name := cellAt(raw, costIdx)
			if name == "" {
				name = cellAt(raw, fallbackIdx)
			}
			key := invoiceGroupKey(name)

			g, ok := groups[key]
			if !ok {
				g = &group{name: name, sourceFile: input.FileName}
				groups[key] = g
				groupOrder = append(groupOrder, key)
				groupFiles[key] = input.FileId
			}

			line := InvoiceLine{Description: cellAt(raw, descIdx)}
			if date, err := ParseRowDate(cellAt(raw, dateIdx), run.DateFormat); err == nil {
				line.Date = date
			} else if g.reason == "" {
				g.reason = err.Error()
			}
			if amount, err := ParseAmount(cellAt(raw, valueIdx), run.ColumnMapping); err == nil {
				line.Amount = amount
			} else if g.reason == "" {
				g.reason = err.Error()
			}
			if name == "" && g.reason == "" {
				g.reason = "row has no cost center"
			}

			g.lines = append(g.lines, line)
			counts.Parsed++
		}
		summary.PerFile[input.FileId] = counts
		summary.Total += counts.Parsed
	}

	var rows []*CanonicalRow
	for _, key := range groupOrder {
		g := groups[key]

		total := decimal.Zero
		payload := &InvoiceRow{
			GroupKey:       key,
			CostCenterName: g.name,
			Lines:          g.lines,
		}
		for _, line := range g.lines {
			total = total.Add(line.Amount)
			if line.Date.After(payload.InvoiceDate) {
				payload.InvoiceDate = line.Date
			}
		}
		payload.Total = total.Round(moneyPlaces)

		row := &CanonicalRow{
			NaturalKey: key,
			OrderKey:   payload.InvoiceDate,
			SourceFile: g.sourceFile,
			Invoice:    payload,
			Reason:     g.reason,
			Fields: map[string]string{
				"cost_center": g.name,
				"lines":       fmt.Sprint(len(g.lines)),
				"total":       payload.Total.StringFixed(moneyPlaces),
			},
		}

		if row.Reason == "" {
			id, found, err := n.store.ResolveCostCenter(ctx, run.BusinessId, g.name)
			if err != nil {
				return nil, nil, &EngineError{Err: err}
			}
			if !found {
				row.Reason = fmt.Sprintf("no active cost center %q", g.name)
			} else {
				payload.CostCenterId = id
				row.Ready = true
			}
		}

		if row.Ready {
			summary.Ready++
			if fileId, ok := groupFiles[key]; ok {
				counts := summary.PerFile[fileId]
				counts.Ready++
				summary.PerFile[fileId] = counts
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderKey.Equal(rows[j].OrderKey) {
			return rows[i].NaturalKey < rows[j].NaturalKey
		}
		return rows[i].OrderKey.Before(rows[j].OrderKey)
	})

	summary.DistinctKeys = len(groups)
	return rows, summary, nil
}

func invoiceGroupKey(costCenterName string) string {
	return "inv:" + strings.ToLower(strings.TrimSpace(costCenterName))
}

func (n *invoiceNormalizer) Exists(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (bool, error) {
	return n.store.GroupExists(ctx, run.BusinessId, run.ID, row.Invoice.GroupKey)
}

func (n *invoiceNormalizer) Create(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (int, error) {
	payload := row.Invoice
	invoice := &models.PurchaseInvoice{
		BusinessId:  run.BusinessId,
		SupplierId:  run.SupplierId,
		InvoiceDate: payload.InvoiceDate,
		Currency:    run.Currency,
		Total:       payload.Total,
		RunId:       run.ID,
	}
	for _, line := range payload.Lines {
		invoice.Lines = append(invoice.Lines, models.PurchaseInvoiceLine{
			CostCenterId: payload.CostCenterId,
			GroupKey:     payload.GroupKey,
			Description:  line.Description,
			Amount:       line.Amount,
		})
	}
	return n.store.CreateInvoice(ctx, invoice)
}

func (n *invoiceNormalizer) Finalize(ctx context.Context, run *models.ImportRun, result *GenerateResult) error {
	return nil
}
