package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/shopspring/decimal"
)

// PurchaseInvoice is one grouped invoice generated from an invoice run. Lines
// carry a GroupKey back-reference so re-running the same source can detect
// already generated groups.
type PurchaseInvoice struct {
	ID          int                   `gorm:"primary_key" json:"id"`
	BusinessId  string                `gorm:"index" json:"business_id"`
	SupplierId  int                   `gorm:"index" json:"supplier_id"`
	InvoiceDate time.Time             `gorm:"not null" json:"invoice_date"`
	Currency    string                `gorm:"size:10" json:"currency"`
	Total       decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total"`
	RunId       int                   `gorm:"index" json:"run_id"`
	Lines       []PurchaseInvoiceLine `gorm:"foreignKey:InvoiceId" json:"lines"`
	CreatedAt   time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i PurchaseInvoice) GetId() int {
	return i.ID
}

type PurchaseInvoiceLine struct {
	ID           int             `gorm:"primary_key" json:"id"`
	InvoiceId    int             `gorm:"index" json:"invoice_id"`
	CostCenterId int             `gorm:"index" json:"cost_center_id"`
	GroupKey     string          `gorm:"size:255;index" json:"group_key"`
	Description  string          `gorm:"type:text" json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l PurchaseInvoiceLine) GetId() int {
	return l.ID
}

// PurchaseInvoiceGroupExists matches on the back-reference linking a generated
// invoice line to the originating run plus the grouping key.
func PurchaseInvoiceGroupExists(ctx context.Context, businessId string, runId int, groupKey string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&PurchaseInvoiceLine{}).
		Joins("JOIN purchase_invoices ON purchase_invoices.id = purchase_invoice_lines.invoice_id").
		Where("purchase_invoices.business_id = ? AND purchase_invoices.run_id = ? AND purchase_invoice_lines.group_key = ?",
			businessId, runId, groupKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreatePurchaseInvoice(ctx context.Context, invoice *PurchaseInvoice) (int, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(invoice).Error; err != nil {
		return 0, err
	}
	return invoice.ID, nil
}

// PurchaseInvoiceTimeRange returns the min and max invoice date of invoices
// generated by the given run.
func PurchaseInvoiceTimeRange(ctx context.Context, businessId string, runId int) (*time.Time, *time.Time, error) {
	db := config.GetDB()
	var bounds struct {
		MinTime *time.Time
		MaxTime *time.Time
	}
	err := db.WithContext(ctx).Model(&PurchaseInvoice{}).
		Where("business_id = ? AND run_id = ?", businessId, runId).
		Select("MIN(invoice_date) AS min_time, MAX(invoice_date) AS max_time").
		Scan(&bounds).Error
	if err != nil {
		return nil, nil, err
	}
	return bounds.MinTime, bounds.MaxTime, nil
}
