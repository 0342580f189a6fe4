package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/shopspring/decimal"
)

// BankingTransaction is one statement line generated from a bank statement run.
// Deposit and Withdrawal are kept as separate non-negative columns; a signed
// single-amount source is split during normalization.
type BankingTransaction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index" json:"business_id"`
	BankAccountId   int             `gorm:"index;not null" json:"bank_account_id"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	Deposit         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"deposit"`
	Withdrawal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"withdrawal"`
	Description     string          `gorm:"type:text" json:"description"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	Currency        string          `gorm:"size:10" json:"currency"`
	RunId           int             `gorm:"index" json:"run_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t BankingTransaction) GetId() int {
	return t.ID
}

// BankingTransactionExists matches on the statement line composite key:
// account, date, amounts, description and reference.
func BankingTransactionExists(ctx context.Context, businessId string, t *BankingTransaction) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&BankingTransaction{}).
		Where("business_id = ? AND bank_account_id = ? AND transaction_date = ? AND deposit = ? AND withdrawal = ? AND description = ? AND reference_number = ?",
			businessId, t.BankAccountId, t.TransactionDate, t.Deposit, t.Withdrawal, t.Description, t.ReferenceNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateBankingTransaction(ctx context.Context, t *BankingTransaction) (int, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

// BankingTransactionTimeRange returns the min and max transaction date of
// lines generated by the given run.
func BankingTransactionTimeRange(ctx context.Context, businessId string, runId int) (*time.Time, *time.Time, error) {
	db := config.GetDB()
	var bounds struct {
		MinTime *time.Time
		MaxTime *time.Time
	}
	err := db.WithContext(ctx).Model(&BankingTransaction{}).
		Where("business_id = ? AND run_id = ?", businessId, runId).
		Select("MIN(transaction_date) AS min_time, MAX(transaction_date) AS max_time").
		Scan(&bounds).Error
	if err != nil {
		return nil, nil, err
	}
	return bounds.MinTime, bounds.MaxTime, nil
}
