package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/utils"
)

type BankAccount struct {
	ID            int    `gorm:"primary_key" json:"id"`
	BusinessId    string `gorm:"index" json:"business_id"`
	Name          string `gorm:"size:255;not null" json:"name"`
	AccountNumber string `gorm:"size:64" json:"account_number"`
	Currency      string `gorm:"size:10" json:"currency"`
	// SavedMapping stores the last confirmed column mapping for this account's
	// statement exports, applied as the default for new statement runs.
	SavedMapping []byte    `gorm:"type:json" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a BankAccount) GetId() int {
	return a.ID
}

// SaveBankAccountMapping persists a confirmed mapping on the account so the
// next statement run for the same account starts pre-configured.
func SaveBankAccountMapping(ctx context.Context, accountId int, mapping ColumnMapping) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	raw, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&BankAccount{}).
		Where("business_id = ? AND id = ?", businessId, accountId).
		Update("saved_mapping", raw)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
