package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
)

type CostCenter struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index" json:"business_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Active     bool      `gorm:"default:true" json:"active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c CostCenter) GetId() int {
	return c.ID
}

// ResolveActiveCostCenter matches a cost center by name, case-insensitively.
// Returns (0, false, nil) when no active cost center matches.
func ResolveActiveCostCenter(ctx context.Context, businessId string, name string) (int, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	db := config.GetDB()
	var id int
	err := db.WithContext(ctx).Model(&CostCenter{}).
		Where("business_id = ? AND LOWER(name) = ? AND active = ?", businessId, strings.ToLower(name), true).
		Select("id").Limit(1).Scan(&id).Error
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		return 0, false, nil
	}
	return id, true, nil
}
