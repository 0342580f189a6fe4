package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
)

type Shift struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"index" json:"business_id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	// LastSyncOfCheckin is advanced after each checkin generation batch so
	// attendance processing knows how far device data has been ingested.
	LastSyncOfCheckin *time.Time `json:"last_sync_of_checkin"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Shift) GetId() int {
	return s.ID
}

// AdvanceShiftLastSync moves LastSyncOfCheckin forward to lastEvent for every
// shift whose marker is behind it. Returns the number of shifts touched.
func AdvanceShiftLastSync(ctx context.Context, businessId string, lastEvent time.Time) (int, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Shift{}).
		Where("business_id = ? AND (last_sync_of_checkin IS NULL OR last_sync_of_checkin < ?)", businessId, lastEvent).
		Update("last_sync_of_checkin", lastEvent)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}
