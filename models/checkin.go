package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
)

// EmployeeCheckin is one attendance event generated from a checkin run.
type EmployeeCheckin struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index" json:"business_id"`
	EmployeeId int       `gorm:"index;not null" json:"employee_id"`
	EventTime  time.Time `gorm:"not null;index" json:"event_time"`
	DeviceName string    `gorm:"size:255" json:"device_name"`
	// AttendanceDeviceId is the normalized device identifier the event was
	// matched on, kept for auditability.
	AttendanceDeviceId string    `gorm:"size:64" json:"attendance_device_id"`
	RunId              int       `gorm:"index" json:"run_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c EmployeeCheckin) GetId() int {
	return c.ID
}

// CheckinExists matches on (employee, exact event timestamp), the natural key
// of an attendance event.
func CheckinExists(ctx context.Context, businessId string, employeeId int, eventTime time.Time) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&EmployeeCheckin{}).
		Where("business_id = ? AND employee_id = ? AND event_time = ?", businessId, employeeId, eventTime).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateEmployeeCheckin(ctx context.Context, checkin *EmployeeCheckin) (int, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(checkin).Error; err != nil {
		return 0, err
	}
	return checkin.ID, nil
}

// CheckinTimeRange returns the min and max event time of checkins generated by
// the given run.
func CheckinTimeRange(ctx context.Context, businessId string, runId int) (*time.Time, *time.Time, error) {
	db := config.GetDB()
	var bounds struct {
		MinTime *time.Time
		MaxTime *time.Time
	}
	err := db.WithContext(ctx).Model(&EmployeeCheckin{}).
		Where("business_id = ? AND run_id = ?", businessId, runId).
		Select("MIN(event_time) AS min_time, MAX(event_time) AS max_time").
		Scan(&bounds).Error
	if err != nil {
		return nil, nil, err
	}
	return bounds.MinTime, bounds.MaxTime, nil
}
