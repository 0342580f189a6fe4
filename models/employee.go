package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/utils"
)

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "Active"
	EmployeeStatusInactive EmployeeStatus = "Inactive"
)

type Employee struct {
	ID         int            `gorm:"primary_key" json:"id"`
	BusinessId string         `gorm:"index" json:"business_id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Status     EmployeeStatus `gorm:"size:20;default:'Active'" json:"status"`
	// AttendanceDeviceId is stored normalized (uppercase alphanumeric) so
	// device exports with mixed casing or separators still match.
	AttendanceDeviceId string    `gorm:"size:64;index" json:"attendance_device_id"`
	ShiftId            int       `gorm:"index" json:"shift_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Employee) GetId() int {
	return e.ID
}

// NormalizeAttendanceDeviceId uppercases and strips everything that is not a
// letter or digit. Matching is done on this normalized form on both sides.
func NormalizeAttendanceDeviceId(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveEmployeeByDeviceId finds the active employee for a raw device id.
// Returns (0, false, nil) when no active employee matches.
func ResolveEmployeeByDeviceId(ctx context.Context, businessId string, rawDeviceId string) (int, bool, error) {
	normalized := NormalizeAttendanceDeviceId(rawDeviceId)
	if normalized == "" {
		return 0, false, nil
	}

	db := config.GetDB()
	var id int
	err := db.WithContext(ctx).Model(&Employee{}).
		Where("business_id = ? AND attendance_device_id = ? AND status = ?", businessId, normalized, EmployeeStatusActive).
		Select("id").Limit(1).Scan(&id).Error
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		return 0, false, nil
	}
	return id, true, nil
}

type NewEmployee struct {
	Name               string `json:"name" binding:"required"`
	AttendanceDeviceId string `json:"attendance_device_id"`
	ShiftId            int    `json:"shift_id"`
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.ShiftId > 0 {
		if err := utils.ValidateResourceId[Shift](ctx, businessId, input.ShiftId); err != nil {
			return nil, errors.New("shift id not found")
		}
	}

	employee := Employee{
		BusinessId:         businessId,
		Name:               input.Name,
		Status:             EmployeeStatusActive,
		AttendanceDeviceId: NormalizeAttendanceDeviceId(input.AttendanceDeviceId),
		ShiftId:            input.ShiftId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}
