package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/fileparse"
	"github.com/mmdatafocus/imports_backend/models"
	"github.com/mmdatafocus/imports_backend/utils"
)

// CheckinStore abstracts employee resolution and checkin persistence so the
// pipeline can be exercised without a database.
type CheckinStore interface {
	ResolveEmployee(ctx context.Context, businessId string, attendanceId string) (int, bool, error)
	CheckinExists(ctx context.Context, businessId string, employeeId int, eventTime time.Time) (bool, error)
	CreateCheckin(ctx context.Context, checkin *models.EmployeeCheckin) (int, error)
	AdvanceShiftLastSync(ctx context.Context, businessId string, lastEvent time.Time) (int, error)
}

type checkinNormalizer struct {
	store CheckinStore
}

func (n *checkinNormalizer) Normalize(ctx context.Context, run *models.ImportRun, files []SourceInput) ([]*CanonicalRow, *ParseSummary, error) {
	window := time.Duration(run.GapSeconds) * time.Second
	if window <= 0 {
		window = 60 * time.Second
	}

	summary := &ParseSummary{PerFile: make(map[int]FileCounts)}
	var unmatched []string
	// in-run gap-window dedupe, keyed by matched employee when available,
	// else by device id
	seenLast := make(map[string]time.Time)

	var rows []*CanonicalRow
	for _, input := range files {
		header, data := fileparse.HeaderAndData(input.Rows, run.SkipHeaderRows)
		dateIdx := ResolveColumnIndex(header, run.DateColumn)
		deviceIdx := ResolveColumnIndex(header, run.DeviceIdColumn)

		counts := FileCounts{}
		for _, raw := range data {
			if len(raw) == 0 {
				continue
			}

			ts, err := ParseRowDate(cellAt(raw, dateIdx), run.DateFormat)
			if err != nil {
				continue
			}
			// cutoff is strictly exclusive
			if run.CutoffTime != nil && !ts.After(*run.CutoffTime) {
				summary.SkippedBeforeCutoff++
				continue
			}

			attendanceId := ExtractAttendanceId(cellAt(raw, deviceIdx))
			if attendanceId == "" {
				attendanceId = ExtractAttendanceId(FindUidToken(raw))
			}

			var employeeId int
			if attendanceId != "" {
				id, found, err := n.store.ResolveEmployee(ctx, run.BusinessId, attendanceId)
				if err != nil {
					return nil, nil, &EngineError{Err: err}
				}
				if found {
					employeeId = id
				}
			}

			dedupeKey := ""
			if employeeId > 0 {
				dedupeKey = fmt.Sprintf("EMP:%d", employeeId)
			} else if attendanceId != "" {
				dedupeKey = "UID:" + attendanceId
			}
			if dedupeKey != "" {
				if last, ok := seenLast[dedupeKey]; ok && absDuration(ts.Sub(last)) <= window {
					summary.SkippedDuplicates++
					continue
				}
				seenLast[dedupeKey] = ts
			}

			row := &CanonicalRow{
				NaturalKey: fmt.Sprintf("checkin:%s:%s", attendanceId, ts.UTC().Format(time.RFC3339)),
				OrderKey:   ts,
				SourceFile: input.FileName,
				Checkin: &CheckinRow{
					EventTime:          ts,
					DeviceName:         input.DeviceName,
					AttendanceDeviceId: attendanceId,
					EmployeeId:         employeeId,
				},
				Fields: map[string]string{
					"event_time":           ts.Format("2006-01-02 15:04:05"),
					"attendance_device_id": attendanceId,
					"device_name":          input.DeviceName,
					"employee_id":          fmt.Sprint(employeeId),
				},
			}
			if employeeId > 0 {
				row.Ready = true
				counts.Ready++
			} else {
				row.Reason = fmt.Sprintf("no active employee for device id %q", attendanceId)
				if attendanceId != "" {
					unmatched = append(unmatched, attendanceId)
				}
			}

			rows = append(rows, row)
			counts.Parsed++
		}
		summary.PerFile[input.FileId] = counts
		summary.Total += counts.Parsed
		summary.Ready += counts.Ready
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderKey.Equal(rows[j].OrderKey) {
			return rows[i].NaturalKey < rows[j].NaturalKey
		}
		return rows[i].OrderKey.Before(rows[j].OrderKey)
	})

	keys := make(map[string]bool, len(rows))
	for _, r := range rows {
		keys[r.NaturalKey] = true
	}
	summary.DistinctKeys = len(keys)
	summary.UnmatchedIds = utils.UniqueSlice(unmatched)
	sort.Strings(summary.UnmatchedIds)

	return rows, summary, nil
}

func (n *checkinNormalizer) Exists(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (bool, error) {
	return n.store.CheckinExists(ctx, run.BusinessId, row.Checkin.EmployeeId, row.Checkin.EventTime)
}

func (n *checkinNormalizer) Create(ctx context.Context, run *models.ImportRun, row *CanonicalRow) (int, error) {
	return n.store.CreateCheckin(ctx, &models.EmployeeCheckin{
		BusinessId:         run.BusinessId,
		EmployeeId:         row.Checkin.EmployeeId,
		EventTime:          row.Checkin.EventTime,
		DeviceName:         row.Checkin.DeviceName,
		AttendanceDeviceId: row.Checkin.AttendanceDeviceId,
		RunId:              run.ID,
	})
}

func (n *checkinNormalizer) Finalize(ctx context.Context, run *models.ImportRun, result *GenerateResult) error {
	if result.LastEventTime == nil {
		return nil
	}
	touched, err := n.store.AdvanceShiftLastSync(ctx, run.BusinessId, *result.LastEventTime)
	if err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "importer", "Finalize", "advance shift last sync", run.ID, err)
		return nil
	}
	result.SideEffects = touched
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
