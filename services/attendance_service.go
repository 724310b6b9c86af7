package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"schooladmin/models"
	"schooladmin/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventPublisher receives domain events for real-time delivery.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type AttendanceService struct {
	db     *gorm.DB
	events EventPublisher
}

func NewAttendanceService(db *gorm.DB, events EventPublisher) *AttendanceService {
	return &AttendanceService{db: db, events: events}
}

// AttendanceItem is one register line as submitted. Fields are raw so a
// malformed line can be skipped without rejecting the batch.
type AttendanceItem struct {
	StudentID json.RawMessage `json:"student_id"`
	Date      *string         `json:"date"`
	Status    *string         `json:"status"`
	Remarks   string          `json:"remarks"`
}

// SkippedItem explains why a line of the batch was not saved.
type SkippedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// MarkResult counts distinct (student, date) rows written; a repeated key
// within one batch is applied in order and counted once.
type MarkResult struct {
	Saved   int           `json:"saved"`
	Skipped []SkippedItem `json:"skipped"`
}

type AttendanceSummary struct {
	TotalDays      int     `json:"total_days"`
	PresentDays    int     `json:"present_days"`
	AbsentDays     int     `json:"absent_days"`
	LateDays       int     `json:"late_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}

func (s *AttendanceSummary) add(status models.AttendanceStatus) {
	s.TotalDays++
	switch status {
	case models.StatusPresent:
		s.PresentDays++
	case models.StatusAbsent:
		s.AbsentDays++
	case models.StatusLate:
		s.LateDays++
	}
	s.AttendanceRate = AttendanceRate(s.PresentDays, s.TotalDays)
}

type AttendanceReportRow struct {
	StudentID       uint   `json:"student_id"`
	AdmissionNumber string `json:"admission_number"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ClassID         *uint  `json:"class_id"`
	ClassName       string `json:"class_name,omitempty"`
	AttendanceSummary
}

// Month is a calendar month used to window attendance queries.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth requires both values to be numeric and month in 1..12.
func ParseMonth(month, year string) (Month, error) {
	if strings.TrimSpace(month) == "" || strings.TrimSpace(year) == "" {
		return Month{}, utils.NewValidationError("Month and year are required")
	}
	m, errM := strconv.Atoi(strings.TrimSpace(month))
	y, errY := strconv.Atoi(strings.TrimSpace(year))
	if errM != nil || errY != nil {
		return Month{}, utils.NewValidationError("Month and year must be numbers")
	}
	if m < 1 || m > 12 {
		return Month{}, utils.NewValidationError("Month must be between 1 and 12")
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// Range returns [first day, first day of next month).
func (m Month) Range() (models.Date, models.Date) {
	start := models.MonthStart(m.Year, m.Month)
	return start, start.AddMonths(1)
}

// Mark upserts each valid line keyed on (student_id, date) inside one transaction.
func (s *AttendanceService) Mark(ctx context.Context, items []AttendanceItem) (*MarkResult, error) {
	res := &MarkResult{Skipped: []SkippedItem{}}
	rows := make([]models.Attendance, 0, len(items))
	indexes := make([]int, 0, len(items))

	for i, item := range items {
		row, reason := item.toRow()
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedItem{Index: i, Reason: reason})
			continue
		}
		rows = append(rows, row)
		indexes = append(indexes, i)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		known, err := existingStudentIDs(tx, rows)
		if err != nil {
			return err
		}
		written := make(map[string]bool, len(rows))
		for n, row := range rows {
			if !known[row.StudentID] {
				res.Skipped = append(res.Skipped, SkippedItem{Index: indexes[n], Reason: "student not found"})
				continue
			}
			row := row
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "remarks", "updated_at"}),
			}).Omit("Student").Create(&row).Error; err != nil {
				return fmt.Errorf("upsert attendance: %w", err)
			}
			written[fmt.Sprintf("%d:%s", row.StudentID, row.Date)] = true
		}
		res.Saved = len(written)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(res.Skipped, func(i, j int) bool { return res.Skipped[i].Index < res.Skipped[j].Index })

	if res.Saved > 0 && s.events != nil {
		s.events.Publish("attendance.marked", map[string]interface{}{"saved": res.Saved, "skipped": len(res.Skipped)})
	}
	return res, nil
}

func (item AttendanceItem) toRow() (models.Attendance, string) {
	if len(item.StudentID) == 0 || string(item.StudentID) == "null" || item.Date == nil || item.Status == nil {
		return models.Attendance{}, "missing required fields"
	}
	var id uint
	if err := json.Unmarshal(item.StudentID, &id); err != nil || id == 0 {
		return models.Attendance{}, "invalid student_id"
	}
	d, err := models.ParseDate(*item.Date)
	if err != nil {
		return models.Attendance{}, "invalid date format, use YYYY-MM-DD"
	}
	status := models.AttendanceStatus(strings.ToLower(strings.TrimSpace(*item.Status)))
	if !status.Valid() {
		return models.Attendance{}, "invalid status"
	}
	return models.Attendance{StudentID: id, Date: d, Status: status, Remarks: item.Remarks}, ""
}

func existingStudentIDs(tx *gorm.DB, rows []models.Attendance) (map[uint]bool, error) {
	known := make(map[uint]bool)
	if len(rows) == 0 {
		return known, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.StudentID)
	}
	var found []uint
	if err := tx.Model(&models.Student{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("check students: %w", err)
	}
	for _, id := range found {
		known[id] = true
	}
	return known, nil
}

// Report aggregates each active student's register for the month.
func (s *AttendanceService) Report(ctx context.Context, classID *uint, month Month) ([]AttendanceReportRow, error) {
	db := s.db.WithContext(ctx)

	query := db.Preload("Class").Where("is_active = ?", true)
	if classID != nil {
		query = query.Where("class_id = ?", *classID)
	}
	var students []models.Student
	if err := query.Order("id ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	report := make([]AttendanceReportRow, 0, len(students))
	if len(students) == 0 {
		return report, nil
	}

	ids := make([]uint, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}

	from, to := month.Range()
	var records []models.Attendance
	if err := db.Select("student_id", "status").
		Where("student_id IN ?", ids).
		Where("date >= ? AND date < ?", from, to).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	summaries := make(map[uint]*AttendanceSummary, len(students))
	for _, r := range records {
		sum, ok := summaries[r.StudentID]
		if !ok {
			sum = &AttendanceSummary{}
			summaries[r.StudentID] = sum
		}
		sum.add(r.Status)
	}

	for _, st := range students {
		row := AttendanceReportRow{
			StudentID:       st.ID,
			AdmissionNumber: st.AdmissionNumber,
			FirstName:       st.FirstName,
			LastName:        st.LastName,
			ClassID:         st.ClassID,
		}
		if st.Class != nil {
			row.ClassName = st.Class.Name
		}
		if sum, ok := summaries[st.ID]; ok {
			row.AttendanceSummary = *sum
		}
		report = append(report, row)
	}
	return report, nil
}

// ForStudent returns the student's register ordered by date, optionally for one month.
func (s *AttendanceService) ForStudent(ctx context.Context, studentID uint, month *Month) ([]models.Attendance, error) {
	query := s.db.WithContext(ctx).Where("student_id = ?", studentID)
	if month != nil {
		from, to := month.Range()
		query = query.Where("date >= ? AND date < ?", from, to)
	}
	var records []models.Attendance
	if err := query.Order("date ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load student attendance: %w", err)
	}
	return records, nil
}

// Summary counts a student's register between from and to inclusive. Zero bounds are open.
func (s *AttendanceService) Summary(ctx context.Context, studentID uint, from, to models.Date) (AttendanceSummary, error) {
	var sum AttendanceSummary
	query := s.db.WithContext(ctx).Model(&models.Attendance{}).Where("student_id = ?", studentID)
	if !from.IsZero() {
		query = query.Where("date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", to)
	}
	var statuses []models.AttendanceStatus
	if err := query.Pluck("status", &statuses).Error; err != nil {
		return sum, fmt.Errorf("summarize attendance: %w", err)
	}
	for _, st := range statuses {
		sum.add(st)
	}
	return sum, nil
}
