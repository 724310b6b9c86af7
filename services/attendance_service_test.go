package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"schooladmin/database/dbtest"
	"schooladmin/models"
	"schooladmin/utils"
)

type publisherStub struct {
	mu     sync.Mutex
	events []string
}

func (p *publisherStub) Publish(event string, _ interface{}) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func item(studentID, date, status string) AttendanceItem {
	it := AttendanceItem{StudentID: json.RawMessage(studentID)}
	if date != "" {
		it.Date = &date
	}
	if status != "" {
		it.Status = &status
	}
	return it
}

func TestMarkAttendanceUpsertsByStudentAndDate(t *testing.T) {
	db := dbtest.Open(t)
	st := seedStudent(t, db, "ADM001", nil)
	pub := &publisherStub{}
	svc := NewAttendanceService(db, pub)

	first, err := svc.Mark(ctx, []AttendanceItem{item("1", "2024-03-04", "present")})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if first.Saved != 1 || len(first.Skipped) != 0 {
		t.Fatalf("unexpected result: %+v", first)
	}

	again := item("1", "2024-03-04", "Absent")
	again.Remarks = "sick"
	if _, err := svc.Mark(ctx, []AttendanceItem{again}); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	var rows []models.Attendance
	if err := db.Where("student_id = ?", st.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row per student and day, got %d", len(rows))
	}
	if rows[0].Status != models.StatusAbsent || rows[0].Remarks != "sick" {
		t.Fatalf("row not overwritten: %+v", rows[0])
	}
	if len(pub.events) != 2 || pub.events[0] != "attendance.marked" {
		t.Fatalf("unexpected events: %v", pub.events)
	}
}

func TestMarkAttendanceSkipsInvalidItems(t *testing.T) {
	db := dbtest.Open(t)
	seedStudent(t, db, "ADM001", nil)
	svc := NewAttendanceService(db, nil)

	res, err := svc.Mark(ctx, []AttendanceItem{
		item("1", "2024-03-04", "present"),
		item("", "2024-03-04", "present"),
		item("1", "04/03/2024", "present"),
		item("1", "2024-03-05", "excused"),
		item("99", "2024-03-04", "late"),
		item(`"abc"`, "2024-03-04", "late"),
	})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if res.Saved != 1 {
		t.Fatalf("expected 1 saved, got %d", res.Saved)
	}
	want := []SkippedItem{
		{Index: 1, Reason: "missing required fields"},
		{Index: 2, Reason: "invalid date format, use YYYY-MM-DD"},
		{Index: 3, Reason: "invalid status"},
		{Index: 4, Reason: "student not found"},
		{Index: 5, Reason: "invalid student_id"},
	}
	if len(res.Skipped) != len(want) {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	for i := range want {
		if res.Skipped[i] != want[i] {
			t.Fatalf("skipped[%d] = %+v, want %+v", i, res.Skipped[i], want[i])
		}
	}
}

func TestAttendanceReport(t *testing.T) {
	db := dbtest.Open(t)
	class := seedClass(t, db, "Grade 1A")
	a := seedStudent(t, db, "ADM001", &class.ID)
	b := seedStudent(t, db, "ADM002", &class.ID)
	other := seedStudent(t, db, "ADM003", nil)
	inactive := seedStudent(t, db, "ADM004", &class.ID)
	db.Model(&inactive).Update("is_active", false)

	svc := NewAttendanceService(db, nil)
	if _, err := svc.Mark(ctx, []AttendanceItem{
		item("1", "2024-03-01", "present"),
		item("1", "2024-03-02", "present"),
		item("1", "2024-03-03", "absent"),
		item("1", "2024-04-01", "absent"),
		item("3", "2024-03-01", "late"),
	}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	month, err := ParseMonth("3", "2024")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}

	t.Run("class filter", func(t *testing.T) {
		rows, err := svc.Report(ctx, &class.ID, month)
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 active students, got %d", len(rows))
		}
		if rows[0].StudentID != a.ID || rows[0].TotalDays != 3 || rows[0].PresentDays != 2 || rows[0].AttendanceRate != 66.67 {
			t.Fatalf("unexpected row: %+v", rows[0])
		}
		if rows[0].ClassName != "Grade 1A" {
			t.Fatalf("class name missing: %+v", rows[0])
		}
		if rows[1].StudentID != b.ID || rows[1].TotalDays != 0 || rows[1].AttendanceRate != 0 {
			t.Fatalf("zero total must give zero rate: %+v", rows[1])
		}
	})

	t.Run("all classes", func(t *testing.T) {
		rows, err := svc.Report(ctx, nil, month)
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		if len(rows) != 3 || rows[2].StudentID != other.ID || rows[2].LateDays != 1 {
			t.Fatalf("unexpected rows: %+v", rows)
		}
	})

	t.Run("student history", func(t *testing.T) {
		all, err := svc.ForStudent(ctx, a.ID, nil)
		if err != nil {
			t.Fatalf("for student: %v", err)
		}
		if len(all) != 4 || all[0].Date.String() != "2024-03-01" || all[3].Date.String() != "2024-04-01" {
			t.Fatalf("unexpected history: %+v", all)
		}
		march, err := svc.ForStudent(ctx, a.ID, &month)
		if err != nil || len(march) != 3 {
			t.Fatalf("expected 3 rows in March, got %d (%v)", len(march), err)
		}
	})

	t.Run("summary window", func(t *testing.T) {
		from, _ := models.ParseDate("2024-03-02")
		to, _ := models.ParseDate("2024-04-01")
		sum, err := svc.Summary(ctx, a.ID, from, to)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if sum.TotalDays != 3 || sum.PresentDays != 1 || sum.AbsentDays != 2 {
			t.Fatalf("unexpected summary: %+v", sum)
		}
	})
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		month, year string
		want        Month
		wantErr     string
	}{
		{"3", "2024", Month{Year: 2024, Month: time.March}, ""},
		{"", "2024", Month{}, "Month and year are required"},
		{"march", "2024", Month{}, "Month and year must be numbers"},
		{"13", "2024", Month{}, "Month must be between 1 and 12"},
	}
	for _, tt := range tests {
		got, err := ParseMonth(tt.month, tt.year)
		if tt.wantErr != "" {
			appErr := assertKind(t, err, utils.KindValidation)
			if appErr.Message != tt.wantErr {
				t.Fatalf("ParseMonth(%q, %q) message = %q", tt.month, tt.year, appErr.Message)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseMonth(%q, %q) = %+v, %v", tt.month, tt.year, got, err)
		}
	}
}

func TestMarkAttendanceCountsRepeatedKeyOnce(t *testing.T) {
	db := dbtest.Open(t)
	st := seedStudent(t, db, "ADM001", nil)
	svc := NewAttendanceService(db, nil)

	res, err := svc.Mark(ctx, []AttendanceItem{
		item("1", "2024-03-04", "present"),
		item("1", "2024-03-04", "late"),
		item("1", "2024-03-05", "absent"),
	})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if res.Saved != 2 {
		t.Fatalf("expected 2 distinct rows saved, got %d", res.Saved)
	}

	var row models.Attendance
	if err := db.Where("student_id = ? AND date = ?", st.ID, "2024-03-04").First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.Status != models.StatusLate {
		t.Fatalf("last line must win, got %q", row.Status)
	}
}
