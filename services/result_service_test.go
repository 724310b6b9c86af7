package services

import (
	"fmt"
	"testing"

	"schooladmin/database/dbtest"
	"schooladmin/models"
	"schooladmin/utils"
)

func TestResultLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	class := seedClass(t, db, "Grade 3C")
	st := seedStudent(t, db, "ADM010", &class.ID)
	math := seedSubject(t, db, "Mathematics", "MATH")
	sci := seedSubject(t, db, "Science", "SCI")
	attendance := NewAttendanceService(db, nil)
	svc := NewResultService(db, attendance)

	created, err := svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: math.ID, Term: "Term 1 2024", Marks: ptr(80.0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Grade != "A" {
		t.Fatalf("80 must grade A, got %q", created.Grade)
	}

	t.Run("duplicate triple conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: math.ID, Term: "Term 1 2024", Marks: ptr(50.0)})
		appErr := assertKind(t, err, utils.KindConflict)
		if appErr.Message != msgDuplicateResult {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("missing references", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateResultInput{StudentID: 999, SubjectID: math.ID, Term: "Term 1 2024", Marks: ptr(50.0)})
		assertKind(t, err, utils.KindNotFound)
		_, err = svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: 999, Term: "Term 1 2024", Marks: ptr(50.0)})
		assertKind(t, err, utils.KindNotFound)
	})

	t.Run("marks out of range", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: sci.ID, Term: "Term 1 2024", Marks: ptr(101.0)})
		assertKind(t, err, utils.KindValidation)
	})

	t.Run("update recomputes grade", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateResultInput{Marks: ptr(69.5), Remarks: ptr("Improving")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Grade != "C" || updated.Remarks != "Improving" || updated.StudentID != st.ID {
			t.Fatalf("unexpected update: %+v", updated)
		}
	})

	t.Run("term change colliding with another row conflicts", func(t *testing.T) {
		other, err := svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: math.ID, Term: "Term 2 2024", Marks: ptr(40.0)})
		if err != nil {
			t.Fatalf("create second term: %v", err)
		}
		_, err = svc.Update(ctx, other.ID, UpdateResultInput{Term: ptr("Term 1 2024")})
		assertKind(t, err, utils.KindConflict)
	})

	t.Run("list by class", func(t *testing.T) {
		results, err := svc.List(ctx, ResultFilter{ClassID: class.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(results) != 2 || results[0].Term != "Term 1 2024" || results[0].SubjectName != "Mathematics" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("report card", func(t *testing.T) {
		if _, err := svc.Create(ctx, CreateResultInput{StudentID: st.ID, SubjectID: sci.ID, Term: "Term 1 2024", Marks: ptr(55.0)}); err != nil {
			t.Fatalf("create science: %v", err)
		}
		sid := fmt.Sprint(st.ID)
		if _, err := attendance.Mark(ctx, []AttendanceItem{
			item(sid, "2024-01-08", "present"),
			item(sid, "2024-01-09", "absent"),
			item(sid, "2024-02-01", "present"),
		}); err != nil {
			t.Fatalf("mark: %v", err)
		}

		card, err := svc.ReportCard(ctx, st.ID, "Term 1 2024", models.Date{}, models.Date{})
		if err != nil {
			t.Fatalf("report card: %v", err)
		}
		if card.Student.Name != "FirstADM010 Last" || card.Student.Class != "Grade 3C" {
			t.Fatalf("unexpected student block: %+v", card.Student)
		}
		if len(card.Results) != 2 || card.Results[1].Subject != "Science" || card.Results[1].Grade != "D" {
			t.Fatalf("unexpected results: %+v", card.Results)
		}
		if card.AttendanceSummary.TotalDays != 3 || card.AttendanceSummary.AttendanceRate != 66.67 {
			t.Fatalf("unexpected attendance: %+v", card.AttendanceSummary)
		}
		if card.AttendanceWindow != nil {
			t.Fatalf("no window expected")
		}

		from, _ := models.ParseDate("2024-01-01")
		to, _ := models.ParseDate("2024-01-31")
		windowed, err := svc.ReportCard(ctx, st.ID, "Term 1 2024", from, to)
		if err != nil {
			t.Fatalf("windowed report card: %v", err)
		}
		if windowed.AttendanceSummary.TotalDays != 2 || windowed.AttendanceSummary.AttendanceRate != 50 {
			t.Fatalf("unexpected windowed attendance: %+v", windowed.AttendanceSummary)
		}
	})

	t.Run("report card errors", func(t *testing.T) {
		_, err := svc.ReportCard(ctx, st.ID, " ", models.Date{}, models.Date{})
		assertKind(t, err, utils.KindValidation)
		_, err = svc.ReportCard(ctx, 999, "Term 1 2024", models.Date{}, models.Date{})
		assertKind(t, err, utils.KindNotFound)
	})
}
