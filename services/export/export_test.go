package export

import (
	"bytes"
	"testing"
	"time"

	"schooladmin/services"

	"github.com/xuri/excelize/v2"
)

func readRows(t *testing.T, data []byte) (string, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return sheet, rows
}

func TestAttendanceReportXLSX(t *testing.T) {
	rows := []services.AttendanceReportRow{{
		AdmissionNumber: "ADM001",
		FirstName:       "Ana",
		LastName:        "Lopez",
		ClassName:       "Grade 1A",
		AttendanceSummary: services.AttendanceSummary{
			TotalDays: 3, PresentDays: 2, AbsentDays: 1, AttendanceRate: 66.67,
		},
	}}

	data, err := AttendanceReportXLSX(services.Month{Year: 2024, Month: time.March}, rows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	sheet, got := readRows(t, data)
	if sheet != "Attendance 2024-03" {
		t.Fatalf("unexpected sheet %q", sheet)
	}
	if len(got) != 2 || got[1][0] != "ADM001" || got[1][4] != "3" || got[1][8] != "66.67" {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestUnpaidXLSX(t *testing.T) {
	data, err := UnpaidXLSX("Term 1 2023", []services.UnpaidStudent{
		{AdmissionNumber: "ADM002", FirstName: "Ben", LastName: "Ito"},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	_, got := readRows(t, data)
	if len(got) != 2 || got[0][0] != "Admission Number" || got[1][4] != "Term 1 2023" {
		t.Fatalf("unexpected rows: %v", got)
	}
}
