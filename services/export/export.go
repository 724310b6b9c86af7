// Package export renders report tables as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"schooladmin/services"

	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceReportXLSX writes one row per student for the month.
func AttendanceReportXLSX(month services.Month, rows []services.AttendanceReportRow) ([]byte, error) {
	header := []interface{}{"Admission Number", "First Name", "Last Name", "Class", "Total Days", "Present", "Absent", "Late", "Attendance Rate (%)"}
	data := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		data = append(data, []interface{}{
			r.AdmissionNumber, r.FirstName, r.LastName, r.ClassName,
			r.TotalDays, r.PresentDays, r.AbsentDays, r.LateDays, r.AttendanceRate,
		})
	}
	title := fmt.Sprintf("Attendance %04d-%02d", month.Year, int(month.Month))
	return workbook(title, header, data)
}

// UnpaidXLSX lists students with no payment for term.
func UnpaidXLSX(term string, students []services.UnpaidStudent) ([]byte, error) {
	header := []interface{}{"Admission Number", "First Name", "Last Name", "Class", "Term"}
	data := make([][]interface{}, 0, len(students))
	for _, s := range students {
		data = append(data, []interface{}{s.AdmissionNumber, s.FirstName, s.LastName, s.ClassName, term})
	}
	return workbook("Unpaid Fees", header, data)
}

func workbook(sheet string, header []interface{}, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// sheet names are capped at 31 characters
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
