// Package reportcard renders report cards to PDF.
package reportcard

import (
	"bytes"
	"fmt"
	"os"

	"schooladmin/services"

	"github.com/go-pdf/fpdf"
)

// Options controls the letterhead.
type Options struct {
	SchoolName string
	LogoPath   string
}

// Render draws the card on A4 and returns the PDF bytes.
func Render(card *services.ReportCard, opts Options) ([]byte, error) {
	if card == nil {
		return nil, fmt.Errorf("report card is nil")
	}
	schoolName := opts.SchoolName
	if schoolName == "" {
		schoolName = "School"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("")
	pdf.SetHeaderFunc(func() {
		if opts.LogoPath != "" {
			if _, err := os.Stat(opts.LogoPath); err == nil {
				pdf.ImageOptions(opts.LogoPath, 10, 8, 25, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
			}
		}
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 10, tr(schoolName), "", 1, "C", false, 0, "")
		pdf.SetDrawColor(40, 145, 108)
		pdf.SetLineWidth(0.5)
		pdf.Line(10, pdf.GetY()+2, 200, pdf.GetY()+2)
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, tr("REPORT CARD - "+card.Term), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	class := card.Student.Class
	if class == "" {
		class = "N/A"
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range [][2]string{
		{"Student Name:", card.Student.Name},
		{"Admission Number:", card.Student.AdmissionNumber},
		{"Class:", class},
		{"Date of Birth:", card.Student.DateOfBirth.String()},
	} {
		pdf.CellFormat(45, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(40, 145, 108)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(70, 7, "Subject", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Code", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Marks", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Grade", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 7, "Remarks", "1", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(245, 245, 245)
	if len(card.Results) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "No results recorded for this term.", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 10)
	}
	for i, line := range card.Results {
		fill := i%2 == 1
		pdf.CellFormat(70, 7, tr(line.Subject), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(25, 7, tr(line.SubjectCode), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", line.Marks), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(20, 7, line.Grade, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(0, 7, tr(line.Remarks), "1", 1, "L", fill, 0, "")
	}
	if avg, ok := Average(card.Results); ok {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(95, 7, "Average", "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", avg), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, services.Grade(avg), "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 7, "", "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	sum := card.AttendanceSummary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 6, "Attendance Summary", "", 1, "L", false, 0, "")
	if w := card.AttendanceWindow; w != nil {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Period: %s to %s", windowBound(w.From.String()), windowBound(w.To.String())), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "", 10)
	for _, row := range [][2]string{
		{"Total School Days:", fmt.Sprintf("%d", sum.TotalDays)},
		{"Days Present:", fmt.Sprintf("%d", sum.PresentDays)},
		{"Days Absent:", fmt.Sprintf("%d", sum.AbsentDays)},
		{"Days Late:", fmt.Sprintf("%d", sum.LateDays)},
		{"Attendance Rate:", fmt.Sprintf("%.2f%%", sum.AttendanceRate)},
	} {
		pdf.CellFormat(60, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	teacher, principal := Comments(card)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Class Teacher Comments:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(teacher), "", "L", false)
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Principal Comments:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(principal), "", "L", false)

	pdf.Ln(12)
	pdf.CellFormat(0, 6, "Generated on: "+card.GeneratedOn.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(10)
	pdf.CellFormat(95, 6, "_________________________", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 6, "_________________________", "", 1, "C", false, 0, "")
	pdf.CellFormat(95, 6, "Class Teacher Signature", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 6, "Principal Signature", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report card: %w", err)
	}
	return buf.Bytes(), nil
}

// Average of the marks; false when there are no results.
func Average(lines []services.ReportCardLine) (float64, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	var total float64
	for _, l := range lines {
		total += l.Marks
	}
	return total / float64(len(lines)), true
}

// Comments derives the teacher and principal remarks from the average grade
// and attendance rate.
func Comments(card *services.ReportCard) (string, string) {
	avg, ok := Average(card.Results)
	if !ok {
		return "No results have been recorded for this term.", "Please see the class teacher."
	}

	var teacher string
	switch services.Grade(avg) {
	case "A":
		teacher = "Excellent work this term. Keep it up."
	case "B":
		teacher = "Very good performance with room to reach the top grade."
	case "C":
		teacher = "Good effort. More consistent revision will lift the results."
	case "D":
		teacher = "Fair performance. Needs to put in more work."
	default:
		teacher = "Results are below expectations. Extra support is recommended."
	}

	principal := "Promoted on merit."
	if card.AttendanceSummary.TotalDays > 0 && card.AttendanceSummary.AttendanceRate < 75 {
		principal = "Attendance must improve next term."
	} else if avg < 50 {
		principal = "Parents are invited to discuss progress with the school."
	}
	return teacher, principal
}

func windowBound(v string) string {
	if v == "" {
		return "..."
	}
	return v
}
