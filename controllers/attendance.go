package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"schooladmin/services"
	"schooladmin/services/export"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
)

type AttendanceController struct {
	attendance *services.AttendanceService
}

func NewAttendanceController(attendance *services.AttendanceService) *AttendanceController {
	return &AttendanceController{attendance: attendance}
}

// MarkAttendance takes a JSON array of register lines. Invalid lines are
// reported under "skipped" and the rest are saved.
func (ac *AttendanceController) MarkAttendance(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '[' {
		return utils.NewValidationError("Expected a list of attendance records")
	}
	var items []services.AttendanceItem
	if err := json.Unmarshal(body, &items); err != nil {
		return utils.NewValidationError("Expected a list of attendance records")
	}

	result, err := ac.attendance.Mark(c.UserContext(), items)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attendance marked successfully",
		"saved":   result.Saved,
		"skipped": result.Skipped,
	})
}

func (ac *AttendanceController) report(c *fiber.Ctx) (services.Month, []services.AttendanceReportRow, error) {
	month, err := services.ParseMonth(c.Query("month"), c.Query("year"))
	if err != nil {
		return month, nil, err
	}
	classID, err := queryUint(c, "class_id")
	if err != nil {
		return month, nil, err
	}
	var classFilter *uint
	if classID != 0 {
		classFilter = &classID
	}
	rows, err := ac.attendance.Report(c.UserContext(), classFilter, month)
	return month, rows, err
}

func (ac *AttendanceController) GetReport(c *fiber.Ctx) error {
	_, rows, err := ac.report(c)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (ac *AttendanceController) ExportReport(c *fiber.Ctx) error {
	month, rows, err := ac.report(c)
	if err != nil {
		return err
	}
	data, err := export.AttendanceReportXLSX(month, rows)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("attendance-%04d-%02d.xlsx", month.Year, int(month.Month))
	return sendAttachment(c, export.ContentTypeXLSX, filename, data)
}

// GetStudentAttendance applies the month filter only when both month and year are given.
func (ac *AttendanceController) GetStudentAttendance(c *fiber.Ctx) error {
	studentID, err := paramID(c, "student_id", "student")
	if err != nil {
		return err
	}

	var month *services.Month
	if c.Query("month") != "" && c.Query("year") != "" {
		m, err := services.ParseMonth(c.Query("month"), c.Query("year"))
		if err != nil {
			return err
		}
		month = &m
	}

	records, err := ac.attendance.ForStudent(c.UserContext(), studentID, month)
	if err != nil {
		return err
	}
	return c.JSON(records)
}
