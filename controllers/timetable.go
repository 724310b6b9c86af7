package controllers

import (
	"schooladmin/services"

	"github.com/gofiber/fiber/v2"
)

type TimetableController struct {
	timetable *services.TimetableService
}

func NewTimetableController(timetable *services.TimetableService) *TimetableController {
	return &TimetableController{timetable: timetable}
}

func (tc *TimetableController) GetTimetable(c *fiber.Ctx) error {
	classID, err := queryUint(c, "class_id")
	if err != nil {
		return err
	}
	teacherID, err := queryUint(c, "teacher_id")
	if err != nil {
		return err
	}
	entries, err := tc.timetable.List(c.UserContext(), services.TimetableFilter{ClassID: classID, TeacherID: teacherID})
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

func (tc *TimetableController) CreateEntry(c *fiber.Ctx) error {
	var req services.CreateTimetableInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := tc.timetable.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Timetable entry created successfully",
		"id":        entry.ID,
		"timetable": entry,
	})
}

func (tc *TimetableController) UpdateEntry(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "timetable")
	if err != nil {
		return err
	}
	var req services.UpdateTimetableInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := tc.timetable.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":   "Timetable entry updated successfully",
		"timetable": entry,
	})
}

func (tc *TimetableController) DeleteEntry(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "timetable")
	if err != nil {
		return err
	}
	if err := tc.timetable.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Timetable entry deleted successfully"})
}
