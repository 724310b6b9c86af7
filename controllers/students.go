package controllers

import (
	"schooladmin/services"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct {
	students *services.StudentService
}

func NewStudentController(students *services.StudentService) *StudentController {
	return &StudentController{students: students}
}

// GetStudents lists students, active ones unless is_active says otherwise.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	var f services.StudentFilter
	classID, err := queryUint(c, "class_id")
	if err != nil {
		return err
	}
	if classID != 0 {
		f.ClassID = &classID
	}
	if f.IsActive, err = queryBool(c, "is_active"); err != nil {
		return err
	}

	students, err := sc.students.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(students)
}

// GetStudent returns a specific student by ID, inactive ones included
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "student")
	if err != nil {
		return err
	}
	student, err := sc.students.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(student)
}

func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req services.CreateStudentInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	student, err := sc.students.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"id":      student.ID,
		"student": student,
	})
}

func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "student")
	if err != nil {
		return err
	}
	var req services.UpdateStudentInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	student, err := sc.students.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent deactivates the student; the row is kept.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "student")
	if err != nil {
		return err
	}
	if err := sc.students.Deactivate(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Student deactivated successfully"})
}
