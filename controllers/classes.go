package controllers

import (
	"schooladmin/services"

	"github.com/gofiber/fiber/v2"
)

// ClassController serves classes and subjects.
type ClassController struct {
	directory *services.DirectoryService
}

func NewClassController(directory *services.DirectoryService) *ClassController {
	return &ClassController{directory: directory}
}

func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	classes, err := cc.directory.ListClasses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(classes)
}

// GetClass includes the number of active students.
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "class")
	if err != nil {
		return err
	}
	class, err := cc.directory.GetClass(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(class)
}

func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	var req services.CreateClassInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	class, err := cc.directory.CreateClass(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

func (cc *ClassController) GetSubjects(c *fiber.Ctx) error {
	subjects, err := cc.directory.ListSubjects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(subjects)
}

func (cc *ClassController) CreateSubject(c *fiber.Ctx) error {
	var req services.CreateSubjectInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	subject, err := cc.directory.CreateSubject(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Subject created successfully",
		"subject": subject,
	})
}
