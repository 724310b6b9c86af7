package controllers

import (
	"fmt"
	"strings"

	"schooladmin/services"
	"schooladmin/services/export"

	"github.com/gofiber/fiber/v2"
)

type FeeController struct {
	fees *services.FeeService
}

func NewFeeController(fees *services.FeeService) *FeeController {
	return &FeeController{fees: fees}
}

func (fc *FeeController) GetFees(c *fiber.Ctx) error {
	studentID, err := queryUint(c, "student_id")
	if err != nil {
		return err
	}
	fees, err := fc.fees.List(c.UserContext(), services.FeeFilter{
		StudentID: studentID,
		Term:      strings.TrimSpace(c.Query("term")),
	})
	if err != nil {
		return err
	}
	return c.JSON(fees)
}

// GetUnpaid lists active students with no payment for the term.
func (fc *FeeController) GetUnpaid(c *fiber.Ctx) error {
	students, err := fc.fees.Unpaid(c.UserContext(), c.Query("term"))
	if err != nil {
		return err
	}
	return c.JSON(students)
}

func (fc *FeeController) ExportUnpaid(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		term = fc.fees.DefaultTerm()
	}
	students, err := fc.fees.Unpaid(c.UserContext(), term)
	if err != nil {
		return err
	}
	data, err := export.UnpaidXLSX(term, students)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("unpaid-%s.xlsx", strings.ReplaceAll(strings.ToLower(term), " ", "-"))
	return sendAttachment(c, export.ContentTypeXLSX, filename, data)
}

func (fc *FeeController) RecordPayment(c *fiber.Ctx) error {
	var req services.RecordPaymentInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	fee, err := fc.fees.Record(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Fee payment recorded successfully",
		"id":      fee.ID,
		"fee":     fee,
	})
}

func (fc *FeeController) UpdatePayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "fee")
	if err != nil {
		return err
	}
	var req services.UpdatePaymentInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	fee, err := fc.fees.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Fee payment updated successfully",
		"fee":     fee,
	})
}
