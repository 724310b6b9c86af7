package controllers

import (
	"context"
	"fmt"
	"strings"

	"schooladmin/services"
	"schooladmin/services/reportcard"
	"schooladmin/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ResultController struct {
	results *services.ResultService
	storage *storage.StorageService
	pdf     reportcard.Options
	// archive every rendered PDF, not only on explicit request
	archiveOnRender bool
}

func NewResultController(results *services.ResultService, store *storage.StorageService, pdf reportcard.Options, archiveOnRender bool) *ResultController {
	return &ResultController{results: results, storage: store, pdf: pdf, archiveOnRender: archiveOnRender}
}

func (rc *ResultController) GetResults(c *fiber.Ctx) error {
	var f services.ResultFilter
	var err error
	if f.StudentID, err = queryUint(c, "student_id"); err != nil {
		return err
	}
	if f.SubjectID, err = queryUint(c, "subject_id"); err != nil {
		return err
	}
	if f.ClassID, err = queryUint(c, "class_id"); err != nil {
		return err
	}
	f.Term = strings.TrimSpace(c.Query("term"))

	results, err := rc.results.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(results)
}

func (rc *ResultController) CreateResult(c *fiber.Ctx) error {
	var req services.CreateResultInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	result, err := rc.results.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Result created successfully",
		"id":      result.ID,
		"result":  result,
	})
}

func (rc *ResultController) UpdateResult(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "result")
	if err != nil {
		return err
	}
	var req services.UpdateResultInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	result, err := rc.results.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Result updated successfully",
		"result":  result,
	})
}

func (rc *ResultController) loadCard(c *fiber.Ctx) (*services.ReportCard, error) {
	studentID, err := paramID(c, "student_id", "student")
	if err != nil {
		return nil, err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, err
	}
	return rc.results.ReportCard(c.UserContext(), studentID, c.Query("term"), from, to)
}

func (rc *ResultController) GetReportCard(c *fiber.Ctx) error {
	card, err := rc.loadCard(c)
	if err != nil {
		return err
	}
	return c.JSON(card)
}

func (rc *ResultController) GetReportCardPDF(c *fiber.Ctx) error {
	card, err := rc.loadCard(c)
	if err != nil {
		return err
	}
	data, err := reportcard.Render(card, rc.pdf)
	if err != nil {
		return err
	}

	if rc.archiveOnRender && rc.storage.Available() {
		go func(studentID uint, data []byte) {
			if _, err := rc.storage.UploadBytes(context.Background(), reportCardFolder(studentID), "pdf", data); err != nil {
				logrus.WithError(err).WithField("student_id", studentID).Warn("Failed to archive report card")
			}
		}(card.Student.ID, data)
	}

	return sendAttachment(c, "application/pdf", reportCardFilename(card), data)
}

// ArchiveReportCard renders the PDF and stores it in object storage.
func (rc *ResultController) ArchiveReportCard(c *fiber.Ctx) error {
	card, err := rc.loadCard(c)
	if err != nil {
		return err
	}
	data, err := reportcard.Render(card, rc.pdf)
	if err != nil {
		return err
	}
	url, err := rc.storage.UploadBytes(c.UserContext(), reportCardFolder(card.Student.ID), "pdf", data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report card archived successfully",
		"url":     url,
	})
}

func reportCardFolder(studentID uint) string {
	return fmt.Sprintf("report-cards/%d", studentID)
}

func reportCardFilename(card *services.ReportCard) string {
	term := strings.ReplaceAll(strings.ToLower(card.Term), " ", "-")
	return fmt.Sprintf("report-card-%s-%s.pdf", card.Student.AdmissionNumber, term)
}
