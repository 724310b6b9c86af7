package controllers

import (
	"strconv"
	"strings"

	"schooladmin/middleware"
	"schooladmin/models"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
)

func bindJSON(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	return nil
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name, label string) (uint, error) {
	id, ok := utils.ParseUintParam(c.Params(name))
	if !ok {
		return 0, utils.NewValidationError("Invalid %s ID", label)
	}
	return id, nil
}

// queryUint returns 0 when the parameter is absent.
func queryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, ok := utils.ParseUintParam(raw)
	if !ok {
		return 0, utils.NewValidationError("%s must be a positive number", name)
	}
	return id, nil
}

func queryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.NewValidationError("%s must be true or false", name)
	}
	return &v, nil
}

func queryDate(c *fiber.Ctx, name string) (models.Date, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return models.Date{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, utils.NewValidationError("Invalid %s format. Use YYYY-MM-DD", name)
	}
	return d, nil
}

func sendAttachment(c *fiber.Ctx, contentType, filename string, data []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := middleware.CurrentIdentity(c)
	return id.UserID, ok
}
