package controllers

import (
	"strings"

	"schooladmin/models"
	"schooladmin/services"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	directory *services.DirectoryService
}

func NewUserController(directory *services.DirectoryService) *UserController {
	return &UserController{directory: directory}
}

// GetUsers returns staff accounts, optionally filtered by role
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	role := models.Role(strings.TrimSpace(c.Query("role")))
	if role != "" && !role.Valid() {
		return utils.NewValidationError("Invalid role. Use admin or teacher")
	}
	users, err := uc.directory.ListUsers(c.UserContext(), role)
	if err != nil {
		return err
	}
	out := make([]utils.UserShort, 0, len(users))
	for _, u := range users {
		out = append(out, utils.ToUserShort(u))
	}
	return c.JSON(out)
}

func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := uc.directory.CreateUser(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    utils.ToUserShort(*user),
	})
}

type userStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// UpdateUserStatus enables or disables an account.
func (uc *UserController) UpdateUserStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}
	var req userStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	// an admin cannot lock themselves out
	if current, ok := currentUserID(c); ok && current == id && !*req.IsActive {
		return utils.NewValidationError("You cannot disable your own account")
	}

	user, err := uc.directory.SetUserActive(c.UserContext(), id, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":   "User status updated successfully",
		"user":      utils.ToUserShort(*user),
		"is_active": user.IsActive,
	})
}
