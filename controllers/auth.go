package controllers

import (
	"schooladmin/middleware"
	"schooladmin/services"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	auth     *services.AuthService
	activity middleware.ActivityRecorder
}

func NewAuthController(auth *services.AuthService, activity middleware.ActivityRecorder) *AuthController {
	return &AuthController{auth: auth, activity: activity}
}

// Index describes the auth endpoints.
func (ac *AuthController) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Authentication API",
		"endpoints": fiber.Map{
			"login":   "POST /api/auth/login",
			"refresh": "POST /api/auth/refresh",
			"me":      "GET /api/auth/me",
		},
	})
}

// Login authenticates a user and returns an access/refresh token pair
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, user, err := ac.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	entry := middleware.NewActivityEntry(c, "LOGIN", "auth", user.ID, fiber.Map{"username": user.Username})
	uid := user.ID
	entry.UserID = &uid
	middleware.RecordAsync(ac.activity, entry)

	return c.JSON(result)
}

// Refresh exchanges a refresh token for a new access token.
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.NewAuthenticationError("Invalid or expired token")
	}
	token, err := ac.auth.Refresh(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access_token": token})
}

// Me returns the account behind the access token.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.NewAuthenticationError("Invalid or expired token")
	}
	user, err := ac.auth.Me(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": utils.ToUserShort(*user)})
}
