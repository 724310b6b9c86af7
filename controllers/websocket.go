package controllers

import (
	"schooladmin/middleware"
	"schooladmin/services/websocket"
	"schooladmin/utils"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type WebSocketController struct {
	hub    *websocket.Hub
	issuer *middleware.TokenIssuer
}

func NewWebSocketController(hub *websocket.Hub, issuer *middleware.TokenIssuer) *WebSocketController {
	return &WebSocketController{hub: hub, issuer: issuer}
}

// Upgrade admits staff with a valid access token in ?token= before the handshake.
func (wsc *WebSocketController) Upgrade(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return utils.NewValidationError("Use the WebSocket endpoint: ws://<host>/ws?token=YOUR_JWT")
	}
	claims, err := wsc.issuer.Verify(c.Query("token"), middleware.TokenTypeAccess)
	if err != nil {
		return utils.NewAuthenticationError("Invalid or expired token")
	}
	middleware.SetIdentity(c, claims)
	return c.Next()
}

// WebSocketHandler attaches an upgraded connection to the hub
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("WebSocket handler panic")
			}
		}()

		id, ok := c.Locals(middleware.IdentityKey).(middleware.Identity)
		if !ok {
			_ = c.WriteMessage(fiberws.CloseMessage, []byte("Unauthorized"))
			_ = c.Close()
			return
		}
		wsc.hub.ServeFiberWS(c, id.UserID)
	})
}

// GetWebSocketStats reports the number of connected clients.
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"connected_clients": wsc.hub.GetClientCount()})
}
