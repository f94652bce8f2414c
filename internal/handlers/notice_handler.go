package handlers

import (
	"context"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/middleware"
	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
	noticews "github.com/yamenzk/ptrainer/internal/websocket"
)

type requirementsChecker interface {
	CheckNow(ctx context.Context, clientID string) (wizard.Requirements, error)
}

// NoticeHandler streams notices and auto-opened wizards to the dashboard.
type NoticeHandler struct {
	hub      *noticews.Hub
	checker  requirementsChecker
	profiles clientTracker
}

func NewNoticeHandler(hub *noticews.Hub, checker *services.RefreshService, profiles *services.ProfileStore) *NoticeHandler {
	return &NoticeHandler{hub: hub, checker: checker, profiles: profiles}
}

// WebSocketAuth runs after AuthRequired and rejects plain HTTP requests.
func (h *NoticeHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	if _, ok := identify(c, h.profiles); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return c.Next()
}

func (h *NoticeHandler) HandleWebSocket(conn *websocket.Conn) {
	clientID, _ := conn.Locals(middleware.LocalClientID).(string)
	client := noticews.NewClient(h.hub, conn, clientID)

	h.hub.Register(client)
	go client.WritePump()
	go client.Check(h.checker)
	client.ReadPump(h.checker)
}
