package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/middleware"
)

type clientTracker interface {
	Track(clientID, membership string)
}

// identify reads the caller from the auth locals and makes sure the profile
// store refreshes them through the membership in their token.
func identify(c *fiber.Ctx, tracker clientTracker) (string, bool) {
	clientID, _ := c.Locals(middleware.LocalClientID).(string)
	membership, _ := c.Locals(middleware.LocalMembership).(string)
	clientID = strings.TrimSpace(clientID)
	membership = strings.TrimSpace(membership)
	if clientID == "" || membership == "" {
		return "", false
	}
	if tracker != nil {
		tracker.Track(clientID, membership)
	}
	return clientID, true
}

// requireClient identifies the caller or answers 401. Handlers return
// straight away when it reports false; the response is already written.
func requireClient(c *fiber.Ctx, tracker clientTracker) (string, bool) {
	clientID, ok := identify(c, tracker)
	if !ok {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return "", false
	}
	return clientID, true
}
