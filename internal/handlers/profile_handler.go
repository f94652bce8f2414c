package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/models"
	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
)

type ProfileHandler struct {
	profiles  profileReader
	refresher requirementsService
}

type profileReader interface {
	clientTracker
	Snapshot(clientID string) (*models.MembershipSnapshot, bool)
}

type requirementsService interface {
	CheckNow(ctx context.Context, clientID string) (wizard.Requirements, error)
	Requirements(clientID string) (wizard.Requirements, bool)
}

func NewProfileHandler(profiles *services.ProfileStore, refresher *services.RefreshService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, refresher: refresher}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.profiles)
	if !ok {
		return nil
	}

	if snapshot, ok := h.profiles.Snapshot(clientID); ok {
		return c.JSON(fiber.Map{"profile": snapshot})
	}

	if _, err := h.refresher.CheckNow(c.Context(), clientID); err != nil {
		return mapProfileError(c, err)
	}
	snapshot, ok := h.profiles.Snapshot(clientID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}
	return c.JSON(fiber.Map{"profile": snapshot})
}

// RefreshProfile pulls the snapshot now and runs the requirement gate, the
// same work the background loop does on its interval.
func (h *ProfileHandler) RefreshProfile(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.profiles)
	if !ok {
		return nil
	}

	requirements, err := h.refresher.CheckNow(c.Context(), clientID)
	if err != nil {
		return mapProfileError(c, err)
	}
	snapshot, _ := h.profiles.Snapshot(clientID)
	return c.JSON(fiber.Map{"profile": snapshot, "requirements": requirements})
}

func (h *ProfileHandler) GetRequirements(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.profiles)
	if !ok {
		return nil
	}

	if requirements, ok := h.refresher.Requirements(clientID); ok {
		return c.JSON(fiber.Map{"requirements": requirements})
	}
	requirements, err := h.refresher.CheckNow(c.Context(), clientID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"requirements": requirements})
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid membership"})
	case errors.Is(err, services.ErrClientNotTracked):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	case services.IsBackendError(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Trainer backend unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}
}
