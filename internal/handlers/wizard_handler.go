package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/models"
	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
)

type WizardHandler struct {
	service wizardApplicationService
	tracker clientTracker
}

type wizardApplicationService interface {
	Open(ctx context.Context, clientID string, mode wizard.Mode, exercise *wizard.ExerciseContext) (wizard.SessionView, error)
	Get(clientID, sessionID string) (wizard.SessionView, error)
	Active(clientID string) (wizard.SessionView, bool)
	Answer(clientID, sessionID string, field wizard.Field, raw json.RawMessage) (wizard.SessionView, error)
	Advance(ctx context.Context, clientID, sessionID string) (wizard.SessionView, wizard.Outcome, error)
	Retreat(clientID, sessionID string) (wizard.SessionView, error)
	Close(clientID, sessionID string) error
	Submissions(ctx context.Context, clientID string, limit int) ([]models.WizardSubmission, error)
}

func NewWizardHandler(service *services.WizardService, tracker *services.ProfileStore) *WizardHandler {
	return &WizardHandler{service: service, tracker: tracker}
}

type openWizardRequest struct {
	Mode     string                  `json:"mode"`
	Exercise *wizard.ExerciseContext `json:"exercise"`
}

type answerRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *WizardHandler) OpenWizard(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	var req openWizardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	mode, err := wizard.ParseMode(req.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mode must be one of onboarding, weight-update, preferences, performance"})
	}
	if req.Exercise != nil {
		req.Exercise.Ref = strings.TrimSpace(req.Exercise.Ref)
		req.Exercise.DayKey = strings.TrimSpace(req.Exercise.DayKey)
	}

	view, err := h.service.Open(c.Context(), clientID, mode, req.Exercise)
	if err != nil {
		return mapWizardError(c, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"wizard": view})
}

func (h *WizardHandler) GetActiveWizard(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	view, ok := h.service.Active(clientID)
	if !ok {
		return c.JSON(fiber.Map{"wizard": nil})
	}
	return c.JSON(fiber.Map{"wizard": view})
}

func (h *WizardHandler) GetWizard(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	view, err := h.service.Get(clientID, c.Params("id"))
	if err != nil {
		return mapWizardError(c, err, nil)
	}
	return c.JSON(fiber.Map{"wizard": view})
}

func (h *WizardHandler) AnswerStep(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	field := wizard.Field(strings.TrimSpace(c.Params("field")))
	view, err := h.service.Answer(clientID, c.Params("id"), field, req.Value)
	if err != nil {
		return mapWizardError(c, err, &view)
	}
	return c.JSON(fiber.Map{"wizard": view})
}

func (h *WizardHandler) Advance(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	view, outcome, err := h.service.Advance(c.Context(), clientID, c.Params("id"))
	if err != nil {
		return mapWizardError(c, err, &view)
	}

	response := fiber.Map{"wizard": view, "outcome": outcomeName(outcome)}
	if outcome == wizard.OutcomeSubmitted {
		response["notice"] = wizard.NoticeSubmitted
	}
	return c.JSON(response)
}

func (h *WizardHandler) Retreat(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	view, err := h.service.Retreat(clientID, c.Params("id"))
	if err != nil {
		return mapWizardError(c, err, &view)
	}
	return c.JSON(fiber.Map{"wizard": view})
}

func (h *WizardHandler) CloseWizard(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	if err := h.service.Close(clientID, c.Params("id")); err != nil {
		return mapWizardError(c, err, nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *WizardHandler) ListSubmissions(c *fiber.Ctx) error {
	clientID, ok := requireClient(c, h.tracker)
	if !ok {
		return nil
	}

	limit, err := parseLimit(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	submissions, err := h.service.Submissions(c.Context(), clientID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load submissions"})
	}
	return c.JSON(fiber.Map{"submissions": submissions})
}

func outcomeName(outcome wizard.Outcome) string {
	switch outcome {
	case wizard.OutcomeMoved:
		return "moved"
	case wizard.OutcomeSubmitted:
		return "submitted"
	default:
		return "none"
	}
}

// mapWizardError writes the error response. When view is set and carries a
// session, it is returned alongside so the dashboard can show inline errors.
func mapWizardError(c *fiber.Ctx, err error, view *wizard.SessionView) error {
	body := fiber.Map{}
	if view != nil && view.ID != "" {
		body["wizard"] = *view
	}

	var answerErr *wizard.AnswerError
	var submitErr *wizard.SubmissionError
	var status int
	switch {
	case errors.As(err, &answerErr):
		status = fiber.StatusBadRequest
		body["error"] = answerErr.Message
	case errors.Is(err, wizard.ErrUnknownMode), errors.Is(err, wizard.ErrUnknownField), errors.Is(err, services.ErrInvalidInput):
		status = fiber.StatusBadRequest
		body["error"] = err.Error()
	case errors.Is(err, wizard.ErrStepIncomplete):
		status = fiber.StatusUnprocessableEntity
		body["error"] = wizard.NoticeStepIncomplete
		body["notice"] = wizard.NoticeStepIncomplete
	case errors.Is(err, wizard.ErrNoSteps):
		status = fiber.StatusUnprocessableEntity
		body["error"] = "Nothing to collect for this wizard"
	case errors.Is(err, wizard.ErrNotDismissible):
		status = fiber.StatusForbidden
		body["error"] = "Onboarding must be completed before closing"
	case errors.Is(err, services.ErrPreferencesLocked):
		status = fiber.StatusForbidden
		body["error"] = "Preference updates are not allowed"
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
		body["error"] = "Forbidden"
	case errors.Is(err, wizard.ErrSubmissionInFlight):
		status = fiber.StatusConflict
		body["error"] = "A submission is already in progress"
	case errors.Is(err, services.ErrOnboardingPending):
		status = fiber.StatusConflict
		body["error"] = "Onboarding must be completed first"
	case errors.Is(err, wizard.ErrSessionClosed):
		status = fiber.StatusConflict
		body["error"] = "Wizard is closed"
	case errors.Is(err, services.ErrSessionNotFound):
		status = fiber.StatusNotFound
		body["error"] = "Wizard not found"
	case errors.Is(err, services.ErrClientNotTracked):
		status = fiber.StatusNotFound
		body["error"] = "Profile not found"
	case errors.As(err, &submitErr):
		status = fiber.StatusBadGateway
		body["error"] = wizard.NoticeSubmitFailed
		body["notice"] = wizard.NoticeSubmitFailed
	case services.IsBackendError(err):
		status = fiber.StatusBadGateway
		body["error"] = "Trainer backend unavailable"
	default:
		status = fiber.StatusInternalServerError
		body["error"] = "Failed to process wizard request"
	}
	return c.Status(status).JSON(body)
}
