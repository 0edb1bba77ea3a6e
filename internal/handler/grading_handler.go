package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/grading"
	"github.com/prepstack/prepstack-api/internal/service"
	"github.com/prepstack/prepstack-api/internal/utils"
)

// GradingHandler exposes the answer grading endpoint.
type GradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("", h.grade)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	response, err := h.service.GradeAnswer(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer graded", response)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	case errors.Is(err, grading.ErrUnsupportedType):
		return utils.SendError(c, fiber.StatusBadRequest, "question type not supported")
	case errors.Is(err, grading.ErrValidation):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid answer")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, grading.ErrConfiguration):
		// Authoring-side data bug. Detail stays in the log.
		h.logger.Error().Err(err).Msg("question configuration invalid")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	default:
		h.logger.Error().Err(err).Msg("grading failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
