package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/service"
	"github.com/prepstack/prepstack-api/internal/utils"
	"github.com/prepstack/prepstack-api/pkg/judge"
)

// CodeSubmissionHandler exposes the code execution endpoint.
type CodeSubmissionHandler struct {
	service   service.CodeExecutionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCodeSubmissionHandler constructs the handler.
func NewCodeSubmissionHandler(service service.CodeExecutionService, validator *validator.Validate, logger zerolog.Logger) *CodeSubmissionHandler {
	return &CodeSubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "code_submission_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *CodeSubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *CodeSubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.CodeSubmissionRequest
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

	response, err := h.service.Execute(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission executed", response)
}

func (h *CodeSubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSourceEmpty), errors.Is(err, service.ErrSourceTooLong):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return utils.SendError(c, fiber.StatusBadRequest, "language not supported")
	case errors.Is(err, service.ErrQuestionNotFound), errors.Is(err, service.ErrNoTestCases):
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	case errors.Is(err, service.ErrDailyLimitReached):
		return utils.SendError(c, fiber.StatusTooManyRequests, "daily submission limit reached")
	case errors.Is(err, service.ErrPollTimeout):
		return utils.SendError(c, fiber.StatusRequestTimeout, "code execution timed out")
	case errors.Is(err, judge.ErrExternalService):
		h.logger.Error().Err(err).Msg("judge service failed")
		return utils.SendError(c, fiber.StatusBadGateway, "code execution service unavailable")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("code execution failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
