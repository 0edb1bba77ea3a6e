package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/grading"
	"github.com/prepstack/prepstack-api/internal/handler"
	"github.com/prepstack/prepstack-api/internal/service"
)

type stubGradingService struct {
	response dto.GradeAnswerResponse
	err      error
}

func (s *stubGradingService) GradeAnswer(_ context.Context, _ uint, _ dto.GradeAnswerRequest) (dto.GradeAnswerResponse, error) {
	return s.response, s.err
}

func newGradingApp(svc service.GradingService) *fiber.App {
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	app := fiber.New()
	h := handler.NewGradingHandler(svc, validate, logger)
	h.Register(app.Group("/api/v1/grade", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	}))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) (bool, string) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Success, envelope.Message
}

func gradeRequest() dto.GradeAnswerRequest {
	return dto.GradeAnswerRequest{
		QuestionID: 7,
		Answer:     json.RawMessage(`{"type":"multiple_choice","selected":"Paris"}`),
	}
}

func TestGradingHandlerReturnsVerdict(t *testing.T) {
	svc := &stubGradingService{response: dto.GradeAnswerResponse{
		QuestionID: 7, IsCorrect: true, Score: 1, PointsEarned: 5, PointsPossible: 5, Feedback: "Correct!",
	}}
	app := newGradingApp(svc)

	resp := postJSON(t, app, "/api/v1/grade", gradeRequest())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	var envelope struct {
		Success bool                    `json:"success"`
		Data    dto.GradeAnswerResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.True(t, envelope.Data.IsCorrect)
	require.Equal(t, 5.0, envelope.Data.PointsEarned)
}

func TestGradingHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"question missing", service.ErrQuestionNotFound, fiber.StatusNotFound, "question not found"},
		{"unsupported type", grading.ErrUnsupportedType, fiber.StatusBadRequest, "question type not supported"},
		{"invalid answer", grading.ErrValidation, fiber.StatusBadRequest, "invalid answer"},
		{"configuration bug", grading.ErrConfiguration, fiber.StatusInternalServerError, "internal server error"},
		{"unexpected failure", errors.New("db down"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGradingApp(&stubGradingService{err: tc.err})

			resp := postJSON(t, app, "/api/v1/grade", gradeRequest())
			require.Equal(t, tc.status, resp.StatusCode)

			success, message := decodeEnvelope(t, resp)
			require.False(t, success)
			require.Equal(t, tc.message, message)
		})
	}
}

func TestGradingHandlerRejectsBadPayload(t *testing.T) {
	app := newGradingApp(&stubGradingService{})

	resp := postJSON(t, app, "/api/v1/grade", map[string]interface{}{"question_id": 0})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	success, _ := decodeEnvelope(t, resp)
	require.False(t, success)
}

func TestGradingHandlerRequiresUser(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	app := fiber.New()
	h := handler.NewGradingHandler(&stubGradingService{}, validate, zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/grade"))

	resp := postJSON(t, app, "/api/v1/grade", gradeRequest())
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
