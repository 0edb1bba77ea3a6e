package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/grading"
	"github.com/prepstack/prepstack-api/internal/models"
	"github.com/prepstack/prepstack-api/internal/repository"
)

// ErrQuestionNotFound indicates the referenced question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// GradingService grades non-code answers and records the outcome.
type GradingService interface {
	GradeAnswer(ctx context.Context, userID uint, payload dto.GradeAnswerRequest) (dto.GradeAnswerResponse, error)
}

type gradingService struct {
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewGradingService constructs the answer grading service.
func NewGradingService(questionRepo repository.QuestionRepository, submissionRepo repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		questions:   questionRepo,
		submissions: submissionRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) GradeAnswer(ctx context.Context, userID uint, payload dto.GradeAnswerRequest) (dto.GradeAnswerResponse, error) {
	tracer := otel.Tracer("github.com/prepstack/prepstack-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.answer")
	span.SetAttributes(
		attribute.Int64("grading.question_id", int64(payload.QuestionID)),
		attribute.Int64("grading.user_id", int64(userID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeAnswerResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeAnswerResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "question_lookup_failed")
		return dto.GradeAnswerResponse{}, err
	}

	if question.IsCodeQuestion() {
		return dto.GradeAnswerResponse{}, fmt.Errorf("%w: code questions are graded by the code endpoint", grading.ErrUnsupportedType)
	}

	answer, err := grading.DecodeAnswer(payload.Answer)
	if err != nil {
		return dto.GradeAnswerResponse{}, err
	}

	result, err := grading.Grade(grading.Input{
		Type:           question.Type,
		Answer:         answer,
		Options:        gradingOptions(question.Options),
		PointsPossible: question.PointsPossible,
	})
	if err != nil {
		if errors.Is(err, grading.ErrConfiguration) {
			s.logger.Error().Err(err).Uint("question_id", question.ID).Msg("question has invalid answer data")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_failed")
		return dto.GradeAnswerResponse{}, err
	}

	serialized, err := grading.EncodeAnswer(answer)
	if err != nil {
		return dto.GradeAnswerResponse{}, fmt.Errorf("serialize answer: %w", err)
	}

	record := models.Submission{
		UserID:         userID,
		QuestionID:     question.ID,
		Answer:         datatypes.JSON(serialized),
		IsCorrect:      result.IsCorrect,
		PointsEarned:   result.PointsEarned,
		PointsPossible: result.PointsPossible,
		Category:       question.Category,
		Topic:          question.Topic,
	}
	if err := s.submissions.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_persist_failed")
		return dto.GradeAnswerResponse{}, err
	}

	span.SetAttributes(
		attribute.Float64("grading.score", result.Score),
		attribute.Bool("grading.correct", result.IsCorrect),
	)

	return dto.NewGradeAnswerResponse(question.ID, result), nil
}

// gradingOptions converts stored answer options into the grading view.
func gradingOptions(options []models.AnswerOption) []grading.Option {
	converted := make([]grading.Option, 0, len(options))
	for _, opt := range options {
		view := grading.Option{Text: opt.Text, IsCorrect: opt.IsCorrect}
		if opt.Rank != nil {
			view.Rank = *opt.Rank
		}
		if opt.Placement != nil {
			view.Placement = *opt.Placement
		}
		converted = append(converted, view)
	}
	return converted
}
