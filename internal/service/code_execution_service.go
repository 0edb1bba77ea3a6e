package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/models"
	"github.com/prepstack/prepstack-api/internal/repository"
	"github.com/prepstack/prepstack-api/pkg/judge"
)

// ErrSourceEmpty indicates the submitted source is blank.
var ErrSourceEmpty = errors.New("source code is empty")

// ErrSourceTooLong indicates the submitted source exceeds the size cap.
var ErrSourceTooLong = errors.New("source code too long")

// ErrUnsupportedLanguage indicates the requested language is not allowed.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrNoTestCases indicates the code question has no test cases to run.
var ErrNoTestCases = errors.New("no test cases for question")

// ErrDailyLimitReached indicates the user hit the per-day submission cap.
var ErrDailyLimitReached = errors.New("daily submission limit reached")

// ErrPollTimeout indicates the judge did not finish within the allotted polls.
var ErrPollTimeout = errors.New("timed out waiting for judge results")

// CodeExecutionConfig carries the orchestrator's resource knobs.
type CodeExecutionConfig struct {
	MaxCodeBytes    int
	PollMaxAttempts int
	PollDelay       time.Duration
}

// Judge0 language identifiers accepted for submissions.
var supportedLanguages = map[int]string{
	50: "c",
	54: "cpp",
	60: "go",
	62: "java",
	63: "javascript",
	71: "python",
}

// CodeExecutionService runs a code answer against its question's test cases
// through the external judge and awards partial credit per passed case.
type CodeExecutionService interface {
	Execute(ctx context.Context, userID uint, payload dto.CodeSubmissionRequest) (dto.CodeExecutionResponse, error)
}

type codeExecutionService struct {
	questions   repository.QuestionRepository
	testCases   repository.TestCaseRepository
	submissions repository.SubmissionRepository
	judge       judge.Client
	quota       DailyQuota
	validator   *validator.Validate
	logger      zerolog.Logger
	config      CodeExecutionConfig
}

// NewCodeExecutionService constructs the code execution orchestrator.
func NewCodeExecutionService(questionRepo repository.QuestionRepository, testCaseRepo repository.TestCaseRepository, submissionRepo repository.SubmissionRepository, judgeClient judge.Client, quota DailyQuota, validate *validator.Validate, logger zerolog.Logger, cfg CodeExecutionConfig) CodeExecutionService {
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = 10000
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 10
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = time.Second
	}

	return &codeExecutionService{
		questions:   questionRepo,
		testCases:   testCaseRepo,
		submissions: submissionRepo,
		judge:       judgeClient,
		quota:       quota,
		validator:   validate,
		logger:      logger.With().Str("component", "code_execution_service").Logger(),
		config:      cfg,
	}
}

func (s *codeExecutionService) Execute(ctx context.Context, userID uint, payload dto.CodeSubmissionRequest) (dto.CodeExecutionResponse, error) {
	tracer := otel.Tracer("github.com/prepstack/prepstack-api/internal/service/code_execution")
	ctx, span := tracer.Start(ctx, "code.execute")
	span.SetAttributes(
		attribute.Int64("code.question_id", int64(payload.QuestionID)),
		attribute.Int64("code.user_id", int64(userID)),
		attribute.Int("code.language_id", payload.LanguageID),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.CodeExecutionResponse{}, err
	}
	if strings.TrimSpace(payload.Source) == "" {
		return dto.CodeExecutionResponse{}, ErrSourceEmpty
	}
	if len(payload.Source) > s.config.MaxCodeBytes {
		return dto.CodeExecutionResponse{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrSourceTooLong, len(payload.Source), s.config.MaxCodeBytes)
	}
	if _, ok := supportedLanguages[payload.LanguageID]; !ok {
		return dto.CodeExecutionResponse{}, fmt.Errorf("%w: id %d", ErrUnsupportedLanguage, payload.LanguageID)
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CodeExecutionResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "question_lookup_failed")
		return dto.CodeExecutionResponse{}, err
	}
	if !question.IsCodeQuestion() {
		return dto.CodeExecutionResponse{}, fmt.Errorf("%w: question %d is not a code question", ErrQuestionNotFound, question.ID)
	}

	testCases, err := s.testCases.ListByQuestion(ctx, question.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test_case_lookup_failed")
		return dto.CodeExecutionResponse{}, err
	}
	if len(testCases) == 0 {
		return dto.CodeExecutionResponse{}, fmt.Errorf("%w: question %d", ErrNoTestCases, question.ID)
	}

	allowed, err := s.quota.Allow(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quota_check_failed")
		return dto.CodeExecutionResponse{}, err
	}
	if !allowed {
		return dto.CodeExecutionResponse{}, ErrDailyLimitReached
	}

	judgeCases := make([]judge.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		judgeCases = append(judgeCases, judge.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}

	tokens, err := s.judge.SubmitBatch(ctx, payload.Source, payload.LanguageID, judgeCases)
	if err != nil {
		// A run the judge never accepted should not count against the cap.
		s.quota.Release(ctx, userID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge_submit_failed")
		return dto.CodeExecutionResponse{}, err
	}

	outcomes, err := s.collectOutcomes(ctx, tokens)
	if err != nil {
		s.quota.Release(ctx, userID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge_poll_failed")
		return dto.CodeExecutionResponse{}, err
	}

	// A compile or runtime failure voids the whole run: no partial credit and
	// nothing is persisted.
	for _, outcome := range outcomes {
		if outcome.Category == judge.CategoryCompileError || outcome.Category == judge.CategoryRuntimeError {
			span.SetAttributes(attribute.String("code.failure_status", outcome.Status))
			return failureResponse(outcome), nil
		}
	}

	response := s.aggregate(question, testCases, outcomes)

	source := payload.Source
	record := models.Submission{
		UserID:         userID,
		QuestionID:     question.ID,
		Code:           &source,
		IsCorrect:      response.AllPassed,
		PointsEarned:   response.PointsEarned,
		PointsPossible: response.PointsPossible,
		Category:       question.Category,
		Topic:          question.Topic,
	}
	if err := s.submissions.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_persist_failed")
		return dto.CodeExecutionResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("code.passed_tests", response.PassedTests),
		attribute.Int("code.total_tests", response.TotalTests),
	)

	return response, nil
}

// collectOutcomes polls every token concurrently and waits for all loops to
// settle. The group context makes the first timeout or transport failure
// cancel the sibling loops.
func (s *codeExecutionService) collectOutcomes(ctx context.Context, tokens []string) ([]judge.Outcome, error) {
	outcomes := make([]judge.Outcome, len(tokens))

	group, ctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		group.Go(func() error {
			outcome, err := s.pollToken(ctx, token)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *codeExecutionService) pollToken(ctx context.Context, token string) (judge.Outcome, error) {
	for attempt := 0; attempt < s.config.PollMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return judge.Outcome{}, ctx.Err()
			case <-time.After(s.config.PollDelay):
			}
		}

		outcome, err := s.judge.FetchResult(ctx, token)
		if err != nil {
			return judge.Outcome{}, err
		}
		if outcome.Category.Terminal() {
			return outcome, nil
		}
	}

	s.logger.Warn().Str("token", token).Int("attempts", s.config.PollMaxAttempts).Msg("judge result still pending")
	return judge.Outcome{}, fmt.Errorf("%w: token %s", ErrPollTimeout, token)
}

func (s *codeExecutionService) aggregate(question models.Question, testCases []models.TestCase, outcomes []judge.Outcome) dto.CodeExecutionResponse {
	results := make([]dto.TestCaseResult, 0, len(testCases))
	passed := 0
	for i, tc := range testCases {
		outcome := outcomes[i]
		actual := strings.TrimSpace(outcome.Stdout)
		ok := actual == strings.TrimSpace(tc.ExpectedOutput)
		if ok {
			passed++
		}
		results = append(results, dto.TestCaseResult{
			TestCaseID:     tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   actual,
			Passed:         ok,
			Status:         outcome.Status,
			ExecutionTime:  outcome.TimeMs,
			Memory:         outcome.MemoryKB,
			Error:          outcome.Stderr,
		})
	}

	total := len(testCases)
	points := 0.0
	if total > 0 {
		points = float64(passed) / float64(total) * question.PointsPossible
	}

	return dto.CodeExecutionResponse{
		Success:        true,
		AllPassed:      passed == total,
		PassedTests:    passed,
		TotalTests:     total,
		PointsEarned:   points,
		PointsPossible: question.PointsPossible,
		TestResults:    results,
	}
}

func failureResponse(outcome judge.Outcome) dto.CodeExecutionResponse {
	detail := strings.TrimSpace(outcome.CompileOutput)
	if detail == "" {
		detail = strings.TrimSpace(outcome.Stderr)
	}

	message := "Your code failed to run. Review the error and try again."
	if outcome.Category == judge.CategoryCompileError {
		message = "Your code failed to compile. Review the error and try again."
	}

	return dto.CodeExecutionResponse{
		Success: false,
		Status:  outcome.Status,
		Error:   detail,
		Message: message,
	}
}
