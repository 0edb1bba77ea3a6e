package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/dto"
	"github.com/prepstack/prepstack-api/internal/models"
	"github.com/prepstack/prepstack-api/pkg/judge"
)

type stubQuestionRepo struct {
	question models.Question
	err      error
}

func (s *stubQuestionRepo) GetByID(ctx context.Context, id uint) (models.Question, error) {
	if s.err != nil {
		return models.Question{}, s.err
	}
	if s.question.ID == 0 {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return s.question, nil
}

type stubTestCaseRepo struct {
	cases []models.TestCase
	err   error
}

func (s *stubTestCaseRepo) ListByQuestion(ctx context.Context, questionID uint) ([]models.TestCase, error) {
	return s.cases, s.err
}

type stubSubmissionRepo struct {
	created *models.Submission
	count   int64
	err     error
}

func (s *stubSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if s.err != nil {
		return s.err
	}
	if submission.ID == 0 {
		submission.ID = 1
	}
	clone := *submission
	s.created = &clone
	return nil
}

func (s *stubSubmissionRepo) CountForUserSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	return s.count, s.err
}

type stubQuota struct {
	allowed  bool
	err      error
	released int
}

func (s *stubQuota) Allow(ctx context.Context, userID uint) (bool, error) {
	return s.allowed, s.err
}

func (s *stubQuota) Release(ctx context.Context, userID uint) {
	s.released++
}

type stubJudge struct {
	mu         sync.Mutex
	tokens     []string
	submitErr  error
	outcomes   map[string]judge.Outcome
	pendingFor map[string]int
	fetchCalls map[string]int
}

func (s *stubJudge) SubmitBatch(ctx context.Context, source string, languageID int, cases []judge.TestCase) ([]string, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	if s.tokens == nil {
		tokens := make([]string, len(cases))
		for i := range cases {
			tokens[i] = fmt.Sprintf("token-%d", i)
		}
		return tokens, nil
	}
	return s.tokens, nil
}

func (s *stubJudge) FetchResult(ctx context.Context, token string) (judge.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetchCalls == nil {
		s.fetchCalls = map[string]int{}
	}
	s.fetchCalls[token]++
	if remaining := s.pendingFor[token]; remaining > 0 {
		s.pendingFor[token] = remaining - 1
		return judge.Outcome{Category: judge.CategoryPending, Status: "Processing"}, nil
	}
	outcome, ok := s.outcomes[token]
	if !ok {
		return judge.Outcome{Category: judge.CategoryAccepted, Status: "Accepted"}, nil
	}
	return outcome, nil
}

func codeQuestion() models.Question {
	return models.Question{ID: 7, Title: "Echo", Type: models.QuestionTypeCode, Category: "algorithms", Topic: "io", PointsPossible: 10}
}

func echoTestCases(n int) []models.TestCase {
	cases := make([]models.TestCase, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, models.TestCase{
			ID:             uint(i + 1),
			QuestionID:     7,
			Input:          fmt.Sprintf("in-%d", i),
			ExpectedOutput: fmt.Sprintf("out-%d", i),
		})
	}
	return cases
}

func newCodeService(questions *stubQuestionRepo, testCases *stubTestCaseRepo, submissions *stubSubmissionRepo, judgeClient judge.Client, quota DailyQuota, cfg CodeExecutionConfig) CodeExecutionService {
	return NewCodeExecutionService(questions, testCases, submissions, judgeClient, quota, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop(), cfg)
}

func passingOutcomes(cases []models.TestCase) map[string]judge.Outcome {
	outcomes := make(map[string]judge.Outcome, len(cases))
	for i, tc := range cases {
		outcomes[fmt.Sprintf("token-%d", i)] = judge.Outcome{
			Category: judge.CategoryAccepted,
			Status:   "Accepted",
			Stdout:   tc.ExpectedOutput + "\n",
			TimeMs:   12,
			MemoryKB: 2048,
		}
	}
	return outcomes
}

func TestCodeExecutionAllTestsPass(t *testing.T) {
	cases := echoTestCases(5)
	submissions := &stubSubmissionRepo{}
	judgeStub := &stubJudge{outcomes: passingOutcomes(cases)}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, submissions, judgeStub, &stubQuota{allowed: true}, CodeExecutionConfig{})

	resp, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(input())"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, resp.AllPassed)
	require.Equal(t, 5, resp.PassedTests)
	require.Equal(t, 5, resp.TotalTests)
	require.Equal(t, 10.0, resp.PointsEarned)
	require.Len(t, resp.TestResults, 5)
	require.Equal(t, uint(1), resp.TestResults[0].TestCaseID)

	require.NotNil(t, submissions.created)
	require.True(t, submissions.created.IsCorrect)
	require.Equal(t, 10.0, submissions.created.PointsEarned)
	require.NotNil(t, submissions.created.Code)
	require.Equal(t, "print(input())", *submissions.created.Code)
}

func TestCodeExecutionAwardsPartialCredit(t *testing.T) {
	cases := echoTestCases(5)
	outcomes := passingOutcomes(cases)
	outcomes["token-3"] = judge.Outcome{Category: judge.CategoryWrongAnswer, Status: "Wrong Answer", Stdout: "bogus"}
	outcomes["token-4"] = judge.Outcome{Category: judge.CategoryWrongAnswer, Status: "Wrong Answer", Stdout: "bogus"}

	submissions := &stubSubmissionRepo{}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, submissions, &stubJudge{outcomes: outcomes}, &stubQuota{allowed: true}, CodeExecutionConfig{})

	resp, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print('x')"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.False(t, resp.AllPassed)
	require.Equal(t, 3, resp.PassedTests)
	require.InDelta(t, 6.0, resp.PointsEarned, 0.001)
	require.False(t, resp.TestResults[3].Passed)

	require.NotNil(t, submissions.created)
	require.False(t, submissions.created.IsCorrect)
}

func TestCodeExecutionCompileErrorShortCircuits(t *testing.T) {
	cases := echoTestCases(3)
	outcomes := passingOutcomes(cases)
	outcomes["token-1"] = judge.Outcome{
		Category:      judge.CategoryCompileError,
		Status:        "Compilation Error",
		CompileOutput: "syntax error near line 1",
	}

	submissions := &stubSubmissionRepo{}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, submissions, &stubJudge{outcomes: outcomes}, &stubQuota{allowed: true}, CodeExecutionConfig{})

	resp, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "broken("})
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "Compilation Error", resp.Status)
	require.Equal(t, "syntax error near line 1", resp.Error)
	require.Zero(t, resp.PointsEarned)
	require.Nil(t, submissions.created, "failed runs must not be persisted")
}

func TestCodeExecutionEnforcesDailyCap(t *testing.T) {
	cases := echoTestCases(1)
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, &stubSubmissionRepo{}, &stubJudge{}, &stubQuota{allowed: false}, CodeExecutionConfig{})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDailyLimitReached))
}

func TestCodeExecutionValidatesPreconditions(t *testing.T) {
	cases := echoTestCases(1)
	questions := &stubQuestionRepo{question: codeQuestion()}
	svc := newCodeService(questions, &stubTestCaseRepo{cases: cases}, &stubSubmissionRepo{}, &stubJudge{}, &stubQuota{allowed: true}, CodeExecutionConfig{MaxCodeBytes: 64})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "   \n\t "})
	require.True(t, errors.Is(err, ErrSourceEmpty))

	_, err = svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: strings.Repeat("a", 65)})
	require.True(t, errors.Is(err, ErrSourceTooLong))

	_, err = svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 9999, Source: "print(1)"})
	require.True(t, errors.Is(err, ErrUnsupportedLanguage))
}

func TestCodeExecutionRejectsMissingQuestion(t *testing.T) {
	svc := newCodeService(&stubQuestionRepo{}, &stubTestCaseRepo{}, &stubSubmissionRepo{}, &stubJudge{}, &stubQuota{allowed: true}, CodeExecutionConfig{})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 404, LanguageID: 71, Source: "print(1)"})
	require.True(t, errors.Is(err, ErrQuestionNotFound))
}

func TestCodeExecutionRejectsNonCodeQuestion(t *testing.T) {
	question := codeQuestion()
	question.Type = models.QuestionTypeMultipleChoice
	svc := newCodeService(&stubQuestionRepo{question: question}, &stubTestCaseRepo{}, &stubSubmissionRepo{}, &stubJudge{}, &stubQuota{allowed: true}, CodeExecutionConfig{})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.True(t, errors.Is(err, ErrQuestionNotFound))
}

func TestCodeExecutionRequiresTestCases(t *testing.T) {
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{}, &stubSubmissionRepo{}, &stubJudge{}, &stubQuota{allowed: true}, CodeExecutionConfig{})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.True(t, errors.Is(err, ErrNoTestCases))
}

func TestCodeExecutionRetriesPendingResults(t *testing.T) {
	cases := echoTestCases(2)
	judgeStub := &stubJudge{
		outcomes:   passingOutcomes(cases),
		pendingFor: map[string]int{"token-0": 2},
	}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, &stubSubmissionRepo{}, judgeStub, &stubQuota{allowed: true}, CodeExecutionConfig{PollMaxAttempts: 5, PollDelay: time.Millisecond})

	resp, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.NoError(t, err)
	require.True(t, resp.AllPassed)
	require.Equal(t, 3, judgeStub.fetchCalls["token-0"])
}

func TestCodeExecutionTimesOutWhenStuckPending(t *testing.T) {
	cases := echoTestCases(2)
	judgeStub := &stubJudge{
		outcomes:   passingOutcomes(cases),
		pendingFor: map[string]int{"token-1": 100},
	}
	submissions := &stubSubmissionRepo{}
	quota := &stubQuota{allowed: true}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, submissions, judgeStub, quota, CodeExecutionConfig{PollMaxAttempts: 3, PollDelay: time.Millisecond})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPollTimeout))
	require.Nil(t, submissions.created)
	require.Equal(t, 1, quota.released, "a run without a verdict must refund the quota slot")
}

func TestCodeExecutionSurfacesJudgeFailure(t *testing.T) {
	cases := echoTestCases(1)
	judgeStub := &stubJudge{submitErr: fmt.Errorf("%w: boom", judge.ErrExternalService)}
	quota := &stubQuota{allowed: true}
	svc := newCodeService(&stubQuestionRepo{question: codeQuestion()}, &stubTestCaseRepo{cases: cases}, &stubSubmissionRepo{}, judgeStub, quota, CodeExecutionConfig{})

	_, err := svc.Execute(context.Background(), 3, dto.CodeSubmissionRequest{QuestionID: 7, LanguageID: 71, Source: "print(1)"})
	require.Error(t, err)
	require.True(t, errors.Is(err, judge.ErrExternalService))
	require.Equal(t, 1, quota.released, "a rejected submit must refund the quota slot")
}
