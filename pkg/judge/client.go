package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrExternalService indicates the judge transport failed or returned a
// non-success response.
var ErrExternalService = errors.New("judge service unavailable")

var (
	judgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prepstack",
		Subsystem: "judge",
		Name:      "request_duration_seconds",
		Help:      "Duration of judge API requests",
	}, []string{"operation"})

	judgeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepstack",
		Subsystem: "judge",
		Name:      "request_failures_total",
		Help:      "Number of failed judge API requests",
	}, []string{"operation"})
)

// TestCase is one execution unit sent to the judge.
type TestCase struct {
	Input          string
	ExpectedOutput string
}

// Outcome is the judge's verdict for a single execution.
type Outcome struct {
	Category      Category
	Status        string
	Stdout        string
	Stderr        string
	CompileOutput string
	TimeMs        int64
	MemoryKB      int64
}

// Client is the contract the orchestrator requires from the external judge:
// batch-submit returning one opaque token per test case in order, and a
// single fetch per token.
type Client interface {
	SubmitBatch(ctx context.Context, source string, languageID int, cases []TestCase) ([]string, error)
	FetchResult(ctx context.Context, token string) (Outcome, error)
}

// Config describes how to reach the judge service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient builds an HTTP judge client.
func NewClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("judge base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With().Str("component", "judge_client").Logger(),
	}, nil
}

type batchSubmission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type batchRequest struct {
	Submissions []batchSubmission `json:"submissions"`
}

type tokenEntry struct {
	Token string `json:"token"`
}

func (c *httpClient) SubmitBatch(ctx context.Context, source string, languageID int, cases []TestCase) ([]string, error) {
	start := time.Now()
	defer func() {
		judgeDuration.WithLabelValues("submit_batch").Observe(time.Since(start).Seconds())
	}()

	request := batchRequest{Submissions: make([]batchSubmission, 0, len(cases))}
	for _, tc := range cases {
		request.Submissions = append(request.Submissions, batchSubmission{
			SourceCode:     source,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}

	body, err := c.do(ctx, http.MethodPost, "/submissions/batch?base64_encoded=false", request)
	if err != nil {
		judgeFailures.WithLabelValues("submit_batch").Inc()
		return nil, err
	}

	var entries []tokenEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		judgeFailures.WithLabelValues("submit_batch").Inc()
		return nil, fmt.Errorf("%w: decode batch response: %v", ErrExternalService, err)
	}

	tokens := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Token == "" {
			judgeFailures.WithLabelValues("submit_batch").Inc()
			return nil, fmt.Errorf("%w: batch response missing token", ErrExternalService)
		}
		tokens = append(tokens, entry.Token)
	}
	if len(tokens) != len(cases) {
		judgeFailures.WithLabelValues("submit_batch").Inc()
		return nil, fmt.Errorf("%w: expected %d tokens, got %d", ErrExternalService, len(cases), len(tokens))
	}

	return tokens, nil
}

type submissionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type submissionResult struct {
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
	Time          string           `json:"time"`
	Memory        float64          `json:"memory"`
	Status        submissionStatus `json:"status"`
}

func (c *httpClient) FetchResult(ctx context.Context, token string) (Outcome, error) {
	start := time.Now()
	defer func() {
		judgeDuration.WithLabelValues("fetch_result").Observe(time.Since(start).Seconds())
	}()

	path := fmt.Sprintf("/submissions/%s?base64_encoded=false&fields=stdout,stderr,compile_output,time,memory,status", token)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		judgeFailures.WithLabelValues("fetch_result").Inc()
		return Outcome{}, err
	}

	var result submissionResult
	if err := json.Unmarshal(body, &result); err != nil {
		judgeFailures.WithLabelValues("fetch_result").Inc()
		return Outcome{}, fmt.Errorf("%w: decode result: %v", ErrExternalService, err)
	}

	return Outcome{
		Category:      categorize(result.Status.ID),
		Status:        result.Status.Description,
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		CompileOutput: result.CompileOutput,
		TimeMs:        parseSecondsToMs(result.Time),
		MemoryKB:      int64(result.Memory),
	}, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode judge request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrExternalService, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("judge request rejected")
		return nil, fmt.Errorf("%w: unexpected status %d", ErrExternalService, resp.StatusCode)
	}

	return data, nil
}

// parseSecondsToMs converts the judge's fractional-seconds string into
// milliseconds, tolerating an empty value for queued submissions.
func parseSecondsToMs(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}
