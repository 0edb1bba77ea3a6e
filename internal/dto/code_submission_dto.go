package dto

// CodeSubmissionRequest is the payload for running a code answer against its
// question's test cases.
type CodeSubmissionRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	LanguageID int    `json:"language_id" validate:"required,gt=0"`
	Source     string `json:"source" validate:"required,min=1"`
}

// TestCaseResult is the per-test-case breakdown of a code run.
type TestCaseResult struct {
	TestCaseID     uint   `json:"test_case_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
	Status         string `json:"status"`
	ExecutionTime  int64  `json:"execution_time"`
	Memory         int64  `json:"memory"`
	Error          string `json:"error,omitempty"`
}

// CodeExecutionResponse is the outcome of a code submission. Success carries
// the aggregate plus the per-test breakdown; a compile or runtime failure
// carries only the failing status and diagnostics.
type CodeExecutionResponse struct {
	Success        bool             `json:"success"`
	AllPassed      bool             `json:"all_passed,omitempty"`
	PassedTests    int              `json:"passed_tests,omitempty"`
	TotalTests     int              `json:"total_tests,omitempty"`
	PointsEarned   float64          `json:"points_earned,omitempty"`
	PointsPossible float64          `json:"points_possible,omitempty"`
	TestResults    []TestCaseResult `json:"test_results,omitempty"`
	Status         string           `json:"status,omitempty"`
	Error          string           `json:"error,omitempty"`
	Message        string           `json:"message,omitempty"`
}
