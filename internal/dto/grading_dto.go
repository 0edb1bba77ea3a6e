package dto

import (
	"encoding/json"

	"github.com/prepstack/prepstack-api/internal/grading"
)

// GradeAnswerRequest is the payload for grading a non-code answer. Answer is
// the tagged document described by the answer codec; its shape depends on the
// question type.
type GradeAnswerRequest struct {
	QuestionID uint            `json:"question_id" validate:"required,gt=0"`
	Answer     json.RawMessage `json:"answer" validate:"required"`
}

// GradeAnswerResponse reports a completed grading verdict.
type GradeAnswerResponse struct {
	QuestionID     uint    `json:"question_id"`
	IsCorrect      bool    `json:"is_correct"`
	Score          float64 `json:"score"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible float64 `json:"points_possible"`
	Feedback       string  `json:"feedback"`
}

// NewGradeAnswerResponse builds the response DTO from a grading result.
func NewGradeAnswerResponse(questionID uint, result grading.Result) GradeAnswerResponse {
	return GradeAnswerResponse{
		QuestionID:     questionID,
		IsCorrect:      result.IsCorrect,
		Score:          result.Score,
		PointsEarned:   result.PointsEarned,
		PointsPossible: result.PointsPossible,
		Feedback:       result.Feedback,
	}
}
