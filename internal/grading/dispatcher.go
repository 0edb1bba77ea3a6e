package grading

import (
	"fmt"
	"math"
)

// Question type tags understood by the dispatcher. The switch in Grade is
// exhaustive over this set; adding a type means adding a grader.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeShortAnswer    = "short_answer"
	TypeMultiSelect    = "multi_select"
	TypeOrdering       = "ordering"
	TypePlacement      = "placement"
)

// Input carries everything needed to grade one answered question.
type Input struct {
	Type           string
	Answer         Answer
	Options        []Option
	PointsPossible float64
}

// Result is a completed grading verdict. IsCorrect holds exactly when the
// normalized score is 1, and PointsEarned is the score share of
// PointsPossible rounded to two decimals.
type Result struct {
	IsCorrect      bool    `json:"is_correct"`
	Score          float64 `json:"score"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible float64 `json:"points_possible"`
	Feedback       string  `json:"feedback"`
}

// Grade routes the input to the grader for its question type and wraps the
// outcome into a Result. It is pure and safe for concurrent use.
func Grade(in Input) (Result, error) {
	if in.Answer.Type != "" && in.Answer.Type != in.Type {
		return Result{}, fmt.Errorf("%w: answer tagged %q for a %q question", ErrValidation, in.Answer.Type, in.Type)
	}

	var (
		outcome Outcome
		err     error
	)
	switch in.Type {
	case TypeMultipleChoice:
		outcome, err = gradeExactChoice(in.Answer.Selected, in.Options)
	case TypeShortAnswer:
		outcome, err = gradeFuzzyText(in.Answer.Entered, in.Options)
	case TypeMultiSelect:
		outcome, err = gradeSetOverlap(in.Answer.Selections, in.Options)
	case TypeOrdering:
		outcome, err = gradeRankSimilarity(in.Answer.Order, in.Options)
	case TypePlacement:
		outcome, err = gradePlacement(in.Answer.Placements, in.Options)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, in.Type)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		IsCorrect:      outcome.Score == 1,
		Score:          outcome.Score,
		PointsEarned:   round2(outcome.Score * in.PointsPossible),
		PointsPossible: in.PointsPossible,
		Feedback:       outcome.Feedback,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
