package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeComputesPointsAndCorrectness(t *testing.T) {
	options := []Option{{Text: "Paris", IsCorrect: true}, {Text: "London"}}

	result, err := Grade(Input{
		Type:           TypeMultipleChoice,
		Answer:         Answer{Type: TypeMultipleChoice, Selected: "Paris"},
		Options:        options,
		PointsPossible: 2.5,
	})
	require.NoError(t, err)
	require.True(t, result.IsCorrect)
	require.Equal(t, 1.0, result.Score)
	require.Equal(t, 2.5, result.PointsEarned)
	require.Equal(t, 2.5, result.PointsPossible)
}

func TestGradeRoundsPartialCredit(t *testing.T) {
	options := []Option{
		{Text: "Python", IsCorrect: true},
		{Text: "JavaScript", IsCorrect: true},
		{Text: "Go", IsCorrect: true},
	}

	result, err := Grade(Input{
		Type:           TypeMultiSelect,
		Answer:         Answer{Type: TypeMultiSelect, Selections: []string{"Python"}},
		Options:        options,
		PointsPossible: 1,
	})
	require.NoError(t, err)
	require.False(t, result.IsCorrect)
	require.Equal(t, 0.33, result.PointsEarned)
}

func TestGradeRejectsUnknownType(t *testing.T) {
	_, err := Grade(Input{Type: "essay", Answer: Answer{Type: "essay"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestGradeRejectsMismatchedAnswerTag(t *testing.T) {
	_, err := Grade(Input{
		Type:   TypeMultipleChoice,
		Answer: Answer{Type: TypeOrdering, Order: []string{"a"}},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation))
}

func TestGradeNeverEarnsMoreThanPossible(t *testing.T) {
	options := []Option{{Text: "Paris", IsCorrect: true}}

	result, err := Grade(Input{
		Type:           TypeShortAnswer,
		Answer:         Answer{Type: TypeShortAnswer, Entered: "Pariss"},
		Options:        options,
		PointsPossible: 10,
	})
	require.NoError(t, err)
	require.LessOrEqual(t, result.PointsEarned, result.PointsPossible)
	require.GreaterOrEqual(t, result.PointsEarned, 0.0)
}
