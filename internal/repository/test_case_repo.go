package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/models"
)

// TestCaseRepository exposes read access to a code question's test cases.
type TestCaseRepository interface {
	ListByQuestion(ctx context.Context, questionID uint) ([]models.TestCase, error)
}

// NewTestCaseRepository constructs a test case repository.
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

type testCaseRepository struct {
	db *gorm.DB
}

func (r *testCaseRepository) ListByQuestion(ctx context.Context, questionID uint) ([]models.TestCase, error) {
	var cases []models.TestCase
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}
	return cases, nil
}
