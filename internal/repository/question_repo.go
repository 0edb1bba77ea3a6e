package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/models"
)

// QuestionRepository exposes read access to authored questions. Authoring
// happens in a separate subsystem, so there are no write helpers here.
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Question, error)
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

type questionRepository struct {
	db *gorm.DB
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Options").
		First(&question, id).Error
	if err != nil {
		return models.Question{}, err
	}
	return question, nil
}
