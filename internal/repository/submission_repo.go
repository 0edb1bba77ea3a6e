package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/models"
)

// SubmissionRepository persists grading outcomes. Submissions are append-only:
// once created they are never updated or deleted.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	CountForUserSince(ctx context.Context, userID uint, since time.Time) (int64, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) CountForUserSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
