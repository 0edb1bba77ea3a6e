package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:submissions?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}))
	require.NoError(t, db.Exec("DELETE FROM submissions").Error)
	return db
}

func TestSubmissionRepositoryCreatePersistsRecord(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	code := "print('hi')"
	record := models.Submission{
		UserID:         4,
		QuestionID:     9,
		Code:           &code,
		IsCorrect:      true,
		PointsEarned:   10,
		PointsPossible: 10,
		Category:       "algorithms",
		Topic:          "io",
	}
	require.NoError(t, repo.Create(context.Background(), &record))
	require.NotZero(t, record.ID)

	var stored models.Submission
	require.NoError(t, db.First(&stored, record.ID).Error)
	require.Equal(t, uint(4), stored.UserID)
	require.NotNil(t, stored.Code)
	require.Equal(t, code, *stored.Code)
	require.True(t, stored.IsCorrect)
}

func TestSubmissionRepositoryCountForUserSince(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := []models.Submission{
		{UserID: 4, QuestionID: 1, PointsPossible: 1, CreatedAt: now.Add(-30 * time.Minute)},
		{UserID: 4, QuestionID: 2, PointsPossible: 1, CreatedAt: now.Add(-10 * time.Minute)},
		{UserID: 4, QuestionID: 3, PointsPossible: 1, CreatedAt: now.Add(-26 * time.Hour)},
		{UserID: 5, QuestionID: 1, PointsPossible: 1, CreatedAt: now.Add(-5 * time.Minute)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	count, err := repo.CountForUserSince(context.Background(), 4, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), count, "older rows and other users must not count")
}
