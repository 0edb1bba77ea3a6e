package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is the append-only record of one accepted grading attempt. It is
// written exactly once and never updated; history views and the daily quota
// audit read from it.
type Submission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index:idx_submissions_user_created" json:"user_id"`
	QuestionID     uint           `gorm:"not null;index" json:"question_id"`
	Code           *string        `gorm:"type:text" json:"code,omitempty"`
	Answer         datatypes.JSON `json:"answer,omitempty"`
	IsCorrect      bool           `gorm:"not null" json:"is_correct"`
	PointsEarned   float64        `gorm:"not null" json:"points_earned"`
	PointsPossible float64        `gorm:"not null" json:"points_possible"`
	Category       string         `gorm:"size:64" json:"category"`
	Topic          string         `gorm:"size:64" json:"topic"`
	CreatedAt      time.Time      `gorm:"index:idx_submissions_user_created" json:"created_at"`
}
