package models

import "time"

// Question type tags stored on each authored question.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeMultiSelect    = "multi_select"
	QuestionTypeOrdering       = "ordering"
	QuestionTypePlacement      = "placement"
	QuestionTypeCode           = "code"
)

// Question represents an authored assessment question. Authoring and
// publishing live in a separate subsystem; the grading engine only reads.
type Question struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Prompt         string         `gorm:"type:text" json:"prompt"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Category       string         `gorm:"size:64" json:"category"`
	Topic          string         `gorm:"size:64" json:"topic"`
	PointsPossible float64        `gorm:"not null;default:1" json:"points_possible"`
	Options        []AnswerOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsCodeQuestion reports whether submissions run through the code judge.
func (q Question) IsCodeQuestion() bool {
	return q.Type == QuestionTypeCode
}

// AnswerOption is one candidate answer belonging to a question. Rank is only
// meaningful for ordering questions (1-based), Placement only for placement
// questions (a zone label).
type AnswerOption struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	Rank       *int      `json:"rank,omitempty"`
	Placement  *string   `gorm:"size:128" json:"placement,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
